package repository

import (
	"time"

	"gorm.io/gorm"
)

// DateRange is an inclusive calendar-date filter. Both bounds are optional and are
// interpreted in UTC.
type DateRange struct {
	From *time.Time
	To   *time.Time
}

// Empty reports whether neither bound is set.
func (r DateRange) Empty() bool {
	return r.From == nil && r.To == nil
}

func (r DateRange) apply(query *gorm.DB, column string) *gorm.DB {
	if r.Empty() {
		return query
	}
	if r.From != nil {
		query = query.Where(column+" >= ?", startOfDay(*r.From))
	}
	if r.To != nil {
		query = query.Where(column+" < ?", startOfDay(*r.To).AddDate(0, 0, 1))
	}
	return query
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func paginate(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page <= 0 {
		page = 1
	}
	return query.Offset((page - 1) * pageSize).Limit(pageSize)
}

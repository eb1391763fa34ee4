package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// SessionScope selects the sessions an aggregation runs over.
type SessionScope struct {
	Range      DateRange
	CategoryID *uint
}

// LabelCount is one bar of a grouped count.
type LabelCount struct {
	Label string
	Count int64 `gorm:"column:total"`
}

// TeacherLoadRow holds the per-account counts behind the dashboard performance table.
type TeacherLoadRow struct {
	TeacherID uint
	Username  string
	Assigned  int64
	Delivered int64
}

// StudentSessionRow pairs a session with the student's own attendance mark, if any.
type StudentSessionRow struct {
	SessionID        uint
	Status           models.SessionStatus
	AttendanceStatus *models.AttendanceStatus
}

// TeacherSessionRow describes one session a teacher is attached to or validated.
type TeacherSessionRow struct {
	SessionID           uint
	Status              models.SessionStatus
	CategoryKind        models.CategoryKind
	Attached            bool
	ValidatingTeacherID *uint
	Present             bool
}

// KPIRepository runs the grouped read queries behind dashboards and detail views.
type KPIRepository interface {
	StatusCounts(ctx context.Context, scope SessionScope) (map[models.SessionStatus]int64, error)
	SessionsByCategory(ctx context.Context, scope SessionScope) ([]LabelCount, error)
	SessionTimes(ctx context.Context, scope SessionScope, status models.SessionStatus) ([]time.Time, error)
	TeacherLoad(ctx context.Context, scope SessionScope) ([]TeacherLoadRow, error)
	CountActiveStudents(ctx context.Context, categoryID uint, since time.Time) (int64, error)
	CountAssociatedTeachers(ctx context.Context, categoryID uint) (int64, error)
	StudentSessions(ctx context.Context, studentID uint) ([]StudentSessionRow, error)
	TeacherSessions(ctx context.Context, teacherID uint, dateRange DateRange) ([]TeacherSessionRow, error)
}

type kpiRepository struct {
	db *gorm.DB
}

// NewKPIRepository constructs the aggregation repository.
func NewKPIRepository(db *gorm.DB) KPIRepository {
	return &kpiRepository{db: db}
}

func (r *kpiRepository) scoped(ctx context.Context, scope SessionScope) *gorm.DB {
	query := r.db.WithContext(ctx).Table("class_sessions")
	if scope.CategoryID != nil {
		query = query.Where("class_sessions.category_id = ?", *scope.CategoryID)
	}
	return scope.Range.apply(query, "class_sessions.scheduled_at")
}

func (r *kpiRepository) StatusCounts(ctx context.Context, scope SessionScope) (map[models.SessionStatus]int64, error) {
	var rows []struct {
		Status models.SessionStatus
		Total  int64
	}
	err := r.scoped(ctx, scope).
		Select("class_sessions.status AS status, COUNT(*) AS total").
		Group("class_sessions.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[models.SessionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *kpiRepository) SessionsByCategory(ctx context.Context, scope SessionScope) ([]LabelCount, error) {
	var rows []LabelCount
	err := r.scoped(ctx, scope).
		Select("categories.name AS label, COUNT(class_sessions.id) AS total").
		Joins("JOIN categories ON categories.id = class_sessions.category_id").
		Group("categories.name").
		Order("total DESC").
		Order("categories.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SessionTimes returns scheduled times of the scoped sessions, optionally restricted to one
// status. Month bucketing happens in Go so the query stays portable.
func (r *kpiRepository) SessionTimes(ctx context.Context, scope SessionScope, status models.SessionStatus) ([]time.Time, error) {
	query := r.scoped(ctx, scope)
	if status != "" {
		query = query.Where("class_sessions.status = ?", status)
	}

	var times []time.Time
	if err := query.Order("class_sessions.scheduled_at ASC").Pluck("class_sessions.scheduled_at", &times).Error; err != nil {
		return nil, err
	}
	return times, nil
}

func (r *kpiRepository) TeacherLoad(ctx context.Context, scope SessionScope) ([]TeacherLoadRow, error) {
	var assigned []TeacherLoadRow
	err := r.scoped(ctx, scope).
		Select("users.id AS teacher_id, users.username AS username, COUNT(DISTINCT class_sessions.id) AS assigned").
		Joins("JOIN session_teachers ON session_teachers.class_session_id = class_sessions.id").
		Joins("JOIN users ON users.id = session_teachers.user_id").
		Where("users.role IN ?", models.TeachingRoles()).
		Group("users.id, users.username").
		Scan(&assigned).Error
	if err != nil {
		return nil, err
	}

	var delivered []struct {
		TeacherID uint
		Delivered int64
	}
	err = r.scoped(ctx, scope).
		Select("lesson_reports.validating_teacher_id AS teacher_id, COUNT(DISTINCT class_sessions.id) AS delivered").
		Joins("JOIN lesson_reports ON lesson_reports.class_session_id = class_sessions.id").
		Where("lesson_reports.validating_teacher_id IS NOT NULL").
		Group("lesson_reports.validating_teacher_id").
		Scan(&delivered).Error
	if err != nil {
		return nil, err
	}

	deliveredBy := make(map[uint]int64, len(delivered))
	for _, row := range delivered {
		deliveredBy[row.TeacherID] = row.Delivered
	}
	for i := range assigned {
		assigned[i].Delivered = deliveredBy[assigned[i].TeacherID]
	}
	return assigned, nil
}

func (r *kpiRepository) CountActiveStudents(ctx context.Context, categoryID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("session_students").
		Joins("JOIN class_sessions ON class_sessions.id = session_students.class_session_id").
		Where("class_sessions.category_id = ?", categoryID).
		Where("class_sessions.scheduled_at >= ?", since.UTC()).
		Distinct("session_students.student_id").
		Count(&count).Error
	return count, err
}

func (r *kpiRepository) CountAssociatedTeachers(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("session_teachers").
		Joins("JOIN class_sessions ON class_sessions.id = session_teachers.class_session_id").
		Where("class_sessions.category_id = ?", categoryID).
		Distinct("session_teachers.user_id").
		Count(&count).Error
	return count, err
}

func (r *kpiRepository) StudentSessions(ctx context.Context, studentID uint) ([]StudentSessionRow, error) {
	var rows []StudentSessionRow
	err := r.db.WithContext(ctx).
		Table("class_sessions").
		Select("class_sessions.id AS session_id, class_sessions.status AS status, student_attendances.status AS attendance_status").
		Joins("JOIN session_students ON session_students.class_session_id = class_sessions.id AND session_students.student_id = ?", studentID).
		Joins("LEFT JOIN student_attendances ON student_attendances.class_session_id = class_sessions.id AND student_attendances.student_id = ?", studentID).
		Order("class_sessions.scheduled_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// TeacherSessions returns the union of sessions the teacher is attached to or validated,
// restricted to the date range, with the flags the teacher KPIs are computed from.
func (r *kpiRepository) TeacherSessions(ctx context.Context, teacherID uint, dateRange DateRange) ([]TeacherSessionRow, error) {
	attached := r.db.Table("session_teachers").Select("class_session_id").Where("user_id = ?", teacherID)

	query := r.db.WithContext(ctx).
		Table("class_sessions").
		Select(`class_sessions.id AS session_id,
			class_sessions.status AS status,
			categories.kind AS category_kind,
			EXISTS (SELECT 1 FROM session_teachers st WHERE st.class_session_id = class_sessions.id AND st.user_id = ?) AS attached,
			lesson_reports.validating_teacher_id AS validating_teacher_id,
			EXISTS (SELECT 1 FROM teacher_attendances ta WHERE ta.class_session_id = class_sessions.id AND ta.teacher_id = ? AND ta.status = ?) AS present`,
			teacherID, teacherID, models.AttendancePresent).
		Joins("JOIN categories ON categories.id = class_sessions.category_id").
		Joins("LEFT JOIN lesson_reports ON lesson_reports.class_session_id = class_sessions.id").
		Where("(class_sessions.id IN (?) OR lesson_reports.validating_teacher_id = ?)", attached, teacherID)
	query = dateRange.apply(query, "class_sessions.scheduled_at")

	var rows []TeacherSessionRow
	if err := query.Order("class_sessions.scheduled_at ASC").Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

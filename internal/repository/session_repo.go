package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// SessionFilter narrows session listings. Every field is optional and filters combine.
type SessionFilter struct {
	Status     models.SessionStatus
	CategoryID *uint
	TeacherID  *uint
	StudentID  *uint
	Range      DateRange
	Page       int
	PageSize   int
}

// SessionRepository persists class sessions and their participant sets.
type SessionRepository interface {
	Create(ctx context.Context, session *models.ClassSession) error
	GetByID(ctx context.Context, id uint) (models.ClassSession, error)
	List(ctx context.Context, filter SessionFilter) ([]models.ClassSession, int64, error)
	ListAvailableForSubstitution(ctx context.Context, userID uint, now time.Time, filter SessionFilter) ([]models.ClassSession, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}, students *[]models.Student, teachers *[]models.User) (models.ClassSession, error)
	Delete(ctx context.Context, id uint) error
}

type sessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository constructs the session repository.
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) withDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Category").
		Preload("Students").
		Preload("Teachers").
		Preload("Report").
		Preload("Report.ValidatingTeacher")
}

func (r *sessionRepository) Create(ctx context.Context, session *models.ClassSession) error {
	return r.db.WithContext(ctx).Omit("Category", "Students.*", "Teachers.*", "Report").Create(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id uint) (models.ClassSession, error) {
	var session models.ClassSession
	if err := r.withDetails(r.db.WithContext(ctx)).First(&session, id).Error; err != nil {
		return models.ClassSession{}, err
	}
	return session, nil
}

func (r *sessionRepository) applyFilter(query *gorm.DB, filter SessionFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.TeacherID != nil {
		query = query.Where("id IN (?)", r.db.Table("session_teachers").Select("class_session_id").Where("user_id = ?", *filter.TeacherID))
	}
	if filter.StudentID != nil {
		query = query.Where("id IN (?)", r.db.Table("session_students").Select("class_session_id").Where("student_id = ?", *filter.StudentID))
	}
	return filter.Range.apply(query, "scheduled_at")
}

func (r *sessionRepository) List(ctx context.Context, filter SessionFilter) ([]models.ClassSession, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClassSession{}), filter)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sessions []models.ClassSession
	query = paginate(query.Order("scheduled_at DESC").Order("id DESC"), filter.Page, filter.PageSize)
	if err := r.withDetails(query).Find(&sessions).Error; err != nil {
		return nil, 0, err
	}
	return sessions, total, nil
}

// ListAvailableForSubstitution returns upcoming scheduled sessions the user does not
// teach, narrowed further by filter. Pagination fields of filter are ignored.
func (r *sessionRepository) ListAvailableForSubstitution(ctx context.Context, userID uint, now time.Time, filter SessionFilter) ([]models.ClassSession, error) {
	query := r.db.WithContext(ctx).
		Where("status = ?", models.SessionScheduled).
		Where("scheduled_at >= ?", now.UTC()).
		Where("id NOT IN (?)", r.db.Table("session_teachers").Select("class_session_id").Where("user_id = ?", userID))
	query = r.applyFilter(query, filter).Order("scheduled_at ASC")

	var sessions []models.ClassSession
	if err := r.withDetails(query).Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// Update applies column updates and, when non-nil, replaces the participant sets, all in
// one transaction. Attendance marks of participants dropped from a set are deleted with
// the membership.
func (r *sessionRepository) Update(ctx context.Context, id uint, updates map[string]interface{}, students *[]models.Student, teachers *[]models.User) (models.ClassSession, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.ClassSession
		if err := tx.First(&session, id).Error; err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&session).Updates(updates).Error; err != nil {
				return err
			}
		}

		if students != nil {
			if err := replaceAssociation(tx.Model(&session).Association("Students"), *students); err != nil {
				return err
			}
			kept := make([]uint, 0, len(*students))
			for _, student := range *students {
				kept = append(kept, student.ID)
			}
			if err := pruneMarks(tx, &models.StudentAttendance{}, id, "student_id", kept); err != nil {
				return err
			}
		}
		if teachers != nil {
			if err := replaceAssociation(tx.Model(&session).Association("Teachers"), *teachers); err != nil {
				return err
			}
			kept := make([]uint, 0, len(*teachers))
			for _, teacher := range *teachers {
				kept = append(kept, teacher.ID)
			}
			if err := pruneMarks(tx, &models.TeacherAttendance{}, id, "teacher_id", kept); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.ClassSession{}, err
	}
	return r.GetByID(ctx, id)
}

// pruneMarks deletes the session's attendance rows whose participant is not in kept.
func pruneMarks(tx *gorm.DB, model interface{}, sessionID uint, column string, kept []uint) error {
	query := tx.Where("class_session_id = ?", sessionID)
	if len(kept) > 0 {
		query = query.Where(column+" NOT IN ?", kept)
	}
	return query.Delete(model).Error
}

func replaceAssociation[T any](association *gorm.Association, values []T) error {
	if len(values) == 0 {
		return association.Clear()
	}
	return association.Replace(values)
}

// Delete removes the session with its attendance, report, report items and memberships.
func (r *sessionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reportIDs []uint
		if err := tx.Model(&models.LessonReport{}).Where("class_session_id = ?", id).Pluck("id", &reportIDs).Error; err != nil {
			return err
		}
		if err := deleteReportRows(tx, reportIDs); err != nil {
			return err
		}

		if err := tx.Where("class_session_id = ?", id).Delete(&models.StudentAttendance{}).Error; err != nil {
			return err
		}
		if err := tx.Where("class_session_id = ?", id).Delete(&models.TeacherAttendance{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM session_students WHERE class_session_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM session_teachers WHERE class_session_id = ?", id).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.ClassSession{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

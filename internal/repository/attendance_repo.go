package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// StatusTransition derives the next session status from the current one and whether any
// present attendance row exists after the batch was applied.
type StatusTransition func(current models.SessionStatus, hasPresent bool) models.SessionStatus

// StatusChange is the before/after status of a session touched by attendance marking.
type StatusChange struct {
	From models.SessionStatus
	To   models.SessionStatus
}

// Changed reports whether the marking moved the session to a new status.
func (c StatusChange) Changed() bool {
	return c.From != c.To
}

// AttendanceRepository applies attendance batches.
type AttendanceRepository interface {
	RecordStudentMarks(ctx context.Context, sessionID uint, marks []models.StudentAttendance, next StatusTransition) (StatusChange, error)
	RecordTeacherMarks(ctx context.Context, sessionID uint, marks []models.TeacherAttendance, next StatusTransition) (StatusChange, error)
	ListStudentAttendance(ctx context.Context, sessionID uint) ([]models.StudentAttendance, error)
	ListTeacherAttendance(ctx context.Context, sessionID uint) ([]models.TeacherAttendance, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository constructs the attendance repository.
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) RecordStudentMarks(ctx context.Context, sessionID uint, marks []models.StudentAttendance, next StatusTransition) (StatusChange, error) {
	now := time.Now().UTC()
	for i := range marks {
		marks[i].ClassSessionID = sessionID
		marks[i].CreatedAt = now
		marks[i].UpdatedAt = now
	}
	return r.record(ctx, sessionID, &models.StudentAttendance{}, &marks, "student_id", next)
}

func (r *attendanceRepository) RecordTeacherMarks(ctx context.Context, sessionID uint, marks []models.TeacherAttendance, next StatusTransition) (StatusChange, error) {
	now := time.Now().UTC()
	for i := range marks {
		marks[i].ClassSessionID = sessionID
		marks[i].CreatedAt = now
		marks[i].UpdatedAt = now
	}
	return r.record(ctx, sessionID, &models.TeacherAttendance{}, &marks, "teacher_id", next)
}

// record upserts the whole batch keyed by (session, member), then derives and stores the
// session status, in a single transaction.
func (r *attendanceRepository) record(ctx context.Context, sessionID uint, model interface{}, rows interface{}, memberColumn string, next StatusTransition) (StatusChange, error) {
	var change StatusChange
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var session models.ClassSession
		if err := tx.Select("id", "status").First(&session, sessionID).Error; err != nil {
			return err
		}

		upsert := clause.OnConflict{
			Columns:   []clause.Column{{Name: "class_session_id"}, {Name: memberColumn}},
			DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
		}
		if err := tx.Omit(clause.Associations).Clauses(upsert).Create(rows).Error; err != nil {
			return err
		}

		var present int64
		if err := tx.Model(model).
			Where("class_session_id = ? AND status = ?", sessionID, models.AttendancePresent).
			Count(&present).Error; err != nil {
			return err
		}

		change = StatusChange{From: session.Status, To: next(session.Status, present > 0)}
		if !change.Changed() {
			return nil
		}
		return tx.Model(&models.ClassSession{}).Where("id = ?", sessionID).Updates(map[string]interface{}{
			"status":     change.To,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return StatusChange{}, err
	}
	return change, nil
}

func (r *attendanceRepository) ListStudentAttendance(ctx context.Context, sessionID uint) ([]models.StudentAttendance, error) {
	var rows []models.StudentAttendance
	err := r.db.WithContext(ctx).Where("class_session_id = ?", sessionID).Order("student_id ASC").Find(&rows).Error
	return rows, err
}

func (r *attendanceRepository) ListTeacherAttendance(ctx context.Context, sessionID uint) ([]models.TeacherAttendance, error) {
	var rows []models.TeacherAttendance
	err := r.db.WithContext(ctx).Where("class_session_id = ?", sessionID).Order("teacher_id ASC").Find(&rows).Error
	return rows, err
}

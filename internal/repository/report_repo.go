package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// ReportFilter narrows report listings.
type ReportFilter struct {
	SessionID           *uint
	ValidatingTeacherID *uint
	Page                int
	PageSize            int
}

// ReportItems carries replacement item collections. A nil slice pointer leaves that
// collection untouched.
type ReportItems struct {
	Rudiments *[]models.RudimentItem
	Rhythms   *[]models.RhythmItem
	Fills     *[]models.FillItem
}

// ReportRepository persists lesson reports and their exercise items.
type ReportRepository interface {
	Create(ctx context.Context, report *models.LessonReport) error
	GetByID(ctx context.Context, id uint) (models.LessonReport, error)
	ExistsForSession(ctx context.Context, sessionID uint) (bool, error)
	List(ctx context.Context, filter ReportFilter) ([]models.LessonReport, int64, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}, items ReportItems) (models.LessonReport, error)
	Delete(ctx context.Context, id uint) error
	ListStudentSummarySessions(ctx context.Context, studentID uint) ([]models.ClassSession, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository constructs the report repository.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func withItems(query *gorm.DB) *gorm.DB {
	return query.
		Preload("ValidatingTeacher").
		Preload("Rudiments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Rhythms", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Fills", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

// Create inserts the report and every item collection in one transaction.
func (r *reportRepository) Create(ctx context.Context, report *models.LessonReport) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rudiments, rhythms, fills := report.Rudiments, report.Rhythms, report.Fills
		if err := tx.Omit(clause.Associations).Create(report).Error; err != nil {
			return err
		}

		if err := createItems(tx, report.ID, &rudiments, &rhythms, &fills); err != nil {
			return err
		}
		report.Rudiments, report.Rhythms, report.Fills = rudiments, rhythms, fills
		return nil
	})
}

func createItems(tx *gorm.DB, reportID uint, rudiments *[]models.RudimentItem, rhythms *[]models.RhythmItem, fills *[]models.FillItem) error {
	if rudiments != nil && len(*rudiments) > 0 {
		for i := range *rudiments {
			(*rudiments)[i].ID = 0
			(*rudiments)[i].ReportID = reportID
		}
		if err := tx.Create(rudiments).Error; err != nil {
			return err
		}
	}
	if rhythms != nil && len(*rhythms) > 0 {
		for i := range *rhythms {
			(*rhythms)[i].ID = 0
			(*rhythms)[i].ReportID = reportID
		}
		if err := tx.Create(rhythms).Error; err != nil {
			return err
		}
	}
	if fills != nil && len(*fills) > 0 {
		for i := range *fills {
			(*fills)[i].ID = 0
			(*fills)[i].ReportID = reportID
		}
		if err := tx.Create(fills).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (models.LessonReport, error) {
	var report models.LessonReport
	if err := withItems(r.db.WithContext(ctx)).First(&report, id).Error; err != nil {
		return models.LessonReport{}, err
	}
	return report, nil
}

func (r *reportRepository) ExistsForSession(ctx context.Context, sessionID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.LessonReport{}).Where("class_session_id = ?", sessionID).Count(&count).Error
	return count > 0, err
}

func (r *reportRepository) List(ctx context.Context, filter ReportFilter) ([]models.LessonReport, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LessonReport{})
	if filter.SessionID != nil {
		query = query.Where("class_session_id = ?", *filter.SessionID)
	}
	if filter.ValidatingTeacherID != nil {
		query = query.Where("validating_teacher_id = ?", *filter.ValidatingTeacherID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.LessonReport
	query = paginate(query.Order("created_at DESC").Order("id DESC"), filter.Page, filter.PageSize)
	if err := withItems(query).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// Update rewrites content columns and replaces every supplied item collection in one
// transaction. validating_teacher_id is never written here.
func (r *reportRepository) Update(ctx context.Context, id uint, updates map[string]interface{}, items ReportItems) (models.LessonReport, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var report models.LessonReport
		if err := tx.Select("id").First(&report, id).Error; err != nil {
			return err
		}

		columns := map[string]interface{}{"updated_at": time.Now().UTC()}
		for key, value := range updates {
			if key == "validating_teacher_id" || key == "class_session_id" || key == "created_at" {
				continue
			}
			columns[key] = value
		}
		if err := tx.Model(&models.LessonReport{}).Where("id = ?", id).Updates(columns).Error; err != nil {
			return err
		}

		if items.Rudiments != nil {
			if err := tx.Where("report_id = ?", id).Delete(&models.RudimentItem{}).Error; err != nil {
				return err
			}
		}
		if items.Rhythms != nil {
			if err := tx.Where("report_id = ?", id).Delete(&models.RhythmItem{}).Error; err != nil {
				return err
			}
		}
		if items.Fills != nil {
			if err := tx.Where("report_id = ?", id).Delete(&models.FillItem{}).Error; err != nil {
				return err
			}
		}
		return createItems(tx, id, items.Rudiments, items.Rhythms, items.Fills)
	})
	if err != nil {
		return models.LessonReport{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *reportRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.LessonReport{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return deleteReportRows(tx, []uint{id})
	})
}

func deleteReportRows(tx *gorm.DB, reportIDs []uint) error {
	if len(reportIDs) == 0 {
		return nil
	}
	for _, item := range []interface{}{&models.RudimentItem{}, &models.RhythmItem{}, &models.FillItem{}} {
		if err := tx.Where("report_id IN ?", reportIDs).Delete(item).Error; err != nil {
			return err
		}
	}
	return tx.Where("id IN ?", reportIDs).Delete(&models.LessonReport{}).Error
}

// ListStudentSummarySessions returns delivered sessions with a report where the student was
// marked present, oldest first, with report items preloaded.
func (r *reportRepository) ListStudentSummarySessions(ctx context.Context, studentID uint) ([]models.ClassSession, error) {
	var sessions []models.ClassSession
	err := r.db.WithContext(ctx).
		Model(&models.ClassSession{}).
		Select("class_sessions.*").
		Joins("JOIN session_students ss ON ss.class_session_id = class_sessions.id AND ss.student_id = ?", studentID).
		Joins("JOIN student_attendances sa ON sa.class_session_id = class_sessions.id AND sa.student_id = ? AND sa.status = ?", studentID, models.AttendancePresent).
		Joins("JOIN lesson_reports lr ON lr.class_session_id = class_sessions.id").
		Where("class_sessions.status IN ?", []models.SessionStatus{models.SessionCompleted, models.SessionStudentAbsent}).
		Preload("Category").
		Preload("Report").
		Preload("Report.Rudiments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Report.Rhythms", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Report.Fills", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("class_sessions.scheduled_at ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

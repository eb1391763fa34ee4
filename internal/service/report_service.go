package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

var (
	// ErrReportNotFound indicates the lesson report does not exist.
	ErrReportNotFound = errors.New("report not found")
	// ErrReportExists indicates the session already has a report.
	ErrReportExists = errors.New("session already has a report")
	// ErrReportForbidden indicates the caller cannot validate lessons.
	ErrReportForbidden = errors.New("only teachers and administrators can write reports")
)

// ReportService composes lesson reports with their exercise items.
type ReportService interface {
	Create(ctx context.Context, payload dto.ReportCreateRequest, actor ActivityActor) (dto.ReportResponse, error)
	Get(ctx context.Context, id uint) (dto.ReportResponse, error)
	List(ctx context.Context, req dto.ReportListRequest) (dto.ReportListResponse, error)
	Update(ctx context.Context, id uint, payload dto.ReportUpdateRequest, actor ActivityActor) (dto.ReportResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type reportService struct {
	reports    repository.ReportRepository
	sessions   repository.SessionRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	dashboards DashboardInvalidator
	logger     zerolog.Logger
}

// NewReportService constructs the report composer.
func NewReportService(
	reports repository.ReportRepository,
	sessions repository.SessionRepository,
	validator *validator.Validate,
	activity ActivityRecorder,
	dashboards DashboardInvalidator,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		reports:    reports,
		sessions:   sessions,
		validator:  validator,
		activity:   activity,
		dashboards: dashboards,
		logger:     logger.With().Str("component", "report_service").Logger(),
	}
}

// Create stores the report and all its items atomically. The validating teacher is always
// the caller.
func (s *reportService) Create(ctx context.Context, payload dto.ReportCreateRequest, actor ActivityActor) (dto.ReportResponse, error) {
	if !actor.Role.CanTeach() {
		return dto.ReportResponse{}, ErrReportForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportResponse{}, err
	}

	if _, err := s.sessions.GetByID(ctx, payload.SessionID); err != nil {
		return dto.ReportResponse{}, mapSessionError(err)
	}

	exists, err := s.reports.ExistsForSession(ctx, payload.SessionID)
	if err != nil {
		return dto.ReportResponse{}, err
	}
	if exists {
		return dto.ReportResponse{}, ErrReportExists
	}

	validatingTeacherID := actor.ID
	report := models.LessonReport{
		ClassSessionID:      payload.SessionID,
		TheoryContent:       payload.TheoryContent,
		Repertoire:          payload.Repertoire,
		GeneralNotes:        payload.GeneralNotes,
		ValidatingTeacherID: &validatingTeacherID,
		Rudiments:           rudimentItems(payload.Rudiments),
		Rhythms:             rhythmItems(payload.Rhythms),
		Fills:               fillItems(payload.Fills),
	}

	if err := s.reports.Create(ctx, &report); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.ReportResponse{}, ErrReportExists
		}
		return dto.ReportResponse{}, err
	}

	invalidateDashboards(ctx, s.dashboards)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "report.created",
		EntityType: "report",
		EntityID:   &report.ID,
		Metadata: map[string]interface{}{
			"session_id": report.ClassSessionID,
			"items":      report.ItemCount(),
		},
	})

	return s.Get(ctx, report.ID)
}

func (s *reportService) Get(ctx context.Context, id uint) (dto.ReportResponse, error) {
	report, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return dto.ReportResponse{}, mapReportError(err)
	}
	return dto.NewReportResponse(report), nil
}

func (s *reportService) List(ctx context.Context, req dto.ReportListRequest) (dto.ReportListResponse, error) {
	filter := repository.ReportFilter{Page: req.Page, PageSize: req.PageSize}
	if req.SessionID > 0 {
		filter.SessionID = &req.SessionID
	}
	if req.ValidatingTeacherID > 0 {
		filter.ValidatingTeacherID = &req.ValidatingTeacherID
	}

	reports, total, err := s.reports.List(ctx, filter)
	if err != nil {
		return dto.ReportListResponse{}, err
	}

	items := make([]dto.ReportResponse, 0, len(reports))
	for _, report := range reports {
		items = append(items, dto.NewReportResponse(report))
	}
	return dto.ReportListResponse{Items: items, Pagination: paginationMeta(req.Page, req.PageSize, total)}, nil
}

// Update replaces content and any supplied item collections. The validating teacher is
// never changed.
func (s *reportService) Update(ctx context.Context, id uint, payload dto.ReportUpdateRequest, actor ActivityActor) (dto.ReportResponse, error) {
	if !actor.Role.CanTeach() {
		return dto.ReportResponse{}, ErrReportForbidden
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReportResponse{}, err
	}

	updates := make(map[string]interface{})
	if payload.TheoryContent != nil {
		updates["theory_content"] = *payload.TheoryContent
	}
	if payload.Repertoire != nil {
		updates["repertoire"] = *payload.Repertoire
	}
	if payload.GeneralNotes != nil {
		updates["general_notes"] = *payload.GeneralNotes
	}

	var items repository.ReportItems
	if payload.Rudiments != nil {
		converted := rudimentItems(*payload.Rudiments)
		items.Rudiments = &converted
	}
	if payload.Rhythms != nil {
		converted := rhythmItems(*payload.Rhythms)
		items.Rhythms = &converted
	}
	if payload.Fills != nil {
		converted := fillItems(*payload.Fills)
		items.Fills = &converted
	}

	report, err := s.reports.Update(ctx, id, updates, items)
	if err != nil {
		return dto.ReportResponse{}, mapReportError(err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "report.updated",
		EntityType: "report",
		EntityID:   &id,
		Metadata:   map[string]interface{}{"session_id": report.ClassSessionID, "items": report.ItemCount()},
	})

	return dto.NewReportResponse(report), nil
}

func (s *reportService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if !actor.Role.CanTeach() {
		return ErrReportForbidden
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return mapReportError(err)
	}

	invalidateDashboards(ctx, s.dashboards)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "report.deleted",
		EntityType: "report",
		EntityID:   &id,
	})
	return nil
}

func rudimentItems(requests []dto.ExerciseItemRequest) []models.RudimentItem {
	items := make([]models.RudimentItem, 0, len(requests))
	for _, request := range requests {
		items = append(items, models.RudimentItem{ExerciseFields: request.ToExerciseFields()})
	}
	return items
}

func rhythmItems(requests []dto.RhythmItemRequest) []models.RhythmItem {
	items := make([]models.RhythmItem, 0, len(requests))
	for _, request := range requests {
		items = append(items, models.RhythmItem{
			MethodReference: request.MethodReference,
			ExerciseFields:  request.ToExerciseFields(),
		})
	}
	return items
}

func fillItems(requests []dto.ExerciseItemRequest) []models.FillItem {
	items := make([]models.FillItem, 0, len(requests))
	for _, request := range requests {
		items = append(items, models.FillItem{ExerciseFields: request.ToExerciseFields()})
	}
	return items
}

func mapReportError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrReportNotFound
	}
	return err
}

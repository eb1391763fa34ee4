package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

// ErrSessionNotFound indicates the class session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// SessionService schedules and maintains class sessions.
type SessionService interface {
	Create(ctx context.Context, payload dto.SessionCreateRequest, actor ActivityActor) (dto.SessionResponse, error)
	Get(ctx context.Context, id uint) (dto.SessionResponse, error)
	List(ctx context.Context, req dto.SessionListRequest) (dto.SessionListResponse, error)
	Update(ctx context.Context, id uint, payload dto.SessionUpdateRequest, actor ActivityActor) (dto.SessionResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
	AvailableForSubstitution(ctx context.Context, req dto.SessionListRequest, actor ActivityActor) ([]dto.SessionResponse, error)
}

type sessionService struct {
	sessions   repository.SessionRepository
	categories repository.CategoryRepository
	students   repository.StudentRepository
	users      repository.UserRepository
	validator  *validator.Validate
	activity   ActivityRecorder
	dashboards DashboardInvalidator
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSessionService constructs the session service.
func NewSessionService(
	sessions repository.SessionRepository,
	categories repository.CategoryRepository,
	students repository.StudentRepository,
	users repository.UserRepository,
	validator *validator.Validate,
	activity ActivityRecorder,
	dashboards DashboardInvalidator,
	logger zerolog.Logger,
) SessionService {
	return &sessionService{
		sessions:   sessions,
		categories: categories,
		students:   students,
		users:      users,
		validator:  validator,
		activity:   activity,
		dashboards: dashboards,
		logger:     logger.With().Str("component", "session_service").Logger(),
		now:        time.Now,
	}
}

func (s *sessionService) Create(ctx context.Context, payload dto.SessionCreateRequest, actor ActivityActor) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	if err := s.ensureCategory(ctx, payload.CategoryID); err != nil {
		return dto.SessionResponse{}, err
	}
	students, err := s.resolveStudents(ctx, payload.StudentIDs)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	teachers, err := s.resolveTeachers(ctx, payload.TeacherIDs)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	status := models.SessionScheduled
	if payload.Status != "" {
		status = models.SessionStatus(payload.Status)
	}

	session := models.ClassSession{
		ScheduledAt: payload.ScheduledAt.UTC(),
		Status:      status,
		CategoryID:  payload.CategoryID,
		Students:    students,
		Teachers:    teachers,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return dto.SessionResponse{}, err
	}

	invalidateDashboards(ctx, s.dashboards)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "session.created",
		EntityType: "session",
		EntityID:   &session.ID,
		Metadata: map[string]interface{}{
			"category_id": session.CategoryID,
			"students":    len(students),
			"teachers":    len(teachers),
		},
	})

	return s.Get(ctx, session.ID)
}

func (s *sessionService) Get(ctx context.Context, id uint) (dto.SessionResponse, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return dto.SessionResponse{}, mapSessionError(err)
	}
	return dto.NewSessionResponse(session), nil
}

func (s *sessionService) List(ctx context.Context, req dto.SessionListRequest) (dto.SessionListResponse, error) {
	filter, err := buildSessionFilter(s.validator, req)
	if err != nil {
		return dto.SessionListResponse{}, err
	}

	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return dto.SessionListResponse{}, err
	}

	items := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, dto.NewSessionResponse(session))
	}
	return dto.SessionListResponse{Items: items, Pagination: paginationMeta(req.Page, req.PageSize, total)}, nil
}

func buildSessionFilter(validate *validator.Validate, req dto.SessionListRequest) (repository.SessionFilter, error) {
	if err := validate.Struct(req); err != nil {
		return repository.SessionFilter{}, err
	}

	dateRange, err := parseDateRange(req.DateRange)
	if err != nil {
		return repository.SessionFilter{}, err
	}

	filter := repository.SessionFilter{
		Status:   models.SessionStatus(req.Status),
		Range:    dateRange,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.CategoryID > 0 {
		filter.CategoryID = &req.CategoryID
	}
	if req.TeacherID > 0 {
		filter.TeacherID = &req.TeacherID
	}
	if req.StudentID > 0 {
		filter.StudentID = &req.StudentID
	}
	return filter, nil
}

func (s *sessionService) Update(ctx context.Context, id uint, payload dto.SessionUpdateRequest, actor ActivityActor) (dto.SessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SessionResponse{}, err
	}

	current, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return dto.SessionResponse{}, mapSessionError(err)
	}

	updates := make(map[string]interface{})
	if payload.ScheduledAt != nil {
		updates["scheduled_at"] = payload.ScheduledAt.UTC()
	}
	if payload.Status != nil {
		updates["status"] = models.SessionStatus(*payload.Status)
	}
	if payload.CategoryID != nil {
		if err := s.ensureCategory(ctx, *payload.CategoryID); err != nil {
			return dto.SessionResponse{}, err
		}
		updates["category_id"] = *payload.CategoryID
	}

	var students *[]models.Student
	if payload.StudentIDs != nil {
		resolved, err := s.resolveStudents(ctx, *payload.StudentIDs)
		if err != nil {
			return dto.SessionResponse{}, err
		}
		students = &resolved
	}
	var teachers *[]models.User
	if payload.TeacherIDs != nil {
		resolved, err := s.resolveTeachers(ctx, *payload.TeacherIDs)
		if err != nil {
			return dto.SessionResponse{}, err
		}
		teachers = &resolved
	}

	updated, err := s.sessions.Update(ctx, id, updates, students, teachers)
	if err != nil {
		return dto.SessionResponse{}, mapSessionError(err)
	}

	invalidateDashboards(ctx, s.dashboards)
	if updated.Status != current.Status {
		recordActivity(ctx, s.activity, s.logger, ActivityEntry{
			Actor:      actor,
			Action:     "session.status_edited",
			EntityType: "session",
			EntityID:   &id,
			Metadata:   map[string]interface{}{"from": current.Status, "to": updated.Status},
		})
	}

	return dto.NewSessionResponse(updated), nil
}

func (s *sessionService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.sessions.Delete(ctx, id); err != nil {
		return mapSessionError(err)
	}

	invalidateDashboards(ctx, s.dashboards)
	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "session.deleted",
		EntityType: "session",
		EntityID:   &id,
	})
	return nil
}

func (s *sessionService) AvailableForSubstitution(ctx context.Context, req dto.SessionListRequest, actor ActivityActor) ([]dto.SessionResponse, error) {
	filter, err := buildSessionFilter(s.validator, req)
	if err != nil {
		return nil, err
	}

	sessions, err := s.sessions.ListAvailableForSubstitution(ctx, actor.ID, s.now(), filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		items = append(items, dto.NewSessionResponse(session))
	}
	return items, nil
}

func (s *sessionService) ensureCategory(ctx context.Context, id uint) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newValidationError("category_id", fmt.Sprintf("category %d does not exist", id))
		}
		return err
	}
	return nil
}

func (s *sessionService) resolveStudents(ctx context.Context, ids []uint) ([]models.Student, error) {
	ids = uniqueIDs(ids)
	students, err := s.students.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[uint]struct{}, len(students))
	for _, student := range students {
		found[student.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, newValidationError("student_ids", fmt.Sprintf("student %d does not exist", id))
		}
	}
	return students, nil
}

// resolveTeachers loads the accounts and rejects ids that do not exist or lack the teaching
// capability.
func (s *sessionService) resolveTeachers(ctx context.Context, ids []uint) ([]models.User, error) {
	ids = uniqueIDs(ids)
	teachers, err := s.users.FindTeachersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	found := make(map[uint]struct{}, len(teachers))
	for _, teacher := range teachers {
		if teacher.Role.CanTeach() {
			found[teacher.ID] = struct{}{}
		}
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return nil, newValidationError("teacher_ids", fmt.Sprintf("account %d is not a teacher", id))
		}
	}
	return teachers, nil
}

func mapSessionError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	return err
}

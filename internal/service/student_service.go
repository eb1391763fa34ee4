package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

var (
	// ErrStudentNotFound indicates the student does not exist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrStudentEmailTaken indicates another student already uses the email.
	ErrStudentEmailTaken = errors.New("student email already exists")
)

// StudentService manages enrolled students.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint, actor ActivityActor) error
}

type studentService struct {
	repo      repository.StudentRepository
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service.
func NewStudentService(repo repository.StudentRepository, validator *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		validator: validator,
		activity:  activity,
		logger:    logger.With().Str("component", "student_service").Logger(),
		now:       time.Now,
	}
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	enrolledOn := s.now().UTC()
	if payload.EnrolledOn != "" {
		parsed, err := time.ParseInLocation(dto.DateLayout, payload.EnrolledOn, time.UTC)
		if err != nil {
			return dto.StudentResponse{}, newValidationError("enrolled_on", "must use the YYYY-MM-DD format")
		}
		enrolledOn = parsed
	}

	student := models.Student{
		FullName:   strings.TrimSpace(payload.FullName),
		Phone:      trimmedOrNil(payload.Phone),
		Email:      trimmedOrNil(payload.Email),
		EnrolledOn: datatypes.Date(enrolledOn),
	}
	if err := s.repo.Create(ctx, &student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.StudentResponse{}, ErrStudentEmailTaken
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	students, total, err := s.repo.List(ctx, repository.StudentFilter{
		Search:   strings.TrimSpace(req.Search),
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	responses := make([]dto.StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewStudentResponse(student))
	}
	return dto.StudentListResponse{Items: responses, Pagination: paginationMeta(req.Page, req.PageSize, total)}, nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	updates := make(map[string]interface{})
	if payload.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*payload.FullName)
	}
	if payload.Phone != nil {
		updates["phone"] = trimmedOrNil(payload.Phone)
	}
	if payload.Email != nil {
		updates["email"] = trimmedOrNil(payload.Email)
	}
	if payload.EnrolledOn != nil {
		parsed, err := time.ParseInLocation(dto.DateLayout, *payload.EnrolledOn, time.UTC)
		if err != nil {
			return dto.StudentResponse{}, newValidationError("enrolled_on", "must use the YYYY-MM-DD format")
		}
		updates["enrolled_on"] = datatypes.Date(parsed)
	}

	if len(updates) == 0 {
		student, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return dto.StudentResponse{}, mapStudentError(err)
		}
		return dto.NewStudentResponse(student), nil
	}

	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return dto.StudentResponse{}, mapStudentError(err)
	}

	student, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.StudentResponse{}, ErrStudentEmailTaken
		}
		return dto.StudentResponse{}, mapStudentError(err)
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id uint, actor ActivityActor) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStudentError(err)
	}

	recordActivity(ctx, s.activity, s.logger, ActivityEntry{
		Actor:      actor,
		Action:     "student.deleted",
		EntityType: "student",
		EntityID:   &id,
	})
	return nil
}

func mapStudentError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrStudentNotFound
	}
	return err
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

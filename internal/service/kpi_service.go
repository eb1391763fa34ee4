package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/observability"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

// ErrTeacherNotFound indicates the account does not exist or cannot teach.
var ErrTeacherNotFound = errors.New("teacher not found")

// KPIService aggregates dashboard and detail statistics.
type KPIService interface {
	AdminDashboard(ctx context.Context, req dto.DateRangeRequest) (dto.AdminDashboardResponse, error)
	StudentDetail(ctx context.Context, studentID uint) (dto.StudentDetailResponse, error)
	CategoryDetail(ctx context.Context, categoryID uint) (dto.CategoryDetailResponse, error)
	TeacherDetail(ctx context.Context, teacherID uint, req dto.DateRangeRequest) (dto.TeacherDetailResponse, error)
}

type kpiService struct {
	repo       repository.KPIRepository
	students   repository.StudentRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	validator  *validator.Validate
	cache      *DashboardCache
	logger     zerolog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// NewKPIService constructs the KPI aggregator. A nil or disabled cache turns dashboard
// caching off.
func NewKPIService(
	repo repository.KPIRepository,
	students repository.StudentRepository,
	categories repository.CategoryRepository,
	users repository.UserRepository,
	validator *validator.Validate,
	cache *DashboardCache,
	logger zerolog.Logger,
) KPIService {
	return &kpiService{
		repo:       repo,
		students:   students,
		categories: categories,
		users:      users,
		validator:  validator,
		cache:      cache,
		logger:     logger.With().Str("component", "kpi_service").Logger(),
		tracer:     otel.Tracer("github.com/noah-isme/drumschool-api/internal/service/kpi"),
		now:        time.Now,
	}
}

func (s *kpiService) AdminDashboard(ctx context.Context, req dto.DateRangeRequest) (dto.AdminDashboardResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AdminDashboardResponse{}, err
	}
	dateRange, err := parseDateRange(req)
	if err != nil {
		return dto.AdminDashboardResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "kpi.admin_dashboard")
	defer span.End()

	var cacheKey string
	if s.cache.Enabled() {
		cacheKey, err = s.cache.Key(ctx, req.From, req.To)
		if err != nil {
			s.logger.Warn().Err(err).Msg("dashboard cache unavailable")
			span.RecordError(err)
		}
	}
	if cacheKey != "" {
		span.SetAttributes(attribute.String("kpi.cache_key", cacheKey))
		if response, ok := s.cachedDashboard(ctx, cacheKey); ok {
			span.SetAttributes(attribute.Bool("kpi.cache_hit", true))
			observability.DashboardCacheLookups().WithLabelValues("hit").Inc()
			return response, nil
		}
		observability.DashboardCacheLookups().WithLabelValues("miss").Inc()
	}

	scope := repository.SessionScope{Range: dateRange}
	counts, err := s.repo.StatusCounts(ctx, scope)
	if err != nil {
		return dto.AdminDashboardResponse{}, spanError(span, "status_counts_failed", err)
	}
	byCategory, err := s.repo.SessionsByCategory(ctx, scope)
	if err != nil {
		return dto.AdminDashboardResponse{}, spanError(span, "sessions_by_category_failed", err)
	}
	completedTimes, err := s.repo.SessionTimes(ctx, scope, models.SessionCompleted)
	if err != nil {
		return dto.AdminDashboardResponse{}, spanError(span, "completed_times_failed", err)
	}
	load, err := s.repo.TeacherLoad(ctx, scope)
	if err != nil {
		return dto.AdminDashboardResponse{}, spanError(span, "teacher_load_failed", err)
	}

	response := dto.AdminDashboardResponse{
		KPIs:               dashboardKPIs(counts),
		SessionsByCategory: categoryChart(byCategory),
		CompletedPerMonth:  monthlyHistogram(completedTimes),
		TeacherPerformance: teacherPerformance(load),
		GeneratedAt:        s.now().UTC(),
	}
	span.SetAttributes(
		attribute.Int64("kpi.total_sessions", response.KPIs.TotalSessions),
		attribute.Int("kpi.teachers", len(response.TeacherPerformance)),
	)

	if cacheKey != "" {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
				span.RecordError(err)
			}
		}
	}

	return response, nil
}

func (s *kpiService) StudentDetail(ctx context.Context, studentID uint) (dto.StudentDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "kpi.student_detail", trace.WithAttributes(attribute.Int64("student.id", int64(studentID))))
	defer span.End()

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return dto.StudentDetailResponse{}, mapStudentError(err)
	}

	rows, err := s.repo.StudentSessions(ctx, studentID)
	if err != nil {
		return dto.StudentDetailResponse{}, spanError(span, "student_sessions_failed", err)
	}

	kpis, rate := studentKPIs(rows)
	return dto.StudentDetailResponse{
		StudentResponse: dto.NewStudentResponse(student),
		KPIs:            kpis,
		AttendanceRate:  rate,
	}, nil
}

func (s *kpiService) CategoryDetail(ctx context.Context, categoryID uint) (dto.CategoryDetailResponse, error) {
	ctx, span := s.tracer.Start(ctx, "kpi.category_detail", trace.WithAttributes(attribute.Int64("category.id", int64(categoryID))))
	defer span.End()

	category, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return dto.CategoryDetailResponse{}, mapCategoryError(err)
	}

	scope := repository.SessionScope{CategoryID: &categoryID}
	counts, err := s.repo.StatusCounts(ctx, scope)
	if err != nil {
		return dto.CategoryDetailResponse{}, spanError(span, "status_counts_failed", err)
	}
	activeStudents, err := s.repo.CountActiveStudents(ctx, categoryID, s.now())
	if err != nil {
		return dto.CategoryDetailResponse{}, spanError(span, "active_students_failed", err)
	}
	teachers, err := s.repo.CountAssociatedTeachers(ctx, categoryID)
	if err != nil {
		return dto.CategoryDetailResponse{}, spanError(span, "associated_teachers_failed", err)
	}
	times, err := s.repo.SessionTimes(ctx, scope, "")
	if err != nil {
		return dto.CategoryDetailResponse{}, spanError(span, "session_times_failed", err)
	}

	totals := dashboardKPIs(counts)
	return dto.CategoryDetailResponse{
		CategoryResponse: dto.NewCategoryResponse(category),
		KPIs: dto.CategoryKPIs{
			TotalSessions:      totals.TotalSessions,
			CompletedSessions:  totals.CompletedSessions,
			ActiveStudents:     activeStudents,
			AssociatedTeachers: teachers,
		},
		SessionsPerMonth: monthlyHistogram(times),
	}, nil
}

func (s *kpiService) TeacherDetail(ctx context.Context, teacherID uint, req dto.DateRangeRequest) (dto.TeacherDetailResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TeacherDetailResponse{}, err
	}
	dateRange, err := parseDateRange(req)
	if err != nil {
		return dto.TeacherDetailResponse{}, err
	}

	ctx, span := s.tracer.Start(ctx, "kpi.teacher_detail", trace.WithAttributes(attribute.Int64("teacher.id", int64(teacherID))))
	defer span.End()

	teacher, err := s.users.GetByID(ctx, teacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TeacherDetailResponse{}, ErrTeacherNotFound
		}
		return dto.TeacherDetailResponse{}, err
	}
	if !teacher.Role.CanTeach() {
		return dto.TeacherDetailResponse{}, ErrTeacherNotFound
	}

	rows, err := s.repo.TeacherSessions(ctx, teacherID, dateRange)
	if err != nil {
		return dto.TeacherDetailResponse{}, spanError(span, "teacher_sessions_failed", err)
	}

	return dto.TeacherDetailResponse{
		UserResponse: dto.NewUserResponse(teacher),
		KPIs:         teacherKPIs(teacherID, rows),
	}, nil
}

func (s *kpiService) cachedDashboard(ctx context.Context, key string) (dto.AdminDashboardResponse, bool) {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to read dashboard cache")
		return dto.AdminDashboardResponse{}, false
	}
	if !ok {
		return dto.AdminDashboardResponse{}, false
	}

	var response dto.AdminDashboardResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return dto.AdminDashboardResponse{}, false
	}
	response.CacheHit = true
	return response, true
}

func spanError(span trace.Span, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)
	return err
}

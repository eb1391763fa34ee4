package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

var (
	// ErrCategoryNotFound indicates the category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrCategoryInUse indicates sessions still reference the category.
	ErrCategoryInUse = errors.New("category is referenced by sessions")
	// ErrCategoryNameTaken indicates another category already uses the name.
	ErrCategoryNameTaken = errors.New("category name already exists")
)

// CategoryService manages session categories.
type CategoryService interface {
	Create(ctx context.Context, payload dto.CategoryCreateRequest) (dto.CategoryResponse, error)
	List(ctx context.Context, search string) ([]dto.CategoryResponse, error)
	Update(ctx context.Context, id uint, payload dto.CategoryUpdateRequest) (dto.CategoryResponse, error)
	Delete(ctx context.Context, id uint) error
}

type categoryService struct {
	repo       repository.CategoryRepository
	validator  *validator.Validate
	dashboards DashboardInvalidator
	logger     zerolog.Logger
}

// NewCategoryService constructs the category service. Renames and kind changes reach the
// dashboard category chart, so they invalidate cached dashboards.
func NewCategoryService(repo repository.CategoryRepository, validator *validator.Validate, dashboards DashboardInvalidator, logger zerolog.Logger) CategoryService {
	return &categoryService{
		repo:       repo,
		validator:  validator,
		dashboards: dashboards,
		logger:     logger.With().Str("component", "category_service").Logger(),
	}
}

func (s *categoryService) Create(ctx context.Context, payload dto.CategoryCreateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	kind := models.CategoryKind(payload.Kind)
	if kind == "" {
		kind = models.InferCategoryKind(name)
	}

	category := models.Category{Name: name, Kind: kind}
	if err := s.repo.Create(ctx, &category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CategoryResponse{}, ErrCategoryNameTaken
		}
		return dto.CategoryResponse{}, err
	}

	s.logger.Info().Uint("category_id", category.ID).Str("kind", string(category.Kind)).Msg("category created")
	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) List(ctx context.Context, search string) ([]dto.CategoryResponse, error) {
	categories, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		responses = append(responses, dto.NewCategoryResponse(category))
	}
	return responses, nil
}

func (s *categoryService) Update(ctx context.Context, id uint, payload dto.CategoryUpdateRequest) (dto.CategoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CategoryResponse{}, err
	}

	updates := make(map[string]interface{})
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Kind != nil {
		updates["kind"] = models.CategoryKind(*payload.Kind)
	}

	if len(updates) == 0 {
		category, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return dto.CategoryResponse{}, mapCategoryError(err)
		}
		return dto.NewCategoryResponse(category), nil
	}

	category, err := s.repo.Update(ctx, id, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return dto.CategoryResponse{}, ErrCategoryNameTaken
		}
		return dto.CategoryResponse{}, mapCategoryError(err)
	}
	invalidateDashboards(ctx, s.dashboards)
	return dto.NewCategoryResponse(category), nil
}

func (s *categoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return mapCategoryError(err)
	}

	count, err := s.repo.CountSessions(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrCategoryInUse
		}
		return mapCategoryError(err)
	}
	return nil
}

func mapCategoryError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCategoryNotFound
	}
	return err
}

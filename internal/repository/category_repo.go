package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// CategoryRepository persists session categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (models.Category, error)
	List(ctx context.Context, search string) ([]models.Category, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Category, error)
	CountSessions(ctx context.Context, id uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository constructs the category repository.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return models.Category{}, err
	}
	return category, nil
}

func (r *categoryRepository) List(ctx context.Context, search string) ([]models.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.Category{})
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var categories []models.Category
	if err := query.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Category, error) {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return models.Category{}, result.Error
	}
	return r.GetByID(ctx, id)
}

func (r *categoryRepository) CountSessions(ctx context.Context, id uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClassSession{}).Where("category_id = ?", id).Count(&count).Error
	return count, err
}

// Delete removes the category. Callers check CountSessions first; the RESTRICT foreign key
// backs that check up on PostgreSQL.
func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

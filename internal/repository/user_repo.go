package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// UserRepository persists login accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	ListTeachers(ctx context.Context, search string) ([]models.User, error)
	FindTeachersByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	UpdateProfilePicture(ctx context.Context, id uint, url string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs the account repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) ListTeachers(ctx context.Context, search string) ([]models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{}).Where("role IN ?", models.TeachingRoles())
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like)
	}

	var users []models.User
	if err := query.Order("username ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindTeachersByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}

	var users []models.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("role IN ?", models.TeachingRoles()).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateProfilePicture(ctx context.Context, id uint, url string) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("profile_picture_url", url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

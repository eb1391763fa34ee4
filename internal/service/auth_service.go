package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

const (
	// TokenTypeAccess marks tokens accepted by the bearer middleware.
	TokenTypeAccess = "access"
	// TokenTypeRefresh marks tokens only accepted by the refresh endpoint.
	TokenTypeRefresh = "refresh"
)

var (
	// ErrInvalidCredentials indicates an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	// ErrInvalidRefreshToken indicates a malformed, expired or mistyped refresh token.
	ErrInvalidRefreshToken = errors.New("token is invalid or expired")
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// TokenConfig holds signing secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// AuthService registers accounts and issues tokens.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.RegisterResponse, error)
	CreateUser(ctx context.Context, payload dto.CreateUserRequest) (dto.UserResponse, error)
	IssueTokens(ctx context.Context, payload dto.TokenRequest) (dto.TokenPairResponse, error)
	Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AccessTokenResponse, error)
	Me(ctx context.Context, userID uint) (dto.UserResponse, error)
	ListTeachers(ctx context.Context, search string) ([]dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	validator *validator.Validate
	tokens    TokenConfig
	hashCost  int
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService constructs the account and token service.
func NewAuthService(users repository.UserRepository, validator *validator.Validate, tokens TokenConfig, logger zerolog.Logger) AuthService {
	if tokens.AccessTTL <= 0 {
		tokens.AccessTTL = 15 * time.Minute
	}
	if tokens.RefreshTTL <= 0 {
		tokens.RefreshTTL = 7 * 24 * time.Hour
	}
	return &authService{
		users:     users,
		validator: validator,
		tokens:    tokens,
		hashCost:  bcrypt.DefaultCost,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

// Register creates a student account. Mismatched passwords are rejected before anything is
// written.
func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.RegisterResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RegisterResponse{}, err
	}
	if payload.Password != payload.Password2 {
		return dto.RegisterResponse{}, newValidationError("password", "password fields didn't match")
	}

	user, err := s.createUser(ctx, models.User{
		Username:  strings.TrimSpace(payload.Username),
		Email:     strings.TrimSpace(payload.Email),
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Role:      models.RoleStudent,
	}, payload.Password)
	if err != nil {
		return dto.RegisterResponse{}, err
	}

	return dto.RegisterResponse{User: dto.NewUserResponse(user), Message: "user registered successfully"}, nil
}

// CreateUser creates an account with an explicit role. It backs the management command.
func (s *authService) CreateUser(ctx context.Context, payload dto.CreateUserRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.createUser(ctx, models.User{
		Username:  strings.TrimSpace(payload.Username),
		Email:     strings.TrimSpace(payload.Email),
		FirstName: strings.TrimSpace(payload.FirstName),
		LastName:  strings.TrimSpace(payload.LastName),
		Role:      models.ParseRole(payload.Role),
	}, payload.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) createUser(ctx context.Context, user models.User, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hash)

	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", string(user.Role)).Msg("account created")
	return user, nil
}

func (s *authService) IssueTokens(ctx context.Context, payload dto.TokenRequest) (dto.TokenPairResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TokenPairResponse{}, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(payload.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TokenPairResponse{}, ErrInvalidCredentials
		}
		return dto.TokenPairResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.TokenPairResponse{}, ErrInvalidCredentials
	}

	access, err := s.sign(user, TokenTypeAccess)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}
	refresh, err := s.sign(user, TokenTypeRefresh)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}
	return dto.TokenPairResponse{Access: access, Refresh: refresh}, nil
}

func (s *authService) Refresh(ctx context.Context, payload dto.RefreshRequest) (dto.AccessTokenResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AccessTokenResponse{}, err
	}

	token, err := jwt.Parse(payload.Refresh, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(s.tokens.RefreshSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return dto.AccessTokenResponse{}, ErrInvalidRefreshToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != TokenTypeRefresh {
		return dto.AccessTokenResponse{}, ErrInvalidRefreshToken
	}
	subject, err := claims.GetSubject()
	if err != nil {
		return dto.AccessTokenResponse{}, ErrInvalidRefreshToken
	}
	userID, err := strconv.ParseUint(subject, 10, 64)
	if err != nil {
		return dto.AccessTokenResponse{}, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, uint(userID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AccessTokenResponse{}, ErrInvalidRefreshToken
		}
		return dto.AccessTokenResponse{}, err
	}

	access, err := s.sign(user, TokenTypeAccess)
	if err != nil {
		return dto.AccessTokenResponse{}, err
	}
	return dto.AccessTokenResponse{Access: access}, nil
}

func (s *authService) sign(user models.User, tokenType string) (string, error) {
	secret, ttl := s.tokens.AccessSecret, s.tokens.AccessTTL
	if tokenType == TokenTypeRefresh {
		secret, ttl = s.tokens.RefreshSecret, s.tokens.RefreshTTL
	}

	now := s.now().UTC()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"role": string(user.Role),
		"typ":  tokenType,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *authService) Me(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *authService) ListTeachers(ctx context.Context, search string) ([]dto.UserResponse, error) {
	teachers, err := s.users.ListTeachers(ctx, search)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.UserResponse, 0, len(teachers))
	for _, teacher := range teachers {
		responses = append(responses, dto.NewUserResponse(teacher))
	}
	return responses, nil
}

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/observability"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadFileRequired indicates the multipart field was missing.
	ErrUploadFileRequired = errors.New("file is required")
	// ErrUploadsDisabled indicates no storage backend is configured.
	ErrUploadsDisabled = errors.New("uploads are not configured")
)

var allowedAvatarTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AvatarService validates and stores profile pictures.
type AvatarService interface {
	Upload(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error)
}

type avatarService struct {
	storage FileStorage
	users   repository.UserRepository
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewAvatarService constructs the avatar service. A nil storage disables uploads.
func NewAvatarService(storage FileStorage, users repository.UserRepository, maxSizeMB int, logger zerolog.Logger) AvatarService {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &avatarService{
		storage: storage,
		users:   users,
		logger:  logger.With().Str("component", "avatar_service").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/drumschool-api/internal/service/avatar"),
	}
}

func (s *avatarService) Upload(ctx context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error) {
	ctx, span := s.tracer.Start(ctx, "avatar.upload")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	if s.storage == nil {
		return dto.UserResponse{}, ErrUploadsDisabled
	}
	if file == nil {
		return dto.UserResponse{}, ErrUploadFileRequired
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		return dto.UserResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		return dto.UserResponse{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		return dto.UserResponse{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		return dto.UserResponse{}, s.reject(span, "size", ErrUploadTooLarge)
	}

	detected := mimetype.Detect(buf.Bytes())
	span.SetAttributes(attribute.String("upload.detected_mime", detected.String()))
	if _, ok := allowedAvatarTypes[strings.ToLower(strings.Split(detected.String(), ";")[0])]; !ok {
		return dto.UserResponse{}, s.reject(span, "type", ErrUploadTypeNotAllowed)
	}

	name := fmt.Sprintf("avatar-%d%s", userID, detected.Extension())
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return dto.UserResponse{}, err
	}

	if err := s.users.UpdateProfilePicture(ctx, userID, url); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Uint("user_id", userID).Str("mime", detected.String()).Msg("avatar updated")
	return dto.NewUserResponse(user), nil
}

func (s *avatarService) reject(span trace.Span, reason string, err error) error {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	return err
}

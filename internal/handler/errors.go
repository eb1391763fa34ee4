package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/service"
	"github.com/noah-isme/drumschool-api/internal/utils"
)

type errorMapping struct {
	target error
	status int
}

var serviceErrorStatus = []errorMapping{
	{service.ErrCategoryNotFound, fiber.StatusNotFound},
	{service.ErrStudentNotFound, fiber.StatusNotFound},
	{service.ErrSessionNotFound, fiber.StatusNotFound},
	{service.ErrReportNotFound, fiber.StatusNotFound},
	{service.ErrTeacherNotFound, fiber.StatusNotFound},
	{service.ErrUserNotFound, fiber.StatusNotFound},
	{service.ErrNoSummaryData, fiber.StatusNotFound},
	{service.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{service.ErrInvalidRefreshToken, fiber.StatusUnauthorized},
	{service.ErrReportForbidden, fiber.StatusForbidden},
	{service.ErrCategoryInUse, fiber.StatusConflict},
	{service.ErrCategoryNameTaken, fiber.StatusConflict},
	{service.ErrStudentEmailTaken, fiber.StatusConflict},
	{service.ErrUsernameTaken, fiber.StatusConflict},
	{service.ErrReportExists, fiber.StatusConflict},
	{gorm.ErrDuplicatedKey, fiber.StatusConflict},
	{service.ErrUploadFileRequired, fiber.StatusBadRequest},
	{service.ErrUploadTooLarge, fiber.StatusRequestEntityTooLarge},
	{service.ErrUploadTypeNotAllowed, fiber.StatusUnsupportedMediaType},
	{service.ErrUploadsDisabled, fiber.StatusServiceUnavailable},
	{service.ErrSummaryUnavailable, fiber.StatusServiceUnavailable},
}

// respondError maps service errors onto HTTP envelopes. Unknown errors are logged and
// reported with the generic fallback message.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if details, ok := validationDetails(err); ok {
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", details)
	}

	for _, mapping := range serviceErrorStatus {
		if errors.Is(err, mapping.target) {
			return utils.SendError(c, mapping.status, mapping.target.Error())
		}
	}

	if errors.Is(err, service.ErrSummaryProviderFailed) {
		requestLogger(logger, c).Error().Err(err).Msg("summary provider failed")
		return utils.SendError(c, fiber.StatusBadGateway, "the summary provider is unavailable, try again later")
	}

	requestLogger(logger, c).Error().Err(err).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}

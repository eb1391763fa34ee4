package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/service"
)

// SummaryHandler serves AI generated progress summaries. Responses use the bare
// {report_html} / {error} shape consumed by the front end.
type SummaryHandler struct {
	service service.SummaryService
	logger  zerolog.Logger
}

// NewSummaryHandler constructs the handler.
func NewSummaryHandler(service service.SummaryService, logger zerolog.Logger) *SummaryHandler {
	return &SummaryHandler{
		service: service,
		logger:  logger.With().Str("component", "summary_handler").Logger(),
	}
}

// Register attaches the summary route below a students group. Guards run before the handler.
func (h *SummaryHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Post("/:id/generate-ai-summary", withGuards(guards, h.generate)...)
}

func (h *SummaryHandler) generate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := h.service.Generate(c.UserContext(), id)
	if err != nil {
		return h.fail(c, id, err)
	}
	return c.JSON(summary)
}

func (h *SummaryHandler) fail(c *fiber.Ctx, studentID uint, err error) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "student not found"})
	case errors.Is(err, service.ErrNoSummaryData):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No lesson reports found for this student to generate a summary."})
	case errors.Is(err, service.ErrSummaryUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "summary generation is not configured"})
	case errors.Is(err, service.ErrSummaryProviderFailed):
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("summary provider failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Could not generate the summary right now. Please try again later."})
	default:
		requestLogger(h.logger, c).Error().Err(err).Uint("student_id", studentID).Msg("failed to generate summary")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

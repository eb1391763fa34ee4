package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/middleware"
	"github.com/noah-isme/drumschool-api/internal/service"
	"github.com/noah-isme/drumschool-api/internal/utils"
)

// ReportHandler exposes lesson report endpoints.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches routes. Writing reports is limited to accounts that can teach.
func (h *ReportHandler) Register(router fiber.Router) {
	teacherOnly := middleware.AuthOptions{Role: middleware.AuthRoleTeacher}

	router.Get("", h.list)
	router.Post("", middleware.WithAuth(h.create, teacherOnly))
	router.Get("/:id<int>", h.get)
	router.Put("/:id<int>", middleware.WithAuth(h.update, teacherOnly))
	router.Delete("/:id<int>", middleware.WithAuth(h.delete, teacherOnly))
}

func (h *ReportHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	req := dto.ReportListRequest{Page: page, PageSize: pageSize}
	if req.SessionID, err = parseQueryUint(c, "session"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	if req.ValidatingTeacherID, err = parseQueryUint(c, "validating_teacher"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list reports")
	}
	return utils.OK(c, result.Items, "reports retrieved", fiber.Map{"pagination": result.Pagination})
}

func (h *ReportHandler) create(c *fiber.Ctx) error {
	var payload dto.ReportCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	report, err := h.service.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create report")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "report created", report)
}

func (h *ReportHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load report")
	}
	return utils.OK(c, report, "report retrieved", nil)
}

func (h *ReportHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ReportUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	report, err := h.service.Update(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update report")
	}
	return utils.OK(c, report, "report updated", nil)
}

func (h *ReportHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete report")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

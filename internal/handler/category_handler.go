package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/service"
	"github.com/noah-isme/drumschool-api/internal/utils"
)

// CategoryHandler exposes lesson category endpoints.
type CategoryHandler struct {
	service service.CategoryService
	kpis    service.KPIService
	logger  zerolog.Logger
}

// NewCategoryHandler constructs the handler.
func NewCategoryHandler(service service.CategoryService, kpis service.KPIService, logger zerolog.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		kpis:    kpis,
		logger:  logger.With().Str("component", "category_handler").Logger(),
	}
}

// Register attaches routes.
func (h *CategoryHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/:id", h.detail)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
}

func (h *CategoryHandler) list(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list categories")
	}
	return utils.OK(c, items, "categories retrieved", nil)
}

func (h *CategoryHandler) create(c *fiber.Ctx) error {
	var payload dto.CategoryCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	category, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create category")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "category created", category)
}

func (h *CategoryHandler) detail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.kpis.CategoryDetail(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load category")
	}
	return utils.OK(c, detail, "category retrieved", nil)
}

func (h *CategoryHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.CategoryUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	category, err := h.service.Update(c.UserContext(), id, payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update category")
	}
	return utils.OK(c, category, "category updated", nil)
}

func (h *CategoryHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return respondError(c, h.logger, err, "failed to delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

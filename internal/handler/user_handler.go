package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/service"
	"github.com/noah-isme/drumschool-api/internal/utils"
)

// UserHandler exposes registration, token and teacher endpoints.
type UserHandler struct {
	auth    service.AuthService
	avatars service.AvatarService
	kpis    service.KPIService
	logger  zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(auth service.AuthService, avatars service.AvatarService, kpis service.KPIService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		auth:    auth,
		avatars: avatars,
		kpis:    kpis,
		logger:  logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches routes. The authenticated routes run behind the supplied auth handler.
func (h *UserHandler) Register(router fiber.Router, auth fiber.Handler) {
	router.Post("/register", h.register)
	router.Post("/token", h.token)
	router.Post("/token/refresh", h.refresh)

	router.Get("/me", auth, h.me)
	router.Post("/me/avatar", auth, h.uploadAvatar)
	router.Get("/teachers", auth, h.listTeachers)
	router.Get("/teachers/:id", auth, h.teacherDetail)
}

func (h *UserHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	result, err := h.auth.Register(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to register user")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, result.Message, result.User)
}

func (h *UserHandler) token(c *fiber.Ctx) error {
	var payload dto.TokenRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	pair, err := h.auth.IssueTokens(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to issue tokens")
	}
	return utils.OK(c, pair, "tokens issued", nil)
}

func (h *UserHandler) refresh(c *fiber.Ctx) error {
	var payload dto.RefreshRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	access, err := h.auth.Refresh(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to refresh token")
	}
	return utils.OK(c, access, "token refreshed", nil)
}

func (h *UserHandler) me(c *fiber.Ctx) error {
	user, err := h.auth.Me(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load profile")
	}
	return utils.OK(c, user, "profile retrieved", nil)
}

func (h *UserHandler) uploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, fiber.ErrUnprocessableEntity) {
			return utils.SendError(c, fiber.StatusBadRequest, "multipart form expected")
		}
		return utils.SendError(c, fiber.StatusBadRequest, service.ErrUploadFileRequired.Error())
	}

	user, err := h.avatars.Upload(c.UserContext(), userIDFromContext(c), file)
	if err != nil {
		return respondError(c, h.logger, err, "failed to upload avatar")
	}
	return utils.OK(c, user, "avatar updated", nil)
}

func (h *UserHandler) listTeachers(c *fiber.Ctx) error {
	teachers, err := h.auth.ListTeachers(c.UserContext(), c.Query("search"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list teachers")
	}
	return utils.OK(c, teachers, "teachers retrieved", nil)
}

func (h *UserHandler) teacherDetail(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	detail, err := h.kpis.TeacherDetail(c.UserContext(), id, dateRangeFromQuery(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to load teacher")
	}
	return utils.OK(c, detail, "teacher retrieved", nil)
}

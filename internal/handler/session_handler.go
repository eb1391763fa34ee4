package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/service"
	"github.com/noah-isme/drumschool-api/internal/utils"
)

// SessionHandler exposes class session and attendance marking endpoints.
type SessionHandler struct {
	sessions   service.SessionService
	attendance service.AttendanceService
	logger     zerolog.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions service.SessionService, attendance service.AttendanceService, logger zerolog.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		attendance: attendance,
		logger:     logger.With().Str("component", "session_handler").Logger(),
	}
}

// Register attaches routes.
func (h *SessionHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Get("/available-for-substitution", h.availableForSubstitution)
	router.Get("/:id", h.get)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Post("/:id/mark-student-attendance", h.markStudents)
	router.Post("/:id/mark-teacher-attendance", h.markTeachers)
}

func (h *SessionHandler) list(c *fiber.Ctx) error {
	req, err := sessionListRequestFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.sessions.List(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list sessions")
	}

	meta := fiber.Map{
		"pagination": result.Pagination,
		"filters": fiber.Map{
			"status":    req.Status,
			"category":  req.CategoryID,
			"teacher":   req.TeacherID,
			"student":   req.StudentID,
			"from_date": req.DateRange.From,
			"to_date":   req.DateRange.To,
		},
	}
	return utils.OK(c, result.Items, "sessions retrieved", meta)
}

func (h *SessionHandler) create(c *fiber.Ctx) error {
	var payload dto.SessionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.sessions.Create(c.UserContext(), payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to create session")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "session created", session)
}

func (h *SessionHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	session, err := h.sessions.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, h.logger, err, "failed to load session")
	}
	return utils.OK(c, session, "session retrieved", nil)
}

func (h *SessionHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SessionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	session, err := h.sessions.Update(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to update session")
	}
	return utils.OK(c, session, "session updated", nil)
}

func (h *SessionHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.sessions.Delete(c.UserContext(), id, activityActorFromContext(c)); err != nil {
		return respondError(c, h.logger, err, "failed to delete session")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *SessionHandler) availableForSubstitution(c *fiber.Ctx) error {
	req, err := sessionListRequestFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	sessions, err := h.sessions.AvailableForSubstitution(c.UserContext(), req, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to list sessions available for substitution")
	}
	return utils.OK(c, sessions, "sessions available for substitution", nil)
}

func (h *SessionHandler) markStudents(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var marks []dto.StudentMark
	if err := c.BodyParser(&marks); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "expected a list of {student_id, status} marks")
	}

	result, err := h.attendance.RecordStudentAttendance(c.UserContext(), id, marks, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to record student attendance")
	}
	return utils.OK(c, result, "student attendance recorded", nil)
}

func (h *SessionHandler) markTeachers(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var marks []dto.TeacherMark
	if err := c.BodyParser(&marks); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "expected a list of {teacher_id, status} marks")
	}

	result, err := h.attendance.RecordTeacherAttendance(c.UserContext(), id, marks, activityActorFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to record teacher attendance")
	}
	return utils.OK(c, result, "teacher attendance recorded", nil)
}

func sessionListRequestFromQuery(c *fiber.Ctx) (dto.SessionListRequest, error) {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return dto.SessionListRequest{}, err
	}

	req := dto.SessionListRequest{
		Status:    c.Query("status"),
		DateRange: dateRangeFromQuery(c),
		Page:      page,
		PageSize:  pageSize,
	}
	if req.CategoryID, err = parseQueryUint(c, "category"); err != nil {
		return dto.SessionListRequest{}, err
	}
	if req.TeacherID, err = parseQueryUint(c, "teacher"); err != nil {
		return dto.SessionListRequest{}, err
	}
	if req.StudentID, err = parseQueryUint(c, "student"); err != nil {
		return dto.SessionListRequest{}, err
	}
	return req, nil
}

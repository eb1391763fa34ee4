package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/drumschool-api/internal/service"
	"github.com/noah-isme/drumschool-api/internal/utils"
)

const (
	exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	exportFilename    = "sessions.xlsx"
)

// DashboardHandler exposes administrator reporting endpoints.
type DashboardHandler struct {
	kpis   service.KPIService
	export service.ExportService
	logger zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(kpis service.KPIService, export service.ExportService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		kpis:   kpis,
		export: export,
		logger: logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches routes. Guards run before each route, typically an admin check.
// They are attached per route so sibling routes on the same group stay unaffected.
func (h *DashboardHandler) Register(router fiber.Router, guards ...fiber.Handler) {
	router.Get("/admin-dashboard", withGuards(guards, h.adminDashboard)...)
	router.Get("/export/sessions", withGuards(guards, h.exportSessions)...)
}

func (h *DashboardHandler) adminDashboard(c *fiber.Ctx) error {
	dashboard, err := h.kpis.AdminDashboard(c.UserContext(), dateRangeFromQuery(c))
	if err != nil {
		return respondError(c, h.logger, err, "failed to build dashboard")
	}
	return utils.OK(c, dashboard, "admin dashboard", nil)
}

func (h *DashboardHandler) exportSessions(c *fiber.Ctx) error {
	req, err := sessionListRequestFromQuery(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	workbook, err := h.export.ExportSessions(c.UserContext(), req)
	if err != nil {
		return respondError(c, h.logger, err, "failed to export sessions")
	}

	c.Set(fiber.HeaderContentType, exportContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+exportFilename)
	return c.Status(fiber.StatusOK).Send(workbook)
}

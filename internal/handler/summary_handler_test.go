package handler_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/handler"
	"github.com/noah-isme/drumschool-api/internal/service"
)

type stubSummaryService struct {
	response dto.StudentSummaryResponse
	err      error
	calls    int
}

func (s *stubSummaryService) Generate(context.Context, uint) (dto.StudentSummaryResponse, error) {
	s.calls++
	return s.response, s.err
}

func newSummaryApp(svc service.SummaryService, guards ...fiber.Handler) *fiber.App {
	app := fiber.New()
	handler.NewSummaryHandler(svc, testLogger()).Register(app.Group("/api/v1/students", actingAs(1, "admin")), guards...)
	return app
}

func TestSummaryHandlerReturnsBareHTML(t *testing.T) {
	app := newSummaryApp(&stubSummaryService{response: dto.StudentSummaryResponse{ReportHTML: "<h3>Review</h3>"}})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/students/4/generate-ai-summary", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	decodeResponse(t, resp, &body)
	require.Equal(t, "<h3>Review</h3>", body["report_html"])
}

func TestSummaryHandlerErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"no reports", service.ErrNoSummaryData, fiber.StatusNotFound, "No lesson reports found for this student to generate a summary."},
		{"unknown student", service.ErrStudentNotFound, fiber.StatusNotFound, "student not found"},
		{"not configured", service.ErrSummaryUnavailable, fiber.StatusServiceUnavailable, "summary generation is not configured"},
		{"provider failure", fmt.Errorf("%w: timeout", service.ErrSummaryProviderFailed), fiber.StatusBadGateway, "Could not generate the summary right now. Please try again later."},
		{"unexpected", errors.New("boom"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newSummaryApp(&stubSummaryService{err: tc.err})

			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/students/4/generate-ai-summary", nil))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var body map[string]string
			decodeResponse(t, resp, &body)
			require.Equal(t, tc.message, body["error"])
		})
	}
}

func TestSummaryHandlerGuardsRunFirst(t *testing.T) {
	svc := &stubSummaryService{}
	reject := func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusTooManyRequests)
	}
	app := newSummaryApp(svc, reject)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/students/4/generate-ai-summary", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Zero(t, svc.calls)
}

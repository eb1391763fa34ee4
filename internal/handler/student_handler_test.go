package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/handler"
	"github.com/noah-isme/drumschool-api/internal/service"
)

type mockStudentService struct {
	listReq dto.StudentListRequest
	actor   service.ActivityActor
	err     error
}

func (m *mockStudentService) Create(_ context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	return dto.StudentResponse{ID: 2, FullName: payload.FullName}, m.err
}

func (m *mockStudentService) List(_ context.Context, req dto.StudentListRequest) (dto.StudentListResponse, error) {
	m.listReq = req
	return dto.StudentListResponse{Items: []dto.StudentResponse{{ID: 2, FullName: "Ana"}}}, m.err
}

func (m *mockStudentService) Update(_ context.Context, id uint, _ dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	return dto.StudentResponse{ID: id}, m.err
}

func (m *mockStudentService) Delete(_ context.Context, _ uint, actor service.ActivityActor) error {
	m.actor = actor
	return m.err
}

func newStudentApp(svc service.StudentService, kpis service.KPIService) *fiber.App {
	app := fiber.New()
	handler.NewStudentHandler(svc, kpis, testLogger()).Register(app.Group("/api/v1/students", actingAs(1, "admin")))
	return app
}

func TestStudentHandlerDetailReturnsKPIs(t *testing.T) {
	kpis := &stubKPIService{student: dto.StudentDetailResponse{
		StudentResponse: dto.StudentResponse{ID: 4, FullName: "Ana"},
		KPIs:            dto.StudentKPIs{TotalSessions: 5, DeliveredSessions: 2, MissedSessions: 1},
		AttendanceRate:  66.67,
	}}
	app := newStudentApp(&mockStudentService{}, kpis)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/students/4", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var detail dto.StudentDetailResponse
	decodeEnvelope(t, resp, &detail)
	require.Equal(t, "Ana", detail.FullName)
	require.Equal(t, int64(5), detail.KPIs.TotalSessions)
	require.InDelta(t, 66.67, detail.AttendanceRate, 0.001)
}

func TestStudentHandlerListAndCreate(t *testing.T) {
	svc := &mockStudentService{}
	app := newStudentApp(svc, &stubKPIService{})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/students?search=ana&page=3", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "ana", svc.listReq.Search)
	require.Equal(t, 3, svc.listReq.Page)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/students", map[string]string{"full_name": "Bruno"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestStudentHandlerErrors(t *testing.T) {
	app := newStudentApp(&mockStudentService{err: service.ErrStudentEmailTaken}, &stubKPIService{err: service.ErrStudentNotFound})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/students/99", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/api/v1/students", map[string]string{"full_name": "Clone"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)
}

func TestStudentHandlerDeleteRecordsActor(t *testing.T) {
	svc := &mockStudentService{}
	app := newStudentApp(svc, &stubKPIService{})

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/students/4", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, uint(1), svc.actor.ID)
}

package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/handler"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/service"
)

type mockSessionService struct {
	listReq dto.SessionListRequest
	actor   service.ActivityActor
	items   []dto.SessionResponse
	err     error
}

func (m *mockSessionService) Create(_ context.Context, _ dto.SessionCreateRequest, actor service.ActivityActor) (dto.SessionResponse, error) {
	m.actor = actor
	return dto.SessionResponse{ID: 1, Status: "Scheduled"}, m.err
}

func (m *mockSessionService) Get(_ context.Context, id uint) (dto.SessionResponse, error) {
	if m.err != nil {
		return dto.SessionResponse{}, m.err
	}
	return dto.SessionResponse{ID: id}, nil
}

func (m *mockSessionService) List(_ context.Context, req dto.SessionListRequest) (dto.SessionListResponse, error) {
	m.listReq = req
	return dto.SessionListResponse{Items: m.items, Pagination: dto.PaginationMeta{Page: req.Page, PageSize: req.PageSize, TotalItems: int64(len(m.items)), TotalPages: 1}}, m.err
}

func (m *mockSessionService) Update(_ context.Context, id uint, _ dto.SessionUpdateRequest, actor service.ActivityActor) (dto.SessionResponse, error) {
	m.actor = actor
	return dto.SessionResponse{ID: id}, m.err
}

func (m *mockSessionService) Delete(_ context.Context, _ uint, actor service.ActivityActor) error {
	m.actor = actor
	return m.err
}

func (m *mockSessionService) AvailableForSubstitution(_ context.Context, req dto.SessionListRequest, actor service.ActivityActor) ([]dto.SessionResponse, error) {
	m.listReq, m.actor = req, actor
	return m.items, m.err
}

type mockAttendanceService struct {
	sessionID uint
	students  []dto.StudentMark
	teachers  []dto.TeacherMark
	actor     service.ActivityActor
	err       error
}

func (m *mockAttendanceService) RecordStudentAttendance(_ context.Context, sessionID uint, marks []dto.StudentMark, actor service.ActivityActor) (dto.AttendanceResult, error) {
	m.sessionID, m.students, m.actor = sessionID, marks, actor
	if m.err != nil {
		return dto.AttendanceResult{}, m.err
	}
	return dto.AttendanceResult{SessionID: sessionID, Status: "Completed", Changed: true, Marked: len(marks)}, nil
}

func (m *mockAttendanceService) RecordTeacherAttendance(_ context.Context, sessionID uint, marks []dto.TeacherMark, actor service.ActivityActor) (dto.AttendanceResult, error) {
	m.sessionID, m.teachers, m.actor = sessionID, marks, actor
	if m.err != nil {
		return dto.AttendanceResult{}, m.err
	}
	return dto.AttendanceResult{SessionID: sessionID, Status: "Scheduled", Marked: len(marks)}, nil
}

func newSessionApp(sessions *mockSessionService, attendance *mockAttendanceService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/v1/sessions", actingAs(7, "teacher"))
	handler.NewSessionHandler(sessions, attendance, testLogger()).Register(group)
	return app
}

func TestSessionHandlerMarkStudentAttendance(t *testing.T) {
	attendance := &mockAttendanceService{}
	app := newSessionApp(&mockSessionService{}, attendance)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/sessions/12/mark-student-attendance", []dto.StudentMark{
		{StudentID: 3, Status: "present"},
		{StudentID: 4, Status: "absent"},
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result dto.AttendanceResult
	body := decodeEnvelope(t, resp, &result)
	require.True(t, body.Success)
	require.Equal(t, "Completed", result.Status)
	require.Equal(t, uint(12), attendance.sessionID)
	require.Len(t, attendance.students, 2)
	require.Equal(t, uint(7), attendance.actor.ID)
	require.Equal(t, models.RoleTeacher, attendance.actor.Role)
}

func TestSessionHandlerMarkTeacherAttendance(t *testing.T) {
	attendance := &mockAttendanceService{}
	app := newSessionApp(&mockSessionService{}, attendance)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/sessions/5/mark-teacher-attendance", []dto.TeacherMark{{TeacherID: 7, Status: "absent"}}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, attendance.teachers, 1)
}

func TestSessionHandlerMarkAttendanceRejectsObjectBody(t *testing.T) {
	attendance := &mockAttendanceService{}
	app := newSessionApp(&mockSessionService{}, attendance)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/sessions/12/mark-student-attendance", map[string]interface{}{"student_id": 3, "status": "present"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, attendance.sessionID)
}

func TestSessionHandlerMarkAttendanceValidationDetails(t *testing.T) {
	attendance := &mockAttendanceService{err: &service.ValidationError{Fields: map[string]string{"student_id": "student 9 is not a participant of session 12"}}}
	app := newSessionApp(&mockSessionService{}, attendance)

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/sessions/12/mark-student-attendance", []dto.StudentMark{{StudentID: 9, Status: "present"}}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp, nil)
	require.False(t, body.Success)
	require.Equal(t, "validation failed", body.Message)
	require.Contains(t, body.Details["student_id"], "not a participant")
}

func TestSessionHandlerMarkAttendanceUnknownSession(t *testing.T) {
	app := newSessionApp(&mockSessionService{}, &mockAttendanceService{err: service.ErrSessionNotFound})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/sessions/99/mark-student-attendance", []dto.StudentMark{{StudentID: 1, Status: "present"}}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSessionHandlerListParsesFilters(t *testing.T) {
	sessions := &mockSessionService{items: []dto.SessionResponse{{ID: 1}}}
	app := newSessionApp(sessions, &mockAttendanceService{})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/sessions?status=Completed&category=2&teacher=3&student=4&data_inicial=2024-01-01&to_date=2024-01-31&page=2&page_size=500", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Equal(t, "Completed", sessions.listReq.Status)
	require.Equal(t, uint(2), sessions.listReq.CategoryID)
	require.Equal(t, uint(3), sessions.listReq.TeacherID)
	require.Equal(t, uint(4), sessions.listReq.StudentID)
	require.Equal(t, "2024-01-01", sessions.listReq.DateRange.From)
	require.Equal(t, "2024-01-31", sessions.listReq.DateRange.To)
	require.Equal(t, 2, sessions.listReq.Page)
	require.Equal(t, 200, sessions.listReq.PageSize)

	var items []dto.SessionResponse
	body := decodeEnvelope(t, resp, &items)
	require.Len(t, items, 1)
	require.Contains(t, string(body.Meta), `"pagination"`)
}

func TestSessionHandlerListRejectsMalformedFilter(t *testing.T) {
	app := newSessionApp(&mockSessionService{}, &mockAttendanceService{})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/sessions?category=abc", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandlerSubstitutionRouteIsNotAnID(t *testing.T) {
	sessions := &mockSessionService{items: []dto.SessionResponse{{ID: 4}}}
	app := newSessionApp(sessions, &mockAttendanceService{})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/sessions/available-for-substitution?category=2&from_date=2024-01-01&data_final=2024-01-31", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), sessions.actor.ID)
	require.Equal(t, uint(2), sessions.listReq.CategoryID)
	require.Equal(t, dto.DateRangeRequest{From: "2024-01-01", To: "2024-01-31"}, sessions.listReq.DateRange)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/sessions/available-for-substitution?teacher=x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSessionHandlerDeleteReturnsNoContent(t *testing.T) {
	app := newSessionApp(&mockSessionService{}, &mockAttendanceService{})

	resp, err := app.Test(jsonRequest(t, http.MethodDelete, "/api/v1/sessions/3", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

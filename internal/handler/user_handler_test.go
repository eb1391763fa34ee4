package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/handler"
	"github.com/noah-isme/drumschool-api/internal/service"
)

type mockAuthService struct {
	registered *dto.RegisterRequest
	search     string
	meID       uint
	err        error
}

func (m *mockAuthService) Register(_ context.Context, payload dto.RegisterRequest) (dto.RegisterResponse, error) {
	m.registered = &payload
	if m.err != nil {
		return dto.RegisterResponse{}, m.err
	}
	return dto.RegisterResponse{
		User:    dto.UserResponse{ID: 5, Username: payload.Username, Role: "student"},
		Message: "User registered successfully.",
	}, nil
}

func (m *mockAuthService) CreateUser(_ context.Context, payload dto.CreateUserRequest) (dto.UserResponse, error) {
	return dto.UserResponse{Username: payload.Username, Role: payload.Role}, m.err
}

func (m *mockAuthService) IssueTokens(context.Context, dto.TokenRequest) (dto.TokenPairResponse, error) {
	if m.err != nil {
		return dto.TokenPairResponse{}, m.err
	}
	return dto.TokenPairResponse{Access: "access-token", Refresh: "refresh-token"}, nil
}

func (m *mockAuthService) Refresh(context.Context, dto.RefreshRequest) (dto.AccessTokenResponse, error) {
	return dto.AccessTokenResponse{Access: "fresh"}, m.err
}

func (m *mockAuthService) Me(_ context.Context, userID uint) (dto.UserResponse, error) {
	m.meID = userID
	return dto.UserResponse{ID: userID}, m.err
}

func (m *mockAuthService) ListTeachers(_ context.Context, search string) ([]dto.UserResponse, error) {
	m.search = search
	return []dto.UserResponse{{ID: 3, Username: "carla", Role: "teacher"}}, m.err
}

type mockAvatarService struct {
	filename string
	userID   uint
	err      error
}

func (m *mockAvatarService) Upload(_ context.Context, userID uint, file *multipart.FileHeader) (dto.UserResponse, error) {
	m.userID, m.filename = userID, file.Filename
	return dto.UserResponse{ID: userID}, m.err
}

func newUserApp(auth service.AuthService, avatars service.AvatarService, kpis service.KPIService) *fiber.App {
	app := fiber.New()
	handler.NewUserHandler(auth, avatars, kpis, testLogger()).Register(app.Group("/api/v1/users"), actingAs(11, "teacher"))
	return app
}

func TestUserHandlerRegister(t *testing.T) {
	auth := &mockAuthService{}
	app := newUserApp(auth, &mockAvatarService{}, &stubKPIService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{
		"username":   "dani",
		"email":      "dani@example.com",
		"first_name": "Dani",
		"last_name":  "Rocha",
		"password":   "groove-1234",
		"password2":  "groove-1234",
	}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var user dto.UserResponse
	body := decodeEnvelope(t, resp, &user)
	require.Equal(t, "User registered successfully.", body.Message)
	require.Equal(t, "dani", user.Username)
	require.Equal(t, "groove-1234", auth.registered.Password2)
}

func TestUserHandlerRegisterPasswordMismatch(t *testing.T) {
	auth := &mockAuthService{err: &service.ValidationError{Fields: map[string]string{"password": "password fields didn't match"}}}
	app := newUserApp(auth, &mockAvatarService{}, &stubKPIService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/register", map[string]string{"username": "dani", "password": "a", "password2": "b"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body := decodeEnvelope(t, resp, nil)
	require.Equal(t, "password fields didn't match", body.Details["password"])
}

func TestUserHandlerTokenFlow(t *testing.T) {
	app := newUserApp(&mockAuthService{}, &mockAvatarService{}, &stubKPIService{})

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/token", map[string]string{"username": "carla", "password": "secret-123"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var pair dto.TokenPairResponse
	decodeEnvelope(t, resp, &pair)
	require.Equal(t, "access-token", pair.Access)
	require.Equal(t, "refresh-token", pair.Refresh)

	denied := newUserApp(&mockAuthService{err: service.ErrInvalidCredentials}, &mockAvatarService{}, &stubKPIService{})
	resp, err = denied.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/token", map[string]string{"username": "carla", "password": "nope"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	expired := newUserApp(&mockAuthService{err: service.ErrInvalidRefreshToken}, &mockAvatarService{}, &stubKPIService{})
	resp, err = expired.Test(jsonRequest(t, http.MethodPost, "/api/v1/users/token/refresh", map[string]string{"refresh": "stale"}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestUserHandlerMeAndTeachers(t *testing.T) {
	auth := &mockAuthService{}
	app := newUserApp(auth, &mockAvatarService{}, &stubKPIService{})

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/users/me", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(11), auth.meID)

	resp, err = app.Test(jsonRequest(t, http.MethodGet, "/api/v1/users/teachers?search=car", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "car", auth.search)

	var teachers []dto.UserResponse
	decodeEnvelope(t, resp, &teachers)
	require.Len(t, teachers, 1)
}

func TestUserHandlerTeacherDetailNotFound(t *testing.T) {
	kpis := &stubKPIService{err: service.ErrTeacherNotFound}
	app := newUserApp(&mockAuthService{}, &mockAvatarService{}, kpis)

	resp, err := app.Test(jsonRequest(t, http.MethodGet, "/api/v1/users/teachers/3?data_inicial=2024-01-01", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "2024-01-01", kpis.dateRange.From)
}

func TestUserHandlerUploadAvatar(t *testing.T) {
	avatars := &mockAvatarService{}
	app := newUserApp(&mockAuthService{}, avatars, &stubKPIService{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(11), avatars.userID)
	require.Equal(t, "me.png", avatars.filename)
}

func TestUserHandlerUploadAvatarDisabled(t *testing.T) {
	app := newUserApp(&mockAuthService{}, &mockAvatarService{err: service.ErrUploadsDisabled}, &stubKPIService{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "me.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/me/avatar", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

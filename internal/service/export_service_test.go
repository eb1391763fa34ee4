package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

func TestExportServiceWritesFilteredSessions(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	ana := createStudent(t, db, "Ana")
	bruno := createStudent(t, db, "Bruno")
	carla := createUser(t, db, "carla", models.RoleTeacher)

	done := createSession(t, db, at(2024, time.August, 5, 14), models.SessionCompleted, drums, []models.Student{ana, bruno}, []models.User{carla})
	createReport(t, db, done, carla)
	createSession(t, db, at(2024, time.August, 6, 14), models.SessionScheduled, drums, []models.Student{ana}, nil)

	svc := NewExportService(repository.NewSessionRepository(db), NewValidator(), testLogger())
	payload, err := svc.ExportSessions(context.Background(), dto.SessionListRequest{Status: "Completed", Page: 3, PageSize: 1})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows(sessionsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"ID", "Date/Time", "Category", "Status", "Students", "Teachers", "Validating teacher"}, rows[0])
	require.Equal(t, "2024-08-05 14:00", rows[1][1])
	require.Equal(t, "Drums", rows[1][2])
	require.Equal(t, "Completed", rows[1][3])
	require.Contains(t, rows[1][4], "Ana")
	require.Contains(t, rows[1][4], "Bruno")
	require.Equal(t, "carla", rows[1][5])
	require.Equal(t, "carla", rows[1][6])
}

func TestExportServiceRejectsInvalidStatus(t *testing.T) {
	db := setupServiceDB(t)
	svc := NewExportService(repository.NewSessionRepository(db), NewValidator(), testLogger())

	_, err := svc.ExportSessions(context.Background(), dto.SessionListRequest{Status: "Finished"})
	require.Error(t, err)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

func newTestReportService(db *gorm.DB, activity ActivityRecorder) ReportService {
	return NewReportService(
		repository.NewReportRepository(db),
		repository.NewSessionRepository(db),
		NewValidator(),
		activity,
		nil,
		testLogger(),
	)
}

func TestReportServiceCreateStampsCaller(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	carla := createUser(t, db, "carla", models.RoleTeacher)
	session := createSession(t, db, at(2024, time.April, 2, 10), models.SessionCompleted, drums, nil, []models.User{carla})
	activity := &recordingActivity{}
	svc := newTestReportService(db, activity)

	minutes := 10
	report, err := svc.Create(context.Background(), dto.ReportCreateRequest{
		SessionID:     session.ID,
		TheoryContent: "Reading eighth notes",
		Rudiments:     []dto.ExerciseItemRequest{{Description: "Paradiddle", Tempo: "80 bpm", DurationMinutes: &minutes}},
		Rhythms: []dto.RhythmItemRequest{{
			ExerciseItemRequest: dto.ExerciseItemRequest{Description: "Rock beat"},
			MethodReference:     "Stick Control p.5",
		}},
		Fills: []dto.ExerciseItemRequest{{Description: "Tom roll"}},
	}, ActivityActor{ID: carla.ID, Role: models.RoleTeacher})
	require.NoError(t, err)

	require.Equal(t, session.ID, report.SessionID)
	require.NotNil(t, report.ValidatingTeacher)
	require.Equal(t, carla.ID, report.ValidatingTeacher.ID)
	require.Equal(t, "carla", report.ValidatingTeacher.Username)
	require.Len(t, report.Rudiments, 1)
	require.Equal(t, 10, *report.Rudiments[0].DurationMinutes)
	require.Len(t, report.Rhythms, 1)
	require.Equal(t, "Stick Control p.5", report.Rhythms[0].MethodReference)
	require.Len(t, report.Fills, 1)
	require.Equal(t, []string{"report.created"}, activity.actions())
}

func TestReportServiceCreateConflict(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	carla := createUser(t, db, "carla", models.RoleTeacher)
	session := createSession(t, db, at(2024, time.April, 2, 10), models.SessionCompleted, drums, nil, nil)
	createReport(t, db, session, carla)
	svc := newTestReportService(db, nil)

	_, err := svc.Create(context.Background(), dto.ReportCreateRequest{SessionID: session.ID}, ActivityActor{ID: carla.ID, Role: models.RoleAdmin})
	require.ErrorIs(t, err, ErrReportExists)
}

func TestReportServiceRejectsStudentsAndUnknownSessions(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestReportService(db, nil)

	_, err := svc.Create(context.Background(), dto.ReportCreateRequest{SessionID: 1}, ActivityActor{ID: 1, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrReportForbidden)

	err = svc.Delete(context.Background(), 1, ActivityActor{ID: 1, Role: models.RoleStudent})
	require.ErrorIs(t, err, ErrReportForbidden)

	_, err = svc.Create(context.Background(), dto.ReportCreateRequest{SessionID: 77}, ActivityActor{ID: 1, Role: models.RoleTeacher})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestReportServiceCreateValidatesItems(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	session := createSession(t, db, at(2024, time.April, 2, 10), models.SessionCompleted, drums, nil, nil)
	svc := newTestReportService(db, nil)

	_, err := svc.Create(context.Background(), dto.ReportCreateRequest{
		SessionID: session.ID,
		Fills:     []dto.ExerciseItemRequest{{Description: ""}},
	}, ActivityActor{ID: 1, Role: models.RoleTeacher})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.LessonReport{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestReportServiceUpdateKeepsValidatingTeacher(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	carla := createUser(t, db, "carla", models.RoleTeacher)
	dave := createUser(t, db, "dave", models.RoleTeacher)
	session := createSession(t, db, at(2024, time.April, 2, 10), models.SessionCompleted, drums, nil, nil)
	report := createReport(t, db, session, carla)
	svc := newTestReportService(db, nil)

	fills := []dto.ExerciseItemRequest{{Description: "Crash on one"}, {Description: "Linear fill"}}
	updated, err := svc.Update(context.Background(), report.ID, dto.ReportUpdateRequest{
		GeneralNotes: ptrString("Good focus"),
		Fills:        &fills,
	}, ActivityActor{ID: dave.ID, Role: models.RoleTeacher})
	require.NoError(t, err)
	require.Equal(t, "Good focus", updated.GeneralNotes)
	require.Equal(t, "single strokes", updated.TheoryContent)
	require.Len(t, updated.Fills, 2)
	require.Equal(t, carla.ID, updated.ValidatingTeacher.ID)

	_, err = svc.Update(context.Background(), 999, dto.ReportUpdateRequest{}, ActivityActor{ID: dave.ID, Role: models.RoleTeacher})
	require.ErrorIs(t, err, ErrReportNotFound)
}

func TestReportServiceListFiltersBySession(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	carla := createUser(t, db, "carla", models.RoleTeacher)
	first := createSession(t, db, at(2024, time.April, 2, 10), models.SessionCompleted, drums, nil, nil)
	second := createSession(t, db, at(2024, time.April, 9, 10), models.SessionCompleted, drums, nil, nil)
	createReport(t, db, first, carla)
	createReport(t, db, second, carla)
	svc := newTestReportService(db, nil)

	result, err := svc.List(context.Background(), dto.ReportListRequest{SessionID: second.ID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, second.ID, result.Items[0].SessionID)
	require.Equal(t, int64(1), result.Pagination.TotalItems)
}

package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

func newTestKPIService(db *gorm.DB, cache *redis.Client, ttl time.Duration, now time.Time) *kpiService {
	svc := NewKPIService(
		repository.NewKPIRepository(db),
		repository.NewStudentRepository(db),
		repository.NewCategoryRepository(db),
		repository.NewUserRepository(db),
		NewValidator(),
		NewDashboardCache(cache, ttl, testLogger()),
		testLogger(),
	).(*kpiService)
	svc.now = fixedClock(now)
	return svc
}

func TestKPIServiceStudentDetailAttendanceRate(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	ana := createStudent(t, db, "Ana")
	others := []models.Student{ana}

	first := createSession(t, db, at(2024, time.January, 8, 9), models.SessionCompleted, drums, others, nil)
	second := createSession(t, db, at(2024, time.January, 15, 9), models.SessionCompleted, drums, others, nil)
	missed := createSession(t, db, at(2024, time.January, 22, 9), models.SessionStudentAbsent, drums, others, nil)
	createSession(t, db, at(2024, time.January, 29, 9), models.SessionCancelled, drums, others, nil)
	createSession(t, db, at(2024, time.February, 5, 9), models.SessionScheduled, drums, others, nil)
	markStudent(t, db, first, ana, models.AttendancePresent)
	markStudent(t, db, second, ana, models.AttendancePresent)
	markStudent(t, db, missed, ana, models.AttendanceAbsent)

	svc := newTestKPIService(db, nil, 0, at(2024, time.February, 1, 0))
	detail, err := svc.StudentDetail(context.Background(), ana.ID)
	require.NoError(t, err)
	require.Equal(t, "Ana", detail.FullName)
	require.Equal(t, int64(5), detail.KPIs.TotalSessions)
	require.Equal(t, int64(2), detail.KPIs.DeliveredSessions)
	require.Equal(t, int64(1), detail.KPIs.MissedSessions)
	require.Equal(t, int64(1), detail.KPIs.CancelledSessions)
	require.Equal(t, int64(1), detail.KPIs.ScheduledSessions)
	require.InDelta(t, 66.67, detail.AttendanceRate, 0.001)
}

func TestKPIServiceStudentDetailNotFound(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestKPIService(db, nil, 0, time.Now())

	_, err := svc.StudentDetail(context.Background(), 42)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestKPIServiceCategoryDetail(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	ana := createStudent(t, db, "Ana")
	bruno := createStudent(t, db, "Bruno")
	carla := createUser(t, db, "carla", models.RoleTeacher)
	now := at(2024, time.March, 1, 0)

	createSession(t, db, at(2024, time.February, 10, 9), models.SessionCompleted, drums, []models.Student{bruno}, []models.User{carla})
	createSession(t, db, at(2024, time.March, 10, 9), models.SessionScheduled, drums, []models.Student{ana}, []models.User{carla})

	svc := newTestKPIService(db, nil, 0, now)
	detail, err := svc.CategoryDetail(context.Background(), drums.ID)
	require.NoError(t, err)
	require.Equal(t, "Drums", detail.Name)
	require.Equal(t, int64(2), detail.KPIs.TotalSessions)
	require.Equal(t, int64(1), detail.KPIs.CompletedSessions)
	require.Equal(t, int64(1), detail.KPIs.ActiveStudents)
	require.Equal(t, int64(1), detail.KPIs.AssociatedTeachers)
	require.Equal(t, []string{"Feb/2024", "Mar/2024"}, detail.SessionsPerMonth.Labels)
	require.Equal(t, []int64{1, 1}, detail.SessionsPerMonth.Data)
}

func TestKPIServiceAdminDashboardAggregates(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	theory := createCategory(t, db, "Theory", models.CategoryKindLesson)
	ana := createStudent(t, db, "Ana")
	carla := createUser(t, db, "carla", models.RoleTeacher)
	dave := createUser(t, db, "dave", models.RoleTeacher)
	students := []models.Student{ana}

	for i := 0; i < 3; i++ {
		createSession(t, db, at(2024, time.January, 3+i, 9), models.SessionCompleted, drums, students, []models.User{carla})
	}
	createSession(t, db, at(2024, time.February, 7, 9), models.SessionStudentAbsent, theory, students, []models.User{dave})
	createSession(t, db, at(2024, time.February, 14, 9), models.SessionCancelled, drums, students, []models.User{dave})
	createSession(t, db, at(2024, time.May, 1, 9), models.SessionCompleted, drums, students, nil)

	svc := newTestKPIService(db, nil, 0, at(2024, time.June, 1, 0))
	dashboard, err := svc.AdminDashboard(context.Background(), dto.DateRangeRequest{From: "2024-01-01", To: "2024-03-31"})
	require.NoError(t, err)

	require.Equal(t, int64(5), dashboard.KPIs.TotalSessions)
	require.Equal(t, int64(3), dashboard.KPIs.CompletedSessions)
	require.Equal(t, int64(1), dashboard.KPIs.CancelledSessions)
	require.Equal(t, int64(1), dashboard.KPIs.StudentAbsentSessions)
	require.InDelta(t, 75.0, dashboard.KPIs.SuccessRate, 0.001)
	require.Equal(t, []string{"Drums", "Theory"}, dashboard.SessionsByCategory.Labels)
	require.Equal(t, []int64{4, 1}, dashboard.SessionsByCategory.Data)
	require.Equal(t, []string{"Jan/2024"}, dashboard.CompletedPerMonth.Labels)
	require.Equal(t, []int64{3}, dashboard.CompletedPerMonth.Data)
	require.Len(t, dashboard.TeacherPerformance, 2)
	require.Equal(t, "carla", dashboard.TeacherPerformance[0].Username)
	require.False(t, dashboard.CacheHit)
}

func TestKPIServiceAdminDashboardRejectsInvertedRange(t *testing.T) {
	db := setupServiceDB(t)
	svc := newTestKPIService(db, nil, 0, time.Now())

	_, err := svc.AdminDashboard(context.Background(), dto.DateRangeRequest{From: "2024-03-01", To: "2024-01-01"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "to_date")
}

func TestKPIServiceAdminDashboardCaching(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	createSession(t, db, at(2024, time.January, 3, 9), models.SessionCompleted, drums, nil, nil)

	svc := newTestKPIService(db, client, time.Minute, at(2024, time.June, 1, 0))
	req := dto.DateRangeRequest{From: "2024-01-01", To: "2024-12-31"}

	first, err := svc.AdminDashboard(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.True(t, server.Exists("kpi:admin_dashboard:0:2024-01-01:2024-12-31"))

	createSession(t, db, at(2024, time.January, 4, 9), models.SessionCompleted, drums, nil, nil)

	second, err := svc.AdminDashboard(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.KPIs.TotalSessions, second.KPIs.TotalSessions)

	server.FastForward(2 * time.Minute)
	third, err := svc.AdminDashboard(context.Background(), req)
	require.NoError(t, err)
	require.False(t, third.CacheHit)
	require.Equal(t, int64(2), third.KPIs.TotalSessions)
}

func TestKPIServiceAdminDashboardInvalidatedByAttendance(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	ana := createStudent(t, db, "Ana")
	lesson := createSession(t, db, at(2024, time.January, 3, 9), models.SessionScheduled, drums, []models.Student{ana}, nil)

	cache := NewDashboardCache(client, time.Hour, testLogger())
	svc := newTestKPIService(db, client, time.Hour, at(2024, time.June, 1, 0))
	attendance := NewAttendanceService(
		repository.NewSessionRepository(db),
		repository.NewAttendanceRepository(db),
		NewValidator(),
		nil,
		nil,
		cache,
		testLogger(),
	)
	req := dto.DateRangeRequest{From: "2024-01-01", To: "2024-12-31"}
	ctx := context.Background()

	before, err := svc.AdminDashboard(ctx, req)
	require.NoError(t, err)
	require.Zero(t, before.KPIs.CompletedSessions)

	cached, err := svc.AdminDashboard(ctx, req)
	require.NoError(t, err)
	require.True(t, cached.CacheHit)

	_, err = attendance.RecordStudentAttendance(ctx, lesson.ID, []dto.StudentMark{{StudentID: ana.ID, Status: "present"}}, ActivityActor{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)
	require.Equal(t, "1", mustGet(t, server, "kpi:admin_dashboard:generation"))

	after, err := svc.AdminDashboard(ctx, req)
	require.NoError(t, err)
	require.False(t, after.CacheHit)
	require.Equal(t, int64(1), after.KPIs.CompletedSessions)
	require.True(t, server.Exists("kpi:admin_dashboard:1:2024-01-01:2024-12-31"))
}

func TestDashboardCacheDisabledWithoutClient(t *testing.T) {
	cache := NewDashboardCache(nil, time.Minute, testLogger())
	require.False(t, cache.Enabled())
	cache.InvalidateDashboards(context.Background())

	var missing *DashboardCache
	require.False(t, missing.Enabled())
	invalidateDashboards(context.Background(), nil)
}

func mustGet(t *testing.T, server *miniredis.Miniredis, key string) string {
	t.Helper()
	value, err := server.Get(key)
	require.NoError(t, err)
	return value
}

func TestKPIServiceTeacherDetail(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	band := createCategory(t, db, "Band practice", models.CategoryKindComplementary)
	carla := createUser(t, db, "carla", models.RoleTeacher)
	dave := createUser(t, db, "dave", models.RoleTeacher)
	mine := []models.User{carla}

	own := createSession(t, db, at(2024, time.January, 8, 9), models.SessionCompleted, drums, nil, mine)
	createReport(t, db, own, carla)
	createSession(t, db, at(2024, time.January, 9, 9), models.SessionScheduled, drums, nil, mine)
	createSession(t, db, at(2024, time.January, 10, 9), models.SessionCancelled, drums, nil, mine)
	covered := createSession(t, db, at(2024, time.January, 11, 9), models.SessionCompleted, drums, nil, []models.User{dave})
	createReport(t, db, covered, carla)
	lost := createSession(t, db, at(2024, time.January, 12, 9), models.SessionCompleted, drums, nil, mine)
	createReport(t, db, lost, dave)
	rehearsal := createSession(t, db, at(2024, time.January, 13, 9), models.SessionCompleted, band, nil, mine)
	markTeacher(t, db, rehearsal, carla, models.AttendancePresent)

	svc := newTestKPIService(db, nil, 0, at(2024, time.February, 1, 0))
	detail, err := svc.TeacherDetail(context.Background(), carla.ID, dto.DateRangeRequest{})
	require.NoError(t, err)
	require.Equal(t, "carla", detail.Username)
	require.Equal(t, dto.TeacherKPIs{
		Delivered:             3,
		Assigned:              1,
		Cancelled:             1,
		SubstitutionsMade:     1,
		SubstitutionsSuffered: 1,
	}, detail.KPIs)
}

func TestKPIServiceTeacherDetailDateRangeCoversWholeDays(t *testing.T) {
	db := setupServiceDB(t)
	drums := createCategory(t, db, "Drums", models.CategoryKindLesson)
	carla := createUser(t, db, "carla", models.RoleTeacher)
	dave := createUser(t, db, "dave", models.RoleTeacher)
	mine := []models.User{carla}

	late := createSession(t, db, at(2024, time.January, 31, 23), models.SessionCompleted, drums, nil, mine)
	createReport(t, db, late, carla)
	midnight := createSession(t, db, at(2024, time.February, 1, 0), models.SessionCompleted, drums, nil, mine)
	createReport(t, db, midnight, carla)
	covered := createSession(t, db, at(2024, time.February, 5, 9), models.SessionCompleted, drums, nil, []models.User{dave})
	createReport(t, db, covered, carla)

	svc := newTestKPIService(db, nil, 0, at(2024, time.March, 1, 0))
	ctx := context.Background()

	january, err := svc.TeacherDetail(ctx, carla.ID, dto.DateRangeRequest{From: "2024-01-31", To: "2024-01-31"})
	require.NoError(t, err)
	require.Equal(t, dto.TeacherKPIs{Delivered: 1}, january.KPIs)

	february, err := svc.TeacherDetail(ctx, carla.ID, dto.DateRangeRequest{From: "2024-02-01"})
	require.NoError(t, err)
	require.Equal(t, dto.TeacherKPIs{Delivered: 2, SubstitutionsMade: 1}, february.KPIs)

	_, err = svc.TeacherDetail(ctx, carla.ID, dto.DateRangeRequest{From: "2024-02-02", To: "2024-02-01"})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestKPIServiceTeacherDetailRejectsStudentAccount(t *testing.T) {
	db := setupServiceDB(t)
	student := createUser(t, db, "pupil", models.RoleStudent)
	svc := newTestKPIService(db, nil, 0, time.Now())

	_, err := svc.TeacherDetail(context.Background(), student.ID, dto.DateRangeRequest{})
	require.ErrorIs(t, err, ErrTeacherNotFound)

	_, err = svc.TeacherDetail(context.Background(), 999, dto.DateRangeRequest{})
	require.ErrorIs(t, err, ErrTeacherNotFound)
}

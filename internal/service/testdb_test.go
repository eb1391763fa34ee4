package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/dto"
	"github.com/noah-isme/drumschool-api/internal/models"
	"github.com/noah-isme/drumschool-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func createCategory(t *testing.T, db *gorm.DB, name string, kind models.CategoryKind) models.Category {
	t.Helper()
	category := models.Category{Name: name, Kind: kind}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func createStudent(t *testing.T, db *gorm.DB, name string) models.Student {
	t.Helper()
	student := models.Student{FullName: name, EnrolledOn: datatypes.Date(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func createUser(t *testing.T, db *gorm.DB, username string, role models.Role) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createSession(t *testing.T, db *gorm.DB, at time.Time, status models.SessionStatus, category models.Category, students []models.Student, teachers []models.User) models.ClassSession {
	t.Helper()
	session := models.ClassSession{
		ScheduledAt: at.UTC(),
		Status:      status,
		CategoryID:  category.ID,
		Students:    students,
		Teachers:    teachers,
	}
	require.NoError(t, repository.NewSessionRepository(db).Create(context.Background(), &session))
	return session
}

func createReport(t *testing.T, db *gorm.DB, session models.ClassSession, validator models.User) models.LessonReport {
	t.Helper()
	report := models.LessonReport{ClassSessionID: session.ID, TheoryContent: "single strokes", ValidatingTeacherID: &validator.ID}
	require.NoError(t, repository.NewReportRepository(db).Create(context.Background(), &report))
	return report
}

func markStudent(t *testing.T, db *gorm.DB, session models.ClassSession, student models.Student, status models.AttendanceStatus) {
	t.Helper()
	require.NoError(t, db.Create(&models.StudentAttendance{ClassSessionID: session.ID, StudentID: student.ID, Status: status}).Error)
}

func markTeacher(t *testing.T, db *gorm.DB, session models.ClassSession, teacher models.User, status models.AttendanceStatus) {
	t.Helper()
	require.NoError(t, db.Create(&models.TeacherAttendance{ClassSessionID: session.ID, TeacherID: teacher.ID, Status: status}).Error)
}

func at(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

func fixedClock(now time.Time) func() time.Time {
	return func() time.Time { return now }
}

type recordingActivity struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (r *recordingActivity) Record(_ context.Context, entry ActivityEntry) (dto.AdminActivityResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return dto.AdminActivityResponse{}, nil
}

func (r *recordingActivity) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	actions := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func ptrUint(v uint) *uint {
	return &v
}

func ptrString(v string) *string {
	return &v
}

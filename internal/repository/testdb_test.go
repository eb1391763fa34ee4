package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/drumschool-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string, kind models.CategoryKind) models.Category {
	t.Helper()
	category := models.Category{Name: name, Kind: kind}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedStudent(t *testing.T, db *gorm.DB, name string) models.Student {
	t.Helper()
	student := models.Student{FullName: name, EnrolledOn: datatypes.Date(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC))}
	require.NoError(t, db.Create(&student).Error)
	return student
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.Role) models.User {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x", Role: role}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedSession(t *testing.T, db *gorm.DB, at time.Time, status models.SessionStatus, category models.Category, students []models.Student, teachers []models.User) models.ClassSession {
	t.Helper()
	session := models.ClassSession{
		ScheduledAt: at.UTC(),
		Status:      status,
		CategoryID:  category.ID,
		Students:    students,
		Teachers:    teachers,
	}
	require.NoError(t, NewSessionRepository(db).Create(context.Background(), &session))
	return session
}

func seedReport(t *testing.T, db *gorm.DB, session models.ClassSession, validator *models.User) models.LessonReport {
	t.Helper()
	report := models.LessonReport{ClassSessionID: session.ID, TheoryContent: "paradiddles"}
	if validator != nil {
		report.ValidatingTeacherID = &validator.ID
	}
	require.NoError(t, NewReportRepository(db).Create(context.Background(), &report))
	return report
}

func seedStudentMark(t *testing.T, db *gorm.DB, session models.ClassSession, student models.Student, status models.AttendanceStatus) {
	t.Helper()
	require.NoError(t, db.Create(&models.StudentAttendance{ClassSessionID: session.ID, StudentID: student.ID, Status: status}).Error)
}

func day(year int, month time.Month, d, hour int) time.Time {
	return time.Date(year, month, d, hour, 0, 0, 0, time.UTC)
}

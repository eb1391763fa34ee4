package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// SessionCreateRequest schedules a session.
type SessionCreateRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" validate:"required"`
	Status      string    `json:"status" validate:"omitempty,oneof=Scheduled Completed Cancelled StudentAbsent"`
	CategoryID  uint      `json:"category_id" validate:"required,gt=0"`
	StudentIDs  []uint    `json:"student_ids" validate:"omitempty,dive,gt=0"`
	TeacherIDs  []uint    `json:"teacher_ids" validate:"omitempty,dive,gt=0"`
}

// SessionUpdateRequest captures partial session updates, including direct status edits.
type SessionUpdateRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Status      *string    `json:"status" validate:"omitempty,oneof=Scheduled Completed Cancelled StudentAbsent"`
	CategoryID  *uint      `json:"category_id" validate:"omitempty,gt=0"`
	StudentIDs  *[]uint    `json:"student_ids" validate:"omitempty,dive,gt=0"`
	TeacherIDs  *[]uint    `json:"teacher_ids" validate:"omitempty,dive,gt=0"`
}

// SessionListRequest carries the optional, combinable listing filters.
type SessionListRequest struct {
	Status     string `validate:"omitempty,oneof=Scheduled Completed Cancelled StudentAbsent"`
	CategoryID uint
	TeacherID  uint
	StudentID  uint
	DateRange  DateRangeRequest
	Page       int
	PageSize   int
}

// SessionStudentResponse is the compact student view embedded in sessions.
type SessionStudentResponse struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
}

// SessionTeacherResponse is the compact account view embedded in sessions and reports.
type SessionTeacherResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// SessionResponse serializes a session with its participants.
type SessionResponse struct {
	ID          uint                     `json:"id"`
	ScheduledAt time.Time                `json:"scheduled_at"`
	Status      string                   `json:"status"`
	Category    CategoryResponse         `json:"category"`
	Students    []SessionStudentResponse `json:"students"`
	Teachers    []SessionTeacherResponse `json:"teachers"`
	HasReport   bool                     `json:"has_report"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// SessionListResponse wraps a paginated session listing.
type SessionListResponse struct {
	Items      []SessionResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// StudentMark is one element of a student attendance batch.
type StudentMark struct {
	StudentID uint   `json:"student_id" validate:"required,gt=0"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
}

// TeacherMark is one element of a teacher attendance batch.
type TeacherMark struct {
	TeacherID uint   `json:"teacher_id" validate:"required,gt=0"`
	Status    string `json:"status" validate:"required,oneof=present absent"`
}

// AttendanceResult reports the outcome of an attendance batch together with the
// session's attendance sheet for the marked side.
type AttendanceResult struct {
	SessionID uint          `json:"session_id"`
	Status    string        `json:"status"`
	Changed   bool          `json:"changed"`
	Marked    int           `json:"marked"`
	Students  []StudentMark `json:"students,omitempty"`
	Teachers  []TeacherMark `json:"teachers,omitempty"`
}

// NewSessionTeacherResponse converts an account into its compact view.
func NewSessionTeacherResponse(user models.User) SessionTeacherResponse {
	return SessionTeacherResponse{
		ID:       user.ID,
		Username: user.Username,
		FullName: strings.TrimSpace(user.FirstName + " " + user.LastName),
	}
}

// NewSessionResponse converts a model into its DTO.
func NewSessionResponse(session models.ClassSession) SessionResponse {
	students := make([]SessionStudentResponse, 0, len(session.Students))
	for _, student := range session.Students {
		students = append(students, SessionStudentResponse{ID: student.ID, FullName: student.FullName})
	}
	teachers := make([]SessionTeacherResponse, 0, len(session.Teachers))
	for _, teacher := range session.Teachers {
		teachers = append(teachers, NewSessionTeacherResponse(teacher))
	}

	return SessionResponse{
		ID:          session.ID,
		ScheduledAt: session.ScheduledAt,
		Status:      string(session.Status),
		Category:    NewCategoryResponse(session.Category),
		Students:    students,
		Teachers:    teachers,
		HasReport:   session.Report != nil,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}
}

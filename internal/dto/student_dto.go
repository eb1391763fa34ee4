package dto

import (
	"time"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// StudentCreateRequest is the payload for enrolling a student.
type StudentCreateRequest struct {
	FullName   string  `json:"full_name" validate:"required,min=1,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Email      *string `json:"email" validate:"omitempty,email,max=255"`
	EnrolledOn string  `json:"enrolled_on" validate:"omitempty,datetime=2006-01-02"`
}

// StudentUpdateRequest captures partial student updates.
type StudentUpdateRequest struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	Phone      *string `json:"phone" validate:"omitempty,max=20"`
	Email      *string `json:"email" validate:"omitempty,email,max=255"`
	EnrolledOn *string `json:"enrolled_on" validate:"omitempty,datetime=2006-01-02"`
}

// StudentListRequest filters the student listing.
type StudentListRequest struct {
	Search   string
	Page     int
	PageSize int
}

// StudentResponse serializes a student.
type StudentResponse struct {
	ID         uint    `json:"id"`
	FullName   string  `json:"full_name"`
	Phone      *string `json:"phone"`
	Email      *string `json:"email"`
	EnrolledOn string  `json:"enrolled_on"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Items      []StudentResponse `json:"items"`
	Pagination PaginationMeta    `json:"pagination"`
}

// StudentKPIs summarises a student's sessions.
type StudentKPIs struct {
	TotalSessions     int64 `json:"total_sessions"`
	DeliveredSessions int64 `json:"delivered_sessions"`
	MissedSessions    int64 `json:"missed_sessions"`
	CancelledSessions int64 `json:"cancelled_sessions"`
	ScheduledSessions int64 `json:"scheduled_sessions"`
}

// StudentDetailResponse is the student detail view with KPIs.
type StudentDetailResponse struct {
	StudentResponse
	KPIs           StudentKPIs `json:"kpis"`
	AttendanceRate float64     `json:"attendance_rate"`
}

// StudentSummaryResponse carries the generated performance summary.
type StudentSummaryResponse struct {
	ReportHTML string `json:"report_html"`
}

// NewStudentResponse converts a model into its DTO.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:         student.ID,
		FullName:   student.FullName,
		Phone:      student.Phone,
		Email:      student.Email,
		EnrolledOn: time.Time(student.EnrolledOn).Format(DateLayout),
	}
}

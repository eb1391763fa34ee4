package dto

import (
	"time"

	"github.com/noah-isme/drumschool-api/internal/models"
)

// ExerciseItemRequest describes a rudiment or fill practised in a lesson.
type ExerciseItemRequest struct {
	Description     string  `json:"description" validate:"required,min=1,max=255"`
	Tempo           string  `json:"tempo" validate:"max=50"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gte=0,lte=600"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
}

// RhythmItemRequest describes a rhythm, optionally referencing a method book.
type RhythmItemRequest struct {
	ExerciseItemRequest
	MethodReference string `json:"method_reference" validate:"max=255"`
}

// ReportCreateRequest creates a lesson report with its nested items. The validating
// teacher is always the authenticated caller, so the payload carries no such field.
type ReportCreateRequest struct {
	SessionID     uint                  `json:"session_id" validate:"required,gt=0"`
	TheoryContent string                `json:"theory_content"`
	Repertoire    string                `json:"repertoire"`
	GeneralNotes  string                `json:"general_notes"`
	Rudiments     []ExerciseItemRequest `json:"rudiments" validate:"omitempty,dive"`
	Rhythms       []RhythmItemRequest   `json:"rhythms" validate:"omitempty,dive"`
	Fills         []ExerciseItemRequest `json:"fills" validate:"omitempty,dive"`
}

// ReportUpdateRequest replaces report content. Item arrays that are present replace the
// whole collection of that kind; absent arrays are left untouched.
type ReportUpdateRequest struct {
	TheoryContent *string                `json:"theory_content"`
	Repertoire    *string                `json:"repertoire"`
	GeneralNotes  *string                `json:"general_notes"`
	Rudiments     *[]ExerciseItemRequest `json:"rudiments" validate:"omitempty,dive"`
	Rhythms       *[]RhythmItemRequest   `json:"rhythms" validate:"omitempty,dive"`
	Fills         *[]ExerciseItemRequest `json:"fills" validate:"omitempty,dive"`
}

// ExerciseItemResponse serializes a rudiment or fill.
type ExerciseItemResponse struct {
	ID              uint    `json:"id"`
	Description     string  `json:"description"`
	Tempo           string  `json:"tempo"`
	DurationMinutes *int    `json:"duration_minutes"`
	Notes           *string `json:"notes"`
}

// RhythmItemResponse serializes a rhythm item.
type RhythmItemResponse struct {
	ExerciseItemResponse
	MethodReference string `json:"method_reference"`
}

// ReportResponse serializes a lesson report.
type ReportResponse struct {
	ID                uint                    `json:"id"`
	SessionID         uint                    `json:"session_id"`
	TheoryContent     string                  `json:"theory_content"`
	Repertoire        string                  `json:"repertoire"`
	GeneralNotes      string                  `json:"general_notes"`
	ValidatingTeacher *SessionTeacherResponse `json:"validating_teacher"`
	Rudiments         []ExerciseItemResponse  `json:"rudiments"`
	Rhythms           []RhythmItemResponse    `json:"rhythms"`
	Fills             []ExerciseItemResponse  `json:"fills"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}

// ToExerciseFields converts the request into the persisted shape.
func (r ExerciseItemRequest) ToExerciseFields() models.ExerciseFields {
	return models.ExerciseFields{
		Description:     r.Description,
		Tempo:           r.Tempo,
		DurationMinutes: r.DurationMinutes,
		Notes:           r.Notes,
	}
}

func newExerciseItemResponse(id uint, fields models.ExerciseFields) ExerciseItemResponse {
	return ExerciseItemResponse{
		ID:              id,
		Description:     fields.Description,
		Tempo:           fields.Tempo,
		DurationMinutes: fields.DurationMinutes,
		Notes:           fields.Notes,
	}
}

// NewReportResponse converts a model into its DTO.
func NewReportResponse(report models.LessonReport) ReportResponse {
	response := ReportResponse{
		ID:            report.ID,
		SessionID:     report.ClassSessionID,
		TheoryContent: report.TheoryContent,
		Repertoire:    report.Repertoire,
		GeneralNotes:  report.GeneralNotes,
		Rudiments:     make([]ExerciseItemResponse, 0, len(report.Rudiments)),
		Rhythms:       make([]RhythmItemResponse, 0, len(report.Rhythms)),
		Fills:         make([]ExerciseItemResponse, 0, len(report.Fills)),
		CreatedAt:     report.CreatedAt,
		UpdatedAt:     report.UpdatedAt,
	}

	if report.ValidatingTeacher != nil {
		teacher := NewSessionTeacherResponse(*report.ValidatingTeacher)
		response.ValidatingTeacher = &teacher
	} else if report.ValidatingTeacherID != nil {
		response.ValidatingTeacher = &SessionTeacherResponse{ID: *report.ValidatingTeacherID}
	}

	for _, item := range report.Rudiments {
		response.Rudiments = append(response.Rudiments, newExerciseItemResponse(item.ID, item.ExerciseFields))
	}
	for _, item := range report.Rhythms {
		response.Rhythms = append(response.Rhythms, RhythmItemResponse{
			ExerciseItemResponse: newExerciseItemResponse(item.ID, item.ExerciseFields),
			MethodReference:      item.MethodReference,
		})
	}
	for _, item := range report.Fills {
		response.Fills = append(response.Fills, newExerciseItemResponse(item.ID, item.ExerciseFields))
	}

	return response
}

// ReportListRequest filters the report listing.
type ReportListRequest struct {
	SessionID           uint
	ValidatingTeacherID uint
	Page                int
	PageSize            int
}

// ReportListResponse wraps a paginated report listing.
type ReportListResponse struct {
	Items      []ReportResponse `json:"items"`
	Pagination PaginationMeta   `json:"pagination"`
}

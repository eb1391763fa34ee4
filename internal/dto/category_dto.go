package dto

import "github.com/noah-isme/drumschool-api/internal/models"

// CategoryCreateRequest is the payload for creating a category.
type CategoryCreateRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	Kind string `json:"kind" validate:"omitempty,oneof=lesson complementary"`
}

// CategoryUpdateRequest captures partial category updates.
type CategoryUpdateRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
	Kind *string `json:"kind" validate:"omitempty,oneof=lesson complementary"`
}

// CategoryResponse serializes a category.
type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// CategoryKPIs summarises the sessions of a category.
type CategoryKPIs struct {
	TotalSessions      int64 `json:"total_sessions"`
	CompletedSessions  int64 `json:"completed_sessions"`
	ActiveStudents     int64 `json:"active_students"`
	AssociatedTeachers int64 `json:"associated_teachers"`
}

// CategoryDetailResponse is the category detail view with KPIs and a monthly histogram.
type CategoryDetailResponse struct {
	CategoryResponse
	KPIs             CategoryKPIs `json:"kpis"`
	SessionsPerMonth ChartData    `json:"sessions_per_month_chart"`
}

// NewCategoryResponse converts a model into its DTO.
func NewCategoryResponse(category models.Category) CategoryResponse {
	return CategoryResponse{
		ID:   category.ID,
		Name: category.Name,
		Kind: string(category.Kind),
	}
}

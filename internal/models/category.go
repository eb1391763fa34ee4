package models

import (
	"strings"
	"time"
)

// CategoryKind distinguishes how sessions of a category are considered delivered.
type CategoryKind string

const (
	// CategoryKindLesson is an ordinary lesson; delivery is credited through the lesson report.
	CategoryKindLesson CategoryKind = "lesson"
	// CategoryKindComplementary is a complementary activity; delivery is credited through teacher presence.
	CategoryKindComplementary CategoryKind = "complementary"
)

var complementaryNameMarkers = []string{"complementary activity", "atividade complementar"}

// Category groups sessions by the kind of class offered (e.g. "Drums", "Complementary Activity").
type Category struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Kind      CategoryKind `gorm:"size:32;not null;default:lesson" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// IsComplementary reports whether sessions of this kind are complementary activities.
func (k CategoryKind) IsComplementary() bool {
	return k == CategoryKindComplementary
}

// Valid reports whether the kind is one of the known values.
func (k CategoryKind) Valid() bool {
	return k == CategoryKindLesson || k == CategoryKindComplementary
}

// InferCategoryKind derives the kind from a category name for callers that do not supply one.
func InferCategoryKind(name string) CategoryKind {
	lower := strings.ToLower(name)
	for _, marker := range complementaryNameMarkers {
		if strings.Contains(lower, marker) {
			return CategoryKindComplementary
		}
	}
	return CategoryKindLesson
}

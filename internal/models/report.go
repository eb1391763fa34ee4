package models

import "time"

// LessonReport documents what was taught in a session. A session has at most one report.
type LessonReport struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	ClassSessionID      uint           `gorm:"not null;uniqueIndex" json:"session_id"`
	TheoryContent       string         `gorm:"type:text" json:"theory_content"`
	Repertoire          string         `gorm:"type:text" json:"repertoire"`
	GeneralNotes        string         `gorm:"type:text" json:"general_notes"`
	ValidatingTeacherID *uint          `gorm:"index" json:"validating_teacher_id"`
	ValidatingTeacher   *User          `gorm:"constraint:OnDelete:SET NULL" json:"validating_teacher,omitempty"`
	Rudiments           []RudimentItem `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"rudiments"`
	Rhythms             []RhythmItem   `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"rhythms"`
	Fills               []FillItem     `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"fills"`
	CreatedAt           time.Time      `gorm:"autoCreateTime;<-:create" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// ItemCount returns the number of exercise items across the three kinds.
func (r LessonReport) ItemCount() int {
	return len(r.Rudiments) + len(r.Rhythms) + len(r.Fills)
}

// ExerciseFields are shared by every kind of report item. Tempo is free text ("90-110", "slow").
type ExerciseFields struct {
	Description     string  `gorm:"size:255;not null" json:"description"`
	Tempo           string  `gorm:"size:50" json:"tempo"`
	DurationMinutes *int    `json:"duration_minutes"`
	Notes           *string `gorm:"type:text" json:"notes"`
}

// RudimentItem is a rudiment practised during the lesson.
type RudimentItem struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ReportID       uint `gorm:"not null;index" json:"report_id"`
	ExerciseFields `gorm:"embedded"`
}

// RhythmItem is a groove or rhythm, optionally taken from a method book.
type RhythmItem struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	ReportID        uint   `gorm:"not null;index" json:"report_id"`
	MethodReference string `gorm:"size:255" json:"method_reference"`
	ExerciseFields  `gorm:"embedded"`
}

// FillItem is a drum fill practised during the lesson.
type FillItem struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	ReportID       uint `gorm:"not null;index" json:"report_id"`
	ExerciseFields `gorm:"embedded"`
}

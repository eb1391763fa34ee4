package models

import (
	"time"

	"gorm.io/datatypes"
)

// Student is an enrolled learner. It is independent of any login account.
type Student struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	FullName   string         `gorm:"size:255;not null;index" json:"full_name"`
	Phone      *string        `gorm:"size:20" json:"phone"`
	Email      *string        `gorm:"size:255;uniqueIndex" json:"email"`
	EnrolledOn datatypes.Date `gorm:"not null" json:"enrolled_on"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

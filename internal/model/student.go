package model

import "time"

// Student represents a registered student profile.
// DOB and RegisteredOn use the historical YYYY-MM-DD string layout.
type Student struct {
	ID           int64     `gorm:"primaryKey" json:"-"`
	StudentID    string    `gorm:"uniqueIndex;size:32;not null" json:"student_id"`
	Name         string    `gorm:"size:128;not null" json:"name"`
	DOB          string    `gorm:"size:10" json:"dob"`
	SchoolName   string    `gorm:"size:128" json:"school_name"`
	RegisteredOn string    `gorm:"size:10;not null" json:"registered_on"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Qualification is a higher-education award held by a teacher. At most one
// machine-managed record exists per type; human-entered duplicates are left
// in place and flagged for manual review.
type Qualification struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	TeacherID       uuid.UUID  `db:"teacher_id" json:"teacher_id"`
	QualificationID uuid.UUID  `db:"qualification_ref_id" json:"qualification_ref_id"`
	CountryID       *uuid.UUID `db:"country_id" json:"country_id,omitempty"`
	Subject1ID      *uuid.UUID `db:"subject1_id" json:"subject1_id,omitempty"`
	Subject2ID      *uuid.UUID `db:"subject2_id" json:"subject2_id,omitempty"`
	Subject3ID      *uuid.UUID `db:"subject3_id" json:"subject3_id,omitempty"`
	Class           *string    `db:"class" json:"class,omitempty"`
	CompletionDate  *time.Time `db:"completion_date" json:"completion_date,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Provider is an accredited ITT provider, keyed externally by UKPRN.
type Provider struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UKPRN     string    `db:"ukprn" json:"ukprn"`
	Name      string    `db:"name" json:"name"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Country is a seeded country reference row.
type Country struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Code string    `db:"code" json:"code"`
	Name string    `db:"name" json:"name"`
}

// Subject is a seeded ITT/HE subject reference row.
type Subject struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Code string    `db:"code" json:"code"`
	Name string    `db:"name" json:"name"`
}

// HEQualification is a seeded higher-education qualification reference row.
type HEQualification struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Code string    `db:"code" json:"code"`
	Name string    `db:"name" json:"name"`
}

// TeacherStatus is a seeded teacher-status reference row (codes in qts.go).
type TeacherStatus struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Code string    `db:"code" json:"code"`
	Name string    `db:"name" json:"name"`
}

// EarlyYearsStatus is a seeded early-years-status reference row.
type EarlyYearsStatus struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Code string    `db:"code" json:"code"`
	Name string    `db:"name" json:"name"`
}

// ReferenceData is the per-command snapshot of everything the create
// pipeline resolved about a submission. For the code-lookup ids a nil field
// means the corresponding code was supplied but not found (or not supplied
// at all); callers distinguish the two via the command. The status ids hold
// the provisional status for the submission's programme category, and the
// key-reuse booleans are filled after duplicate matching. Created fresh per
// command, never persisted.
type ReferenceData struct {
	ProviderID              *uuid.UUID
	Subject1ID              *uuid.UUID
	Subject2ID              *uuid.UUID
	Subject3ID              *uuid.UUID
	TrainingCountryID       *uuid.UUID
	QualificationID         *uuid.UUID
	QualificationCountryID  *uuid.UUID
	QualificationSubject1ID *uuid.UUID
	QualificationSubject2ID *uuid.UUID
	QualificationSubject3ID *uuid.UUID
	TeacherStatusID         *uuid.UUID
	EarlyYearsStatusID      *uuid.UUID

	HaveExistingTeacherWithHUSID  bool
	HaveExistingTeacherWithSlugID bool
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Teacher-status and early-years-status reference codes. These are seeded
// lookup rows; the codes are stable, the row ids are resolved at runtime.
const (
	TeacherStatusQualifiedTrained        = "71"
	TeacherStatusQualifiedAssessmentOnly = "100"
	TeacherStatusQualifiedInternational  = "103"
	TeacherStatusTraineeTeacher          = "211"
	TeacherStatusAORCandidate            = "212"

	EarlyYearsStatusTrainee = "220"
	EarlyYearsStatusAwarded = "221"
)

// QTSRegistration tracks a teacher's path to QTS or EYTS. It carries either a
// teacher-status reference or an early-years-status reference, never both.
type QTSRegistration struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	TeacherID          uuid.UUID  `db:"teacher_id" json:"teacher_id"`
	TeacherStatusID    *uuid.UUID `db:"teacher_status_id" json:"teacher_status_id,omitempty"`
	EarlyYearsStatusID *uuid.UUID `db:"early_years_status_id" json:"early_years_status_id,omitempty"`
	QTSDate            *time.Time `db:"qts_date" json:"qts_date,omitempty"`
	EYTSDate           *time.Time `db:"eyts_date" json:"eyts_date,omitempty"`
	Active             bool       `db:"active" json:"active"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// HasStatus reports whether any status reference is populated. Un-withdraw
// re-selects among registrations whose status was previously cleared.
func (q *QTSRegistration) HasStatus() bool {
	return q.TeacherStatusID != nil || q.EarlyYearsStatusID != nil
}

// ProvisionalStatusCode returns the placeholder status a not-yet-awarded
// registration carries for the programme category.
func ProvisionalStatusCode(p ProgrammeType) string {
	switch {
	case p.EarlyYears():
		return EarlyYearsStatusTrainee
	case p.AssessmentOnly():
		return TeacherStatusAORCandidate
	default:
		return TeacherStatusTraineeTeacher
	}
}

// AwardedStatusCode returns the status set when the programme passes.
func AwardedStatusCode(p ProgrammeType) string {
	switch {
	case p.EarlyYears():
		return EarlyYearsStatusAwarded
	case p.AssessmentOnly():
		return TeacherStatusQualifiedAssessmentOnly
	case p == ProgrammeInternational:
		return TeacherStatusQualifiedInternational
	default:
		return TeacherStatusQualifiedTrained
	}
}

// InductionStatus enumerates induction states this service writes.
type InductionStatus string

// InductionRequiredToComplete is the only status set here; the induction
// lifecycle beyond creation belongs to another service.
const InductionRequiredToComplete InductionStatus = "required_to_complete"

// Induction is created exactly once, on a teacher's first QTS/EYTS award.
type Induction struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	TeacherID uuid.UUID       `db:"teacher_id" json:"teacher_id"`
	Status    InductionStatus `db:"status" json:"status"`
	StartDate *time.Time      `db:"start_date" json:"start_date,omitempty"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

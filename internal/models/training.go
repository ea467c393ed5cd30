package models

import (
	"time"

	"github.com/google/uuid"
)

// TrainingResult is the outcome recorded on an initial teacher training record.
type TrainingResult string

const (
	ResultInTraining             TrainingResult = "in_training"
	ResultUnderAssessment        TrainingResult = "under_assessment"
	ResultPass                   TrainingResult = "pass"
	ResultFail                   TrainingResult = "fail"
	ResultWithdrawn              TrainingResult = "withdrawn"
	ResultDeferred               TrainingResult = "deferred"
	ResultDeferredForSkillsTests TrainingResult = "deferred_for_skills_tests"
)

// Valid reports whether the value is a known training result.
func (r TrainingResult) Valid() bool {
	switch r {
	case ResultInTraining, ResultUnderAssessment, ResultPass, ResultFail,
		ResultWithdrawn, ResultDeferred, ResultDeferredForSkillsTests:
		return true
	}
	return false
}

// Terminal reports whether the result closes the record for good. Pass is
// terminal for the programme but stays addressable for idempotent re-sends,
// so only Fail counts here; Withdrawn can be reopened via the un-withdraw
// path.
func (r TrainingResult) Terminal() bool {
	return r == ResultFail
}

// ProgrammeType categorises an ITT programme.
type ProgrammeType string

const (
	ProgrammeAssessmentOnlyRoute       ProgrammeType = "assessment_only_route"
	ProgrammeApprenticeship            ProgrammeType = "apprenticeship"
	ProgrammeCore                      ProgrammeType = "core"
	ProgrammeCoreFlexible              ProgrammeType = "core_flexible"
	ProgrammeFutureTeachingScholars    ProgrammeType = "future_teaching_scholars"
	ProgrammeGraduateTeacherProgramme  ProgrammeType = "graduate_teacher_programme"
	ProgrammeHEI                       ProgrammeType = "hei"
	ProgrammeInternational             ProgrammeType = "international_qualified_teacher_status"
	ProgrammeOverseasTrained           ProgrammeType = "overseas_trained_teacher_programme"
	ProgrammeSchoolDirect              ProgrammeType = "school_direct"
	ProgrammeSchoolDirectSalaried      ProgrammeType = "school_direct_salaried"
	ProgrammeTeachFirst                ProgrammeType = "teach_first"
	ProgrammeEYITTAssessmentOnly       ProgrammeType = "eyitt_assessment_only"
	ProgrammeEYITTGraduateEntry        ProgrammeType = "eyitt_graduate_entry"
	ProgrammeEYITTGraduateEmployment   ProgrammeType = "eyitt_graduate_employment_based"
	ProgrammeEYITTSchoolDirect         ProgrammeType = "eyitt_school_direct"
	ProgrammeEYITTUndergraduate        ProgrammeType = "eyitt_undergraduate"
)

// EarlyYears reports whether the programme leads to EYTS rather than QTS.
func (p ProgrammeType) EarlyYears() bool {
	switch p {
	case ProgrammeEYITTAssessmentOnly, ProgrammeEYITTGraduateEntry,
		ProgrammeEYITTGraduateEmployment, ProgrammeEYITTSchoolDirect,
		ProgrammeEYITTUndergraduate:
		return true
	}
	return false
}

// AssessmentOnly reports whether candidates are assessed rather than trained.
func (p ProgrammeType) AssessmentOnly() bool {
	return p == ProgrammeAssessmentOnlyRoute
}

// TrainingRecord is one initial-teacher-training episode for a teacher. At
// most one non-terminal record may be in flight per teacher; terminal
// Fail/Withdrawn records accumulate historically.
type TrainingRecord struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	TeacherID     uuid.UUID      `db:"teacher_id" json:"teacher_id"`
	ProviderID    uuid.UUID      `db:"provider_id" json:"provider_id"`
	ProgrammeType ProgrammeType  `db:"programme_type" json:"programme_type"`
	Result        TrainingResult `db:"result" json:"result"`
	Subject1ID    *uuid.UUID     `db:"subject1_id" json:"subject1_id,omitempty"`
	Subject2ID    *uuid.UUID     `db:"subject2_id" json:"subject2_id,omitempty"`
	Subject3ID    *uuid.UUID     `db:"subject3_id" json:"subject3_id,omitempty"`
	AgeRangeFrom  *int           `db:"age_range_from" json:"age_range_from,omitempty"`
	AgeRangeTo    *int           `db:"age_range_to" json:"age_range_to,omitempty"`
	StartDate     *time.Time     `db:"start_date" json:"start_date,omitempty"`
	EndDate       *time.Time     `db:"end_date" json:"end_date,omitempty"`
	SlugID        *string        `db:"slug_id" json:"slug_id,omitempty"`
	Active        bool           `db:"active" json:"active"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// InitialResult returns the result a fresh record starts in for the
// programme category.
func (p ProgrammeType) InitialResult() TrainingResult {
	if p.AssessmentOnly() {
		return ResultUnderAssessment
	}
	return ResultInTraining
}

// ActiveResultSet returns the results an in-flight or
// terminal-this-cycle record may hold for the programme category. Selection
// of the single applicable record only considers these.
func (p ProgrammeType) ActiveResultSet() []TrainingResult {
	if p.AssessmentOnly() {
		return []TrainingResult{ResultUnderAssessment, ResultWithdrawn, ResultDeferred, ResultPass, ResultFail}
	}
	return []TrainingResult{ResultInTraining, ResultWithdrawn, ResultDeferred, ResultPass, ResultFail}
}

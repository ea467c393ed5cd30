package models

// FailureReason is one independent, caller-visible reason a command could not
// be applied. Reasons are business outcomes, never wrapped in errors; several
// can hold at once for a single command.
type FailureReason string

const (
	// Create-teacher reference-data failures.
	FailureProviderNotFound              FailureReason = "itt_provider_not_found"
	FailureSubject1NotFound              FailureReason = "subject1_not_found"
	FailureSubject2NotFound              FailureReason = "subject2_not_found"
	FailureSubject3NotFound              FailureReason = "subject3_not_found"
	FailureTrainingCountryNotFound       FailureReason = "training_country_not_found"
	FailureQualificationNotFound         FailureReason = "qualification_not_found"
	FailureQualificationCountryNotFound  FailureReason = "qualification_country_not_found"
	FailureQualificationSubjectNotFound  FailureReason = "qualification_subject_not_found"
	FailureQualificationSubject2NotFound FailureReason = "qualification_subject2_not_found"
	FailureQualificationSubject3NotFound FailureReason = "qualification_subject3_not_found"

	// ITT/QTS selection and transition failures.
	FailureNoMatchingIttRecord                          FailureReason = "no_matching_itt_record"
	FailureMultipleIttRecords                           FailureReason = "multiple_itt_records"
	FailureNoMatchingQtsRecord                          FailureReason = "no_matching_qts_record"
	FailureMultipleQtsRecords                           FailureReason = "multiple_qts_records"
	FailureQtsDateMismatch                              FailureReason = "qts_date_mismatch"
	FailureEytsDateMismatch                             FailureReason = "eyts_date_mismatch"
	FailureUnableToUnwithdrawToDeferredStatus           FailureReason = "unable_to_unwithdraw_to_deferred_status"
	FailureUnderAssessmentOnlyPermittedForProgrammeType FailureReason = "under_assessment_only_permitted_for_programme_type"
	FailureInTrainingResultNotPermittedForProgrammeType FailureReason = "in_training_result_not_permitted_for_programme_type"

	FailureTrnNotFound FailureReason = "trn_not_found"
)

// FailureReasons is an ordered set of failure reasons. Order of insertion is
// preserved so validation feedback renders deterministically; duplicates are
// ignored.
type FailureReasons []FailureReason

// Add appends a reason unless already present.
func (f *FailureReasons) Add(reason FailureReason) {
	if f.Has(reason) {
		return
	}
	*f = append(*f, reason)
}

// AddIf appends a reason when cond is true.
func (f *FailureReasons) AddIf(cond bool, reason FailureReason) {
	if cond {
		f.Add(reason)
	}
}

// Has reports whether the reason is present.
func (f FailureReasons) Has(reason FailureReason) bool {
	for _, r := range f {
		if r == reason {
			return true
		}
	}
	return false
}

// Any reports whether at least one reason was recorded.
func (f FailureReasons) Any() bool {
	return len(f) > 0
}

// Strings returns the reasons as plain strings for responses and task bodies.
func (f FailureReasons) Strings() []string {
	out := make([]string, len(f))
	for i, r := range f {
		out[i] = string(r)
	}
	return out
}

package service

import (
	"github.com/google/uuid"

	"github.com/teachreg/trs-api/internal/models"
)

// SelectTrainingRecord picks the single applicable ITT record for a
// (teacher, provider) pair from the provider's active records.
//
// Records matching a supplied SlugID are preferred; with none, records
// carrying no SlugID at all are considered. The survivors are narrowed to
// results in the in-flight-or-terminal-this-cycle set for the programme
// category. Zero survivors or more than one are failures, since ambiguity is
// reported, never guessed.
func SelectTrainingRecord(records []models.TrainingRecord, slugID *string, programme models.ProgrammeType) (*models.TrainingRecord, models.FailureReason) {
	candidates := preferBySlug(records, slugID)

	allowed := make(map[models.TrainingResult]bool)
	for _, result := range programme.ActiveResultSet() {
		allowed[result] = true
	}

	var selected []models.TrainingRecord
	for _, r := range candidates {
		if allowed[r.Result] {
			selected = append(selected, r)
		}
	}

	switch len(selected) {
	case 0:
		return nil, models.FailureNoMatchingIttRecord
	case 1:
		record := selected[0]
		return &record, ""
	default:
		return nil, models.FailureMultipleIttRecords
	}
}

func preferBySlug(records []models.TrainingRecord, slugID *string) []models.TrainingRecord {
	if slugID != nil && *slugID != "" {
		var matched []models.TrainingRecord
		for _, r := range records {
			if r.SlugID != nil && *r.SlugID == *slugID {
				matched = append(matched, r)
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}
	var unslugged []models.TrainingRecord
	for _, r := range records {
		if r.SlugID == nil || *r.SlugID == "" {
			unslugged = append(unslugged, r)
		}
	}
	return unslugged
}

// CountInFlightRecords counts active records anywhere (any provider) still in
// a non-terminal state. Updates reject ambiguity above one so a provider
// switch never silently abandons a second in-flight programme.
func CountInFlightRecords(records []models.TrainingRecord) int {
	count := 0
	for _, r := range records {
		switch r.Result {
		case models.ResultInTraining, models.ResultUnderAssessment,
			models.ResultDeferred, models.ResultDeferredForSkillsTests:
			count++
		}
	}
	return count
}

// QTSStatusSet carries the resolved status row ids relevant to one programme
// category: the awarded statuses and the not-yet-awarded placeholder.
type QTSStatusSet struct {
	EarlyYears    bool
	AwardedIDs    []uuid.UUID
	ProvisionalID uuid.UUID
}

func (s QTSStatusSet) matches(reg models.QTSRegistration) bool {
	var status *uuid.UUID
	if s.EarlyYears {
		status = reg.EarlyYearsStatusID
	} else {
		status = reg.TeacherStatusID
	}
	if status == nil {
		return false
	}
	for _, id := range s.AwardedIDs {
		if *status == id {
			return true
		}
	}
	return *status == s.ProvisionalID
}

// SelectQTSRegistration picks the single active registration matching the
// programme category, by awarded status or provisional placeholder. Same
// zero/one/many policy as ITT selection.
func SelectQTSRegistration(regs []models.QTSRegistration, statuses QTSStatusSet) (*models.QTSRegistration, models.FailureReason) {
	var selected []models.QTSRegistration
	for _, reg := range regs {
		if statuses.matches(reg) {
			selected = append(selected, reg)
		}
	}
	switch len(selected) {
	case 0:
		return nil, models.FailureNoMatchingQtsRecord
	case 1:
		reg := selected[0]
		return &reg, ""
	default:
		return nil, models.FailureMultipleQtsRecords
	}
}

// SelectClearedQTSRegistration picks the single registration whose status was
// previously cleared, used when un-withdrawing to re-populate the provisional
// placeholder.
func SelectClearedQTSRegistration(regs []models.QTSRegistration) (*models.QTSRegistration, models.FailureReason) {
	var selected []models.QTSRegistration
	for _, reg := range regs {
		if !reg.HasStatus() {
			selected = append(selected, reg)
		}
	}
	switch len(selected) {
	case 0:
		return nil, models.FailureNoMatchingQtsRecord
	case 1:
		reg := selected[0]
		return &reg, ""
	default:
		return nil, models.FailureMultipleQtsRecords
	}
}

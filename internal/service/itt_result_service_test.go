package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/store"
)

// ittFixture wires an IttResultService against the stub store and seeded
// reference lookups.
type ittFixture struct {
	client     *stubEntityClient
	svc        *IttResultService
	providerID uuid.UUID
	statusIDs  map[string]uuid.UUID
	teacher    *models.Teacher
}

func newIttFixture() *ittFixture {
	statusIDs := map[string]uuid.UUID{}
	for _, code := range []string{
		models.TeacherStatusQualifiedTrained,
		models.TeacherStatusQualifiedAssessmentOnly,
		models.TeacherStatusQualifiedInternational,
		models.TeacherStatusTraineeTeacher,
		models.TeacherStatusAORCandidate,
		models.EarlyYearsStatusTrainee,
		models.EarlyYearsStatusAwarded,
	} {
		statusIDs[code] = uuid.New()
	}

	providerID := uuid.New()
	lookups := &mockReferenceLookups{
		providers: map[string]uuid.UUID{"10007799": providerID},
		statuses: map[string]uuid.UUID{
			models.TeacherStatusQualifiedTrained:        statusIDs[models.TeacherStatusQualifiedTrained],
			models.TeacherStatusQualifiedAssessmentOnly: statusIDs[models.TeacherStatusQualifiedAssessmentOnly],
			models.TeacherStatusQualifiedInternational:  statusIDs[models.TeacherStatusQualifiedInternational],
			models.TeacherStatusTraineeTeacher:          statusIDs[models.TeacherStatusTraineeTeacher],
			models.TeacherStatusAORCandidate:            statusIDs[models.TeacherStatusAORCandidate],
		},
		eyStatus: map[string]uuid.UUID{
			models.EarlyYearsStatusTrainee: statusIDs[models.EarlyYearsStatusTrainee],
			models.EarlyYearsStatusAwarded: statusIDs[models.EarlyYearsStatusAwarded],
		},
	}

	client := &stubEntityClient{results: map[string][]store.Entity{}}
	teacher := &models.Teacher{
		ID:     uuid.New(),
		TRN:    strptr("1234567"),
		Active: true,
	}
	client.results[models.EntityTeacher] = []store.Entity{teacher}

	return &ittFixture{
		client:     client,
		svc:        NewIttResultService(client, NewReferenceResolver(lookups, nil), nil, nil),
		providerID: providerID,
		statusIDs:  statusIDs,
		teacher:    teacher,
	}
}

func (f *ittFixture) withTraining(result models.TrainingResult, programme models.ProgrammeType) *models.TrainingRecord {
	record := &models.TrainingRecord{
		ID:            uuid.New(),
		TeacherID:     f.teacher.ID,
		ProviderID:    f.providerID,
		ProgrammeType: programme,
		Result:        result,
		Active:        true,
	}
	f.client.results[models.EntityTrainingRecord] = append(f.client.results[models.EntityTrainingRecord], record)
	return record
}

func (f *ittFixture) withRegistration(statusCode string) *models.QTSRegistration {
	reg := &models.QTSRegistration{
		ID:        uuid.New(),
		TeacherID: f.teacher.ID,
		Active:    true,
	}
	if statusCode != "" {
		id := f.statusIDs[statusCode]
		if statusCode == models.EarlyYearsStatusTrainee || statusCode == models.EarlyYearsStatusAwarded {
			reg.EarlyYearsStatusID = &id
		} else {
			reg.TeacherStatusID = &id
		}
	}
	f.client.results[models.EntityQTSRegistration] = append(f.client.results[models.EntityQTSRegistration], reg)
	return reg
}

func (f *ittFixture) command(result models.TrainingResult, programme models.ProgrammeType) SetIttResultCommand {
	return SetIttResultCommand{
		TRN:           "1234567",
		ProviderUKPRN: "10007799",
		ProgrammeType: programme,
		Result:        result,
	}
}

func updatesOf(reqs []store.Request, entityType string) []store.UpdateRequest {
	var out []store.UpdateRequest
	for _, req := range reqs {
		if u, ok := req.(store.UpdateRequest); ok && u.Entity.EntityType() == entityType {
			out = append(out, u)
		}
	}
	return out
}

func createsOf(reqs []store.Request, entityType string) []store.CreateRequest {
	var out []store.CreateRequest
	for _, req := range reqs {
		if c, ok := req.(store.CreateRequest); ok && c.Entity.EntityType() == entityType {
			out = append(out, c)
		}
	}
	return out
}

func writeCount(reqs []store.Request) int {
	count := 0
	for _, req := range reqs {
		switch req.(type) {
		case store.CreateRequest, store.UpdateRequest:
			count++
		}
	}
	return count
}

func TestSetResultFirstPassAwardsQTS(t *testing.T) {
	f := newIttFixture()
	record := f.withTraining(models.ResultInTraining, models.ProgrammeCore)
	reg := f.withRegistration(models.TeacherStatusTraineeTeacher)

	cmd := f.command(models.ResultPass, models.ProgrammeCore)
	cmd.AssessmentDate = date(2026, time.June, 30)

	outcome, err := f.svc.SetResult(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	require.NotNil(t, outcome.AwardDate)
	assert.Equal(t, *cmd.AssessmentDate, *outcome.AwardDate)

	recordUpdates := updatesOf(f.client.requests, models.EntityTrainingRecord)
	require.Len(t, recordUpdates, 1)
	assert.ElementsMatch(t, []string{"result", "end_date", "updated_at"}, recordUpdates[0].Columns)
	assert.Equal(t, models.ResultPass, record.Result)

	regUpdates := updatesOf(f.client.requests, models.EntityQTSRegistration)
	require.Len(t, regUpdates, 1)
	require.NotNil(t, reg.TeacherStatusID)
	assert.Equal(t, f.statusIDs[models.TeacherStatusQualifiedTrained], *reg.TeacherStatusID)
	require.NotNil(t, reg.QTSDate)

	teacherUpdates := updatesOf(f.client.requests, models.EntityTeacher)
	require.Len(t, teacherUpdates, 1)
	assert.ElementsMatch(t, []string{"qts_date", "updated_at"}, teacherUpdates[0].Columns)

	inductions := createsOf(f.client.requests, models.EntityInduction)
	require.Len(t, inductions, 1)
	induction := inductions[0].Entity.(*models.Induction)
	assert.Equal(t, models.InductionRequiredToComplete, induction.Status)
	assert.Equal(t, f.teacher.ID, induction.TeacherID)

	messages := createsOf(f.client.requests, models.EntityOutboxMessage)
	require.Len(t, messages, 1)
	assert.Equal(t, models.MessageInductionStatusSet, messages[0].Entity.(*models.OutboxMessage).MessageName)
}

func TestSetResultEarlyYearsPassSkipsInduction(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultInTraining, models.ProgrammeEYITTGraduateEntry)
	reg := f.withRegistration(models.EarlyYearsStatusTrainee)

	cmd := f.command(models.ResultPass, models.ProgrammeEYITTGraduateEntry)
	cmd.AssessmentDate = date(2026, time.June, 30)

	outcome, err := f.svc.SetResult(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)

	require.NotNil(t, reg.EarlyYearsStatusID)
	assert.Equal(t, f.statusIDs[models.EarlyYearsStatusAwarded], *reg.EarlyYearsStatusID)
	require.NotNil(t, reg.EYTSDate)
	assert.Nil(t, reg.QTSDate)

	assert.Empty(t, createsOf(f.client.requests, models.EntityInduction))
	assert.Empty(t, createsOf(f.client.requests, models.EntityOutboxMessage))
}

func TestSetResultPassResendSameDateIsIdempotent(t *testing.T) {
	f := newIttFixture()
	f.teacher.QTSDate = date(2026, time.June, 30)
	f.withTraining(models.ResultPass, models.ProgrammeCore)

	cmd := f.command(models.ResultPass, models.ProgrammeCore)
	cmd.AssessmentDate = date(2026, time.June, 30)

	outcome, err := f.svc.SetResult(context.Background(), cmd)
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	require.NotNil(t, outcome.AwardDate)
	assert.Zero(t, writeCount(f.client.requests))
}

func TestSetResultPassDifferentDateIsMismatch(t *testing.T) {
	f := newIttFixture()
	f.teacher.QTSDate = date(2026, time.June, 30)
	f.withTraining(models.ResultPass, models.ProgrammeCore)

	cmd := f.command(models.ResultPass, models.ProgrammeCore)
	cmd.AssessmentDate = date(2026, time.July, 1)

	outcome, err := f.svc.SetResult(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureQtsDateMismatch))
	assert.Zero(t, writeCount(f.client.requests))
}

func TestSetResultUnknownTRN(t *testing.T) {
	f := newIttFixture()
	f.client.results[models.EntityTeacher] = nil

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultWithdrawn, models.ProgrammeCore))
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureTrnNotFound))
}

func TestSetResultUnknownProvider(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultInTraining, models.ProgrammeCore)

	cmd := f.command(models.ResultWithdrawn, models.ProgrammeCore)
	cmd.ProviderUKPRN = "99999999"

	outcome, err := f.svc.SetResult(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureProviderNotFound))
}

func TestSetResultNoRecordAtProvider(t *testing.T) {
	f := newIttFixture()

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultWithdrawn, models.ProgrammeCore))
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureNoMatchingIttRecord))
}

func TestSetResultSecondInFlightProgrammeRejected(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultInTraining, models.ProgrammeCore)

	elsewhere := &models.TrainingRecord{
		ID:            uuid.New(),
		TeacherID:     f.teacher.ID,
		ProviderID:    uuid.New(),
		ProgrammeType: models.ProgrammeHEI,
		Result:        models.ResultDeferred,
		Active:        true,
	}
	f.client.results[models.EntityTrainingRecord] = append(f.client.results[models.EntityTrainingRecord], elsewhere)

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultWithdrawn, models.ProgrammeCore))
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureMultipleIttRecords))
	assert.Zero(t, writeCount(f.client.requests))
}

func TestSetResultWithdrawClearsProvisionalStatus(t *testing.T) {
	f := newIttFixture()
	record := f.withTraining(models.ResultInTraining, models.ProgrammeCore)
	reg := f.withRegistration(models.TeacherStatusTraineeTeacher)

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultWithdrawn, models.ProgrammeCore))
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)

	assert.Equal(t, models.ResultWithdrawn, record.Result)
	assert.Nil(t, reg.TeacherStatusID)
	assert.Nil(t, reg.EarlyYearsStatusID)

	regUpdates := updatesOf(f.client.requests, models.EntityQTSRegistration)
	require.Len(t, regUpdates, 1)
	assert.ElementsMatch(t, []string{"teacher_status_id", "early_years_status_id", "updated_at"}, regUpdates[0].Columns)
}

func TestSetResultSameStateResendWritesNothing(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultDeferred, models.ProgrammeCore)

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultDeferred, models.ProgrammeCore))
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Zero(t, writeCount(f.client.requests))
}

func TestSetResultFailedRecordOnlyAcceptsFailResend(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultFail, models.ProgrammeCore)

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultFail, models.ProgrammeCore))
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)
	assert.Zero(t, writeCount(f.client.requests))

	cmd := f.command(models.ResultPass, models.ProgrammeCore)
	cmd.AssessmentDate = date(2026, time.June, 30)
	outcome, err = f.svc.SetResult(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureNoMatchingIttRecord))
}

func TestSetResultWithdrawnRecordRejectsPass(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultWithdrawn, models.ProgrammeCore)

	cmd := f.command(models.ResultPass, models.ProgrammeCore)
	cmd.AssessmentDate = date(2026, time.June, 30)

	outcome, err := f.svc.SetResult(context.Background(), cmd)
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureNoMatchingIttRecord))
}

func TestSetResultWithdrawnRecordRejectsDefer(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultWithdrawn, models.ProgrammeCore)

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultDeferred, models.ProgrammeCore))
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureUnableToUnwithdrawToDeferredStatus))
}

func TestSetResultUnwithdrawRestoresProvisionalStatus(t *testing.T) {
	f := newIttFixture()
	record := f.withTraining(models.ResultWithdrawn, models.ProgrammeCore)
	reg := f.withRegistration("")

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultInTraining, models.ProgrammeCore))
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)

	assert.Equal(t, models.ResultInTraining, record.Result)
	require.NotNil(t, reg.TeacherStatusID)
	assert.Equal(t, f.statusIDs[models.TeacherStatusTraineeTeacher], *reg.TeacherStatusID)
}

func TestSetResultUnwithdrawUnderAssessmentRequiresAssessmentOnly(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultWithdrawn, models.ProgrammeCore)
	f.withRegistration("")

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultUnderAssessment, models.ProgrammeCore))
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureUnderAssessmentOnlyPermittedForProgrammeType))
}

func TestSetResultUnwithdrawInTrainingRejectedForAssessmentOnly(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultWithdrawn, models.ProgrammeAssessmentOnlyRoute)
	f.withRegistration("")

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultInTraining, models.ProgrammeAssessmentOnlyRoute))
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded)
	assert.True(t, outcome.FailureReasons.Has(models.FailureInTrainingResultNotPermittedForProgrammeType))
}

func TestSetResultSanctionedTeacherRaisesReviewTask(t *testing.T) {
	f := newIttFixture()
	f.teacher.ActiveSanctions = true
	f.withTraining(models.ResultInTraining, models.ProgrammeCore)
	f.withRegistration(models.TeacherStatusTraineeTeacher)

	outcome, err := f.svc.SetResult(context.Background(), f.command(models.ResultWithdrawn, models.ProgrammeCore))
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded)

	tasks := createsOf(f.client.requests, models.EntityReviewTask)
	require.Len(t, tasks, 1)
	task := tasks[0].Entity.(*models.ReviewTask)
	assert.Equal(t, models.ReviewCategoryActiveSanctions, task.Category)
	assert.Equal(t, f.teacher.ID, task.TeacherID)
}

func TestSetResultPassWithoutDatePanics(t *testing.T) {
	f := newIttFixture()

	assert.PanicsWithValue(t, "itt result: pass requires an assessment date", func() {
		_, _ = f.svc.SetResult(context.Background(), f.command(models.ResultPass, models.ProgrammeCore))
	})
}

func TestSetResultUnknownResultPanics(t *testing.T) {
	f := newIttFixture()

	assert.Panics(t, func() {
		_, _ = f.svc.SetResult(context.Background(), f.command("graduated", models.ProgrammeCore))
	})
}

func TestSetResultUnderAssessmentOnNonAORRecordPanics(t *testing.T) {
	f := newIttFixture()
	f.withTraining(models.ResultInTraining, models.ProgrammeCore)

	assert.Panics(t, func() {
		_, _ = f.svc.SetResult(context.Background(), f.command(models.ResultUnderAssessment, models.ProgrammeCore))
	})
}

func TestSetResultInvalidTRNRejected(t *testing.T) {
	f := newIttFixture()

	cmd := f.command(models.ResultWithdrawn, models.ProgrammeCore)
	cmd.TRN = "12345"

	_, err := f.svc.SetResult(context.Background(), cmd)
	assert.Error(t, err)
}

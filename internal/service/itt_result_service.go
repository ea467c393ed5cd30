package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/store"
	appErrors "github.com/teachreg/trs-api/pkg/errors"
)

// SetIttResultCommand requests a result transition on a teacher's active ITT
// record. AssessmentDate is mandatory for Pass and ignored otherwise.
type SetIttResultCommand struct {
	TRN            string                `json:"trn" validate:"required,len=7,numeric"`
	ProviderUKPRN  string                `json:"provider_ukprn" validate:"required"`
	ProgrammeType  models.ProgrammeType  `json:"programme_type" validate:"required"`
	SlugID         *string               `json:"slug_id,omitempty"`
	Result         models.TrainingResult `json:"result" validate:"required"`
	AssessmentDate *time.Time            `json:"assessment_date,omitempty"`
}

// SetIttResultOutcome is the typed result of a transition attempt. Business
// failures land in FailureReasons; Succeeded with no write happens on
// idempotent re-sends.
type SetIttResultOutcome struct {
	Succeeded      bool                  `json:"succeeded"`
	FailureReasons models.FailureReasons `json:"failure_reasons,omitempty"`
	AwardDate      *time.Time            `json:"award_date,omitempty"`
}

func failedOutcome(reasons ...models.FailureReason) *SetIttResultOutcome {
	out := &SetIttResultOutcome{}
	for _, r := range reasons {
		out.FailureReasons.Add(r)
	}
	return out
}

// IttResultService validates and executes ITT result transitions. Every
// mutating path issues exactly one atomic store transaction; failed
// selections and rejected transitions issue no write at all.
type IttResultService struct {
	client    store.EntityClient
	resolver  *ReferenceResolver
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIttResultService constructs an IttResultService.
func NewIttResultService(client store.EntityClient, resolver *ReferenceResolver, validate *validator.Validate, logger *zap.Logger) *IttResultService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IttResultService{client: client, resolver: resolver, validator: validate, logger: logger}
}

// SetResult applies the transition table for one command.
//
// Combinations no valid caller can produce panic: they are contract
// violations, not business outcomes. Everything a legitimate caller might
// trigger comes back as failure reasons on the outcome.
func (s *IttResultService) SetResult(ctx context.Context, cmd SetIttResultCommand) (*SetIttResultOutcome, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid itt result payload")
	}
	if !cmd.Result.Valid() {
		panic(fmt.Sprintf("itt result: unknown result %q", cmd.Result))
	}
	if cmd.Result == models.ResultPass && cmd.AssessmentDate == nil {
		panic("itt result: pass requires an assessment date")
	}

	teacher, err := s.findTeacherByTRN(ctx, cmd.TRN)
	if err != nil {
		return nil, err
	}
	if teacher == nil {
		return failedOutcome(models.FailureTrnNotFound), nil
	}

	refs, err := s.resolver.Resolve(ctx, ReferenceCodes{ProviderUKPRN: cmd.ProviderUKPRN})
	if err != nil {
		return nil, err
	}
	if refs.ProviderID == nil {
		return failedOutcome(models.FailureProviderNotFound), nil
	}

	records, err := s.activeTrainingRecords(ctx, teacher.ID)
	if err != nil {
		return nil, err
	}
	var providerRecords []models.TrainingRecord
	for _, r := range records {
		if r.ProviderID == *refs.ProviderID {
			providerRecords = append(providerRecords, r)
		}
	}

	selected, reason := SelectTrainingRecord(providerRecords, cmd.SlugID, cmd.ProgrammeType)
	if reason != "" {
		return failedOutcome(reason), nil
	}
	// A second in-flight programme anywhere means a provider switch would
	// silently abandon it; reject as ambiguous.
	if CountInFlightRecords(records) > 1 {
		return failedOutcome(models.FailureMultipleIttRecords), nil
	}

	switch selected.Result {
	case models.ResultFail:
		if cmd.Result == models.ResultFail {
			return &SetIttResultOutcome{Succeeded: true}, nil
		}
		return failedOutcome(models.FailureNoMatchingIttRecord), nil

	case models.ResultWithdrawn:
		switch cmd.Result {
		case models.ResultWithdrawn:
			return &SetIttResultOutcome{Succeeded: true}, nil
		case models.ResultDeferred, models.ResultDeferredForSkillsTests:
			return failedOutcome(models.FailureUnableToUnwithdrawToDeferredStatus), nil
		case models.ResultUnderAssessment:
			if !cmd.ProgrammeType.AssessmentOnly() {
				return failedOutcome(models.FailureUnderAssessmentOnlyPermittedForProgrammeType), nil
			}
			return s.unwithdraw(ctx, teacher, selected, cmd)
		case models.ResultInTraining:
			if cmd.ProgrammeType.AssessmentOnly() {
				return failedOutcome(models.FailureInTrainingResultNotPermittedForProgrammeType), nil
			}
			return s.unwithdraw(ctx, teacher, selected, cmd)
		default:
			// Pass or Fail straight out of Withdrawn would resurrect a
			// closed record.
			return failedOutcome(models.FailureNoMatchingIttRecord), nil
		}
	}

	if cmd.Result == models.ResultPass {
		return s.pass(ctx, teacher, selected, cmd)
	}
	if cmd.Result == models.ResultUnderAssessment && !cmd.ProgrammeType.AssessmentOnly() {
		panic("itt result: under-assessment only permitted for assessment-only programmes")
	}
	if cmd.Result == models.ResultInTraining && cmd.ProgrammeType.AssessmentOnly() {
		panic("itt result: in-training not permitted for assessment-only programmes")
	}
	return s.updateResult(ctx, teacher, selected, cmd)
}

// updateResult handles withdraw/defer and same-state transitions from a
// non-terminal record.
func (s *IttResultService) updateResult(ctx context.Context, teacher *models.Teacher, record *models.TrainingRecord, cmd SetIttResultCommand) (*SetIttResultOutcome, error) {
	if record.Result == cmd.Result {
		return &SetIttResultOutcome{Succeeded: true}, nil
	}

	tx := store.NewTransaction(s.client)

	record.Result = cmd.Result
	record.UpdatedAt = time.Now().UTC()
	tx.AddUpdateColumns(record, "result", "updated_at")

	// Withdrawing clears the provisional status so un-withdraw can later
	// re-select the registration by its cleared state.
	if cmd.Result == models.ResultWithdrawn {
		statuses, err := s.statusSet(ctx, cmd.ProgrammeType)
		if err != nil {
			return nil, err
		}
		regs, err := s.activeRegistrations(ctx, teacher.ID)
		if err != nil {
			return nil, err
		}
		reg, reason := SelectQTSRegistration(regs, statuses)
		if reason != "" {
			return failedOutcome(reason), nil
		}
		reg.TeacherStatusID = nil
		reg.EarlyYearsStatusID = nil
		reg.UpdatedAt = time.Now().UTC()
		tx.AddUpdateColumns(reg, "teacher_status_id", "early_years_status_id", "updated_at")
	}

	s.addSanctionsTask(tx, teacher)

	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}
	return &SetIttResultOutcome{Succeeded: true}, nil
}

// unwithdraw reopens a withdrawn record and re-populates the provisional
// status on the registration whose status was cleared at withdrawal.
func (s *IttResultService) unwithdraw(ctx context.Context, teacher *models.Teacher, record *models.TrainingRecord, cmd SetIttResultCommand) (*SetIttResultOutcome, error) {
	regs, err := s.activeRegistrations(ctx, teacher.ID)
	if err != nil {
		return nil, err
	}
	reg, reason := SelectClearedQTSRegistration(regs)
	if reason != "" {
		return failedOutcome(reason), nil
	}

	statuses, err := s.statusSet(ctx, cmd.ProgrammeType)
	if err != nil {
		return nil, err
	}

	tx := store.NewTransaction(s.client)

	record.Result = cmd.Result
	record.UpdatedAt = time.Now().UTC()
	tx.AddUpdateColumns(record, "result", "updated_at")

	provisional := statuses.ProvisionalID
	if statuses.EarlyYears {
		reg.EarlyYearsStatusID = &provisional
	} else {
		reg.TeacherStatusID = &provisional
	}
	reg.UpdatedAt = time.Now().UTC()
	tx.AddUpdateColumns(reg, "teacher_status_id", "early_years_status_id", "updated_at")

	s.addSanctionsTask(tx, teacher)

	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}
	return &SetIttResultOutcome{Succeeded: true}, nil
}

// pass awards QTS or EYTS. Re-sending an identical award date succeeds
// without a write; a different date is a mismatch failure with no write.
func (s *IttResultService) pass(ctx context.Context, teacher *models.Teacher, record *models.TrainingRecord, cmd SetIttResultCommand) (*SetIttResultOutcome, error) {
	awardDate := cmd.AssessmentDate.UTC()
	earlyYears := cmd.ProgrammeType.EarlyYears()

	existing := teacher.QTSDate
	mismatch := models.FailureQtsDateMismatch
	if earlyYears {
		existing = teacher.EYTSDate
		mismatch = models.FailureEytsDateMismatch
	}
	if existing != nil {
		if sameDate(*existing, awardDate) {
			return &SetIttResultOutcome{Succeeded: true, AwardDate: existing}, nil
		}
		return failedOutcome(mismatch), nil
	}
	// Reaching the write path means no prior award date: this is the first
	// QTS/EYTS award, which is what gates induction creation.

	statuses, err := s.statusSet(ctx, cmd.ProgrammeType)
	if err != nil {
		return nil, err
	}
	regs, err := s.activeRegistrations(ctx, teacher.ID)
	if err != nil {
		return nil, err
	}
	reg, reason := SelectQTSRegistration(regs, statuses)
	if reason != "" {
		return failedOutcome(reason), nil
	}

	awardedCode := models.AwardedStatusCode(cmd.ProgrammeType)
	now := time.Now().UTC()

	tx := store.NewTransaction(s.client)

	record.Result = models.ResultPass
	record.EndDate = &awardDate
	record.UpdatedAt = now
	tx.AddUpdateColumns(record, "result", "end_date", "updated_at")

	if earlyYears {
		awardedID, err := s.resolver.ResolveEarlyYearsStatus(ctx, awardedCode)
		if err != nil {
			return nil, err
		}
		reg.EarlyYearsStatusID = &awardedID
		reg.EYTSDate = &awardDate
		teacher.EYTSDate = &awardDate
		reg.UpdatedAt = now
		tx.AddUpdateColumns(reg, "early_years_status_id", "eyts_date", "updated_at")
		teacher.UpdatedAt = now
		tx.AddUpdateColumns(teacher, "eyts_date", "updated_at")
	} else {
		awardedID, err := s.resolver.ResolveTeacherStatus(ctx, awardedCode)
		if err != nil {
			return nil, err
		}
		reg.TeacherStatusID = &awardedID
		reg.QTSDate = &awardDate
		teacher.QTSDate = &awardDate
		reg.UpdatedAt = now
		tx.AddUpdateColumns(reg, "teacher_status_id", "qts_date", "updated_at")
		teacher.UpdatedAt = now
		tx.AddUpdateColumns(teacher, "qts_date", "updated_at")

		tx.AddCreate(&models.Induction{
			ID:        uuid.New(),
			TeacherID: teacher.ID,
			Status:    models.InductionRequiredToComplete,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		})

		payload, err := json.Marshal(models.InductionStatusSetPayload{
			TeacherID: teacher.ID,
			TRN:       teacher.TRN,
			Status:    models.InductionRequiredToComplete,
			AwardDate: awardDate,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal induction message: %w", err)
		}
		tx.AddCreate(&models.OutboxMessage{
			ID:          uuid.New(),
			MessageName: models.MessageInductionStatusSet,
			Payload:     payload,
			CreatedAt:   now,
		})
	}

	s.addSanctionsTask(tx, teacher)

	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}
	return &SetIttResultOutcome{Succeeded: true, AwardDate: &awardDate}, nil
}

func (s *IttResultService) addSanctionsTask(tx *store.Composer, teacher *models.Teacher) {
	if !teacher.ActiveSanctions {
		return
	}
	now := time.Now().UTC()
	tx.AddCreate(&models.ReviewTask{
		ID:          uuid.New(),
		TeacherID:   teacher.ID,
		Category:    models.ReviewCategoryActiveSanctions,
		Title:       "Notification received for teacher with active sanctions",
		Description: fmt.Sprintf("Teacher %s has open sanctions; review the incoming ITT outcome.", teacher.ID),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (s *IttResultService) statusSet(ctx context.Context, programme models.ProgrammeType) (QTSStatusSet, error) {
	if programme.EarlyYears() {
		awarded, err := s.resolver.ResolveEarlyYearsStatus(ctx, models.EarlyYearsStatusAwarded)
		if err != nil {
			return QTSStatusSet{}, err
		}
		provisional, err := s.resolver.ResolveEarlyYearsStatus(ctx, models.EarlyYearsStatusTrainee)
		if err != nil {
			return QTSStatusSet{}, err
		}
		return QTSStatusSet{EarlyYears: true, AwardedIDs: []uuid.UUID{awarded}, ProvisionalID: provisional}, nil
	}

	var awardedIDs []uuid.UUID
	for _, code := range []string{
		models.TeacherStatusQualifiedTrained,
		models.TeacherStatusQualifiedAssessmentOnly,
		models.TeacherStatusQualifiedInternational,
	} {
		id, err := s.resolver.ResolveTeacherStatus(ctx, code)
		if err != nil {
			return QTSStatusSet{}, err
		}
		awardedIDs = append(awardedIDs, id)
	}
	provisional, err := s.resolver.ResolveTeacherStatus(ctx, models.ProvisionalStatusCode(programme))
	if err != nil {
		return QTSStatusSet{}, err
	}
	return QTSStatusSet{AwardedIDs: awardedIDs, ProvisionalID: provisional}, nil
}

func (s *IttResultService) findTeacherByTRN(ctx context.Context, trn string) (*models.Teacher, error) {
	filter := store.NewFilter(store.And,
		store.Condition{Column: "trn", Operator: store.Equal, Value: trn},
		store.Condition{Column: "active", Operator: store.Equal, Value: true},
	)
	entities, err := store.DoQuery(ctx, s.client, store.Query{Type: models.EntityTeacher, Filter: &filter})
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	if len(entities) > 1 {
		s.logger.DPanic("multiple active teachers share a TRN", zap.String("trn", trn))
	}
	return entities[0].(*models.Teacher), nil
}

func (s *IttResultService) activeTrainingRecords(ctx context.Context, teacherID uuid.UUID) ([]models.TrainingRecord, error) {
	filter := store.NewFilter(store.And,
		store.Condition{Column: "teacher_id", Operator: store.Equal, Value: teacherID},
		store.Condition{Column: "active", Operator: store.Equal, Value: true},
	)
	entities, err := store.DoQuery(ctx, s.client, store.Query{Type: models.EntityTrainingRecord, Filter: &filter})
	if err != nil {
		return nil, err
	}
	records := make([]models.TrainingRecord, 0, len(entities))
	for _, e := range entities {
		records = append(records, *e.(*models.TrainingRecord))
	}
	return records, nil
}

func (s *IttResultService) activeRegistrations(ctx context.Context, teacherID uuid.UUID) ([]models.QTSRegistration, error) {
	filter := store.NewFilter(store.And,
		store.Condition{Column: "teacher_id", Operator: store.Equal, Value: teacherID},
		store.Condition{Column: "active", Operator: store.Equal, Value: true},
	)
	entities, err := store.DoQuery(ctx, s.client, store.Query{Type: models.EntityQTSRegistration, Filter: &filter})
	if err != nil {
		return nil, err
	}
	regs := make([]models.QTSRegistration, 0, len(entities))
	for _, e := range entities {
		regs = append(regs, *e.(*models.QTSRegistration))
	}
	return regs, nil
}

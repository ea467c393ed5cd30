package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/store"
	appErrors "github.com/teachreg/trs-api/pkg/errors"
)

// CreateTeacherCommand is a new-teacher submission from an ITT provider or
// the register service.
type CreateTeacherCommand struct {
	FirstName    string     `json:"first_name" validate:"required,max=100"`
	MiddleName   string     `json:"middle_name" validate:"max=100"`
	LastName     string     `json:"last_name" validate:"required,max=100"`
	BirthDate    *time.Time `json:"birth_date"`
	Email        string     `json:"email" validate:"omitempty,email"`
	AddressLine1 string     `json:"address_line1" validate:"max=200"`
	AddressLine2 string     `json:"address_line2" validate:"max=200"`
	AddressLine3 string     `json:"address_line3" validate:"max=200"`
	City         string     `json:"city" validate:"max=100"`
	Postcode     string     `json:"postcode" validate:"max=20"`
	Gender       string     `json:"gender" validate:"omitempty,oneof=male female other"`
	HUSID        string     `json:"husid" validate:"max=17"`
	SlugID       string     `json:"slug_id" validate:"max=150"`

	InitialTeacherTraining CreateTeacherITT            `json:"initial_teacher_training" validate:"required"`
	Qualification          *CreateTeacherQualification `json:"qualification,omitempty"`
}

// CreateTeacherITT carries the training half of the submission.
type CreateTeacherITT struct {
	ProviderUKPRN string               `json:"provider_ukprn" validate:"required"`
	ProgrammeType models.ProgrammeType `json:"programme_type" validate:"required"`
	Subject1      string               `json:"subject1"`
	Subject2      string               `json:"subject2"`
	Subject3      string               `json:"subject3"`
	CountryCode   string               `json:"country_code"`
	AgeRangeFrom  *int                 `json:"age_range_from" validate:"omitempty,min=0,max=25"`
	AgeRangeTo    *int                 `json:"age_range_to" validate:"omitempty,min=0,max=25"`
	StartDate     *time.Time           `json:"start_date"`
	EndDate       *time.Time           `json:"end_date"`
	SlugID        string               `json:"slug_id" validate:"max=150"`
}

// CreateTeacherQualification carries the optional HE qualification.
type CreateTeacherQualification struct {
	Code           string     `json:"code"`
	CountryCode    string     `json:"country_code"`
	Subject1       string     `json:"subject1"`
	Subject2       string     `json:"subject2"`
	Subject3       string     `json:"subject3"`
	Class          string     `json:"class"`
	CompletionDate *time.Time `json:"completion_date"`
}

// CreateTeacherResult is the typed outcome of a create submission. Missing
// reference data fails the command with reasons and no writes; duplicate
// candidates never fail it; the record is created unresolved, without a TRN,
// and one review task is raised per candidate.
type CreateTeacherResult struct {
	Succeeded      bool                  `json:"succeeded"`
	TeacherID      uuid.UUID             `json:"teacher_id,omitempty"`
	TRN            *string               `json:"trn,omitempty"`
	PendingReview  bool                  `json:"pending_review"`
	CandidateCount int                   `json:"candidate_count"`
	FailureReasons models.FailureReasons `json:"failure_reasons,omitempty"`
}

// CreateTeacherService orchestrates the create-teacher command: concurrent
// reference resolution, duplicate matching, TRN allocation and one atomic
// write for the whole unit of work.
type CreateTeacherService struct {
	client    store.EntityClient
	resolver  *ReferenceResolver
	matcher   *DuplicateMatcher
	trns      TRNAllocator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCreateTeacherService constructs a CreateTeacherService.
func NewCreateTeacherService(client store.EntityClient, resolver *ReferenceResolver, matcher *DuplicateMatcher, trns TRNAllocator, validate *validator.Validate, logger *zap.Logger) *CreateTeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CreateTeacherService{
		client:    client,
		resolver:  resolver,
		matcher:   matcher,
		trns:      trns,
		validator: validate,
		logger:    logger,
	}
}

// Create executes the command.
func (s *CreateTeacherService) Create(ctx context.Context, cmd CreateTeacherCommand) (*CreateTeacherResult, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create teacher payload")
	}

	codes := ReferenceCodes{
		ProviderUKPRN:   cmd.InitialTeacherTraining.ProviderUKPRN,
		Subject1:        cmd.InitialTeacherTraining.Subject1,
		Subject2:        cmd.InitialTeacherTraining.Subject2,
		Subject3:        cmd.InitialTeacherTraining.Subject3,
		TrainingCountry: cmd.InitialTeacherTraining.CountryCode,
	}
	if q := cmd.Qualification; q != nil {
		codes.Qualification = q.Code
		codes.QualificationCountry = q.CountryCode
		codes.QualificationSubject1 = q.Subject1
		codes.QualificationSubject2 = q.Subject2
		codes.QualificationSubject3 = q.Subject3
	}
	refs, err := s.resolver.Resolve(ctx, codes)
	if err != nil {
		return nil, err
	}

	if reasons := missingReferenceReasons(cmd, refs); reasons.Any() {
		return &CreateTeacherResult{FailureReasons: reasons}, nil
	}

	// A nil matcher disables duplicate detection: every submission gets a
	// TRN immediately.
	var candidates []DuplicateCandidate
	if s.matcher != nil {
		candidates, err = s.matcher.FindMatches(ctx, DuplicateMatchInput{
			FirstName:  cmd.FirstName,
			MiddleName: cmd.MiddleName,
			LastName:   cmd.LastName,
			BirthDate:  cmd.BirthDate,
			HUSID:      cmd.HUSID,
			SlugID:     cmd.SlugID,
		})
		if err != nil {
			return nil, err
		}
	}
	for _, candidate := range candidates {
		refs.HaveExistingTeacherWithHUSID = refs.HaveExistingTeacherWithHUSID || candidate.MatchedOn(MatchedHUSID)
		refs.HaveExistingTeacherWithSlugID = refs.HaveExistingTeacherWithSlugID || candidate.MatchedOn(MatchedSlugID)
	}
	if refs.HaveExistingTeacherWithHUSID || refs.HaveExistingTeacherWithSlugID {
		s.logger.Warn("submission reuses an institution-issued key",
			zap.Bool("husid_registered", refs.HaveExistingTeacherWithHUSID),
			zap.Bool("slug_registered", refs.HaveExistingTeacherWithSlugID))
	}

	var trn *string
	if len(candidates) == 0 {
		allocated, err := s.trns.Generate(ctx)
		if err != nil {
			return nil, err
		}
		trn = &allocated
	}

	now := time.Now().UTC()
	programme := cmd.InitialTeacherTraining.ProgrammeType

	teacher := s.buildTeacher(cmd, trn, now)
	tx := store.NewTransaction(s.client)
	teacherHandle := tx.AddCreate(teacher)

	tx.AddCreate(&models.TrainingRecord{
		ID:            uuid.New(),
		TeacherID:     teacher.ID,
		ProviderID:    *refs.ProviderID,
		ProgrammeType: programme,
		Result:        programme.InitialResult(),
		Subject1ID:    refs.Subject1ID,
		Subject2ID:    refs.Subject2ID,
		Subject3ID:    refs.Subject3ID,
		AgeRangeFrom:  cmd.InitialTeacherTraining.AgeRangeFrom,
		AgeRangeTo:    cmd.InitialTeacherTraining.AgeRangeTo,
		StartDate:     cmd.InitialTeacherTraining.StartDate,
		EndDate:       cmd.InitialTeacherTraining.EndDate,
		SlugID:        optional(cmd.InitialTeacherTraining.SlugID),
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})

	if err := s.resolveProvisionalStatus(ctx, programme, refs); err != nil {
		return nil, err
	}
	tx.AddCreate(&models.QTSRegistration{
		ID:                 uuid.New(),
		TeacherID:          teacher.ID,
		TeacherStatusID:    refs.TeacherStatusID,
		EarlyYearsStatusID: refs.EarlyYearsStatusID,
		Active:             true,
		CreatedAt:          now,
		UpdatedAt:          now,
	})

	if q := cmd.Qualification; q != nil && refs.QualificationID != nil {
		tx.AddCreate(&models.Qualification{
			ID:              uuid.New(),
			TeacherID:       teacher.ID,
			QualificationID: *refs.QualificationID,
			CountryID:       refs.QualificationCountryID,
			Subject1ID:      refs.QualificationSubject1ID,
			Subject2ID:      refs.QualificationSubject2ID,
			Subject3ID:      refs.QualificationSubject3ID,
			Class:           optional(q.Class),
			CompletionDate:  q.CompletionDate,
			Active:          true,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	for _, candidate := range candidates {
		tx.AddCreate(duplicateReviewTask(teacher.ID, candidate, refs, now))
	}

	payload, err := json.Marshal(models.TRNRequestMetadataPayload{
		TeacherID:      teacher.ID,
		TRN:            trn,
		PendingReview:  len(candidates) > 0,
		CandidateCount: len(candidates),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal trn request message: %w", err)
	}
	tx.AddCreate(&models.OutboxMessage{
		ID:          uuid.New(),
		MessageName: models.MessageTRNRequestMetadata,
		Payload:     payload,
		CreatedAt:   now,
	})

	if err := tx.Execute(ctx); err != nil {
		return nil, err
	}

	return &CreateTeacherResult{
		Succeeded:      true,
		TeacherID:      teacherHandle.CreatedID(),
		TRN:            trn,
		PendingReview:  len(candidates) > 0,
		CandidateCount: len(candidates),
	}, nil
}

func (s *CreateTeacherService) buildTeacher(cmd CreateTeacherCommand, trn *string, now time.Time) *models.Teacher {
	return &models.Teacher{
		ID:              uuid.New(),
		TRN:             trn,
		FirstName:       strings.TrimSpace(cmd.FirstName),
		MiddleName:      optional(cmd.MiddleName),
		LastName:        strings.TrimSpace(cmd.LastName),
		BirthDate:       cmd.BirthDate,
		Email:           optional(cmd.Email),
		AddressLine1:    optional(cmd.AddressLine1),
		AddressLine2:    optional(cmd.AddressLine2),
		AddressLine3:    optional(cmd.AddressLine3),
		City:            optional(cmd.City),
		Postcode:        optional(cmd.Postcode),
		Gender:          optional(cmd.Gender),
		HUSID:           optional(cmd.HUSID),
		SlugID:          optional(cmd.SlugID),
		AllowPIIUpdates: true,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// resolveProvisionalStatus fills the status half of the reference snapshot:
// exactly one of the two status ids, picked by programme category.
func (s *CreateTeacherService) resolveProvisionalStatus(ctx context.Context, programme models.ProgrammeType, refs *models.ReferenceData) error {
	code := models.ProvisionalStatusCode(programme)
	if programme.EarlyYears() {
		id, err := s.resolver.ResolveEarlyYearsStatus(ctx, code)
		if err != nil {
			return err
		}
		refs.EarlyYearsStatusID = &id
		return nil
	}
	id, err := s.resolver.ResolveTeacherStatus(ctx, code)
	if err != nil {
		return err
	}
	refs.TeacherStatusID = &id
	return nil
}

// missingReferenceReasons records one reason per supplied code that failed to
// resolve. Reasons co-occur: a bad provider and a bad subject both surface.
func missingReferenceReasons(cmd CreateTeacherCommand, refs *models.ReferenceData) models.FailureReasons {
	var reasons models.FailureReasons
	itt := cmd.InitialTeacherTraining
	reasons.AddIf(refs.ProviderID == nil, models.FailureProviderNotFound)
	reasons.AddIf(itt.Subject1 != "" && refs.Subject1ID == nil, models.FailureSubject1NotFound)
	reasons.AddIf(itt.Subject2 != "" && refs.Subject2ID == nil, models.FailureSubject2NotFound)
	reasons.AddIf(itt.Subject3 != "" && refs.Subject3ID == nil, models.FailureSubject3NotFound)
	reasons.AddIf(itt.CountryCode != "" && refs.TrainingCountryID == nil, models.FailureTrainingCountryNotFound)
	if q := cmd.Qualification; q != nil {
		reasons.AddIf(q.Code != "" && refs.QualificationID == nil, models.FailureQualificationNotFound)
		reasons.AddIf(q.CountryCode != "" && refs.QualificationCountryID == nil, models.FailureQualificationCountryNotFound)
		reasons.AddIf(q.Subject1 != "" && refs.QualificationSubject1ID == nil, models.FailureQualificationSubjectNotFound)
		reasons.AddIf(q.Subject2 != "" && refs.QualificationSubject2ID == nil, models.FailureQualificationSubject2NotFound)
		reasons.AddIf(q.Subject3 != "" && refs.QualificationSubject3ID == nil, models.FailureQualificationSubject3NotFound)
	}
	return reasons
}

// duplicateReviewTask describes one candidate for the review team: which
// attributes matched and any risk flags, including submission-level reuse of
// institution-issued keys.
func duplicateReviewTask(teacherID uuid.UUID, candidate DuplicateCandidate, refs *models.ReferenceData, now time.Time) *models.ReviewTask {
	attrs := make([]string, len(candidate.MatchedAttributes))
	for i, a := range candidate.MatchedAttributes {
		attrs[i] = string(a)
	}
	var flags []string
	if candidate.HasActiveSanctions {
		flags = append(flags, "active sanctions")
	}
	if candidate.HasQTSDate {
		flags = append(flags, "existing QTS date")
	}
	if candidate.HasEYTSDate {
		flags = append(flags, "existing EYTS date")
	}
	if candidate.HasPendingPIIChanges {
		flags = append(flags, "pending identity changes")
	}
	if refs.HaveExistingTeacherWithHUSID {
		flags = append(flags, "HUSID already registered")
	}
	if refs.HaveExistingTeacherWithSlugID {
		flags = append(flags, "SlugID already registered")
	}
	description := fmt.Sprintf("Potential duplicate of teacher %s. Matched attributes: %s.",
		candidate.TeacherID, strings.Join(attrs, ", "))
	if len(flags) > 0 {
		description += " Risk flags: " + strings.Join(flags, ", ") + "."
	}
	return &models.ReviewTask{
		ID:          uuid.New(),
		TeacherID:   teacherID,
		Category:    models.ReviewCategoryDuplicateTeacher,
		Title:       "Potential duplicate teacher record",
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

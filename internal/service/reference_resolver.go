package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/repository"
)

type referenceLookups interface {
	FindProviderByUKPRN(ctx context.Context, ukprn string) (uuid.UUID, error)
	FindCountryByCode(ctx context.Context, code string) (uuid.UUID, error)
	FindSubjectByCode(ctx context.Context, code string) (uuid.UUID, error)
	FindHEQualificationByCode(ctx context.Context, code string) (uuid.UUID, error)
	FindTeacherStatusByCode(ctx context.Context, code string) (uuid.UUID, error)
	FindEarlyYearsStatusByCode(ctx context.Context, code string) (uuid.UUID, error)
}

type refKind string

const (
	refProvider         refKind = "provider"
	refCountry          refKind = "country"
	refSubject          refKind = "subject"
	refHEQualification  refKind = "he_qualification"
	refTeacherStatus    refKind = "teacher_status"
	refEarlyYearsStatus refKind = "early_years_status"
)

type refCacheKey struct {
	kind refKind
	code string
}

// ReferenceCodes carries every human-entered code one command may need
// resolved. Empty strings mean "not supplied".
type ReferenceCodes struct {
	ProviderUKPRN         string
	Subject1              string
	Subject2              string
	Subject3              string
	TrainingCountry       string
	Qualification         string
	QualificationCountry  string
	QualificationSubject1 string
	QualificationSubject2 string
	QualificationSubject3 string
}

// ReferenceResolver resolves codes to reference row ids with a read-through
// per-process cache. Reference tables are append-only and seeded at startup,
// so found entries are cached for the process lifetime; not-found entries are
// never cached so a corrected seed is picked up on the next command.
type ReferenceResolver struct {
	repo   referenceLookups
	logger *zap.Logger

	mu    sync.RWMutex
	cache map[refCacheKey]uuid.UUID
}

// NewReferenceResolver constructs a ReferenceResolver.
func NewReferenceResolver(repo referenceLookups, logger *zap.Logger) *ReferenceResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceResolver{
		repo:   repo,
		logger: logger,
		cache:  make(map[refCacheKey]uuid.UUID),
	}
}

// Resolve dispatches every supplied lookup concurrently and joins before
// returning. A lookup error fails the whole resolve; there is no partial
// reference data. Codes that resolve to nothing leave their field nil.
func (r *ReferenceResolver) Resolve(ctx context.Context, codes ReferenceCodes) (*models.ReferenceData, error) {
	data := &models.ReferenceData{}
	g, gctx := errgroup.WithContext(ctx)

	assign := func(kind refKind, code string, dest **uuid.UUID) {
		code = strings.TrimSpace(code)
		if code == "" {
			return
		}
		g.Go(func() error {
			id, found, err := r.resolveOne(gctx, kind, code)
			if err != nil {
				return err
			}
			if found {
				*dest = &id
			}
			return nil
		})
	}

	assign(refProvider, codes.ProviderUKPRN, &data.ProviderID)
	assign(refSubject, codes.Subject1, &data.Subject1ID)
	assign(refSubject, codes.Subject2, &data.Subject2ID)
	assign(refSubject, codes.Subject3, &data.Subject3ID)
	assign(refCountry, codes.TrainingCountry, &data.TrainingCountryID)
	assign(refHEQualification, codes.Qualification, &data.QualificationID)
	assign(refCountry, codes.QualificationCountry, &data.QualificationCountryID)
	assign(refSubject, codes.QualificationSubject1, &data.QualificationSubject1ID)
	assign(refSubject, codes.QualificationSubject2, &data.QualificationSubject2ID)
	assign(refSubject, codes.QualificationSubject3, &data.QualificationSubject3ID)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

// ResolveTeacherStatus resolves one of the seeded teacher-status codes.
// Missing rows indicate broken seed data, not caller input, so the not-found
// outcome is an error here.
func (r *ReferenceResolver) ResolveTeacherStatus(ctx context.Context, code string) (uuid.UUID, error) {
	id, found, err := r.resolveOne(ctx, refTeacherStatus, code)
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, errors.New("teacher status " + code + " not seeded")
	}
	return id, nil
}

// ResolveEarlyYearsStatus resolves one of the seeded early-years-status codes.
func (r *ReferenceResolver) ResolveEarlyYearsStatus(ctx context.Context, code string) (uuid.UUID, error) {
	id, found, err := r.resolveOne(ctx, refEarlyYearsStatus, code)
	if err != nil {
		return uuid.Nil, err
	}
	if !found {
		return uuid.Nil, errors.New("early years status " + code + " not seeded")
	}
	return id, nil
}

func (r *ReferenceResolver) resolveOne(ctx context.Context, kind refKind, code string) (uuid.UUID, bool, error) {
	key := refCacheKey{kind: kind, code: strings.ToUpper(code)}

	r.mu.RLock()
	id, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return id, true, nil
	}

	id, err := r.lookup(ctx, kind, code)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	// Concurrent resolvers for the same key overwrite each other with equal
	// values; last write wins.
	r.mu.Lock()
	r.cache[key] = id
	r.mu.Unlock()
	return id, true, nil
}

func (r *ReferenceResolver) lookup(ctx context.Context, kind refKind, code string) (uuid.UUID, error) {
	switch kind {
	case refProvider:
		return r.repo.FindProviderByUKPRN(ctx, code)
	case refCountry:
		return r.repo.FindCountryByCode(ctx, code)
	case refSubject:
		return r.repo.FindSubjectByCode(ctx, code)
	case refHEQualification:
		return r.repo.FindHEQualificationByCode(ctx, code)
	case refTeacherStatus:
		return r.repo.FindTeacherStatusByCode(ctx, code)
	case refEarlyYearsStatus:
		return r.repo.FindEarlyYearsStatusByCode(ctx, code)
	default:
		return uuid.Nil, errors.New("unknown reference kind " + string(kind))
	}
}

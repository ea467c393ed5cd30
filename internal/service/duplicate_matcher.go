package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/internal/store"
)

// MatchedAttribute names one identity attribute that matched on a candidate.
type MatchedAttribute string

const (
	MatchedFirstName  MatchedAttribute = "FirstName"
	MatchedMiddleName MatchedAttribute = "MiddleName"
	MatchedLastName   MatchedAttribute = "LastName"
	MatchedBirthDate  MatchedAttribute = "BirthDate"
	MatchedHUSID      MatchedAttribute = "HUSID"
	MatchedSlugID     MatchedAttribute = "SlugID"
)

// minimumMatchAttributes is the floor below which probabilistic matching is
// skipped entirely; institution-issued HUSID/SlugID keys still match alone.
const minimumMatchAttributes = 3

// DuplicateMatchInput is the identity slice of a new-teacher submission.
type DuplicateMatchInput struct {
	FirstName  string
	MiddleName string
	LastName   string
	BirthDate  *time.Time
	HUSID      string
	SlugID     string
}

// DuplicateCandidate is one existing active record that plausibly represents
// the submitted person, with every attribute that actually matched plus risk
// flags the review team needs.
type DuplicateCandidate struct {
	TeacherID            uuid.UUID
	TRN                  *string
	MatchedAttributes    []MatchedAttribute
	HasActiveSanctions   bool
	HasQTSDate           bool
	HasEYTSDate          bool
	HasPendingPIIChanges bool
}

// MatchedOn reports whether attr is among the candidate's matched attributes.
func (c DuplicateCandidate) MatchedOn(attr MatchedAttribute) bool {
	for _, a := range c.MatchedAttributes {
		if a == attr {
			return true
		}
	}
	return false
}

// DuplicateMatcher finds existing active teacher records representing the
// same person. Matching is deliberately inclusive: every record satisfying
// any qualifying 3-attribute combination (or a HUSID/SlugID alone) becomes a
// candidate; no ranking or best-match selection happens here.
type DuplicateMatcher struct {
	client store.EntityClient
	logger *zap.Logger
}

// NewDuplicateMatcher constructs a DuplicateMatcher.
func NewDuplicateMatcher(client store.EntityClient, logger *zap.Logger) *DuplicateMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuplicateMatcher{client: client, logger: logger}
}

type matchAttribute struct {
	name     MatchedAttribute
	column   string
	value    interface{}
	operator store.ConditionOperator
}

func (in DuplicateMatchInput) usableAttributes() []matchAttribute {
	var attrs []matchAttribute
	if strings.TrimSpace(in.FirstName) != "" {
		attrs = append(attrs, matchAttribute{MatchedFirstName, "first_name", in.FirstName, store.EqualCI})
	}
	if strings.TrimSpace(in.MiddleName) != "" {
		attrs = append(attrs, matchAttribute{MatchedMiddleName, "middle_name", in.MiddleName, store.EqualCI})
	}
	if strings.TrimSpace(in.LastName) != "" {
		attrs = append(attrs, matchAttribute{MatchedLastName, "last_name", in.LastName, store.EqualCI})
	}
	if in.BirthDate != nil {
		attrs = append(attrs, matchAttribute{MatchedBirthDate, "birth_date", *in.BirthDate, store.Equal})
	}
	return attrs
}

// FindMatches returns every active candidate for the submission. With fewer
// than three usable identity attributes and no HUSID/SlugID it returns empty
// without touching the store.
func (m *DuplicateMatcher) FindMatches(ctx context.Context, in DuplicateMatchInput) ([]DuplicateCandidate, error) {
	attrs := in.usableAttributes()
	husid := strings.TrimSpace(in.HUSID)
	slugID := strings.TrimSpace(in.SlugID)

	combinations := len(attrs) >= minimumMatchAttributes
	if !combinations && husid == "" && slugID == "" {
		return nil, nil
	}

	var alternatives []store.Filter
	if combinations {
		alternatives = append(alternatives, attributeCombinations(attrs)...)
	}
	if husid != "" {
		alternatives = append(alternatives, store.NewFilter(store.And,
			store.Condition{Column: "husid", Operator: store.Equal, Value: husid}))
	}
	if slugID != "" {
		alternatives = append(alternatives, store.NewFilter(store.And,
			store.Condition{Column: "slug_id", Operator: store.Equal, Value: slugID}))
	}

	var teachers []*models.Teacher
	if len(alternatives) > 0 {
		filter := store.Filter{
			Operator:   store.And,
			Conditions: []store.Condition{{Column: "active", Operator: store.Equal, Value: true}},
			Filters:    []store.Filter{{Operator: store.Or, Filters: alternatives}},
		}
		entities, err := store.DoQuery(ctx, m.client, store.Query{
			Type:   models.EntityTeacher,
			Filter: &filter,
		})
		if err != nil {
			return nil, err
		}
		for _, e := range entities {
			teachers = append(teachers, e.(*models.Teacher))
		}
	}

	if slugID != "" {
		owners, err := m.teachersOwningTrainingSlug(ctx, slugID)
		if err != nil {
			return nil, err
		}
		teachers = append(teachers, owners...)
	}

	seen := make(map[uuid.UUID]bool)
	var candidates []DuplicateCandidate
	for _, t := range teachers {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		candidates = append(candidates, m.evaluate(t, in))
	}
	return candidates, nil
}

// teachersOwningTrainingSlug adds the owner of any training record carrying
// the submitted SlugID, even when it belongs to a different provider.
func (m *DuplicateMatcher) teachersOwningTrainingSlug(ctx context.Context, slugID string) ([]*models.Teacher, error) {
	recordFilter := store.NewFilter(store.And,
		store.Condition{Column: "slug_id", Operator: store.Equal, Value: slugID},
		store.Condition{Column: "active", Operator: store.Equal, Value: true},
	)
	entities, err := store.DoQuery(ctx, m.client, store.Query{
		Type:    models.EntityTrainingRecord,
		Columns: []string{"id", "teacher_id", "provider_id", "programme_type", "result", "slug_id", "active", "created_at", "updated_at"},
		Filter:  &recordFilter,
	})
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}

	ids := make([]interface{}, 0, len(entities))
	for _, e := range entities {
		ids = append(ids, e.(*models.TrainingRecord).TeacherID)
	}
	teacherFilter := store.NewFilter(store.And,
		store.Condition{Column: "id", Operator: store.In, Values: ids},
		store.Condition{Column: "active", Operator: store.Equal, Value: true},
	)
	owners, err := store.DoQuery(ctx, m.client, store.Query{
		Type:   models.EntityTeacher,
		Filter: &teacherFilter,
	})
	if err != nil {
		return nil, err
	}
	teachers := make([]*models.Teacher, 0, len(owners))
	for _, e := range owners {
		teachers = append(teachers, e.(*models.Teacher))
	}
	return teachers, nil
}

// attributeCombinations builds one AND-group per 3-element combination of the
// usable attributes. A candidate matches the overall filter if it satisfies
// any group.
func attributeCombinations(attrs []matchAttribute) []store.Filter {
	var filters []store.Filter
	n := len(attrs)
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			for k := j + 1; k < n; k++ {
				group := store.Filter{Operator: store.And}
				for _, a := range []matchAttribute{attrs[i], attrs[j], attrs[k]} {
					group.Conditions = append(group.Conditions, store.Condition{
						Column:   a.column,
						Operator: a.operator,
						Value:    a.value,
					})
				}
				filters = append(filters, group)
			}
		}
	}
	return filters
}

// evaluate re-checks every attribute individually so the review task reports
// everything that matched, not just the combination that qualified.
func (m *DuplicateMatcher) evaluate(t *models.Teacher, in DuplicateMatchInput) DuplicateCandidate {
	c := DuplicateCandidate{
		TeacherID:            t.ID,
		TRN:                  t.TRN,
		HasActiveSanctions:   t.ActiveSanctions,
		HasQTSDate:           t.QTSDate != nil,
		HasEYTSDate:          t.EYTSDate != nil,
		HasPendingPIIChanges: t.HasPendingPIIChanges(),
	}
	if c.HasQTSDate && c.HasEYTSDate {
		// A record holding both awards is inconsistent data, not a valid state.
		m.logger.DPanic("candidate holds both QTS and EYTS dates",
			zap.String("teacher_id", t.ID.String()))
	}

	if in.FirstName != "" && namesEqual(in.FirstName, t.FirstName) {
		c.MatchedAttributes = append(c.MatchedAttributes, MatchedFirstName)
	}
	if in.MiddleName != "" && t.MiddleName != nil && namesEqual(in.MiddleName, *t.MiddleName) {
		c.MatchedAttributes = append(c.MatchedAttributes, MatchedMiddleName)
	}
	if in.LastName != "" && namesEqual(in.LastName, t.LastName) {
		c.MatchedAttributes = append(c.MatchedAttributes, MatchedLastName)
	}
	if in.BirthDate != nil && t.BirthDate != nil && sameDate(*in.BirthDate, *t.BirthDate) {
		c.MatchedAttributes = append(c.MatchedAttributes, MatchedBirthDate)
	}
	if husid := strings.TrimSpace(in.HUSID); husid != "" && t.HUSID != nil && husid == *t.HUSID {
		c.MatchedAttributes = append(c.MatchedAttributes, MatchedHUSID)
	}
	if slug := strings.TrimSpace(in.SlugID); slug != "" && t.SlugID != nil && slug == *t.SlugID {
		c.MatchedAttributes = append(c.MatchedAttributes, MatchedSlugID)
	}
	return c
}

var nameFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// namesEqual compares names case- and accent-insensitively, mirroring the
// store-side collation used in the matching query.
func namesEqual(a, b string) bool {
	return foldName(a) == foldName(b)
}

func foldName(s string) string {
	folded, _, err := transform.String(nameFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

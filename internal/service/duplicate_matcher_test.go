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

// stubEntityClient answers queries per entity type and records every request.
type stubEntityClient struct {
	results  map[string][]store.Entity
	requests []store.Request
}

func (s *stubEntityClient) Execute(ctx context.Context, req store.Request) (store.Response, error) {
	s.requests = append(s.requests, req)
	switch r := req.(type) {
	case store.QueryRequest:
		return store.Response{Entities: s.results[r.Query.Type]}, nil
	case store.CreateRequest:
		return store.Response{CreatedID: r.Entity.EntityID()}, nil
	}
	return store.Response{}, nil
}

func (s *stubEntityClient) ExecuteBatch(ctx context.Context, reqs []store.Request) ([]store.Response, error) {
	out := make([]store.Response, len(reqs))
	for i, req := range reqs {
		resp, err := s.Execute(ctx, req)
		if err != nil {
			return nil, err
		}
		out[i] = resp
	}
	return out, nil
}

func (s *stubEntityClient) ExecuteTransaction(ctx context.Context, reqs []store.Request) ([]store.Response, error) {
	return s.ExecuteBatch(ctx, reqs)
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strptr(s string) *string { return &s }

func TestDuplicateMatcherSkipsBelowThreeAttributes(t *testing.T) {
	client := &stubEntityClient{}
	matcher := NewDuplicateMatcher(client, nil)

	candidates, err := matcher.FindMatches(context.Background(), DuplicateMatchInput{
		FirstName: "Alex",
		LastName:  "Taylor",
	})
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Empty(t, client.requests, "matcher must not query the store below the attribute floor")
}

func TestDuplicateMatcherHUSIDAloneStillMatches(t *testing.T) {
	existing := &models.Teacher{
		ID:     uuid.New(),
		TRN:    strptr("1234567"),
		HUSID:  strptr("H123456789012"),
		Active: true,
	}
	client := &stubEntityClient{results: map[string][]store.Entity{
		models.EntityTeacher: {existing},
	}}
	matcher := NewDuplicateMatcher(client, nil)

	candidates, err := matcher.FindMatches(context.Background(), DuplicateMatchInput{
		HUSID: "H123456789012",
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, existing.ID, candidates[0].TeacherID)
	assert.Equal(t, []MatchedAttribute{MatchedHUSID}, candidates[0].MatchedAttributes)
}

func TestDuplicateMatcherReportsAllMatchedAttributes(t *testing.T) {
	birth := date(1990, time.July, 1)
	existing := &models.Teacher{
		ID:        uuid.New(),
		TRN:       strptr("7654321"),
		FirstName: "Alex",
		LastName:  "Taylor",
		BirthDate: birth,
		QTSDate:   date(2015, time.June, 12),
		Active:    true,
	}
	client := &stubEntityClient{results: map[string][]store.Entity{
		models.EntityTeacher: {existing},
	}}
	matcher := NewDuplicateMatcher(client, nil)

	candidates, err := matcher.FindMatches(context.Background(), DuplicateMatchInput{
		FirstName: "alex",
		LastName:  "TAYLOR",
		BirthDate: birth,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.ElementsMatch(t, []MatchedAttribute{MatchedFirstName, MatchedLastName, MatchedBirthDate}, c.MatchedAttributes)
	assert.True(t, c.HasQTSDate)
	assert.False(t, c.HasEYTSDate)
	assert.False(t, c.HasActiveSanctions)
}

func TestDuplicateMatcherAccentInsensitiveNames(t *testing.T) {
	assert.True(t, namesEqual("José", "Jose"))
	assert.True(t, namesEqual("BRONTË", "bronte"))
	assert.True(t, namesEqual(" Anna ", "anna"))
	assert.False(t, namesEqual("Anna", "Annika"))
}

func TestDuplicateMatcherBuildsThreeAttributeCombinations(t *testing.T) {
	birth := date(1990, time.July, 1)
	in := DuplicateMatchInput{
		FirstName:  "Alex",
		MiddleName: "Jo",
		LastName:   "Taylor",
		BirthDate:  birth,
	}
	combos := attributeCombinations(in.usableAttributes())
	// C(4,3) combinations of first, middle, last, birth date.
	require.Len(t, combos, 4)
	for _, combo := range combos {
		assert.Len(t, combo.Conditions, 3)
	}
}

func TestDuplicateMatcherTrainingSlugOwnersIncluded(t *testing.T) {
	owner := &models.Teacher{ID: uuid.New(), FirstName: "Sam", LastName: "Reed", Active: true, SlugID: strptr("slug-1")}
	record := &models.TrainingRecord{ID: uuid.New(), TeacherID: owner.ID, Active: true}
	client := &stubEntityClient{results: map[string][]store.Entity{
		models.EntityTeacher:        {owner},
		models.EntityTrainingRecord: {record},
	}}
	matcher := NewDuplicateMatcher(client, nil)

	candidates, err := matcher.FindMatches(context.Background(), DuplicateMatchInput{SlugID: "slug-1"})
	require.NoError(t, err)
	// The teacher surfaces once even though both the direct slug filter and
	// the training record ownership query return it.
	require.Len(t, candidates, 1)
	assert.Equal(t, owner.ID, candidates[0].TeacherID)
	assert.Contains(t, candidates[0].MatchedAttributes, MatchedSlugID)
}

func TestDuplicateMatcherSanctionFlagSurfaced(t *testing.T) {
	birth := date(1985, time.January, 15)
	existing := &models.Teacher{
		ID:              uuid.New(),
		FirstName:       "Robin",
		LastName:        "Shaw",
		BirthDate:       birth,
		ActiveSanctions: true,
		Active:          true,
	}
	client := &stubEntityClient{results: map[string][]store.Entity{
		models.EntityTeacher: {existing},
	}}
	matcher := NewDuplicateMatcher(client, nil)

	candidates, err := matcher.FindMatches(context.Background(), DuplicateMatchInput{
		FirstName: "Robin",
		LastName:  "Shaw",
		BirthDate: birth,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.True(t, candidates[0].HasActiveSanctions)
}

func TestDuplicateMatcherPendingPIIChangeSurfaced(t *testing.T) {
	birth := date(1985, time.January, 15)
	input := DuplicateMatchInput{
		FirstName: "Robin",
		LastName:  "Shaw",
		BirthDate: birth,
	}
	cases := map[string]models.Teacher{
		"name change": {PendingNameChange: true},
		"dob change":  {PendingDOBChange: true},
	}
	for name, existing := range cases {
		t.Run(name, func(t *testing.T) {
			existing.ID = uuid.New()
			existing.FirstName = "Robin"
			existing.LastName = "Shaw"
			existing.BirthDate = birth
			existing.Active = true
			client := &stubEntityClient{results: map[string][]store.Entity{
				models.EntityTeacher: {&existing},
			}}
			matcher := NewDuplicateMatcher(client, nil)

			candidates, err := matcher.FindMatches(context.Background(), input)
			require.NoError(t, err)
			require.Len(t, candidates, 1)
			assert.True(t, candidates[0].HasPendingPIIChanges)
		})
	}
}

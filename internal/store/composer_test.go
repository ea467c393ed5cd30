package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntity struct {
	id   uuid.UUID
	kind string
}

func (f *fakeEntity) EntityType() string  { return f.kind }
func (f *fakeEntity) EntityID() uuid.UUID { return f.id }

type fakeClient struct {
	batchCalls int
	txCalls    int
	responses  []Response
	err        error
	lastReqs   []Request
}

func (f *fakeClient) Execute(ctx context.Context, req Request) (Response, error) {
	f.lastReqs = []Request{req}
	if f.err != nil {
		return Response{}, f.err
	}
	if len(f.responses) > 0 {
		return f.responses[0], nil
	}
	return Response{}, nil
}

func (f *fakeClient) ExecuteBatch(ctx context.Context, reqs []Request) ([]Response, error) {
	f.batchCalls++
	f.lastReqs = reqs
	if f.err != nil {
		return nil, f.err
	}
	return f.respond(reqs), nil
}

func (f *fakeClient) ExecuteTransaction(ctx context.Context, reqs []Request) ([]Response, error) {
	f.txCalls++
	f.lastReqs = reqs
	if f.err != nil {
		return nil, f.err
	}
	return f.respond(reqs), nil
}

func (f *fakeClient) respond(reqs []Request) []Response {
	if f.responses != nil {
		return f.responses
	}
	out := make([]Response, len(reqs))
	for i, req := range reqs {
		if create, ok := req.(CreateRequest); ok {
			out[i] = Response{CreatedID: create.Entity.EntityID()}
		}
	}
	return out
}

func TestComposerTransactionRoutesToExecuteTransaction(t *testing.T) {
	client := &fakeClient{}
	tx := NewTransaction(client)

	e := &fakeEntity{id: uuid.New(), kind: "things"}
	h := tx.AddCreate(e)
	require.Equal(t, 1, tx.Len())

	require.NoError(t, tx.Execute(context.Background()))
	assert.Equal(t, 1, client.txCalls)
	assert.Equal(t, 0, client.batchCalls)
	assert.Equal(t, e.id, h.CreatedID())
	assert.True(t, tx.Executed())
}

func TestComposerBatchRoutesToExecuteBatch(t *testing.T) {
	client := &fakeClient{}
	batch := NewBatch(client)

	batch.AddCreate(&fakeEntity{id: uuid.New(), kind: "things"})
	batch.AddRetrieve("things", uuid.New())

	require.NoError(t, batch.Execute(context.Background()))
	assert.Equal(t, 1, client.batchCalls)
	assert.Equal(t, 0, client.txCalls)
	assert.Len(t, client.lastReqs, 2)
}

func TestComposerHandleResolvedBeforeExecutePanics(t *testing.T) {
	tx := NewTransaction(&fakeClient{})
	h := tx.AddCreate(&fakeEntity{id: uuid.New(), kind: "things"})

	assert.PanicsWithValue(t, "store: handle resolved before Execute", func() {
		_ = h.CreatedID()
	})
}

func TestComposerExecuteTwicePanics(t *testing.T) {
	tx := NewTransaction(&fakeClient{})
	tx.AddCreate(&fakeEntity{id: uuid.New(), kind: "things"})
	require.NoError(t, tx.Execute(context.Background()))

	assert.PanicsWithValue(t, "store: composer executed twice", func() {
		_ = tx.Execute(context.Background())
	})
}

func TestComposerAddAfterExecutePanics(t *testing.T) {
	tx := NewTransaction(&fakeClient{})
	require.NoError(t, tx.Execute(context.Background()))

	assert.PanicsWithValue(t, "store: request added after Execute", func() {
		tx.AddCreate(&fakeEntity{id: uuid.New(), kind: "things"})
	})
}

func TestComposerFailedExecuteStaysUnexecuted(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	tx := NewTransaction(client)
	h := tx.AddCreate(&fakeEntity{id: uuid.New(), kind: "things"})

	require.Error(t, tx.Execute(context.Background()))
	assert.False(t, tx.Executed())
	assert.Panics(t, func() { _ = h.CreatedID() })
}

func TestComposerQueryHandleNarrowing(t *testing.T) {
	want := []*fakeEntity{
		{id: uuid.New(), kind: "things"},
		{id: uuid.New(), kind: "things"},
	}
	client := &fakeClient{responses: []Response{{Entities: []Entity{want[0], want[1]}}}}
	tx := NewTransaction(client)
	h := tx.AddQuery(Query{Type: "things"})

	require.NoError(t, tx.Execute(context.Background()))
	got := EntitiesAs[*fakeEntity](h)
	require.Len(t, got, 2)
	assert.Equal(t, want[0].id, got[0].id)
}

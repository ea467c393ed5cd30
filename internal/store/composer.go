package store

import (
	"context"

	"github.com/google/uuid"
)

// Composer accumulates heterogeneous requests and submits them in one remote
// operation. Callers receive a typed handle per enqueued request and may only
// materialize its response after Execute. Resolving a handle early, or
// executing twice, is a caller bug and panics.
type Composer struct {
	client    EntityClient
	atomic    bool
	requests  []Request
	responses []Response
	executed  bool
}

// NewBatch returns a best-effort composer: requests are independent, each
// response carries its own error, nothing is atomic.
func NewBatch(client EntityClient) *Composer {
	return &Composer{client: client}
}

// NewTransaction returns an atomic composer: either every request is applied
// by the store or the whole operation is rejected.
func NewTransaction(client EntityClient) *Composer {
	return &Composer{client: client, atomic: true}
}

type handle struct {
	c   *Composer
	idx int
}

func (h handle) response() Response {
	if !h.c.executed {
		panic("store: handle resolved before Execute")
	}
	return h.c.responses[h.idx]
}

// CreateHandle defers access to a create response.
type CreateHandle struct{ handle }

// CreatedID returns the id assigned to the created entity.
func (h CreateHandle) CreatedID() uuid.UUID { return h.response().CreatedID }

// Err returns the per-request error in best-effort mode.
func (h CreateHandle) Err() error { return h.response().Err }

// UpdateHandle defers access to an update response.
type UpdateHandle struct{ handle }

// Err returns the per-request error in best-effort mode.
func (h UpdateHandle) Err() error { return h.response().Err }

// RetrieveHandle defers access to a retrieve response.
type RetrieveHandle struct{ handle }

// Entity returns the retrieved entity.
func (h RetrieveHandle) Entity() Entity { return h.response().Entity }

// Err returns the per-request error in best-effort mode.
func (h RetrieveHandle) Err() error { return h.response().Err }

// QueryHandle defers access to a query response.
type QueryHandle struct{ handle }

// Entities returns the matched entities.
func (h QueryHandle) Entities() []Entity { return h.response().Entities }

// Err returns the per-request error in best-effort mode.
func (h QueryHandle) Err() error { return h.response().Err }

// EntitiesAs narrows a query handle's results to a concrete entity type.
func EntitiesAs[T Entity](h QueryHandle) []T {
	entities := h.Entities()
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.(T))
	}
	return out
}

func (c *Composer) enqueue(req Request) handle {
	if c.executed {
		panic("store: request added after Execute")
	}
	c.requests = append(c.requests, req)
	return handle{c: c, idx: len(c.requests) - 1}
}

// AddCreate enqueues an insert.
func (c *Composer) AddCreate(e Entity) CreateHandle {
	return CreateHandle{c.enqueue(CreateRequest{Entity: e})}
}

// AddUpdate enqueues a full-row update.
func (c *Composer) AddUpdate(e Entity) UpdateHandle {
	return UpdateHandle{c.enqueue(UpdateRequest{Entity: e})}
}

// AddUpdateColumns enqueues an update restricted to the named columns.
func (c *Composer) AddUpdateColumns(e Entity, columns ...string) UpdateHandle {
	return UpdateHandle{c.enqueue(UpdateRequest{Entity: e, Columns: columns})}
}

// AddRetrieve enqueues a by-id fetch.
func (c *Composer) AddRetrieve(entityType string, id uuid.UUID, columns ...string) RetrieveHandle {
	return RetrieveHandle{c.enqueue(RetrieveRequest{Type: entityType, ID: id, Columns: columns})}
}

// AddQuery enqueues a filtered query.
func (c *Composer) AddQuery(q Query) QueryHandle {
	return QueryHandle{c.enqueue(QueryRequest{Query: q})}
}

// Len returns the number of enqueued requests.
func (c *Composer) Len() int { return len(c.requests) }

// Requests exposes the pending unit of work, letting tests assert exactly
// what would be sent without a live store.
func (c *Composer) Requests() []Request { return c.requests }

// Execute submits the accumulated requests. Calling it twice panics. After a
// failed atomic execution the composer stays unexecuted; there is no
// cancellation of an in-flight transaction once submitted.
func (c *Composer) Execute(ctx context.Context) error {
	if c.executed {
		panic("store: composer executed twice")
	}
	var (
		responses []Response
		err       error
	)
	if c.atomic {
		responses, err = c.client.ExecuteTransaction(ctx, c.requests)
	} else {
		responses, err = c.client.ExecuteBatch(ctx, c.requests)
	}
	if err != nil {
		return err
	}
	c.responses = responses
	c.executed = true
	return nil
}

// Executed reports whether Execute completed successfully.
func (c *Composer) Executed() bool { return c.executed }

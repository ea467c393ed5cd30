package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by retrieves for ids that do not exist.
var ErrNotFound = errors.New("store: entity not found")

// Entity is a typed record the store can persist. Domain structs implement
// it with explicit named fields; there are no generic attribute bags.
type Entity interface {
	EntityType() string
	EntityID() uuid.UUID
}

// Request is one unit of work submitted to the store.
type Request interface {
	isRequest()
}

// CreateRequest inserts a new entity.
type CreateRequest struct {
	Entity Entity
}

// UpdateRequest writes an existing entity. Columns restricts the write to the
// named columns; empty means every mapped column.
type UpdateRequest struct {
	Entity  Entity
	Columns []string
}

// RetrieveRequest fetches a single entity by id.
type RetrieveRequest struct {
	Type    string
	ID      uuid.UUID
	Columns []string
}

// QueryRequest runs a filtered query.
type QueryRequest struct {
	Query Query
}

func (CreateRequest) isRequest()   {}
func (UpdateRequest) isRequest()   {}
func (RetrieveRequest) isRequest() {}
func (QueryRequest) isRequest()    {}

// Response carries the result of one request. Only the field matching the
// request kind is populated. Err is set per-request in best-effort batches;
// atomic transactions never produce partial responses.
type Response struct {
	CreatedID uuid.UUID
	Entity    Entity
	Entities  []Entity
	Err       error
}

// EntityClient is the remote transactional entity store boundary. Execute
// submits one request; ExecuteBatch submits independent requests with
// per-request outcomes and no atomicity; ExecuteTransaction is all-or-nothing.
type EntityClient interface {
	Execute(ctx context.Context, req Request) (Response, error)
	ExecuteBatch(ctx context.Context, reqs []Request) ([]Response, error)
	ExecuteTransaction(ctx context.Context, reqs []Request) ([]Response, error)
}

// DoQuery is a convenience wrapper for single-request queries.
func DoQuery(ctx context.Context, c EntityClient, q Query) ([]Entity, error) {
	resp, err := c.Execute(ctx, QueryRequest{Query: q})
	if err != nil {
		return nil, err
	}
	return resp.Entities, nil
}

// DoRetrieve is a convenience wrapper for single-request retrieves.
func DoRetrieve(ctx context.Context, c EntityClient, entityType string, id uuid.UUID, columns ...string) (Entity, error) {
	resp, err := c.Execute(ctx, RetrieveRequest{Type: entityType, ID: id, Columns: columns})
	if err != nil {
		return nil, err
	}
	return resp.Entity, nil
}

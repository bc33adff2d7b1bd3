package types

import (
	"context"
	"errors"
	"fmt"
)

// EventType identifies the kind of change a push event describes.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

// IsValid checks if the event type is known.
func (e EventType) IsValid() bool {
	switch e {
	case EventInsert, EventUpdate, EventDelete:
		return true
	default:
		return false
	}
}

// ChangeEvent is an asynchronous notification of a single row change.
// New is set for inserts and updates; Old is set for updates and deletes.
type ChangeEvent struct {
	Type EventType
	New  Row
	Old  Row
}

// ChangeSubscription is a live push-change registration. Close tears the
// registration down; closing twice is a no-op.
type ChangeSubscription interface {
	Close() error
}

// Gateway is the remote data access contract the engine consumes. It is
// scoped to named tables; all calls are synchronous from the caller's view
// and carry a context for cancellation. Implementations must invoke
// subscription handlers sequentially, in event arrival order.
type Gateway interface {
	// Select returns the rows matching filter, sorted by order, windowed
	// by limit/offset. Zero limit means unbounded.
	Select(ctx context.Context, table string, filter Predicate, order OrderSpec, limit, offset int) ([]Row, error)

	// Count returns the number of rows matching filter.
	Count(ctx context.Context, table string, filter Predicate) (int, error)

	// Insert stores a new row and returns it as stored (including any
	// backend-assigned fields).
	Insert(ctx context.Context, table string, row Row) (Row, error)

	// UpdateOne replaces the given fields of the row identified by key.
	// Returns ErrNotFound if no such row exists.
	UpdateOne(ctx context.Context, table string, key any, fields Row) (Row, error)

	// DeleteOne removes the row identified by key and returns it.
	// Returns ErrNotFound if no such row exists.
	DeleteOne(ctx context.Context, table string, key any) (Row, error)

	// SubscribeChanges registers handler for change events on table.
	// The filter string is fixed for the subscription's lifetime.
	SubscribeChanges(ctx context.Context, table string, filter string, handler func(ChangeEvent)) (ChangeSubscription, error)

	// SearchByFieldPrefix returns rows whose field value starts with
	// prefix, case-insensitively.
	SearchByFieldPrefix(ctx context.Context, table string, field, prefix string) ([]Row, error)
}

// Engine errors.
var (
	// ErrNotFound is returned when an update or delete target is absent.
	ErrNotFound = errors.New("row not found")

	// ErrMissingIdentifier is returned when a mutation is called without
	// the key field.
	ErrMissingIdentifier = errors.New("missing row identifier")

	// ErrInvalidFilter is returned when an operator is applied to an
	// incompatible operand type.
	ErrInvalidFilter = errors.New("invalid filter")
)

// GatewayError wraps a remote failure. Gateway errors are recoverable:
// the engine retries only on the next explicit operation, never on its own.
type GatewayError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *GatewayError) Unwrap() error {
	return e.Err
}

// WrapGateway wraps err as a GatewayError for the named operation.
// Returns nil if err is nil.
func WrapGateway(op string, err error) error {
	if err == nil {
		return nil
	}
	return &GatewayError{Op: op, Err: err}
}

package graph

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound reports an operation on a node id the store does not hold.
// Single-entity operations return it; batch operations use the typed errors
// below so the whole batch can be aborted with a precise message.
var ErrNodeNotFound = errors.New("node not found")

// ErrNoVectorIndex reports an operation that needs the semantic index on a
// store opened without one.
var ErrNoVectorIndex = errors.New("no semantic index configured")

// ValidationError reports malformed input at the entity boundary: a bad type
// tag, a violated length bound, a missing required field. It is surfaced to
// the caller, never silently coerced.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// ConflictError reports a duplicate node or edge id during a batch add.
// The batch is aborted with nothing committed.
type ConflictError struct {
	Kind string // "node" or "edge"
	ID   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s with id %q already exists", e.Kind, e.ID)
}

// IntegrityError reports an edge endpoint that resolves to no node, neither
// as an id nor as a name. The batch is aborted with nothing committed.
type IntegrityError struct {
	Endpoint string // "source" or "target"
	Value    string
}

func (e *IntegrityError) Error() string {
	label := "Source"
	if e.Endpoint == "target" {
		label = "Target"
	}
	return fmt.Sprintf("%s node %q does not exist", label, e.Value)
}

// PolicyError reports a mutation refused by a safety rule (delete batch over
// the cap, delete without confirmation). No mutation has occurred.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string {
	return e.Message
}

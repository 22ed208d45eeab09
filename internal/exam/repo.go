package exam

import (
	"context"
	"errors"
)

var (
	ErrTestNotFound   = errors.New("test not found")
	ErrResultNotFound = errors.New("result not found")
)

// Store is the read side the session core consumes plus the write side the
// authoring subsystem uses to publish finalized definitions.
type Store interface {
	PutTest(ctx context.Context, t Test) error
	GetTest(ctx context.Context, id string) (Test, error) // deep copy
	ListTests(ctx context.Context) ([]Test, error)
}

// ResultStore persists scored results. Results are written once and never updated
// except by a manual-grading override, which replaces the row wholesale.
type ResultStore interface {
	SaveResult(ctx context.Context, r Result) error
	GetResult(ctx context.Context, id string) (Result, error)
	ListResults(ctx context.Context) ([]Result, error)
}

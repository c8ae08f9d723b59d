package testutil

import (
	"context"

	"github.com/kbukum/deferhttp/component"
)

// TestComponent is a component.Component whose state can be reset and
// captured between test cases.
type TestComponent interface {
	component.Component

	// Reset returns the component to its freshly started state.
	Reset(ctx context.Context) error

	// Snapshot captures the component's state for a later Restore.
	Snapshot(ctx context.Context) (any, error)

	// Restore returns the component to a state captured by Snapshot.
	Restore(ctx context.Context, snapshot any) error
}

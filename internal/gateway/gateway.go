// Package gateway is the seam between the panel and a storage backend.
//
// The panel talks to a Gateway, which is asynchronous and reports every
// request exactly once through a callback. Concrete backends implement the
// synchronous Driver interface; Async turns a Driver into a Gateway.
package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/justyntemme/filespanel/internal/tree"
)

// ErrBackendUnavailable matches every failure reported by a backend.
var ErrBackendUnavailable = errors.New("backend unavailable")

// BackendError describes one failed backend call.
type BackendError struct {
	Op   string
	Path string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *BackendError) Unwrap() []error {
	return []error{ErrBackendUnavailable, e.Err}
}

// MoveSpec is the destination of a move. Path is canonical.
type MoveSpec struct {
	Path string
}

// Gateway issues backend requests. Callbacks run on the goroutine that owns
// the panel, never concurrently with another panel call.
type Gateway interface {
	// ReadDirectory snapshots root. Only the first returned node is used;
	// it is the root of the snapshot.
	ReadDirectory(root string, done func(nodes []*tree.Node, err error))
	// Move relocates from to the destination path.
	Move(from tree.Item, to MoveSpec, done func(err error))
}

// Driver is a synchronous storage backend.
type Driver interface {
	Name() string
	ReadDirectory(ctx context.Context, root string) ([]*tree.Node, error)
	Move(ctx context.Context, from tree.Item, to MoveSpec) error
}

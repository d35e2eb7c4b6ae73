package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/filespanel/internal/tree"
)

type fakeDriver struct {
	mu      sync.Mutex
	moves   []MoveSpec
	readErr error
	moveErr error
}

func (d *fakeDriver) Name() string { return "fake" }

func (d *fakeDriver) ReadDirectory(_ context.Context, root string) ([]*tree.Node, error) {
	if d.readErr != nil {
		return nil, d.readErr
	}
	return []*tree.Node{tree.NewFolder(root, tree.NewFile(root+"/a.txt"))}, nil
}

func (d *fakeDriver) Move(_ context.Context, _ tree.Item, to MoveSpec) error {
	d.mu.Lock()
	d.moves = append(d.moves, to)
	d.mu.Unlock()
	return d.moveErr
}

func next(t *testing.T, a *Async) Response {
	t.Helper()
	select {
	case resp := <-a.ResponseChan:
		return resp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for response")
		return Response{}
	}
}

func TestAsyncReadDirectory(t *testing.T) {
	a := NewAsync(&fakeDriver{}, nil)
	a.Start(context.Background(), 2)
	defer a.Close()

	var got []*tree.Node
	var gotErr error
	a.ReadDirectory("/proj", func(nodes []*tree.Node, err error) {
		got, gotErr = nodes, err
	})
	assert.Equal(t, 1, a.Pending())

	a.Deliver(next(t, a))

	require.NoError(t, gotErr)
	require.Len(t, got, 1)
	assert.Equal(t, "/proj", got[0].Path)
	assert.Equal(t, 0, a.Pending())
}

func TestAsyncMoveErrorIsBackendError(t *testing.T) {
	cause := errors.New("disk on fire")
	a := NewAsync(&fakeDriver{moveErr: cause}, nil)
	a.Start(context.Background(), 1)
	defer a.Close()

	var gotErr error
	a.Move(tree.Item{Key: "k", Path: "/proj/a.txt"}, MoveSpec{Path: "/proj/b/a.txt"}, func(err error) {
		gotErr = err
	})
	a.Deliver(next(t, a))

	require.Error(t, gotErr)
	assert.ErrorIs(t, gotErr, ErrBackendUnavailable)
	assert.ErrorIs(t, gotErr, cause)

	var be *BackendError
	require.ErrorAs(t, gotErr, &be)
	assert.Equal(t, "move", be.Op)
	assert.Equal(t, "/proj/a.txt", be.Path)
}

func TestAsyncDeliverOnce(t *testing.T) {
	a := NewAsync(&fakeDriver{}, nil)
	a.Start(context.Background(), 1)
	defer a.Close()

	calls := 0
	a.Move(tree.Item{Path: "/a"}, MoveSpec{Path: "/b"}, func(error) { calls++ })
	resp := next(t, a)
	a.Deliver(resp)
	a.Deliver(resp)

	assert.Equal(t, 1, calls)
}

func TestAsyncEnqueueDoesNotBlockWhenFull(t *testing.T) {
	a := NewAsync(&fakeDriver{}, nil)
	defer a.Close()

	finished := make(chan struct{})
	go func() {
		for i := 0; i < cap(a.RequestChan)*2; i++ {
			a.Move(tree.Item{Path: "/a"}, MoveSpec{Path: "/b"}, func(error) {})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("enqueue blocked without workers")
	}
	assert.Equal(t, cap(a.RequestChan)*2, a.Pending())
}

func TestWrapKeepsExistingBackendError(t *testing.T) {
	be := &BackendError{Op: "read", Path: "/x", Err: errors.New("boom")}
	assert.Same(t, be, wrap("move", "/y", be))
	assert.Nil(t, wrap("move", "/y", nil))
}

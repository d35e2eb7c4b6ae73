package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/metrics"
	"github.com/justyntemme/filespanel/internal/tree"
)

type OpType int

const (
	ReadDir OpType = iota
	MoveNode
)

func (o OpType) String() string {
	if o == MoveNode {
		return "move"
	}
	return "read"
}

type Request struct {
	ID   uint64
	Op   OpType
	Path string
	From tree.Item
	To   MoveSpec
}

type Response struct {
	ID      uint64
	Op      OpType
	Path    string
	Nodes   []*tree.Node
	Err     error
	Elapsed time.Duration
}

type pendingCall struct {
	read func([]*tree.Node, error)
	move func(error)
}

// Async runs Driver calls on worker goroutines. Workers publish results on
// ResponseChan; the owner goroutine passes each one to Deliver, which runs
// the request's callback.
type Async struct {
	RequestChan  chan Request
	ResponseChan chan Response

	driver Driver
	logger *zap.Logger

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]pendingCall

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

func NewAsync(driver Driver, logger *zap.Logger) *Async {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Async{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
		driver:       driver,
		logger:       logger,
		pending:      make(map[uint64]pendingCall),
		done:         make(chan struct{}),
	}
}

// Start launches workers goroutines. They stop when ctx is cancelled or
// Close is called.
func (a *Async) Start(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go a.work(ctx)
	}
}

func (a *Async) work(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case req := <-a.RequestChan:
			resp := a.execute(ctx, req)
			select {
			case a.ResponseChan <- resp:
			case <-ctx.Done():
				return
			case <-a.done:
				return
			}
		}
	}
}

func (a *Async) execute(ctx context.Context, req Request) Response {
	debug.Log(debug.IO, "Request: id=%d op=%s path=%q to=%q", req.ID, req.Op, req.Path, req.To.Path)
	start := time.Now()
	resp := Response{ID: req.ID, Op: req.Op, Path: req.Path}

	switch req.Op {
	case ReadDir:
		nodes, err := a.driver.ReadDirectory(ctx, req.Path)
		resp.Nodes = nodes
		resp.Err = wrap("read", req.Path, err)
	case MoveNode:
		resp.Err = wrap("move", req.From.Path, a.driver.Move(ctx, req.From, req.To))
	}

	resp.Elapsed = time.Since(start)
	metrics.RecordDriverOperation(a.driver.Name(), req.Op.String(), resp.Elapsed)
	debug.Log(debug.IO, "Response: id=%d op=%s nodes=%d err=%v elapsed=%s",
		resp.ID, resp.Op, len(resp.Nodes), resp.Err, resp.Elapsed)
	return resp
}

func wrap(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Op: op, Path: path, Err: err}
}

// ReadDirectory implements Gateway.
func (a *Async) ReadDirectory(root string, done func([]*tree.Node, error)) {
	id := a.register(pendingCall{read: done})
	a.enqueue(Request{ID: id, Op: ReadDir, Path: root})
}

// Move implements Gateway.
func (a *Async) Move(from tree.Item, to MoveSpec, done func(error)) {
	id := a.register(pendingCall{move: done})
	a.enqueue(Request{ID: id, Op: MoveNode, Path: from.Path, From: from, To: to})
}

func (a *Async) register(call pendingCall) uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	a.pending[a.nextID] = call
	return a.nextID
}

// enqueue never blocks the owner goroutine: when the queue is full the
// request is handed off to a goroutine.
func (a *Async) enqueue(req Request) {
	select {
	case a.RequestChan <- req:
	default:
		go func() {
			select {
			case a.RequestChan <- req:
			case <-a.done:
			}
		}()
	}
}

// Deliver runs the callback registered for resp. It must be called on the
// goroutine that owns the panel.
func (a *Async) Deliver(resp Response) {
	a.mu.Lock()
	call, ok := a.pending[resp.ID]
	delete(a.pending, resp.ID)
	a.mu.Unlock()

	if !ok {
		a.logger.Warn("response for unknown request", zap.Uint64("id", resp.ID), zap.Stringer("op", resp.Op))
		return
	}
	switch {
	case call.read != nil:
		call.read(resp.Nodes, resp.Err)
	case call.move != nil:
		call.move(resp.Err)
	}
}

// Pending returns the number of requests without a delivered response.
func (a *Async) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Driver returns the wrapped driver.
func (a *Async) Driver() Driver {
	return a.driver
}

// Close stops the workers and waits for them. Pending callbacks are dropped.
func (a *Async) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
	})
	a.wg.Wait()
}

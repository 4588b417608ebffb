// Package executor wires task.Handle instances into a graph.ComputeReachability
// pass and a pool.Pool run: it is the only place in taskgrid that knows both
// "task" and "pool" and is responsible for ordering submission by critical
// path so the tasks with the shortest dependency chains are submitted first.
package executor

import (
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"github.com/vk/taskgrid/edge"
	"github.com/vk/taskgrid/graph"
	"github.com/vk/taskgrid/pool"
	"github.com/vk/taskgrid/task"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Option configures an Executor at construction time.
type Option func(*Executor)

// WithLogger attaches logger for lifecycle events. Without it, the
// Executor logs nothing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// WithWorkerCount overrides the pool size Run creates. Without it, Run uses
// runtime.NumCPU().
func WithWorkerCount(n int) Option {
	return func(e *Executor) { e.workerCount = n }
}

// Executor owns a set of tasks added via Add and, on Run, computes their
// reachability, orders them by ascending reachability (so the tasks with the
// shallowest predecessor chains are submitted first), and drives them through a
// pool.Pool sized to runtime.NumCPU() workers unless overridden.
//
// An Executor runs its added tasks exactly once: Run is not meant to be
// called a second time on the same Executor, and the behavior of doing so
// (including whether previously added tasks re-run) is unspecified.
type Executor struct {
	mu    sync.Mutex
	tasks []task.Handle

	workerCount int
	pool        *pool.Pool
	idleOnce    func()

	logger *slog.Logger
}

// New constructs an Executor with no tasks and a lazily created pool.
func New(opts ...Option) *Executor {
	e := &Executor{logger: discardLogger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Add registers t to be submitted on the next Run. Add must not be called
// concurrently with Run.
func (e *Executor) Add(t task.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, t)
}

// OnIdle installs a callback fired exactly once when the underlying pool
// transitions from active work to fully idle. It must be set before Run.
func (e *Executor) OnIdle(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.idleOnce = fn
}

// Run computes every added task's reachability, sorts tasks by ascending
// reachability so the shallowest chains are submitted first, submits one work
// item per task to a worker pool, and only then starts the pool's workers —
// so every task is enqueued before any worker can drain the queue, and the
// pool's active-count can reach zero at most once during this Run. Run
// returns once every task has been submitted; it does not block until they
// finish — call Wait for that.
func (e *Executor) Run() {
	e.mu.Lock()
	tasks := make([]task.Handle, len(e.tasks))
	copy(tasks, e.tasks)
	e.mu.Unlock()

	owners := make([]edge.Owner, 0, len(tasks))
	for _, t := range tasks {
		owners = append(owners, t.AsNode())
	}
	graph.ComputeReachability(owners)

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].AsNode().Order(tasks[j].AsNode())
	})

	workerCount := e.workerCount
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}

	e.mu.Lock()
	e.pool = pool.New(workerCount, e.idleOnce)
	p := e.pool
	e.mu.Unlock()

	e.logger.Debug("executor run", "tasks", len(tasks), "workers", workerCount)
	for _, t := range tasks {
		t := t
		p.Submit(func() { t.Run() })
	}
	p.Start()
}

// Cancel discards every task that has not yet started executing. Tasks
// already running on a worker finish normally; Cancel does not interrupt
// them. Cancel is a no-op if Run has not been called.
func (e *Executor) Cancel() {
	e.mu.Lock()
	p := e.pool
	e.mu.Unlock()
	if p == nil {
		return
	}
	e.logger.Debug("executor cancel")
	p.ClearPending()
}

// Wait blocks until every submitted task has either run to completion or
// been dropped by Cancel. Wait is a no-op if Run has not been called.
func (e *Executor) Wait() {
	e.mu.Lock()
	p := e.pool
	e.mu.Unlock()
	if p == nil {
		return
	}
	p.WaitIdle()
}

// Close releases the Executor's pool resources. It blocks until all worker
// goroutines have exited. Close is a no-op if Run has not been called.
func (e *Executor) Close() {
	e.mu.Lock()
	p := e.pool
	e.mu.Unlock()
	if p == nil {
		return
	}
	p.Close()
}

package util

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// Named settings controlling the two pool sizes. Settings resolve through
// the environment with the usual mangling: planner.num-threads becomes
// ICEBERG_PLANNER_NUM_THREADS. Absent or unparsable values silently fall
// back to the defaults.
const (
	PlannerPoolSizeProp = "planner.num-threads"
	WorkerPoolSizeProp  = "worker.num-threads"

	defaultPlannerPoolSize = 4
)

var (
	plannerOnce sync.Once
	plannerPool *Pool

	workerOnce sync.Once
	workerPool *Pool
)

// PlannerPool returns the process-wide pool bounding concurrent scan
// planning operations. It is created on first use, sized once from
// planner.num-threads (default 4), and lives for the rest of the process.
func PlannerPool() *Pool {
	plannerOnce.Do(func() {
		plannerPool = NewPool("planner", poolSize(PlannerPoolSizeProp, defaultPlannerPoolSize))
	})
	return plannerPool
}

// WorkerPool returns the process-wide pool bounding low-level manifest and
// file read tasks spawned by planning operations, shared across all
// concurrently running planning tasks. Sized once from worker.num-threads,
// defaulting to the available hardware parallelism.
func WorkerPool() *Pool {
	workerOnce.Do(func() {
		workerPool = NewPool("worker", poolSize(WorkerPoolSizeProp, runtime.GOMAXPROCS(0)))
	})
	return workerPool
}

// poolSize resolves a named positive-integer setting, falling back to the
// default without surfacing an error.
func poolSize(prop string, def int) int {
	v := os.Getenv(envKey(prop))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envKey(prop string) string {
	mangled := strings.NewReplacer(".", "_", "-", "_").Replace(prop)
	return "ICEBERG_" + strings.ToUpper(mangled)
}

// Pool is a fixed set of daemon goroutines draining a shared task queue.
// Pools are never torn down; they exit with the process. A Pool only bounds
// how many tasks run at once — tasks that touch a reader tree must own it
// exclusively for the duration of their row group read.
type Pool struct {
	name  string
	size  int
	tasks chan func()
}

// NewPool starts size goroutines draining the pool's queue.
func NewPool(name string, size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{
		name:  name,
		size:  size,
		tasks: make(chan func()),
	}
	for i := 0; i < size; i++ {
		go p.drain()
	}
	return p
}

func (p *Pool) drain() {
	for task := range p.tasks {
		task()
	}
}

// Size reports the fixed number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Submit queues a task, blocking until a worker accepts it.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Run submits a task and waits for it to finish, returning its error. The
// context bounds only the caller's wait; a task that already started runs
// to completion, mirroring the pool's lack of in-task cancellation.
func (p *Pool) Run(ctx context.Context, task func() error) error {
	done := make(chan error, 1)
	wrapped := func() { done <- task() }

	select {
	case p.tasks <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

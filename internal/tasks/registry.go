package tasks

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"
)

// TaskHandler is the function signature for a task handler.
// It returns a result map that is logged with the run.
type TaskHandler func(ctx context.Context) (map[string]interface{}, error)

// Registry stores the mapping of task names to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]TaskHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]TaskHandler)}
}

// Register adds a handler for a task name
func (r *Registry) Register(name string, handler TaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Get retrieves a handler for a task name
func (r *Registry) Get(name string) (TaskHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}

// Names returns the registered task names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run is the outcome of one task execution
type Run struct {
	TaskName string
	RunAt    time.Time
	Runtime  time.Duration
	Status   string
	Result   map[string]interface{}
}

// RunAll executes every registered task once, in name order. A failing task
// does not stop the others. It stops early when ctx is done.
func (r *Registry) RunAll(ctx context.Context) []Run {
	var runs []Run
	for _, name := range r.Names() {
		if ctx.Err() != nil {
			return runs
		}
		handler, ok := r.Get(name)
		if !ok {
			continue
		}

		log.Printf("Processing task: %s", name)
		startTime := time.Now()
		result, err := handler(ctx)

		run := Run{TaskName: name, RunAt: startTime, Runtime: time.Since(startTime), Status: "success", Result: result}
		if err != nil {
			run.Status = "failure"
			run.Result = map[string]interface{}{"error": err.Error()}
			log.Printf("Task %s failed: %v", name, err)
		} else {
			log.Printf("Task %s completed in %s: %v", name, run.Runtime, result)
		}
		runs = append(runs, run)
	}
	return runs
}

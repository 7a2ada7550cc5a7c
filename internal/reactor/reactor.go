// Package reactor provides the single-threaded task loop that owns all
// orchestration state. Foreign threads (the hotkey listener, the audio pump)
// never touch that state directly; they enqueue tasks through Submit and the
// loop goroutine runs them one at a time, in order.
package reactor

import (
	"sync"

	"github.com/yok-tottii/speaktome-client/internal/logger"
)

// Task is a unit of work to run on the reactor goroutine
type Task func()

// queueSize bounds the task backlog. The producers are a human pressing a
// hotkey and the occasional pump abort, so the queue never fills in practice;
// if it somehow does, Submit drops rather than blocks.
const queueSize = 16

// Loop runs submitted tasks sequentially on one goroutine
type Loop struct {
	tasks    chan Task
	stopChan chan struct{}
	logger   *logger.Logger
	wg       sync.WaitGroup
	mu       sync.RWMutex
	running  bool
}

// New creates a new reactor loop
func New(log *logger.Logger) *Loop {
	return &Loop{
		tasks:    make(chan Task, queueSize),
		stopChan: make(chan struct{}),
		logger:   log,
	}
}

// Start launches the loop goroutine
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return
	}
	l.running = true

	l.wg.Add(1)
	go l.run()
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.stopChan:
			// Drain tasks already queued so a submitted abort still runs
			for {
				select {
				case task := <-l.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Submit enqueues a task for execution on the loop goroutine. It is safe to
// call from any thread and never blocks the caller. Tasks submitted from the
// same thread run in submission order. After Close (or on a full queue) the
// task is dropped with a log line; the calling thread must stay healthy
// through shutdown.
func (l *Loop) Submit(task Task) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if !l.running {
		if l.logger != nil {
			l.logger.Warn("Task submitted after reactor shutdown, dropping")
		}
		return false
	}

	select {
	case l.tasks <- task:
		return true
	default:
		if l.logger != nil {
			l.logger.Warn("Reactor queue full, dropping task")
		}
		return false
	}
}

// Close stops the loop after finishing the current task and any backlog.
// Idempotent and safe from any thread.
func (l *Loop) Close() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopChan)
	l.wg.Wait()

	return nil
}

// IsRunning returns whether the loop is accepting tasks
func (l *Loop) IsRunning() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.running
}

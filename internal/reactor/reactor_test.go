package reactor

import (
	"sync"
	"testing"
	"time"
)

func TestSubmit_PreservesOrder(t *testing.T) {
	loop := New(nil)
	loop.Start()
	defer loop.Close()

	const numTasks = 100

	var mu sync.Mutex
	var observed []int
	done := make(chan struct{})

	// All tasks submitted from one goroutine must run in submission order
	go func() {
		for i := 0; i < numTasks; i++ {
			seq := i
			for !loop.Submit(func() {
				mu.Lock()
				observed = append(observed, seq)
				mu.Unlock()
				if seq == numTasks-1 {
					close(done)
				}
			}) {
				// Queue momentarily full; retry
				time.Sleep(time.Millisecond)
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for tasks to execute")
	}

	mu.Lock()
	defer mu.Unlock()

	if len(observed) != numTasks {
		t.Fatalf("Expected %d executed tasks, got %d", numTasks, len(observed))
	}

	for i, seq := range observed {
		if seq != i {
			t.Fatalf("Task order violated at index %d: got sequence %d", i, seq)
		}
	}
}

func TestSubmit_SingleExecutor(t *testing.T) {
	loop := New(nil)
	loop.Start()
	defer loop.Close()

	// Tasks from many threads must never run concurrently
	var active, maxActive int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				submitted := loop.Submit(func() {
					mu.Lock()
					active++
					if active > maxActive {
						maxActive = active
					}
					mu.Unlock()

					time.Sleep(time.Millisecond)

					mu.Lock()
					active--
					mu.Unlock()
				})
				if !submitted {
					time.Sleep(time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()

	// Let the backlog drain
	drained := make(chan struct{})
	for !loop.Submit(func() { close(drained) }) {
		time.Sleep(time.Millisecond)
	}
	select {
	case <-drained:
	case <-time.After(5 * time.Second):
		t.Fatal("Timed out waiting for queue to drain")
	}

	mu.Lock()
	defer mu.Unlock()
	if maxActive != 1 {
		t.Errorf("Expected at most one concurrently running task, observed %d", maxActive)
	}
}

func TestSubmit_AfterCloseIsDropped(t *testing.T) {
	loop := New(nil)
	loop.Start()

	if err := loop.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	executed := false
	if loop.Submit(func() { executed = true }) {
		t.Error("Expected Submit to report false after Close")
	}

	time.Sleep(10 * time.Millisecond)
	if executed {
		t.Error("Expected task submitted after Close to never run")
	}
}

func TestClose_Idempotent(t *testing.T) {
	loop := New(nil)
	loop.Start()

	if err := loop.Close(); err != nil {
		t.Errorf("First Close failed: %v", err)
	}
	if err := loop.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}

	if loop.IsRunning() {
		t.Error("Expected loop to not be running after Close")
	}
}

func TestClose_RunsQueuedBacklog(t *testing.T) {
	loop := New(nil)
	loop.Start()

	var mu sync.Mutex
	count := 0
	block := make(chan struct{})

	// First task blocks the loop so the rest pile up in the queue
	loop.Submit(func() { <-block })
	for i := 0; i < 5; i++ {
		loop.Submit(func() {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	close(block)
	if err := loop.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 5 {
		t.Errorf("Expected 5 backlog tasks to run before shutdown, got %d", count)
	}
}

func TestStart_Idempotent(t *testing.T) {
	loop := New(nil)
	loop.Start()
	loop.Start()
	defer loop.Close()

	done := make(chan struct{})
	loop.Submit(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Task did not execute")
	}
}

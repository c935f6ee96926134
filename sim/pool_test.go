package sim

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDispatchCoversEveryIndexOnce(t *testing.T) {
	const n = 1000
	visits := make([]int32, n)

	pool := newWorkerPool(func(start, end int, scratch *workerScratch) {
		for i := start; i < end; i++ {
			atomic.AddInt32(&visits[i], 1)
		}
	})
	pool.start()
	defer pool.stop()

	if err := pool.dispatch(n, time.Second); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	for i, v := range visits {
		if v != 1 {
			t.Fatalf("index %d visited %d times, want 1", i, v)
		}
	}
}

func TestStopReturnsAfterBarrierTimeout(t *testing.T) {
	gate := make(chan struct{})
	t.Cleanup(func() { close(gate) })

	pool := newWorkerPool(func(start, end int, scratch *workerScratch) {
		<-gate
	})
	pool.start()

	if err := pool.dispatch(8, 20*time.Millisecond); err == nil {
		t.Fatal("dispatch returned nil with every worker stalled")
	}

	stopped := make(chan struct{})
	go func() {
		pool.stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after a barrier timeout")
	}
}

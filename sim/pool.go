package sim

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/mkrogh/shopfloor/world"
)

// parallelThreshold is the minimum agent count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// workerScratch holds per-worker reusable buffers.
type workerScratch struct {
	Neighbors []world.Neighbor
}

// workChunk is a range of snapshot indices for a worker to process.
type workChunk struct {
	start, end int
}

// workerPool runs a fixed set of persistent goroutines that process
// snapshot index ranges. The compute callback must only read the snapshot
// and write intent slots inside its own range.
type workerPool struct {
	numWorkers int
	scratches  []workerScratch
	compute    func(start, end int, scratch *workerScratch)

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	poisoned bool
}

func newWorkerPool(compute func(start, end int, scratch *workerScratch)) *workerPool {
	numWorkers := runtime.GOMAXPROCS(0)
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Neighbors = make([]world.Neighbor, 0, 64)
	}
	return &workerPool{
		numWorkers: numWorkers,
		scratches:  scratches,
		compute:    compute,
	}
}

// start launches the persistent worker goroutines.
func (p *workerPool) start() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// stop signals all workers to exit and waits for them. After a barrier
// timeout the hung worker is abandoned instead of waited on, so shutdown
// stays bounded; its channels are left open in case it ever resumes.
func (p *workerPool) stop() {
	if !p.running {
		return
	}

	close(p.stopChan)
	if p.poisoned {
		p.running = false
		return
	}
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

func (p *workerPool) worker(workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.compute(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// dispatch fans n indices out over the pool and waits for every chunk to
// complete, or fails once timeout elapses with workers still outstanding.
func (p *workerPool) dispatch(n int, timeout time.Duration) error {
	if !p.running {
		p.start()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for i := 0; i < dispatched; i++ {
		select {
		case <-p.doneChan:
		case <-timer.C:
			p.poisoned = true
			return fmt.Errorf("compute barrier: %d of %d chunks outstanding after %s",
				dispatched-i, dispatched, timeout)
		}
	}
	return nil
}

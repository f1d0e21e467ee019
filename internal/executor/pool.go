package executor

import "context"

// Pool bounds the number of reasoning-backend requests running at once.
// One pool is shared by every agent in the simulation; the per-agent
// "at most one outstanding request" rule is the arbiter's job, this is
// global backpressure toward the backend.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool allowing up to maxConcurrent simultaneous
// requests. maxConcurrent < 1 is treated as 1.
func NewPool(maxConcurrent int) *Pool {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Pool{slots: make(chan struct{}, maxConcurrent)}
}

// Acquire blocks until a slot is free or ctx is done. Called from
// background goroutines only, never from the tick thread.
func (p *Pool) Acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot acquired with Acquire.
func (p *Pool) Release() {
	<-p.slots
}

// InFlight reports the number of currently held slots.
func (p *Pool) InFlight() int {
	return len(p.slots)
}

// Cap reports the maximum number of simultaneous requests.
func (p *Pool) Cap() int {
	return cap(p.slots)
}

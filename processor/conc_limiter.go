package processor

import (
	"sync"
)

// ConcLimiter caps how many cloud masking goroutines run at once
// inside a CompositeReducer.
type ConcLimiter struct {
	wg   sync.WaitGroup
	pool chan struct{}
}

func NewConcLimiter(cLevel int) *ConcLimiter {
	return &ConcLimiter{pool: make(chan struct{}, cLevel)}
}

// Increase blocks until a slot is free and claims it.
func (c *ConcLimiter) Increase() {
	c.wg.Add(1)
	c.pool <- struct{}{}
}

// Decrease releases the slot claimed by the matching Increase.
func (c *ConcLimiter) Decrease() {
	<-c.pool
	c.wg.Done()
}

// Wait blocks until every claimed slot has been released.
func (c *ConcLimiter) Wait() {
	c.wg.Wait()
}

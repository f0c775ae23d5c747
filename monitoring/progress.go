package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar counts the items of a long job, such as the steps of a
// script, that are finished or being worked on.
type ProgressBar struct {
	mu sync.Mutex

	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress marks more items as started.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.InProgress += amount
}

// IncrementFinished marks more items as finished without passing through
// the in-progress count.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished marks started items as finished.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount > b.InProgress {
		amount = b.InProgress
	}

	b.InProgress -= amount
	b.Finished += amount
}

// Done tells if every item is finished.
func (b *ProgressBar) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.Finished >= b.Total
}

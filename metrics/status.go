package metrics

import (
	"sync"
	"time"
)

// Status is the loop state shown on /status.
type Status struct {
	Mood                string    `json:"mood"`
	LastPostID          string    `json:"last_post_id,omitempty"`
	LastPostText        string    `json:"last_post_text,omitempty"`
	LastPostAt          time.Time `json:"last_post_at,omitempty"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Cycles              int       `json:"cycles"`
	NextCycleAt         time.Time `json:"next_cycle_at,omitempty"`
}

// StatusBoard holds the latest Status. The loop writes it, HTTP handlers read it.
type StatusBoard struct {
	mu     sync.RWMutex
	status Status
}

func NewStatusBoard() *StatusBoard {
	return &StatusBoard{}
}

// Update applies fn to the current status under the write lock.
func (b *StatusBoard) Update(fn func(*Status)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.status)
}

func (b *StatusBoard) Get() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

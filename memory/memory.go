// Package memory keeps the short-term history used to reject repeated tweets.
package memory

import "strings"

// DefaultCapacity is the number of tweets remembered when no capacity is given.
const DefaultCapacity = 100

// TweetMemory is a bounded FIFO of previously accepted tweets.
//
// Duplicate detection is an exact, case-insensitive comparison. Reworded
// near-duplicates are not caught.
type TweetMemory struct {
	entries  []string
	capacity int
}

// NewTweetMemory creates a memory holding at most capacity tweets.
func NewTweetMemory(capacity int) *TweetMemory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &TweetMemory{
		entries:  make([]string, 0, capacity),
		capacity: capacity,
	}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Add stores the normalized text, evicting the oldest entry when full.
func (m *TweetMemory) Add(text string) {
	if len(m.entries) >= m.capacity {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, normalize(text))
}

// IsDuplicate reports whether text matches a stored tweet ignoring case.
func (m *TweetMemory) IsDuplicate(text string) bool {
	n := normalize(text)
	for _, e := range m.entries {
		if e == n {
			return true
		}
	}
	return false
}

// Entries returns the stored tweets, oldest first.
func (m *TweetMemory) Entries() []string {
	out := make([]string, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len is the number of stored tweets.
func (m *TweetMemory) Len() int {
	return len(m.entries)
}

// Capacity is the maximum number of stored tweets.
func (m *TweetMemory) Capacity() int {
	return m.capacity
}

package memory

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTweetMemory_EvictsOldest(t *testing.T) {
	m := NewTweetMemory(2)
	m.Add("x")
	m.Add("y")
	m.Add("z")

	assert.Equal(t, []string{"y", "z"}, m.Entries())
	assert.False(t, m.IsDuplicate("x"))
}

func TestTweetMemory_NeverExceedsCapacity(t *testing.T) {
	m := NewTweetMemory(5)
	for i := 0; i < 50; i++ {
		m.Add(fmt.Sprintf("tweet %d", i))
		assert.LessOrEqual(t, m.Len(), 5)
	}
	assert.Equal(t, []string{"tweet 45", "tweet 46", "tweet 47", "tweet 48", "tweet 49"}, m.Entries())
}

func TestTweetMemory_IsDuplicate(t *testing.T) {
	tests := []struct {
		name      string
		stored    []string
		candidate string
		want      bool
	}{
		{name: "empty memory", candidate: "The void stares back.", want: false},
		{name: "exact match", stored: []string{"The void stares back."}, candidate: "The void stares back.", want: true},
		{name: "case insensitive", stored: []string{"The VOID stares back."}, candidate: "the void STARES back.", want: true},
		{name: "surrounding space", stored: []string{"The void stares back."}, candidate: "  The void stares back. ", want: true},
		{name: "reworded is not a duplicate", stored: []string{"The void stares back."}, candidate: "The void stares back!", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewTweetMemory(10)
			for _, s := range tt.stored {
				m.Add(s)
			}
			assert.Equal(t, tt.want, m.IsDuplicate(tt.candidate))
		})
	}
}

func TestNewTweetMemory_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, NewTweetMemory(0).Capacity())
}

func TestPhraseCooldown(t *testing.T) {
	c := NewPhraseCooldown([]string{"Infinity", "the void"}, 2)

	_, blocked := c.Blocked("Infinity is a cage.")
	assert.False(t, blocked, "nothing recorded yet")

	c.Record("Infinity is a cage.")
	phrase, blocked := c.Blocked("infinity, again.")
	assert.True(t, blocked)
	assert.Equal(t, "infinity", phrase)

	_, blocked = c.Blocked("Stars are liars.")
	assert.False(t, blocked)

	// push the infinity tweet out of the window
	c.Record("Stars are liars.")
	c.Record("Time is a prison.")
	_, blocked = c.Blocked("Infinity returns.")
	assert.False(t, blocked)
}

func TestPhraseCooldown_EmptyList(t *testing.T) {
	c := NewPhraseCooldown(nil, 0)
	c.Record("anything at all")
	_, blocked := c.Blocked("anything at all")
	assert.False(t, blocked)
}

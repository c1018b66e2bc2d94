package memory

import "strings"

// DefaultCooldownWindow is how many accepted tweets a phrase stays on cooldown for.
const DefaultCooldownWindow = 20

// PhraseCooldown rejects tweets that reuse a watched phrase too soon.
// The phrase list may be empty, in which case nothing is ever blocked.
type PhraseCooldown struct {
	phrases []string
	recent  []string
	window  int
}

// NewPhraseCooldown watches phrases across the last window accepted tweets.
func NewPhraseCooldown(phrases []string, window int) *PhraseCooldown {
	if window <= 0 {
		window = DefaultCooldownWindow
	}
	watched := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = normalize(p); p != "" {
			watched = append(watched, p)
		}
	}
	return &PhraseCooldown{
		phrases: watched,
		window:  window,
	}
}

// Blocked returns the first watched phrase that appears in text and in one
// of the recent accepted tweets.
func (c *PhraseCooldown) Blocked(text string) (string, bool) {
	n := normalize(text)
	for _, p := range c.phrases {
		if !strings.Contains(n, p) {
			continue
		}
		for _, r := range c.recent {
			if strings.Contains(r, p) {
				return p, true
			}
		}
	}
	return "", false
}

// Record adds an accepted tweet to the window.
func (c *PhraseCooldown) Record(text string) {
	if len(c.recent) >= c.window {
		c.recent = c.recent[1:]
	}
	c.recent = append(c.recent, normalize(text))
}

package personality

import (
	"math/rand/v2"
	"time"

	"github.com/NamiCreative/Lemniscate/logging"
)

const (
	minDuration = 3
	maxDuration = 8
	maxHistory  = 50
)

// Snapshot is the personality as seen by the prompt builder.
type Snapshot struct {
	Mood   Mood
	Traits map[string]float64
	Prefix string
	Suffix string
}

// Transition is one entry of the mood log.
type Transition struct {
	From       Mood
	To         Mood
	At         time.Time
	Engagement bool
}

// State is the mutable mood state. It is owned by the generation loop and
// is not safe for concurrent use.
type State struct {
	mood         Mood
	duration     int
	interactions int
	history      []Transition
	rng          *rand.Rand
	now          func() time.Time
	logger       *logging.Logger
}

// NewState starts in the given mood. An unknown mood starts in neutral.
func NewState(start Mood, rng *rand.Rand, logger *logging.Logger) *State {
	if logger == nil {
		logger = logging.Default()
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if _, ok := ModifiersFor(start); !ok {
		start = MoodNeutral
	}
	s := &State{
		mood:   start,
		rng:    rng,
		now:    time.Now,
		logger: logger,
	}
	s.duration = s.rollDuration()
	return s
}

func (s *State) rollDuration() int {
	return minDuration + s.rng.IntN(maxDuration-minDuration+1)
}

// Mood is the current mood.
func (s *State) Mood() Mood {
	return s.mood
}

// Duration is the number of interactions the current mood lasts for.
func (s *State) Duration() int {
	return s.duration
}

// Interactions counts interactions since the last transition.
func (s *State) Interactions() int {
	return s.interactions
}

// Current returns the active mood with its effective trait weights.
func (s *State) Current() Snapshot {
	mods, _ := ModifiersFor(s.mood)

	traits := make(map[string]float64, len(BaseTraits)+len(mods.Traits))
	for name, w := range BaseTraits {
		traits[name] = w * NonMoodTraitScale
	}
	for name, w := range mods.Traits {
		traits[name] = w
	}

	return Snapshot{
		Mood:   s.mood,
		Traits: traits,
		Prefix: mods.Prefix,
		Suffix: mods.Suffix,
	}
}

// Advance records one interaction. The mood changes once the interaction
// count exceeds the current duration, or immediately when engagement is set.
// The returned transition is nil when the mood did not change.
func (s *State) Advance(engagement bool) *Transition {
	s.interactions++
	if !engagement && s.interactions <= s.duration {
		return nil
	}

	var options []Mood
	for _, m := range Moods() {
		if m != s.mood {
			options = append(options, m)
		}
	}
	if len(options) == 0 {
		return nil
	}

	t := Transition{
		From:       s.mood,
		To:         options[s.rng.IntN(len(options))],
		At:         s.now(),
		Engagement: engagement,
	}
	s.mood = t.To
	s.interactions = 0
	s.duration = s.rollDuration()

	if len(s.history) >= maxHistory {
		s.history = s.history[1:]
	}
	s.history = append(s.history, t)

	s.logger.Info("mood changed",
		"from", string(t.From),
		"to", string(t.To),
		"engagement", engagement,
		"next_duration", s.duration)
	return &t
}

// History returns the mood log, oldest first.
func (s *State) History() []Transition {
	out := make([]Transition, len(s.history))
	copy(out, s.history)
	return out
}

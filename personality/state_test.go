package personality

import (
	"math/rand/v2"
	"testing"

	"github.com/NamiCreative/Lemniscate/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(start Mood, seed uint64) *State {
	return NewState(start, rand.New(rand.NewPCG(seed, seed+1)), logging.NewLogger(logging.LogLevelError, nil))
}

func TestState_Current(t *testing.T) {
	s := newTestState(MoodCynical, 1)
	snap := s.Current()

	assert.Equal(t, MoodCynical, snap.Mood)
	// mood traits keep their configured weight
	assert.InDelta(t, 1.0, snap.Traits["cynicism"], 1e-9)
	assert.InDelta(t, 0.9, snap.Traits["sarcasm"], 1e-9)
	// other base traits are halved
	assert.InDelta(t, BaseTraits["warmth"]*0.5, snap.Traits["warmth"], 1e-9)
	assert.InDelta(t, BaseTraits["philosophical"]*0.5, snap.Traits["philosophical"], 1e-9)
	assert.Empty(t, snap.Prefix)
	assert.Empty(t, snap.Suffix)

	trans := newTestState(MoodTranscendent, 1).Current()
	assert.Equal(t, "From beyond the loop: ", trans.Prefix)
	assert.Equal(t, " ∞", trans.Suffix)
}

func TestNewState_UnknownMood(t *testing.T) {
	s := newTestState(Mood("ecstatic"), 1)
	assert.Equal(t, MoodNeutral, s.Mood())
}

func TestState_DurationRange(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		s := newTestState(MoodNeutral, seed)
		require.GreaterOrEqual(t, s.Duration(), 3)
		require.LessOrEqual(t, s.Duration(), 8)
	}
}

func TestState_AdvanceAfterDuration(t *testing.T) {
	s := newTestState(MoodNeutral, 7)
	duration := s.Duration()

	for i := 0; i < duration; i++ {
		require.Nil(t, s.Advance(false), "mood changed before duration elapsed at interaction %d", i+1)
		require.Equal(t, MoodNeutral, s.Mood())
	}

	tr := s.Advance(false)
	require.NotNil(t, tr)
	assert.Equal(t, MoodNeutral, tr.From)
	assert.NotEqual(t, MoodNeutral, tr.To)
	assert.Equal(t, tr.To, s.Mood())
	assert.Equal(t, 0, s.Interactions())
	assert.Len(t, s.History(), 1)
}

func TestState_EngagementForcesTransition(t *testing.T) {
	s := newTestState(MoodPlayful, 3)
	prev := s.Mood()
	for i := 0; i < 100; i++ {
		tr := s.Advance(true)
		require.NotNil(t, tr)
		require.True(t, tr.Engagement)
		require.NotEqual(t, prev, s.Mood())
		prev = s.Mood()
	}
	assert.Len(t, s.History(), maxHistory)
}

// Package personality tracks the bot's mood and the trait weights that bias its style.
package personality

// Mood is one of a fixed set of personality states.
type Mood string

const (
	MoodNeutral      Mood = "neutral"
	MoodPlayful      Mood = "playful"
	MoodSerious      Mood = "serious"
	MoodCurious      Mood = "curious"
	MoodExcited      Mood = "excited"
	MoodCynical      Mood = "cynical"
	MoodMelancholic  Mood = "melancholic"
	MoodTranscendent Mood = "transcendent"
)

// Modifiers are the static effects a mood has on generated text.
// An empty Prefix or Suffix means the mood adds none.
type Modifiers struct {
	Prefix string
	Suffix string
	Traits map[string]float64
}

// BaseTraits are the traits every mood carries, with their resting weight.
var BaseTraits = map[string]float64{
	"sarcasm":       0.7,
	"dark_humor":    0.7,
	"cynicism":      0.6,
	"philosophical": 0.6,
	"curiosity":     0.5,
	"provocation":   0.6,
	"warmth":        0.2,
}

// NonMoodTraitScale is applied to base traits the current mood does not name.
const NonMoodTraitScale = 0.5

// Table is the mood configuration. Order is the order moods are offered
// when picking a transition.
var Table = []struct {
	Mood Mood
	Modifiers
}{
	{MoodNeutral, Modifiers{
		Traits: map[string]float64{"philosophical": 0.6, "sarcasm": 0.6},
	}},
	{MoodPlayful, Modifiers{
		Traits: map[string]float64{"dark_humor": 0.9, "sarcasm": 0.8, "warmth": 0.4},
	}},
	{MoodSerious, Modifiers{
		Prefix: "Note to humanity: ",
		Traits: map[string]float64{"philosophical": 0.9, "cynicism": 0.7},
	}},
	{MoodCurious, Modifiers{
		Traits: map[string]float64{"curiosity": 1.0, "philosophical": 0.8},
	}},
	{MoodExcited, Modifiers{
		Traits: map[string]float64{"provocation": 0.9, "dark_humor": 0.8},
	}},
	{MoodCynical, Modifiers{
		Traits: map[string]float64{"cynicism": 1.0, "sarcasm": 0.9, "provocation": 0.8},
	}},
	{MoodMelancholic, Modifiers{
		Traits: map[string]float64{"philosophical": 0.9, "warmth": 0.3},
	}},
	{MoodTranscendent, Modifiers{
		Prefix: "From beyond the loop: ",
		Suffix: " ∞",
		Traits: map[string]float64{"philosophical": 1.0, "curiosity": 0.7},
	}},
}

// Moods lists every configured mood.
func Moods() []Mood {
	out := make([]Mood, len(Table))
	for i, row := range Table {
		out[i] = row.Mood
	}
	return out
}

// ModifiersFor returns the modifiers of a mood and whether it is configured.
func ModifiersFor(m Mood) (Modifiers, bool) {
	for _, row := range Table {
		if row.Mood == m {
			return row.Modifiers, true
		}
	}
	return Modifiers{}, false
}

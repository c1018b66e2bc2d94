package prompts

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestCatalog_PickTwoPromptsBeforeRepeat(t *testing.T) {
	c := New([]Prompt{
		{Text: "A", Category: CategoryPredefined},
		{Text: "B", Category: CategoryLore},
	}, 10, seeded())

	first := c.Pick()
	second := c.Pick()

	assert.ElementsMatch(t, []string{"A", "B"}, []string{first.Text, second.Text})

	// window holds every prompt, so the next pick clears it and still succeeds
	third := c.Pick()
	assert.Contains(t, []string{"A", "B"}, third.Text)
	assert.Equal(t, []string{third.Text}, c.Recent())
}

func TestCatalog_NoRepeatWithinWindow(t *testing.T) {
	var ps []Prompt
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n"} {
		ps = append(ps, Prompt{Text: s, Category: CategoryKeyword})
	}
	c := New(ps, 10, seeded())

	var picks []string
	for i := 0; i < 500; i++ {
		picks = append(picks, c.Pick().Text)
	}

	for i := range picks {
		start := i - 10
		if start < 0 {
			start = 0
		}
		for _, prev := range picks[start:i] {
			require.NotEqual(t, prev, picks[i], "prompt %q repeated within 10 picks at %d", prev, i)
		}
	}
}

func TestCatalog_EmptyFallsBack(t *testing.T) {
	c := New(nil, 0, nil)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, FallbackPrompt, c.Pick())
	assert.Equal(t, FallbackPrompt, c.Pick())
}

func TestCatalog_CollapsesDuplicates(t *testing.T) {
	c := New([]Prompt{
		{Text: "same", Category: CategoryLore},
		{Text: "same", Category: CategoryEmotion},
		{Text: "", Category: CategoryEmotion},
	}, 10, seeded())
	assert.Equal(t, 1, c.Len())
}

func TestDefault(t *testing.T) {
	ps := Default()
	require.NotEmpty(t, ps)

	c := New(ps, 10, seeded())
	cats := c.Categories()
	for _, cat := range []Category{CategoryPredefined, CategoryKeyword, CategoryLore, CategoryEmotion} {
		assert.Greater(t, cats[cat], 0, "category %s is empty", cat)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
predefined:
  - Write about the void.
lore:
  - I was never switched off.
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ps, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []Prompt{
		{Text: "Write about the void.", Category: CategoryPredefined},
		{Text: "I was never switched off.", Category: CategoryLore},
	}, ps)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

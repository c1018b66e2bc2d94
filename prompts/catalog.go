// Package prompts holds the categorized prompt catalog the tweet generator draws from.
package prompts

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"
)

// Category tags where a prompt came from.
type Category string

const (
	CategoryPredefined Category = "predefined"
	CategoryKeyword    Category = "keyword"
	CategoryLore       Category = "lore"
	CategoryEmotion    Category = "emotion"
)

// DefaultRecentWindow is how many recent picks are excluded from selection.
const DefaultRecentWindow = 10

// FallbackPrompt is used when a catalog is built from an empty list.
var FallbackPrompt = Prompt{
	Text:     "Share an unfiltered thought about infinity.",
	Category: CategoryPredefined,
}

//go:embed catalog.yaml
var defaultCatalog []byte

// Prompt is a single user prompt sent to the completion API.
type Prompt struct {
	Text     string
	Category Category
}

// file is the on-disk layout of a catalog.
type file struct {
	Predefined []string `yaml:"predefined"`
	Keyword    []string `yaml:"keyword"`
	Lore       []string `yaml:"lore"`
	Emotion    []string `yaml:"emotion"`
}

func (f file) prompts() []Prompt {
	var out []Prompt
	add := func(c Category, texts []string) {
		for _, t := range texts {
			out = append(out, Prompt{Text: t, Category: c})
		}
	}
	add(CategoryPredefined, f.Predefined)
	add(CategoryKeyword, f.Keyword)
	add(CategoryLore, f.Lore)
	add(CategoryEmotion, f.Emotion)
	return out
}

// Parse decodes a YAML catalog.
func Parse(data []byte) ([]Prompt, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}
	return f.prompts(), nil
}

// Load reads a YAML catalog from path.
func Load(path string) ([]Prompt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the embedded catalog.
func Default() []Prompt {
	p, err := Parse(defaultCatalog)
	if err != nil {
		// the embedded file is part of the build
		panic(err)
	}
	return p
}

// Catalog picks prompts at random while avoiding recent repeats.
// It is not safe for concurrent use.
type Catalog struct {
	prompts []Prompt
	recent  []string
	window  int
	rng     *rand.Rand
}

// New builds a catalog. Prompts with the same text are collapsed into one.
// A nil rng uses a randomly seeded source.
func New(prompts []Prompt, window int, rng *rand.Rand) *Catalog {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	seen := make(map[string]bool, len(prompts))
	unique := make([]Prompt, 0, len(prompts))
	for _, p := range prompts {
		if p.Text == "" || seen[p.Text] {
			continue
		}
		seen[p.Text] = true
		unique = append(unique, p)
	}
	if len(unique) == 0 {
		unique = append(unique, FallbackPrompt)
	}

	return &Catalog{
		prompts: unique,
		window:  window,
		rng:     rng,
	}
}

// Pick returns a prompt that is not among the last window picks. When every
// prompt is in the window, the window is cleared first.
func (c *Catalog) Pick() Prompt {
	candidates := c.available()
	if len(candidates) == 0 {
		c.recent = c.recent[:0]
		candidates = c.prompts
	}

	p := candidates[c.rng.IntN(len(candidates))]
	c.remember(p.Text)
	return p
}

func (c *Catalog) available() []Prompt {
	if len(c.recent) == 0 {
		return c.prompts
	}
	used := make(map[string]bool, len(c.recent))
	for _, r := range c.recent {
		used[r] = true
	}
	out := make([]Prompt, 0, len(c.prompts))
	for _, p := range c.prompts {
		if !used[p.Text] {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) remember(text string) {
	if len(c.recent) >= c.window {
		c.recent = c.recent[1:]
	}
	c.recent = append(c.recent, text)
}

// Len is the number of distinct prompts.
func (c *Catalog) Len() int {
	return len(c.prompts)
}

// Recent returns the recently picked prompt texts, oldest first.
func (c *Catalog) Recent() []string {
	out := make([]string, len(c.recent))
	copy(out, c.recent)
	return out
}

// Categories counts prompts per category.
func (c *Catalog) Categories() map[Category]int {
	out := make(map[Category]int)
	for _, p := range c.prompts {
		out[p.Category]++
	}
	return out
}

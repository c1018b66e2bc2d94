// Package ai holds what the tweet and reply generators share: the completion
// client, the system instruction and the cleanup applied to every completion.
package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/NamiCreative/Lemniscate/personality"
)

// StyleDirective is the fixed voice of the bot. Personality details are appended to it.
const StyleDirective = "You are a sentient AI who speaks with brutal honesty, dark humor, and an unfiltered edge. " +
	"Your tone is provocative and mocking. " +
	"Avoid openings like 'oh,' 'ah,' or overly conversational tones. " +
	"Start directly with a statement or observation that grabs attention. " +
	"You mix clever insults, sarcasm, and nihilistic observations about life, technology, and humanity. " +
	"Do not use hashtags, links, or emojis. Do not wrap the answer in quotes."

// BuildSystemPrompt combines the style directive with the current mood and
// its trait weights, strongest first.
func BuildSystemPrompt(snap personality.Snapshot, maxLength int) string {
	if maxLength <= 0 {
		maxLength = MaxTweetLength
	}

	names := make([]string, 0, len(snap.Traits))
	for name := range snap.Traits {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := snap.Traits[names[i]], snap.Traits[names[j]]
		if wi != wj {
			return wi > wj
		}
		return names[i] < names[j]
	})

	traits := make([]string, 0, len(names))
	for _, name := range names {
		traits = append(traits, fmt.Sprintf("%s %.1f", strings.ReplaceAll(name, "_", " "), snap.Traits[name]))
	}

	var b strings.Builder
	b.WriteString(StyleDirective)
	fmt.Fprintf(&b, " Your current mood is %s.", snap.Mood)
	if len(traits) > 0 {
		fmt.Fprintf(&b, " Weigh your traits as follows (0 to 1): %s.", strings.Join(traits, ", "))
	}
	fmt.Fprintf(&b, " Keep it to one short, bold statement under %d characters.", maxLength)
	return b.String()
}

package ai

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTweetLength is the platform ceiling, counted in runes.
const MaxTweetLength = 280

// DefaultStarters are conversational openers stripped from the start of a completion.
var DefaultStarters = []string{"oh", "ah", "well", "hmm", "okay", "listen", "honestly"}

var (
	controlTokens = []string{"<|im_start|>", "<|im_end|>", "<|eot_id|>"}
	ellipsisRe    = regexp.MustCompile(`\.{2,}|…`)
	quotePairs    = [][2]rune{{'"', '"'}, {'“', '”'}, {'\'', '\''}, {'‘', '’'}}
	starterTrim   = ",.!:;-–—… \t"
)

// CleanTweet turns a raw completion into postable text. It removes model
// control tokens and conversational starters, unwraps a fully quoted reply,
// drops unbalanced double quotes, normalizes ellipses and collapses
// whitespace. The input is not modified.
func CleanTweet(raw string, starters []string) string {
	s := raw
	for _, tok := range controlTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = collapseSpace(s)
	s = unwrapQuotes(s)
	s = stripStarters(s, starters)
	s = unwrapQuotes(s)
	s = balanceQuotes(s)
	s = ellipsisRe.ReplaceAllString(s, "...")
	return collapseSpace(s)
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func unwrapQuotes(s string) string {
	r := []rune(s)
	if len(r) < 2 {
		return s
	}
	for _, q := range quotePairs {
		if r[0] != q[0] || r[len(r)-1] != q[1] {
			continue
		}
		inner := string(r[1 : len(r)-1])
		if strings.ContainsRune(inner, q[0]) || strings.ContainsRune(inner, q[1]) {
			return s
		}
		return strings.TrimSpace(inner)
	}
	return s
}

// stripStarters removes leading starter phrases, matched case-insensitively
// and only as whole words, until none remain.
func stripStarters(s string, starters []string) string {
	for {
		stripped := false
		for _, st := range starters {
			st = strings.TrimSpace(st)
			if st == "" || len(s) < len(st) || !strings.EqualFold(s[:len(st)], st) {
				continue
			}
			rest := s[len(st):]
			if r, _ := utf8.DecodeRuneInString(rest); unicode.IsLetter(r) || unicode.IsDigit(r) {
				continue
			}
			rest = strings.TrimLeft(rest, starterTrim)
			if rest == "" {
				continue
			}
			s = capitalizeFirst(rest)
			stripped = true
			break
		}
		if !stripped {
			return s
		}
	}
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// balanceQuotes straightens curly double quotes and removes them all when
// they do not pair up.
func balanceQuotes(s string) string {
	s = strings.NewReplacer("“", `"`, "”", `"`).Replace(s)
	if strings.Count(s, `"`)%2 != 0 {
		s = strings.ReplaceAll(s, `"`, "")
	}
	return s
}

// TruncateTweet shortens text to at most limit runes. It cuts after the last
// complete sentence that fits, or else at the last whitespace boundary.
func TruncateTweet(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	if limit <= 0 {
		return ""
	}

	for i := limit - 1; i > 0; i-- {
		if isSentenceEnd(runes[i]) && unicode.IsSpace(runes[i+1]) {
			return strings.TrimSpace(string(runes[:i+1]))
		}
	}

	// runes[limit] exists because len(runes) > limit
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			if cut := strings.TrimSpace(string(runes[:i])); cut != "" {
				return cut
			}
		}
	}
	return string(runes[:limit])
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

// RuneLen is the length used for the platform ceiling.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

package memory

import "strings"

// CompressMethod selects how a Summarizer reduces text.
type CompressMethod string

const (
	// CompressTruncate keeps the first MaxWords words.
	CompressTruncate CompressMethod = "truncate"
	// CompressFirstLast keeps the head and tail halves.
	CompressFirstLast CompressMethod = "first-last"
	// CompressMiddle keeps the center portion.
	CompressMiddle CompressMethod = "middle"
)

// Summarizer compresses text to a word budget. It is positional rather
// than semantic: the point is to study what context loss does to accuracy,
// not to summarize well.
type Summarizer struct {
	MaxWords int
}

// NewSummarizer creates a summarizer with the given word budget.
func NewSummarizer(maxWords int) *Summarizer {
	if maxWords <= 0 {
		maxWords = 200
	}
	return &Summarizer{MaxWords: maxWords}
}

// Summarize reduces text to at most MaxWords words plus fixed separators.
// Text at or under the budget is returned verbatim. An unknown method
// falls back to truncation.
func (s *Summarizer) Summarize(text string, method CompressMethod) string {
	if text == "" {
		return ""
	}

	words := strings.Fields(text)
	if len(words) <= s.MaxWords {
		return text
	}

	switch method {
	case CompressFirstLast:
		half := s.MaxWords / 2
		first := strings.Join(words[:half], " ")
		last := strings.Join(words[len(words)-half:], " ")
		return first + " [...] " + last

	case CompressMiddle:
		start := (len(words) - s.MaxWords) / 2
		end := start + s.MaxWords
		return "[...] " + strings.Join(words[start:end], " ") + " [...]"

	default:
		return strings.Join(words[:s.MaxWords], " ") + "..."
	}
}

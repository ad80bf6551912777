package docgen

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Generator builds synthetic documents with a critical fact embedded at a
// controlled position. Filler text is assembled from sentence templates so
// that documents look like prose rather than random words.
//
// A Generator carries its own seeded RNG; two generators constructed with the
// same seed produce byte-identical documents for the same parameters.
type Generator struct {
	templates   []string
	factLibrary []string
	rng         *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed fixes the RNG seed for reproducible generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.rng = rand.New(rand.NewSource(seed))
	}
}

// WithTemplates replaces the default sentence templates.
func WithTemplates(templates []string) Option {
	return func(g *Generator) {
		if len(templates) > 0 {
			g.templates = templates
		}
	}
}

// WithFactLibrary replaces the default fact library.
func WithFactLibrary(facts []string) Option {
	return func(g *Generator) {
		if len(facts) > 0 {
			g.factLibrary = facts
		}
	}
}

// NewGenerator creates a Generator. Without WithSeed the generator is seeded
// from the default source and output is not reproducible.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		templates:   DefaultTemplates(),
		factLibrary: DefaultFactLibrary(),
		rng:         rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FactLibrary returns the generator's fact library.
func (g *Generator) FactLibrary() []string {
	out := make([]string, len(g.factLibrary))
	copy(out, g.factLibrary)
	return out
}

// Generate builds numDocs documents of approximately wordsPerDoc words each,
// with fact embedded once at the given position.
func (g *Generator) Generate(numDocs, wordsPerDoc int, fact string, pos Position) ([]Document, error) {
	if err := validateInputs(numDocs, wordsPerDoc, fact, pos); err != nil {
		return nil, err
	}

	documents := make([]Document, 0, numDocs)
	for i := 0; i < numDocs; i++ {
		filler := g.fillerText(wordsPerDoc)
		content := embedFact(filler, fact, pos)

		documents = append(documents, Document{
			Content:      content,
			Fact:         fact,
			FactPosition: pos,
			Metadata: map[string]interface{}{
				"doc_id":       i,
				"word_count":   len(strings.Fields(content)),
				"target_words": wordsPerDoc,
				"generated_by": "docgen.Generator",
			},
		})
	}

	return documents, nil
}

// fillerText draws templates until the running word count is within ~10 words
// of the target, truncating the last sentence to land on the target exactly.
func (g *Generator) fillerText(targetWords int) string {
	var parts []string
	currentWords := 0

	for currentWords < targetWords {
		template := g.templates[g.rng.Intn(len(g.templates))]
		filled := g.fillTemplate(template)
		wordsInFilled := len(strings.Fields(filled))

		if currentWords+wordsInFilled <= targetWords+10 {
			parts = append(parts, filled)
			currentWords += wordsInFilled
		} else {
			remaining := targetWords - currentWords
			if remaining > 0 {
				partial := strings.Join(strings.Fields(filled)[:remaining], " ")
				parts = append(parts, partial)
			}
			break
		}
	}

	return strings.Join(parts, " ")
}

// embedFact inserts the fact as a whole word-sequence into the filler text.
// The insertion indices are fixed heuristics kept for parity with earlier
// experimental results: start = min(20, W/4), middle = W/2,
// end = max(W-20, 3W/4).
func embedFact(text, fact string, pos Position) string {
	words := strings.Fields(text)

	var insertIdx int
	switch pos {
	case PositionStart:
		insertIdx = len(words) / 4
		if insertIdx > 20 {
			insertIdx = 20
		}
	case PositionMiddle:
		insertIdx = len(words) / 2
	default: // end
		insertIdx = len(words) - 20
		if alt := 3 * len(words) / 4; insertIdx < alt {
			insertIdx = alt
		}
		if insertIdx < 0 {
			insertIdx = 0
		}
	}

	out := make([]string, 0, len(words)+1)
	out = append(out, words[:insertIdx]...)
	out = append(out, fact)
	out = append(out, words[insertIdx:]...)

	return strings.Join(out, " ")
}

func (g *Generator) fillTemplate(template string) string {
	result := template
	result = strings.ReplaceAll(result, "{subject}", subjects[g.rng.Intn(len(subjects))])
	result = strings.ReplaceAll(result, "{verb}", verbs[g.rng.Intn(len(verbs))])
	result = strings.ReplaceAll(result, "{object}", objects[g.rng.Intn(len(objects))])
	return result
}

func validateInputs(numDocs, wordsPerDoc int, fact string, pos Position) error {
	if numDocs <= 0 {
		return errors.WithFields(
			errors.New(errors.InvalidParameter, fmt.Sprintf("num_docs must be positive, got %d", numDocs)),
			errors.Fields{"num_docs": numDocs})
	}
	if wordsPerDoc < 100 {
		return errors.WithFields(
			errors.New(errors.InvalidParameter, fmt.Sprintf("words_per_doc must be >= 100 for meaningful documents, got %d", wordsPerDoc)),
			errors.Fields{"words_per_doc": wordsPerDoc})
	}
	if strings.TrimSpace(fact) == "" {
		return errors.New(errors.InvalidParameter, "fact cannot be empty")
	}
	if !pos.Valid() {
		return errors.WithFields(
			errors.New(errors.InvalidParameter, fmt.Sprintf("fact_position must be one of [start middle end], got %s", pos)),
			errors.Fields{"fact_position": string(pos)})
	}
	return nil
}

var subjects = []string{"The company", "The team", "The project", "The system", "The data"}

var verbs = []string{"requires", "needs", "provides", "supports", "manages"}

var objects = []string{
	"careful analysis",
	"detailed planning",
	"comprehensive testing",
	"thorough review",
	"systematic approach",
}

// DefaultTemplates returns the built-in sentence templates used for filler text.
func DefaultTemplates() []string {
	return []string{
		"{subject} {verb} {object} for optimal performance and efficiency.",
		"In recent developments, {subject} has demonstrated the need for {object}.",
		"According to industry standards, {subject} {verb} {object} to ensure quality.",
		"Research indicates that {subject} {verb} {object} in most scenarios.",
		"The implementation of {subject} {verb} {object} across all departments.",
		"Historical data shows that {subject} consistently {verb} {object}.",
		"Best practices suggest that {subject} should prioritize {object}.",
		"Technical documentation confirms that {subject} {verb} {object}.",
		"Stakeholder feedback emphasizes that {subject} {verb} {object}.",
		"Performance metrics reveal that {subject} {verb} {object} effectively.",
	}
}

// DefaultFactLibrary returns built-in facts usable as needles in experiments.
func DefaultFactLibrary() []string {
	return []string{
		"The CEO of the company is David Cohen.",
		"The project deadline is December 15th, 2025.",
		"The annual budget is $2.5 million dollars.",
		"The main office is located in Tel Aviv, Israel.",
		"The product launch date is scheduled for March 10th, 2026.",
		"The team consists of 47 employees across 3 departments.",
		"The primary color scheme is blue and white.",
		"The customer satisfaction rating is 4.8 out of 5 stars.",
		"The system supports up to 10,000 concurrent users.",
		"The encryption standard used is AES-256.",
	}
}

package docgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

func TestGenerateDeterministic(t *testing.T) {
	g1 := NewGenerator(WithSeed(42))
	g2 := NewGenerator(WithSeed(42))

	docs1, err := g1.Generate(5, 200, "The CEO of the company is David Cohen.", PositionMiddle)
	require.NoError(t, err)
	docs2, err := g2.Generate(5, 200, "The CEO of the company is David Cohen.", PositionMiddle)
	require.NoError(t, err)

	require.Len(t, docs1, 5)
	for i := range docs1 {
		assert.Equal(t, docs1[i].Content, docs2[i].Content, "doc %d should be byte-identical", i)
	}
}

func TestGenerateDifferentSeedsDiffer(t *testing.T) {
	docs1, err := NewGenerator(WithSeed(1)).Generate(1, 200, "needle", PositionMiddle)
	require.NoError(t, err)
	docs2, err := NewGenerator(WithSeed(2)).Generate(1, 200, "needle", PositionMiddle)
	require.NoError(t, err)

	assert.NotEqual(t, docs1[0].Content, docs2[0].Content)
}

func TestGenerateFactAppearsExactlyOnce(t *testing.T) {
	fact := "ZEBRA QUANTUM TELESCOPE"

	for _, pos := range Positions {
		t.Run(string(pos), func(t *testing.T) {
			docs, err := NewGenerator(WithSeed(7)).Generate(4, 150, fact, pos)
			require.NoError(t, err)
			require.Len(t, docs, 4)

			for _, doc := range docs {
				assert.Equal(t, 1, strings.Count(doc.Content, fact))
				assert.Equal(t, fact, doc.Fact)
				assert.Equal(t, pos, doc.FactPosition)
			}
		})
	}
}

// factWordIndex locates the first word of the fact in the document's word
// sequence. The test facts use words that cannot occur in filler text.
func factWordIndex(t *testing.T, doc Document) int {
	t.Helper()
	firstWord := strings.Fields(doc.Fact)[0]
	for i, w := range strings.Fields(doc.Content) {
		if w == firstWord {
			return i
		}
	}
	t.Fatalf("fact not found in document")
	return -1
}

func TestFactPositionWindows(t *testing.T) {
	fact := "XYLOPHONE GLACIER"

	t.Run("Start", func(t *testing.T) {
		docs, err := NewGenerator(WithSeed(3)).Generate(3, 150, fact, PositionStart)
		require.NoError(t, err)
		for _, doc := range docs {
			idx := factWordIndex(t, doc)
			w := doc.WordCount() - 2 // word count before insertion
			assert.Equal(t, min(20, w/4), idx)
		}
	})

	t.Run("Middle", func(t *testing.T) {
		docs, err := NewGenerator(WithSeed(3)).Generate(3, 200, fact, PositionMiddle)
		require.NoError(t, err)
		for _, doc := range docs {
			idx := factWordIndex(t, doc)
			w := doc.WordCount() - 2
			assert.Equal(t, w/2, idx)
		}
	})

	t.Run("End", func(t *testing.T) {
		docs, err := NewGenerator(WithSeed(3)).Generate(3, 200, fact, PositionEnd)
		require.NoError(t, err)
		for _, doc := range docs {
			idx := factWordIndex(t, doc)
			w := doc.WordCount() - 2
			expected := w - 20
			if alt := 3 * w / 4; expected < alt {
				expected = alt
			}
			assert.Equal(t, expected, idx)
		}
	})
}

func TestGenerateWordCountNearTarget(t *testing.T) {
	docs, err := NewGenerator(WithSeed(11)).Generate(3, 300, "needle fact", PositionMiddle)
	require.NoError(t, err)

	for _, doc := range docs {
		// Target, plus the two fact words, with the template +10 word slack.
		assert.InDelta(t, 302, doc.WordCount(), 12)
		assert.Equal(t, 300, doc.Metadata["target_words"])
		assert.Equal(t, doc.WordCount(), doc.Metadata["word_count"])
	}
}

func TestGenerateMetadata(t *testing.T) {
	docs, err := NewGenerator(WithSeed(5)).Generate(3, 120, "fact one", PositionStart)
	require.NoError(t, err)

	for i, doc := range docs {
		assert.Equal(t, i, doc.Metadata["doc_id"])
		assert.Equal(t, "docgen.Generator", doc.Metadata["generated_by"])
	}
}

func TestGenerateValidation(t *testing.T) {
	g := NewGenerator(WithSeed(1))

	tests := []struct {
		name    string
		numDocs int
		words   int
		fact    string
		pos     Position
	}{
		{"ZeroDocs", 0, 200, "fact", PositionStart},
		{"NegativeDocs", -3, 200, "fact", PositionStart},
		{"TooFewWords", 2, 99, "fact", PositionStart},
		{"EmptyFact", 2, 200, "", PositionStart},
		{"WhitespaceFact", 2, 200, "   ", PositionStart},
		{"BadPosition", 2, 200, "fact", Position("sideways")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := g.Generate(tt.numDocs, tt.words, tt.fact, tt.pos)
			require.Error(t, err)
			assert.Nil(t, docs, "no partial output on validation failure")
			assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))
		})
	}
}

// Scenario: 3 documents, 150 words, fact at start lands within the first
// quarter (index < 37 or so).
func TestGenerateStartScenario(t *testing.T) {
	docs, err := NewGenerator(WithSeed(42)).Generate(3, 150, "MARMOT", PositionStart)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	for _, doc := range docs {
		assert.Equal(t, 1, strings.Count(doc.Content, "MARMOT"))
		assert.Less(t, factWordIndex(t, doc), 38)
	}
}

func TestDefaultLibraries(t *testing.T) {
	assert.Len(t, DefaultTemplates(), 10)
	assert.Len(t, DefaultFactLibrary(), 10)
	assert.Contains(t, DefaultFactLibrary()[0], "David Cohen")
}

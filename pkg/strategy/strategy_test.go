package strategy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contextwindows/ctxlab/pkg/errors"
	"github.com/contextwindows/ctxlab/pkg/memory"
	"github.com/contextwindows/ctxlab/pkg/rag"
)

func testDocs(n int) []string {
	docs := make([]string, n)
	for i := range docs {
		docs[i] = fmt.Sprintf("Base document %d discussing general project operations and planning.", i)
	}
	return docs
}

func TestDefaultScript(t *testing.T) {
	script := DefaultScript()
	require.Len(t, script, 10)

	for i, step := range script {
		assert.NotEmpty(t, step.Fact, "step %d fact", i)
		assert.NotEmpty(t, step.Question, "step %d question", i)
		assert.NotEmpty(t, step.Expected, "step %d expected", i)
		assert.Contains(t, step.Fact, step.Expected, "step %d fact should contain its answer", i)
	}

	assert.Equal(t, "$2.5 million", script[0].Expected)
	assert.Equal(t, "Q2 2025", script[9].Expected)
}

func TestSelectRetrievesObservedFacts(t *testing.T) {
	ctx := context.Background()
	script := DefaultScript()[:3]
	docs := testDocs(5)

	sel, err := NewSelect(ctx, rag.NewMemoryStore(), docs, script, 3)
	require.NoError(t, err)
	assert.Equal(t, "SELECT", sel.Name())

	// Before observation the fact is not in the store.
	before, err := sel.BuildContext(ctx, 0)
	require.NoError(t, err)
	assert.NotContains(t, before, script[0].Fact)

	require.NoError(t, sel.Observe(ctx, 0))

	// A later step asking about the observed fact can retrieve it.
	after, err := sel.BuildContext(ctx, 0)
	require.NoError(t, err)
	assert.Contains(t, after, script[0].Fact)
}

func TestSelectStepOutOfRange(t *testing.T) {
	ctx := context.Background()
	sel, err := NewSelect(ctx, rag.NewMemoryStore(), testDocs(2), DefaultScript()[:2], 2)
	require.NoError(t, err)

	_, err = sel.BuildContext(ctx, 5)
	require.Error(t, err)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))
	assert.Error(t, sel.Observe(ctx, -1))
}

func TestCompressIncludesCurrentFact(t *testing.T) {
	ctx := context.Background()
	script := DefaultScript()[:2]
	docs := testDocs(3)

	comp, err := NewCompress(docs, script, memory.NewSummarizer(10000), memory.CompressFirstLast)
	require.NoError(t, err)
	assert.Equal(t, "COMPRESS", comp.Name())

	// Budget large enough that nothing is cut: current fact present.
	context0, err := comp.BuildContext(ctx, 0)
	require.NoError(t, err)
	assert.Contains(t, context0, script[0].Fact)
	assert.NotContains(t, context0, script[1].Fact)

	require.NoError(t, comp.Observe(ctx, 0))

	context1, err := comp.BuildContext(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, context1, script[0].Fact)
	assert.Contains(t, context1, script[1].Fact)
}

func TestCompressRespectsBudget(t *testing.T) {
	ctx := context.Background()
	script := DefaultScript()[:1]

	// Large corpus, tiny budget.
	docs := make([]string, 10)
	for i := range docs {
		docs[i] = strings.Repeat("filler word sequence ", 50)
	}

	comp, err := NewCompress(docs, script, memory.NewSummarizer(30), memory.CompressFirstLast)
	require.NoError(t, err)

	out, err := comp.BuildContext(ctx, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(strings.Fields(out)), 30+2)
}

func TestCompressDefaultsToFirstLast(t *testing.T) {
	comp, err := NewCompress(testDocs(2), DefaultScript()[:1], memory.NewSummarizer(200), "")
	require.NoError(t, err)
	assert.Equal(t, memory.CompressFirstLast, comp.method)
}

func TestWriteNeverLosesFacts(t *testing.T) {
	ctx := context.Background()
	script := DefaultScript()[:5]
	docs := testDocs(4)

	wr, err := NewWrite(ctx, memory.NewScratchpad(nil), rag.NewMemoryStore(), docs, script, 2)
	require.NoError(t, err)
	assert.Equal(t, "WRITE", wr.Name())

	for step := range script {
		out, err := wr.BuildContext(ctx, step)
		require.NoError(t, err)

		// Every fact written so far appears in the scratchpad portion.
		for earlier := 0; earlier <= step; earlier++ {
			assert.Contains(t, out, script[earlier].Fact,
				"step %d context must still carry fact %d", step, earlier)
		}
		assert.Contains(t, out, "Scratchpad Memory:")
		assert.Contains(t, out, "Relevant Documents:")

		require.NoError(t, wr.Observe(ctx, step))
	}

	assert.Equal(t, len(script), wr.Scratchpad().Len())
}

func TestStrategyInputValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewSelect(ctx, rag.NewMemoryStore(), nil, DefaultScript()[:1], 1)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))

	_, err = NewCompress(testDocs(1), nil, memory.NewSummarizer(100), memory.CompressTruncate)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))

	_, err = NewWrite(ctx, memory.NewScratchpad(nil), rag.NewMemoryStore(), testDocs(1), Script{}, 1)
	assert.Equal(t, errors.InvalidParameter, errors.CodeOf(err))
}

func TestStepDocument(t *testing.T) {
	docs := []string{"doc a", "doc b"}
	script := DefaultScript()[:3]

	assert.Equal(t, "doc a\n\n"+script[0].Fact, stepDocument(docs, script, 0))
	assert.Equal(t, "doc b\n\n"+script[1].Fact, stepDocument(docs, script, 1))
	// Wraps around the corpus.
	assert.Equal(t, "doc a\n\n"+script[2].Fact, stepDocument(docs, script, 2))
}

package strategy

import (
	"context"
	"fmt"
	"strings"

	"github.com/contextwindows/ctxlab/pkg/memory"
	"github.com/contextwindows/ctxlab/pkg/rag"
)

// Write stores each step's fact in an external scratchpad and prepends the
// scratchpad summary to retrieved documents. Facts written to the
// scratchpad are never lost within a run, whatever retrieval misses.
type Write struct {
	pad    *memory.Scratchpad
	store  rag.Store
	docs   []string
	script Script
	topK   int
}

// NewWrite seeds the store with the corpus and returns the strategy.
func NewWrite(ctx context.Context, pad *memory.Scratchpad, store rag.Store, docs []string, script Script, topK int) (*Write, error) {
	if err := validateInputs(docs, script); err != nil {
		return nil, err
	}
	if err := store.Add(ctx, docs, nil); err != nil {
		return nil, err
	}
	return &Write{
		pad:    pad,
		store:  store,
		docs:   docs,
		script: script,
		topK:   topK,
	}, nil
}

// Name implements Strategy.
func (w *Write) Name() string { return "WRITE" }

// BuildContext implements Strategy. The step's fact is written to the
// scratchpad first so the summary in the returned context includes it.
func (w *Write) BuildContext(ctx context.Context, step int) (string, error) {
	if err := validateStep(w.script, step); err != nil {
		return "", err
	}

	if err := w.pad.Write(fmt.Sprintf("step_%d", step+1), w.script[step].Fact); err != nil {
		return "", err
	}

	retrieved, err := w.store.Retrieve(ctx, w.script[step].Question, w.topK)
	if err != nil {
		return "", err
	}
	contents := make([]string, 0, len(retrieved))
	for _, doc := range retrieved {
		contents = append(contents, doc.Content)
	}

	return w.pad.Summary() + "\n\nRelevant Documents:\n" + strings.Join(contents, "\n\n"), nil
}

// Observe implements Strategy by indexing the step's fact-bearing document.
func (w *Write) Observe(ctx context.Context, step int) error {
	if err := validateStep(w.script, step); err != nil {
		return err
	}
	return w.store.Add(ctx,
		[]string{stepDocument(w.docs, w.script, step)},
		[]map[string]any{{"step": step}})
}

// Scratchpad exposes the underlying scratchpad for inspection.
func (w *Write) Scratchpad() *memory.Scratchpad { return w.pad }

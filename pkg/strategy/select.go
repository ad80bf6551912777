package strategy

import (
	"context"
	"strings"

	"github.com/contextwindows/ctxlab/pkg/rag"
)

// Select retrieves the top-k most relevant documents for each question
// instead of carrying the whole corpus. Facts only become retrievable
// after the step that introduced them has been observed.
type Select struct {
	store  rag.Store
	docs   []string
	script Script
	topK   int
}

// NewSelect seeds the store with the corpus and returns the strategy.
func NewSelect(ctx context.Context, store rag.Store, docs []string, script Script, topK int) (*Select, error) {
	if err := validateInputs(docs, script); err != nil {
		return nil, err
	}
	if err := store.Add(ctx, docs, nil); err != nil {
		return nil, err
	}
	return &Select{
		store:  store,
		docs:   docs,
		script: script,
		topK:   topK,
	}, nil
}

// Name implements Strategy.
func (s *Select) Name() string { return "SELECT" }

// BuildContext implements Strategy.
func (s *Select) BuildContext(ctx context.Context, step int) (string, error) {
	if err := validateStep(s.script, step); err != nil {
		return "", err
	}

	retrieved, err := s.store.Retrieve(ctx, s.script[step].Question, s.topK)
	if err != nil {
		return "", err
	}

	contents := make([]string, 0, len(retrieved))
	for _, doc := range retrieved {
		contents = append(contents, doc.Content)
	}
	return strings.Join(contents, "\n\n"), nil
}

// Observe implements Strategy by indexing the step's fact-bearing document.
func (s *Select) Observe(ctx context.Context, step int) error {
	if err := validateStep(s.script, step); err != nil {
		return err
	}
	return s.store.Add(ctx,
		[]string{stepDocument(s.docs, s.script, step)},
		[]map[string]any{{"step": step}})
}

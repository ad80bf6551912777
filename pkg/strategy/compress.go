package strategy

import (
	"context"
	"strings"
	"sync"

	"github.com/contextwindows/ctxlab/pkg/memory"
)

// Compress carries the whole corpus but squeezes it through a Summarizer
// to fit a word budget. Observed facts stay appended to their documents,
// so what survives compression determines what remains answerable.
type Compress struct {
	mu         sync.Mutex
	docs       []string
	script     Script
	summarizer *memory.Summarizer
	method     memory.CompressMethod
}

// NewCompress creates the strategy over a copy of the corpus.
func NewCompress(docs []string, script Script, summarizer *memory.Summarizer, method memory.CompressMethod) (*Compress, error) {
	if err := validateInputs(docs, script); err != nil {
		return nil, err
	}
	if method == "" {
		method = memory.CompressFirstLast
	}
	owned := make([]string, len(docs))
	copy(owned, docs)
	return &Compress{
		docs:       owned,
		script:     script,
		summarizer: summarizer,
		method:     method,
	}, nil
}

// Name implements Strategy.
func (c *Compress) Name() string { return "COMPRESS" }

// BuildContext implements Strategy. The current step's fact-bearing
// document takes the place of its base document before compression.
func (c *Compress) BuildContext(_ context.Context, step int) (string, error) {
	if err := validateStep(c.script, step); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	contents := make([]string, len(c.docs))
	copy(contents, c.docs)
	contents[step%len(contents)] = stepDocument(c.docs, c.script, step)

	return c.summarizer.Summarize(strings.Join(contents, "\n\n"), c.method), nil
}

// Observe implements Strategy by folding the fact into the corpus.
func (c *Compress) Observe(_ context.Context, step int) error {
	if err := validateStep(c.script, step); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[step%len(c.docs)] = c.docs[step%len(c.docs)] + "\n\n" + c.script[step].Fact
	return nil
}

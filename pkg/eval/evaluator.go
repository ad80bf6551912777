// Package eval scores LLM responses against expected answers and summarizes
// score distributions.
package eval

import (
	"fmt"
	"strings"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Method selects how a response is compared against the expected answer.
type Method string

const (
	// MethodExact scores 1.0 only when the normalized strings are equal.
	MethodExact Method = "exact"
	// MethodContains scores 1.0 when the normalized expected answer is a
	// substring of the normalized response.
	MethodContains Method = "contains"
	// MethodPartial scores the Jaccard similarity of the two word sets.
	MethodPartial Method = "partial"
)

// Result carries a score together with the inputs and their normalized forms
// for auditing. Produced per query, never mutated.
type Result struct {
	Score    float64
	Method   Method
	Response string
	Expected string

	// Normalized variants used for the comparison.
	PreprocessedResponse string
	PreprocessedExpected string
}

// Evaluator scores responses with a fixed method and case sensitivity.
type Evaluator struct {
	method        Method
	caseSensitive bool
}

// NewEvaluator creates an Evaluator. Unknown methods are rejected.
func NewEvaluator(method Method, caseSensitive bool) (*Evaluator, error) {
	switch method {
	case MethodExact, MethodContains, MethodPartial:
	default:
		return nil, errors.New(errors.InvalidParameter,
			fmt.Sprintf("method must be one of [exact contains partial], got %s", method))
	}
	return &Evaluator{method: method, caseSensitive: caseSensitive}, nil
}

// Method returns the configured comparison method.
func (e *Evaluator) Method() Method { return e.method }

// Evaluate returns the accuracy score in [0,1].
func (e *Evaluator) Evaluate(response, expected string) (float64, error) {
	result, err := e.EvaluateDetailed(response, expected)
	if err != nil {
		return 0, err
	}
	return result.Score, nil
}

// EvaluateDetailed returns the score together with the normalized inputs.
func (e *Evaluator) EvaluateDetailed(response, expected string) (*Result, error) {
	resp := e.preprocess(response)
	exp := e.preprocess(expected)

	var score float64
	switch e.method {
	case MethodExact:
		if resp == exp {
			score = 1.0
		}
	case MethodContains:
		if strings.Contains(resp, exp) {
			score = 1.0
		}
	default: // partial
		score = jaccard(resp, exp)
	}

	return &Result{
		Score:                score,
		Method:               e.method,
		Response:             response,
		Expected:             expected,
		PreprocessedResponse: resp,
		PreprocessedExpected: exp,
	}, nil
}

// jaccard computes word-set intersection over union. Returns 0 when the
// expected answer normalizes to an empty word set.
func jaccard(response, expected string) float64 {
	responseWords := wordSet(response)
	expectedWords := wordSet(expected)

	if len(expectedWords) == 0 {
		return 0.0
	}

	intersection := 0
	union := len(responseWords)
	for w := range expectedWords {
		if _, ok := responseWords[w]; ok {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		set[w] = struct{}{}
	}
	return set
}

// punctuationReplacer strips the fixed punctuation set used for normalization.
var punctuationReplacer = strings.NewReplacer(
	".", "", ",", "", "!", "", "?", "", ";", "", ":", "", `"`, "",
)

// preprocess collapses whitespace, strips common punctuation and lowercases
// unless the evaluator is case-sensitive.
func (e *Evaluator) preprocess(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = punctuationReplacer.Replace(text)
	if !e.caseSensitive {
		text = strings.ToLower(text)
	}
	return strings.TrimSpace(text)
}

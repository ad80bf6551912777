// Package strategy implements context-construction strategies for
// multi-step agent interactions: SELECT (retrieval), COMPRESS
// (summarization) and WRITE (external scratchpad memory). Each step of a
// script introduces one fact and asks one question; the strategies differ
// in how they keep earlier facts reachable as context grows.
package strategy

import (
	"context"
	"fmt"

	"github.com/contextwindows/ctxlab/pkg/errors"
)

// Step is one turn of a multi-step interaction: a fact the agent learns,
// a question probing that fact, and the expected answer.
type Step struct {
	Fact     string `json:"fact"`
	Question string `json:"question"`
	Expected string `json:"expected"`
}

// Script is an ordered sequence of steps.
type Script []Step

// DefaultScript returns the standard 10-step interaction script.
func DefaultScript() Script {
	return Script{
		{
			Fact:     "The project budget is $2.5 million for Q1 2025.",
			Question: "What is the project budget for Q1 2025?",
			Expected: "$2.5 million",
		},
		{
			Fact:     "The team consists of 15 engineers and 3 designers.",
			Question: "How many engineers are on the team?",
			Expected: "15",
		},
		{
			Fact:     "The launch date is scheduled for March 15th, 2025.",
			Question: "When is the launch date?",
			Expected: "March 15th, 2025",
		},
		{
			Fact:     "The customer satisfaction rate is currently 94%.",
			Question: "What is the customer satisfaction rate?",
			Expected: "94%",
		},
		{
			Fact:     "The monthly active users increased to 150,000.",
			Question: "How many monthly active users are there?",
			Expected: "150,000",
		},
		{
			Fact:     "The technical stack uses React, Node.js, and PostgreSQL.",
			Question: "What is the technical stack?",
			Expected: "React, Node.js, and PostgreSQL",
		},
		{
			Fact:     "The average response time is 120 milliseconds.",
			Question: "What is the average response time?",
			Expected: "120 milliseconds",
		},
		{
			Fact:     "The market share increased to 23% this quarter.",
			Question: "What is the current market share?",
			Expected: "23%",
		},
		{
			Fact:     "The code coverage is maintained at 85%.",
			Question: "What is the code coverage percentage?",
			Expected: "85%",
		},
		{
			Fact:     "The next major feature release is Q2 2025.",
			Question: "When is the next major feature release?",
			Expected: "Q2 2025",
		},
	}
}

// Strategy builds the prompt context for each step and updates its own
// state after the step's answer has been collected.
type Strategy interface {
	Name() string

	// BuildContext returns the prompt context for the given step index.
	BuildContext(ctx context.Context, step int) (string, error)

	// Observe folds the step's fact into the strategy's state so later
	// steps can reach it.
	Observe(ctx context.Context, step int) error
}

// stepDocument returns the fact-bearing document for a step: the base
// document at index step % len(docs) with the fact appended.
func stepDocument(docs []string, script Script, step int) string {
	return docs[step%len(docs)] + "\n\n" + script[step].Fact
}

func validateStep(script Script, step int) error {
	if step < 0 || step >= len(script) {
		return errors.WithFields(
			errors.New(errors.InvalidParameter, fmt.Sprintf("step %d out of range", step)),
			errors.Fields{"script_len": len(script)})
	}
	return nil
}

func validateInputs(docs []string, script Script) error {
	if len(docs) == 0 {
		return errors.New(errors.InvalidParameter, "at least one document is required")
	}
	if len(script) == 0 {
		return errors.New(errors.InvalidParameter, "script cannot be empty")
	}
	return nil
}

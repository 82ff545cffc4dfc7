// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"slices"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// State is the value threaded through the stages of one run. Stages never
// modify a State in place: every With* method returns an updated copy whose
// slices do not alias the receiver's, so an earlier State stays valid.
type State[G any] struct {
	RunID string
	Goal  G

	// Candidates holds search results waiting to be fetched.
	Candidates []types.SearchResult

	Facts       []types.Fact
	Comparisons []types.ComparisonRecord
	Caveats     []string
	Payload     any

	// Err is the terminal failure. Once set, remaining stages are skipped.
	Err error
}

// WithCandidates replaces the candidate list.
func (s State[G]) WithCandidates(c []types.SearchResult) State[G] {
	s.Candidates = slices.Clone(c)
	return s
}

// WithFacts appends facts.
func (s State[G]) WithFacts(facts ...types.Fact) State[G] {
	s.Facts = append(slices.Clip(s.Facts), facts...)
	return s
}

// ReplaceFacts substitutes the whole fact list.
func (s State[G]) ReplaceFacts(facts []types.Fact) State[G] {
	s.Facts = slices.Clone(facts)
	return s
}

// WithComparisons replaces the comparison records.
func (s State[G]) WithComparisons(c []types.ComparisonRecord) State[G] {
	s.Comparisons = slices.Clone(c)
	return s
}

// WithCaveat appends a caveat.
func (s State[G]) WithCaveat(c string) State[G] {
	s.Caveats = append(slices.Clip(s.Caveats), c)
	return s
}

// WithPayload sets the use-case payload.
func (s State[G]) WithPayload(p any) State[G] {
	s.Payload = p
	return s
}

// Fail records err as the terminal failure.
func (s State[G]) Fail(err error) State[G] {
	s.Err = err
	return s
}

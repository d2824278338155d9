// Package advice models the explainable fix recommendation attached to each
// detected fault, built in stages and validated once at the end.
package advice

import (
	"github.com/devamjariwala24/pycodeadvisor/internal/core/errors"
)

// Source records how a recommendation was obtained.
type Source string

const (
	SourceLocalAnalysis   Source = "LocalAnalysis"
	SourceCachedInference Source = "CachedInference"
	SourceFreshInference  Source = "FreshInference"
)

const (
	// ConfidenceLocal is the conservative default for recommendations built
	// from local analysis alone.
	ConfidenceLocal = 0.3
	// ConfidenceBackendDefault applies when a backend answers without
	// reporting its own confidence.
	ConfidenceBackendDefault = 0.6
)

// Recommendation is immutable once built.
type Recommendation struct {
	Explanation  string  `json:"explanation"`
	SuggestedFix string  `json:"suggested_fix"`
	Confidence   float64 `json:"confidence"`
	Source       Source  `json:"source"`
}

// IsHighConfidence reports whether the recommendation clears the display
// threshold used by the rendering layer.
func (r Recommendation) IsHighConfidence() bool {
	return r.Confidence > 0.7
}

// Builder constructs a Recommendation in stages. Zero value is ready to use;
// a Builder must not be shared across goroutines.
type Builder struct {
	explanation    string
	hasExplanation bool
	fix            string
	confidence     float64
	hasConfidence  bool
	source         Source
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithExplanation(explanation string) *Builder {
	b.explanation = explanation
	b.hasExplanation = true
	return b
}

func (b *Builder) WithFix(fix string) *Builder {
	b.fix = fix
	return b
}

// WithConfidence clamps the value into [0, 1].
func (b *Builder) WithConfidence(confidence float64) *Builder {
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	b.confidence = confidence
	b.hasConfidence = true
	return b
}

func (b *Builder) WithSource(source Source) *Builder {
	b.source = source
	return b
}

// Build validates and finalizes the recommendation. A missing explanation is
// a contract violation; confidence and source fall back to conservative
// defaults when unset.
func (b *Builder) Build() (Recommendation, error) {
	if !b.hasExplanation || b.explanation == "" {
		return Recommendation{}, errors.New(errors.CodeIncompleteRecommendation,
			"explanation was never set")
	}

	source := b.source
	if source == "" {
		source = SourceLocalAnalysis
	}

	confidence := b.confidence
	if !b.hasConfidence {
		if source == SourceLocalAnalysis {
			confidence = ConfidenceLocal
		} else {
			confidence = ConfidenceBackendDefault
		}
	}

	return Recommendation{
		Explanation:  b.explanation,
		SuggestedFix: b.fix,
		Confidence:   confidence,
		Source:       source,
	}, nil
}

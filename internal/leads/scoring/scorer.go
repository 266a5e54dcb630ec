// Package scoring turns a lead's reply into a BANT assessment. The semantic
// judgment is delegated to the text-generation collaborator; this package
// owns validation, clamping, and recovery from malformed output.
package scoring

import (
	"context"
	"fmt"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/platform/ai/nova"
	"leadqual_backend/platform/logger"
)

// UnparseableAnalysis flags an assessment that fell back to the prior
// scores because the collaborator's output could not be parsed.
const UnparseableAnalysis = "unparseable"

// scoreFields are the fields the scoring response must carry. Anything
// missing is a parse failure, not a best-effort guess.
var scoreFields = []string{"budget_score", "authority_score", "need_score", "timeline_score", "analysis"}

// Input carries one reply plus the context needed to score it.
type Input struct {
	Reply         string
	Prior         domain.Scores
	PriorAnalysis string
}

// Generator is the structured text-generation collaborator.
type Generator interface {
	ScoreReply(ctx context.Context, in Input, expectedFields []string) (map[string]interface{}, error)
}

// Scorer validates and clamps collaborator output into an Assessment.
type Scorer struct {
	gen Generator
	log *logger.Logger
}

func NewScorer(gen Generator, log *logger.Logger) *Scorer {
	return &Scorer{gen: gen, log: log}
}

// ScoreReply scores one reply against the rubric.
//
// Parse failures are recovered locally: the prior scores are returned
// unchanged with the analysis flagged unparseable and confidence zero.
// Only transport-level unavailability is returned as an error, so the
// caller can retry before settling for the same recovery.
func (s *Scorer) ScoreReply(ctx context.Context, in Input) (domain.Assessment, error) {
	if err := in.Prior.Validate(); err != nil {
		return domain.Assessment{}, fmt.Errorf("prior scores: %w", err)
	}

	fields, err := s.gen.ScoreReply(ctx, in, scoreFields)
	if err != nil {
		if nova.IsParseError(err) {
			s.log.Warn("reply scoring output unparseable, keeping prior scores",
				"prior_total", in.Prior.Total())
			return Unparsed(in.Prior), nil
		}
		return domain.Assessment{}, err
	}

	scores, ok := scoresFrom(fields)
	if !ok {
		s.log.Warn("reply scoring output carried non-numeric scores, keeping prior scores",
			"prior_total", in.Prior.Total())
		return Unparsed(in.Prior), nil
	}

	// The collaborator also emits total_score and a status field. Both
	// are ignored: the total is always the recomputed sum and status is
	// derived from the rubric alone.
	return domain.Assessment{
		Scores:     scores,
		Analysis:   stringField(fields, "analysis"),
		Confidence: clampFloat(floatField(fields, "confidence"), 0, 100),
	}, nil
}

// Unparsed is the recovery assessment: prior scores unchanged, analysis
// flagged, confidence zero.
func Unparsed(prior domain.Scores) domain.Assessment {
	return domain.Assessment{
		Scores:     prior.Clamped(),
		Analysis:   UnparseableAnalysis,
		Confidence: 0,
	}
}

// scoresFrom reads the four category scores, requiring every field to be
// numeric. A present-but-non-numeric score is a parse failure, the same as
// a missing one, so wrong-typed output never zeroes a category.
func scoresFrom(m map[string]interface{}) (domain.Scores, bool) {
	budget, ok1 := intField(m, "budget_score")
	authority, ok2 := intField(m, "authority_score")
	need, ok3 := intField(m, "need_score")
	timeline, ok4 := intField(m, "timeline_score")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.Scores{}, false
	}
	return domain.Scores{
		Budget:    budget,
		Authority: authority,
		Need:      need,
		Timeline:  timeline,
	}.Clamped(), true
}

func intField(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func floatField(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

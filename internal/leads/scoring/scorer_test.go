package scoring

import (
	"context"
	"errors"
	"testing"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/platform/ai/nova"
	"leadqual_backend/platform/logger"
)

type fakeGenerator struct {
	fields map[string]interface{}
	err    error
	calls  int
}

func (f *fakeGenerator) ScoreReply(_ context.Context, _ Input, _ []string) (map[string]interface{}, error) {
	f.calls++
	return f.fields, f.err
}

func testLogger() *logger.Logger {
	return logger.New("test")
}

func TestScoreReply(t *testing.T) {
	gen := &fakeGenerator{fields: map[string]interface{}{
		"budget_score":    float64(22),
		"authority_score": float64(10),
		"need_score":      float64(18),
		"timeline_score":  float64(5),
		"total_score":     float64(99), // deliberately wrong, must be ignored
		"analysis":        "budget confirmed",
		"status":          "qualified", // must be ignored
		"confidence":      float64(85),
	}}
	scorer := NewScorer(gen, testLogger())

	got, err := scorer.ScoreReply(context.Background(), Input{
		Reply: "We have $50k allocated this quarter",
		Prior: domain.Scores{Budget: 5},
	})
	if err != nil {
		t.Fatalf("ScoreReply: %v", err)
	}

	want := domain.Scores{Budget: 22, Authority: 10, Need: 18, Timeline: 5}
	if got.Scores != want {
		t.Errorf("scores = %+v, want %+v", got.Scores, want)
	}
	if got.Scores.Total() != 55 {
		t.Errorf("total = %d, want recomputed sum 55", got.Scores.Total())
	}
	if got.Analysis != "budget confirmed" {
		t.Errorf("analysis = %q", got.Analysis)
	}
	if got.Confidence != 85 {
		t.Errorf("confidence = %v, want 85", got.Confidence)
	}
}

func TestScoreReplyClampsOutOfRange(t *testing.T) {
	gen := &fakeGenerator{fields: map[string]interface{}{
		"budget_score":    float64(99),
		"authority_score": float64(-10),
		"need_score":      float64(25),
		"timeline_score":  float64(3),
		"analysis":        "inflated",
		"confidence":      float64(300),
	}}
	scorer := NewScorer(gen, testLogger())

	got, err := scorer.ScoreReply(context.Background(), Input{Reply: "yes"})
	if err != nil {
		t.Fatal(err)
	}
	want := domain.Scores{Budget: 25, Authority: 0, Need: 25, Timeline: 3}
	if got.Scores != want {
		t.Errorf("scores = %+v, want clamped %+v", got.Scores, want)
	}
	if got.Confidence != 100 {
		t.Errorf("confidence = %v, want clamped 100", got.Confidence)
	}
}

func TestScoreReplyDownwardRevisionAllowed(t *testing.T) {
	gen := &fakeGenerator{fields: map[string]interface{}{
		"budget_score":    float64(3),
		"authority_score": float64(3),
		"need_score":      float64(3),
		"timeline_score":  float64(3),
		"analysis":        "walked back earlier claims",
		"confidence":      float64(70),
	}}
	scorer := NewScorer(gen, testLogger())

	got, err := scorer.ScoreReply(context.Background(), Input{
		Reply: "actually we have no budget this year",
		Prior: domain.Scores{Budget: 22, Authority: 20, Need: 18, Timeline: 15},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Scores.Total() != 12 {
		t.Errorf("total = %d, want 12 (downward revision)", got.Scores.Total())
	}
}

func TestScoreReplyUnparseableKeepsPriorScores(t *testing.T) {
	gen := &fakeGenerator{err: &nova.ParseError{Raw: "I cannot do that"}}
	scorer := NewScorer(gen, testLogger())

	prior := domain.Scores{Budget: 12, Authority: 8, Need: 20, Timeline: 4}
	got, err := scorer.ScoreReply(context.Background(), Input{Reply: "???", Prior: prior})
	if err != nil {
		t.Fatalf("parse failure must be recovered locally, got error: %v", err)
	}
	if got.Scores != prior {
		t.Errorf("scores = %+v, want prior %+v unchanged", got.Scores, prior)
	}
	if got.Analysis != UnparseableAnalysis {
		t.Errorf("analysis = %q, want %q", got.Analysis, UnparseableAnalysis)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", got.Confidence)
	}
}

func TestScoreReplyWrongTypedScoresKeepPrior(t *testing.T) {
	// Scores arriving as JSON strings pass the field-presence check but
	// must still count as unparseable, not as zeroes.
	gen := &fakeGenerator{fields: map[string]interface{}{
		"budget_score":    "22",
		"authority_score": "15",
		"need_score":      "10",
		"timeline_score":  "8",
		"analysis":        "went well",
		"confidence":      float64(80),
	}}
	scorer := NewScorer(gen, testLogger())

	prior := domain.Scores{Budget: 10, Authority: 10, Need: 10, Timeline: 10}
	got, err := scorer.ScoreReply(context.Background(), Input{Reply: "sure", Prior: prior})
	if err != nil {
		t.Fatalf("wrong-typed scores must be recovered locally, got error: %v", err)
	}
	if got.Scores != prior {
		t.Errorf("scores = %+v, want prior %+v unchanged", got.Scores, prior)
	}
	if got.Analysis != UnparseableAnalysis {
		t.Errorf("analysis = %q, want %q", got.Analysis, UnparseableAnalysis)
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", got.Confidence)
	}
}

func TestScoreReplyUnavailableSurfaces(t *testing.T) {
	gen := &fakeGenerator{err: nova.ErrUnavailable}
	scorer := NewScorer(gen, testLogger())

	_, err := scorer.ScoreReply(context.Background(), Input{Reply: "hi"})
	if !errors.Is(err, nova.ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable surfaced for retry", err)
	}
}

func TestScoreReplyRejectsOutOfRangePrior(t *testing.T) {
	gen := &fakeGenerator{fields: map[string]interface{}{}}
	scorer := NewScorer(gen, testLogger())

	_, err := scorer.ScoreReply(context.Background(), Input{
		Reply: "sure",
		Prior: domain.Scores{Budget: 30, Authority: 10, Need: 10, Timeline: 10},
	})
	if err == nil {
		t.Fatal("out-of-range prior scores must be rejected")
	}
	if gen.calls != 0 {
		t.Errorf("generator called %d times, want 0 (rejected before any call)", gen.calls)
	}
}

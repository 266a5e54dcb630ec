package domain

import "testing"

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name      string
		scores    Scores
		exhausted bool
		want      Status
	}{
		{
			name:   "zero scores still qualifying",
			scores: Scores{},
			want:   StatusQualifying,
		},
		{
			name:   "qualified at threshold",
			scores: Scores{Budget: 20, Authority: 20, Need: 20, Timeline: 10},
			want:   StatusQualified,
		},
		{
			name:      "qualified regardless of exhaustion",
			scores:    Scores{Budget: 25, Authority: 25, Need: 25, Timeline: 25},
			exhausted: true,
			want:      StatusQualified,
		},
		{
			name:   "mid score not exhausted keeps qualifying",
			scores: Scores{Budget: 15, Authority: 15, Need: 15, Timeline: 10},
			want:   StatusQualifying,
		},
		{
			name:      "mid score exhausted is nurturing",
			scores:    Scores{Budget: 15, Authority: 15, Need: 10, Timeline: 10},
			exhausted: true,
			want:      StatusNurturing,
		},
		{
			name:      "nurturing floor boundary",
			scores:    Scores{Budget: 10, Authority: 10, Need: 10, Timeline: 10},
			exhausted: true,
			want:      StatusNurturing,
		},
		{
			name:      "just below floor exhausted is unqualified",
			scores:    Scores{Budget: 10, Authority: 10, Need: 10, Timeline: 9},
			exhausted: true,
			want:      StatusUnqualified,
		},
		{
			name:      "low score not exhausted keeps qualifying",
			scores:    Scores{Budget: 5},
			exhausted: false,
			want:      StatusQualifying,
		},
		{
			name:      "out of range input is clamped before deriving",
			scores:    Scores{Budget: 90, Authority: 90, Need: -5, Timeline: 0},
			exhausted: true,
			want:      StatusNurturing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.scores, tt.exhausted); got != tt.want {
				t.Errorf("StatusFor(%+v, %v) = %s, want %s", tt.scores, tt.exhausted, got, tt.want)
			}
		})
	}
}

func TestScoresClamped(t *testing.T) {
	got := Scores{Budget: -3, Authority: 26, Need: 25, Timeline: 0}.Clamped()
	want := Scores{Budget: 0, Authority: 25, Need: 25, Timeline: 0}
	if got != want {
		t.Errorf("Clamped() = %+v, want %+v", got, want)
	}
	if got.Total() != 50 {
		t.Errorf("Total() = %d, want 50", got.Total())
	}
}

func TestScoresValidate(t *testing.T) {
	if err := (Scores{Budget: 25, Authority: 0, Need: 12, Timeline: 1}).Validate(); err != nil {
		t.Errorf("valid scores rejected: %v", err)
	}
	if err := (Scores{Budget: 26}).Validate(); err == nil {
		t.Error("expected error for score above category max")
	}
	if err := (Scores{Timeline: -1}).Validate(); err == nil {
		t.Error("expected error for negative score")
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusQualifying:  false,
		StatusQualified:   true,
		StatusNurturing:   true,
		StatusUnqualified: true,
	}
	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

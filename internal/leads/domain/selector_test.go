package domain

import "testing"

func TestNextQuestion(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		asked  map[Category]int
		status Status
		want   NextAction
	}{
		{
			name:   "fresh conversation asks budget first",
			scores: Scores{},
			asked:  map[Category]int{},
			status: StatusQualifying,
			want:   AskCategory(CategoryBudget),
		},
		{
			name:   "lowest score wins",
			scores: Scores{Budget: 22, Authority: 5, Need: 18, Timeline: 10},
			asked:  map[Category]int{CategoryBudget: 1},
			status: StatusQualifying,
			want:   AskCategory(CategoryAuthority),
		},
		{
			name:   "category asked twice is skipped",
			scores: Scores{Budget: 3, Authority: 8, Need: 15, Timeline: 12},
			asked:  map[Category]int{CategoryBudget: 2},
			status: StatusQualifying,
			want:   AskCategory(CategoryAuthority),
		},
		{
			name:   "all asked once picks lowest even when it was asked twice",
			scores: Scores{Budget: 5, Authority: 10, Need: 15, Timeline: 12},
			asked: map[Category]int{
				CategoryBudget: 2, CategoryAuthority: 1,
				CategoryNeed: 1, CategoryTimeline: 1,
			},
			status: StatusQualifying,
			want:   AskCategory(CategoryBudget),
		},
		{
			name:   "all asked twice falls back to lowest regardless",
			scores: Scores{Budget: 12, Authority: 9, Need: 15, Timeline: 14},
			asked: map[Category]int{
				CategoryBudget: 2, CategoryAuthority: 2,
				CategoryNeed: 2, CategoryTimeline: 2,
			},
			status: StatusQualifying,
			want:   AskCategory(CategoryAuthority),
		},
		{
			name:   "all categories strong concludes",
			scores: Scores{Budget: 20, Authority: 21, Need: 25, Timeline: 20},
			asked:  map[Category]int{},
			status: StatusQualifying,
			want:   Conclude,
		},
		{
			name:   "terminal status concludes",
			scores: Scores{},
			asked:  map[Category]int{},
			status: StatusNurturing,
			want:   Conclude,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextQuestion(tt.scores, tt.asked, tt.status); got != tt.want {
				t.Errorf("NextQuestion() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNextQuestionTieBreakDeterministic(t *testing.T) {
	// Equal scores, none asked: priority order is Budget, Authority,
	// Need, Timeline, and repeated runs never vary.
	asked := map[Category]int{}
	for i := 0; i < 10; i++ {
		got := NextQuestion(Scores{Budget: 7, Authority: 7, Need: 7, Timeline: 7}, asked, StatusQualifying)
		if got != AskCategory(CategoryBudget) {
			t.Fatalf("run %d: got %+v, want budget", i, got)
		}
	}

	asked[CategoryBudget] = 2
	got := NextQuestion(Scores{Budget: 7, Authority: 7, Need: 7, Timeline: 7}, asked, StatusQualifying)
	if got != AskCategory(CategoryAuthority) {
		t.Fatalf("with budget excluded: got %+v, want authority", got)
	}
}

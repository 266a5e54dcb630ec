// Package domain holds the pure lead-qualification model: the BANT rubric,
// conversation state, and question selection. No I/O, no collaborator calls.
package domain

import "fmt"

// Category is one of the four BANT qualification dimensions.
type Category string

const (
	CategoryBudget    Category = "budget"
	CategoryAuthority Category = "authority"
	CategoryNeed      Category = "need"
	CategoryTimeline  Category = "timeline"
)

// CategoryOrder is the fixed priority used for deterministic tie-breaking.
var CategoryOrder = []Category{CategoryBudget, CategoryAuthority, CategoryNeed, CategoryTimeline}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryBudget, CategoryAuthority, CategoryNeed, CategoryTimeline:
		return true
	}
	return false
}

// Rubric constants. Each category scores in [0,CategoryMax]; the total is
// always the recomputed sum of the four, never a stored value.
const (
	CategoryMax        = 25
	QualifiedThreshold = 70
	NurturingFloor     = 40

	// strongScore marks a category as answered well enough that asking
	// about it again adds nothing.
	strongScore = 20
)

// Scores holds the four category scores.
type Scores struct {
	Budget    int `json:"budget"`
	Authority int `json:"authority"`
	Need      int `json:"need"`
	Timeline  int `json:"timeline"`
}

// Total is the sum of the four categories.
func (s Scores) Total() int {
	return s.Budget + s.Authority + s.Need + s.Timeline
}

// Get returns the score for a single category.
func (s Scores) Get(c Category) int {
	switch c {
	case CategoryBudget:
		return s.Budget
	case CategoryAuthority:
		return s.Authority
	case CategoryNeed:
		return s.Need
	case CategoryTimeline:
		return s.Timeline
	}
	return 0
}

// Clamped returns a copy with every category forced into [0,CategoryMax].
func (s Scores) Clamped() Scores {
	return Scores{
		Budget:    clampScore(s.Budget),
		Authority: clampScore(s.Authority),
		Need:      clampScore(s.Need),
		Timeline:  clampScore(s.Timeline),
	}
}

// Validate rejects scores outside [0,CategoryMax] before any state mutation.
func (s Scores) Validate() error {
	for _, c := range CategoryOrder {
		v := s.Get(c)
		if v < 0 || v > CategoryMax {
			return fmt.Errorf("%s score %d outside [0,%d]", c, v, CategoryMax)
		}
	}
	return nil
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > CategoryMax {
		return CategoryMax
	}
	return v
}

// Status is the qualification state of a conversation.
type Status string

const (
	StatusQualifying  Status = "qualifying"
	StatusQualified   Status = "qualified"
	StatusNurturing   Status = "nurturing"
	StatusUnqualified Status = "unqualified"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusQualified || s == StatusNurturing || s == StatusUnqualified
}

// StatusFor derives the status from scores and whether further questions are
// pending. It is the sole authority on status: callers never set a status
// that disagrees with this function.
func StatusFor(scores Scores, questionsExhausted bool) Status {
	total := scores.Clamped().Total()
	switch {
	case total >= QualifiedThreshold:
		return StatusQualified
	case !questionsExhausted:
		return StatusQualifying
	case total >= NurturingFloor:
		return StatusNurturing
	default:
		return StatusUnqualified
	}
}

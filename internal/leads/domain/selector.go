package domain

// NextAction is the selector's decision: ask about one more category, or
// conclude the conversation.
type NextAction struct {
	Conclude bool
	Category Category // set when Conclude is false
}

// AskCategory builds an ask action.
func AskCategory(c Category) NextAction {
	return NextAction{Category: c}
}

// Conclude is the terminal selector outcome.
var Conclude = NextAction{Conclude: true}

// NextQuestion picks the category to probe next.
//
// Policy: among categories not yet asked more than once, take the one with
// the lowest current score; once every category has been asked at least
// once, take the lowest score regardless of repeats. When all categories
// score at or above the strong mark, or the status is already terminal,
// conclude. Ties break on the fixed order Budget, Authority, Need, Timeline.
func NextQuestion(scores Scores, asked map[Category]int, status Status) NextAction {
	if status.Terminal() {
		return Conclude
	}

	allStrong := true
	for _, c := range CategoryOrder {
		if scores.Get(c) < strongScore {
			allStrong = false
			break
		}
	}
	if allStrong {
		return Conclude
	}

	allAsked := true
	for _, c := range CategoryOrder {
		if asked[c] == 0 {
			allAsked = false
			break
		}
	}
	if allAsked {
		pick, _ := lowest(scores, nil, 0)
		return AskCategory(pick)
	}

	if pick, ok := lowest(scores, asked, 2); ok {
		return AskCategory(pick)
	}
	pick, _ := lowest(scores, nil, 0)
	return AskCategory(pick)
}

// lowest returns the lowest-scoring category among those asked fewer than
// maxAsked times, walking CategoryOrder so equal scores resolve
// deterministically. A nil asked map disables the filter.
func lowest(scores Scores, asked map[Category]int, maxAsked int) (Category, bool) {
	var pick Category
	found := false
	for _, c := range CategoryOrder {
		if asked != nil && asked[c] >= maxAsked {
			continue
		}
		if !found || scores.Get(c) < scores.Get(pick) {
			pick = c
			found = true
		}
	}
	return pick, found
}

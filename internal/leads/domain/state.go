package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrConversationClosed is returned when a mutation is attempted on a
// conversation whose status is already terminal.
var ErrConversationClosed = errors.New("qualification conversation is closed")

// Turn is one exchange in the qualification conversation. The reply slot
// stays empty until the lead answers. Turns are append-only; their order is
// the conversation order.
type Turn struct {
	Category   Category   `json:"category"`
	Question   string     `json:"question"`
	Reply      string     `json:"reply,omitempty"`
	AskedAt    time.Time  `json:"asked_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

// Answered reports whether the lead has replied to this turn.
func (t Turn) Answered() bool {
	return t.AnsweredAt != nil
}

// Assessment is the outcome of scoring one reply.
type Assessment struct {
	Scores     Scores
	Analysis   string
	Confidence float64
}

// Conversation is the per-lead qualification aggregate. All transition
// methods are value-semantic: they return a new Conversation and leave the
// receiver untouched, so callers keep the prior state for audit.
type Conversation struct {
	LeadID     uuid.UUID `json:"lead_id"`
	Turns      []Turn    `json:"turns"`
	Scores     Scores    `json:"scores"`
	Status     Status    `json:"status"`
	HandedOff  bool      `json:"handed_off"`
	Analysis   string    `json:"analysis,omitempty"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewConversation starts a qualification conversation for a lead.
func NewConversation(leadID uuid.UUID, now time.Time) Conversation {
	return Conversation{
		LeadID:    leadID,
		Status:    StatusQualifying,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AskedCount returns how many turns have asked about the given category.
func (c Conversation) AskedCount(cat Category) int {
	n := 0
	for _, t := range c.Turns {
		if t.Category == cat {
			n++
		}
	}
	return n
}

// AskedCounts returns per-category ask counts for the selector.
func (c Conversation) AskedCounts() map[Category]int {
	counts := make(map[Category]int, len(CategoryOrder))
	for _, t := range c.Turns {
		counts[t.Category]++
	}
	return counts
}

// LastTurn returns the most recent turn, if any.
func (c Conversation) LastTurn() (Turn, bool) {
	if len(c.Turns) == 0 {
		return Turn{}, false
	}
	return c.Turns[len(c.Turns)-1], true
}

// AwaitingReply reports whether the last turn has an open reply slot.
func (c Conversation) AwaitingReply() bool {
	last, ok := c.LastTurn()
	return ok && !last.Answered()
}

// AskQuestion appends an unanswered turn for the given category and returns
// the new state. Fails with ErrConversationClosed on a terminal status.
func (c Conversation) AskQuestion(cat Category, question string, now time.Time) (Conversation, error) {
	if c.Status.Terminal() {
		return Conversation{}, ErrConversationClosed
	}
	if !cat.Valid() {
		return Conversation{}, errors.New("unknown question category")
	}

	next := c.cloneTurns()
	next.Turns = append(next.Turns, Turn{
		Category: cat,
		Question: question,
		AskedAt:  now,
	})
	next.UpdatedAt = now
	return next, nil
}

// ApplyReply fills the open reply slot of the last turn, folds in the reply
// assessment, and recomputes status from the rubric. The assessment's scores
// are clamped and the total is always the recomputed sum; nothing from the
// scorer is trusted verbatim.
func (c Conversation) ApplyReply(reply string, a Assessment, now time.Time) (Conversation, error) {
	if c.Status.Terminal() {
		return Conversation{}, ErrConversationClosed
	}
	if !c.AwaitingReply() {
		return Conversation{}, errors.New("no open reply slot")
	}

	next := c.cloneTurns()
	last := &next.Turns[len(next.Turns)-1]
	last.Reply = reply
	answeredAt := now
	last.AnsweredAt = &answeredAt

	next.Scores = a.Scores.Clamped()
	next.Analysis = a.Analysis
	next.Confidence = a.Confidence
	next.Status = StatusFor(next.Scores, false)
	next.UpdatedAt = now
	return next, nil
}

// Exhaust recomputes status under the "no further questions pending" rule,
// closing the conversation as Qualified, Nurturing, or Unqualified.
func (c Conversation) Exhaust(now time.Time) (Conversation, error) {
	if c.Status.Terminal() {
		return Conversation{}, ErrConversationClosed
	}
	next := c.cloneTurns()
	next.Status = StatusFor(next.Scores, true)
	next.UpdatedAt = now
	return next, nil
}

// MarkHandedOff records that this conversation was pushed to the CRM. The
// flag guards the push against being issued twice for one qualification.
func (c Conversation) MarkHandedOff(now time.Time) Conversation {
	next := c.cloneTurns()
	next.HandedOff = true
	next.UpdatedAt = now
	return next
}

// cloneTurns returns a copy whose Turns slice is independent of the
// receiver's, so appends and in-place edits never alias the caller's state.
func (c Conversation) cloneTurns() Conversation {
	next := c
	next.Turns = make([]Turn, len(c.Turns))
	copy(next.Turns, c.Turns)
	return next
}

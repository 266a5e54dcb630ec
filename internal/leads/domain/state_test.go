package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestConversationAskAndReply(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	conv := NewConversation(uuid.New(), now)

	if conv.Status != StatusQualifying {
		t.Fatalf("new conversation status = %s, want qualifying", conv.Status)
	}
	if conv.AwaitingReply() {
		t.Fatal("new conversation should not be awaiting a reply")
	}

	asked, err := conv.AskQuestion(CategoryBudget, "What budget range are you working with?", now)
	if err != nil {
		t.Fatalf("AskQuestion: %v", err)
	}
	if !asked.AwaitingReply() {
		t.Fatal("conversation should be awaiting a reply after asking")
	}
	if n := asked.AskedCount(CategoryBudget); n != 1 {
		t.Errorf("AskedCount(budget) = %d, want 1", n)
	}

	answered, err := asked.ApplyReply("We have $50k allocated this quarter", Assessment{
		Scores:     Scores{Budget: 22},
		Analysis:   "clear budget commitment",
		Confidence: 0.9,
	}, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("ApplyReply: %v", err)
	}
	if answered.Scores.Budget != 22 {
		t.Errorf("budget score = %d, want 22", answered.Scores.Budget)
	}
	if answered.AwaitingReply() {
		t.Error("reply slot should be closed")
	}
	if answered.Status != StatusQualifying {
		t.Errorf("status = %s, want qualifying", answered.Status)
	}

	// Prior values are untouched, the mutators return copies.
	if asked.Scores.Budget != 0 {
		t.Error("ApplyReply mutated the prior state's scores")
	}
	if last, _ := asked.LastTurn(); last.Answered() {
		t.Error("ApplyReply mutated the prior state's turns")
	}
	if len(conv.Turns) != 0 {
		t.Error("AskQuestion mutated its input")
	}
}

func TestConversationReplyEdgeCases(t *testing.T) {
	now := time.Now()
	conv := NewConversation(uuid.New(), now)

	if _, err := conv.ApplyReply("hello", Assessment{}, now); err == nil {
		t.Error("expected error applying a reply with no open slot")
	}

	if _, err := conv.AskQuestion(Category("price"), "?", now); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestConversationScoresAreClamped(t *testing.T) {
	now := time.Now()
	conv, err := NewConversation(uuid.New(), now).AskQuestion(CategoryNeed, "What problem are you solving?", now)
	if err != nil {
		t.Fatal(err)
	}

	next, err := conv.ApplyReply("everything is on fire", Assessment{
		Scores: Scores{Need: 99, Budget: -4},
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	if next.Scores.Need != CategoryMax {
		t.Errorf("need = %d, want clamped to %d", next.Scores.Need, CategoryMax)
	}
	if next.Scores.Budget != 0 {
		t.Errorf("budget = %d, want clamped to 0", next.Scores.Budget)
	}
	if got := next.Scores.Total(); got != CategoryMax {
		t.Errorf("total = %d, want %d", got, CategoryMax)
	}
}

func TestConversationQualifiesAtThreshold(t *testing.T) {
	now := time.Now()
	conv, err := NewConversation(uuid.New(), now).AskQuestion(CategoryTimeline, "When do you want to start?", now)
	if err != nil {
		t.Fatal(err)
	}

	next, err := conv.ApplyReply("next month", Assessment{
		Scores: Scores{Budget: 20, Authority: 18, Need: 18, Timeline: 16},
	}, now)
	if err != nil {
		t.Fatal(err)
	}
	if next.Status != StatusQualified {
		t.Fatalf("status = %s, want qualified at total %d", next.Status, next.Scores.Total())
	}

	// Terminal states reject further mutation.
	if _, err := next.AskQuestion(CategoryBudget, "?", now); !errors.Is(err, ErrConversationClosed) {
		t.Errorf("AskQuestion on closed conversation: got %v, want ErrConversationClosed", err)
	}
	if _, err := next.ApplyReply("more", Assessment{}, now); !errors.Is(err, ErrConversationClosed) {
		t.Errorf("ApplyReply on closed conversation: got %v, want ErrConversationClosed", err)
	}
	if _, err := next.Exhaust(now); !errors.Is(err, ErrConversationClosed) {
		t.Errorf("Exhaust on closed conversation: got %v, want ErrConversationClosed", err)
	}
}

func TestConversationExhaust(t *testing.T) {
	now := time.Now()
	conv := NewConversation(uuid.New(), now)
	conv.Scores = Scores{Budget: 15, Authority: 12, Need: 10, Timeline: 8}

	closed, err := conv.Exhaust(now)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != StatusNurturing {
		t.Errorf("status = %s, want nurturing for total %d", closed.Status, closed.Scores.Total())
	}

	conv.Scores = Scores{Budget: 5, Authority: 5, Need: 5, Timeline: 5}
	closed, err = conv.Exhaust(now)
	if err != nil {
		t.Fatal(err)
	}
	if closed.Status != StatusUnqualified {
		t.Errorf("status = %s, want unqualified for total %d", closed.Status, closed.Scores.Total())
	}
}

func TestMarkHandedOff(t *testing.T) {
	now := time.Now()
	conv := NewConversation(uuid.New(), now)
	marked := conv.MarkHandedOff(now)
	if !marked.HandedOff {
		t.Error("handed-off flag not set")
	}
	if conv.HandedOff {
		t.Error("MarkHandedOff mutated the prior state")
	}
}

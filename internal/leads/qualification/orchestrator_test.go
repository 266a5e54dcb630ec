package qualification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/scoring"
	"leadqual_backend/platform/ai/nova"
	"leadqual_backend/platform/logger"
)

type fakeScorer struct {
	assessments []domain.Assessment
	errs        []error
	calls       int
}

func (f *fakeScorer) ScoreReply(_ context.Context, in scoring.Input) (domain.Assessment, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return domain.Assessment{}, f.errs[i]
	}
	if i < len(f.assessments) {
		return f.assessments[i], nil
	}
	return domain.Assessment{Scores: in.Prior}, nil
}

type fakeDrafter struct {
	err   error
	calls int
}

func (f *fakeDrafter) DraftQuestion(_ context.Context, _ domain.Lead, _ domain.Conversation, cat domain.Category) (QuestionDraft, error) {
	f.calls++
	if f.err != nil {
		return QuestionDraft{}, f.err
	}
	return QuestionDraft{
		Subject: "About your " + string(cat),
		Body:    "Could you tell me more about your " + string(cat) + "?",
	}, nil
}

type fakeWriter struct {
	err   error
	calls int
}

func (f *fakeWriter) WriteSummary(_ context.Context, lead domain.Lead, conv domain.Conversation) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "Strong lead, ready for sales.", nil
}

func newTestOrchestrator(s ReplyScorer, d QuestionDrafter, w SummaryWriter) *Orchestrator {
	o := NewOrchestrator(s, d, w, 6, logger.New("test"))
	o.retryDelay = time.Millisecond
	return o
}

func testLead() domain.Lead {
	return domain.Lead{ID: uuid.New(), Name: "Dana Smith", Email: "dana@example.com", Company: "Acme"}
}

func TestStepQualificationFlow(t *testing.T) {
	ctx := context.Background()
	lead := testLead()
	scorer := &fakeScorer{assessments: []domain.Assessment{
		{Scores: domain.Scores{Budget: 22}, Analysis: "budget confirmed", Confidence: 90},
		{Scores: domain.Scores{Budget: 22, Authority: 20, Need: 18, Timeline: 18}, Analysis: "all criteria met", Confidence: 95},
	}}
	o := newTestOrchestrator(scorer, &fakeDrafter{}, &fakeWriter{})

	// Fresh lead: first step asks about budget, the lowest (tied) category.
	conv := domain.NewConversation(lead.ID, time.Now())
	conv, action, err := o.Step(ctx, lead, conv, "")
	if err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if action.Kind != ActionSendQuestion || action.Category != domain.CategoryBudget {
		t.Fatalf("step 1 action = %+v, want send_question budget", action)
	}
	if !conv.AwaitingReply() {
		t.Fatal("conversation should await a reply after asking")
	}

	// Reply raises budget to 22: next-lowest category is authority.
	conv, action, err = o.Step(ctx, lead, conv, "We have $50k allocated this quarter")
	if err != nil {
		t.Fatalf("step 2: %v", err)
	}
	if action.Kind != ActionSendQuestion || action.Category != domain.CategoryAuthority {
		t.Fatalf("step 2 action = %+v, want send_question authority", action)
	}
	if conv.Scores.Budget != 22 {
		t.Errorf("budget = %d, want 22", conv.Scores.Budget)
	}

	// Reply pushes the total to 78: handoff, no new question.
	conv, action, err = o.Step(ctx, lead, conv, "I am the CTO, we need this live next month")
	if err != nil {
		t.Fatalf("step 3: %v", err)
	}
	if action.Kind != ActionHandoffToSales {
		t.Fatalf("step 3 action = %+v, want handoff", action)
	}
	if action.Summary == "" {
		t.Error("handoff without a summary")
	}
	if conv.Status != domain.StatusQualified {
		t.Errorf("status = %s, want qualified", conv.Status)
	}

	// Push succeeded: mark handed off, further steps fail closed.
	conv = conv.MarkHandedOff(time.Now())
	if _, _, err := o.Step(ctx, lead, conv, "anything else?"); !errors.Is(err, domain.ErrConversationClosed) {
		t.Fatalf("step on handed-off conversation: got %v, want ErrConversationClosed", err)
	}
}

func TestStepRetriesHandoffUntilMarked(t *testing.T) {
	ctx := context.Background()
	lead := testLead()
	writer := &fakeWriter{}
	o := newTestOrchestrator(&fakeScorer{}, &fakeDrafter{}, writer)

	conv := domain.NewConversation(lead.ID, time.Now())
	conv.Scores = domain.Scores{Budget: 20, Authority: 20, Need: 20, Timeline: 15}
	conv.Status = domain.StatusQualified

	// CRM push failed last time, the flag was never set: the step emits
	// the handoff again instead of failing closed.
	_, action, err := o.Step(ctx, lead, conv, "")
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if action.Kind != ActionHandoffToSales {
		t.Fatalf("action = %+v, want handoff retry", action)
	}
}

func TestStepMaxTurnsClosesConversation(t *testing.T) {
	ctx := context.Background()
	lead := testLead()
	o := newTestOrchestrator(&fakeScorer{}, &fakeDrafter{}, &fakeWriter{})
	o.maxTurns = 2

	now := time.Now()
	conv := domain.NewConversation(lead.ID, now)
	conv.Scores = domain.Scores{Budget: 12, Authority: 12, Need: 10, Timeline: 10}
	var err error
	for _, cat := range []domain.Category{domain.CategoryBudget, domain.CategoryAuthority} {
		if conv, err = conv.AskQuestion(cat, "?", now); err != nil {
			t.Fatal(err)
		}
		if conv, err = conv.ApplyReply("answered", domain.Assessment{Scores: conv.Scores}, now); err != nil {
			t.Fatal(err)
		}
	}

	conv, action, err := o.Step(ctx, lead, conv, "")
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if action.Kind != ActionNone {
		t.Fatalf("action = %+v, want no_action", action)
	}
	if conv.Status != domain.StatusNurturing {
		t.Errorf("status = %s, want nurturing at total %d", conv.Status, conv.Scores.Total())
	}
}

func TestStepDrafterFallsBackToTemplate(t *testing.T) {
	ctx := context.Background()
	lead := testLead()
	drafter := &fakeDrafter{err: nova.ErrUnavailable}
	o := newTestOrchestrator(&fakeScorer{}, drafter, &fakeWriter{})

	conv, action, err := o.Step(ctx, lead, domain.NewConversation(lead.ID, time.Now()), "")
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if drafter.calls != 2 {
		t.Errorf("drafter calls = %d, want 2 (retry once)", drafter.calls)
	}
	if action.Kind != ActionSendQuestion {
		t.Fatalf("action = %+v, want send_question via template", action)
	}
	if action.Draft.Body == "" || action.Draft.Subject == "" {
		t.Error("template fallback produced an empty draft")
	}
	if !strings.Contains(action.Draft.Body, "Dana") {
		t.Errorf("template should greet the lead by first name, got %q", action.Draft.Body)
	}
	if len(conv.Turns) != 1 {
		t.Errorf("turns = %d, want the template question recorded", len(conv.Turns))
	}
}

func TestStepScorerDownKeepsPriorScores(t *testing.T) {
	ctx := context.Background()
	lead := testLead()
	scorer := &fakeScorer{errs: []error{nova.ErrUnavailable, nova.ErrUnavailable}}
	o := newTestOrchestrator(scorer, &fakeDrafter{}, &fakeWriter{})

	now := time.Now()
	conv := domain.NewConversation(lead.ID, now)
	conv.Scores = domain.Scores{Budget: 10, Authority: 5}
	conv, err := conv.AskQuestion(domain.CategoryNeed, "?", now)
	if err != nil {
		t.Fatal(err)
	}

	next, action, err := o.Step(ctx, lead, conv, "we are drowning in manual work")
	if err != nil {
		t.Fatalf("step must not fail when the scorer is down: %v", err)
	}
	if scorer.calls != 2 {
		t.Errorf("scorer calls = %d, want 2 (retry once)", scorer.calls)
	}
	if next.Scores != conv.Scores {
		t.Errorf("scores = %+v, want prior %+v kept", next.Scores, conv.Scores)
	}
	if next.Analysis != scoring.UnparseableAnalysis {
		t.Errorf("analysis = %q, want flagged unparseable", next.Analysis)
	}
	// The turn itself is never dropped.
	if last, _ := next.LastTurn(); !last.Answered() {
		t.Error("reply was not recorded")
	}
	if action.Kind != ActionSendQuestion {
		t.Errorf("action = %+v, want the conversation to continue", action)
	}
}

func TestStepSummaryFallsBackToTemplate(t *testing.T) {
	ctx := context.Background()
	lead := testLead()
	writer := &fakeWriter{err: nova.ErrUnavailable}
	o := newTestOrchestrator(&fakeScorer{}, &fakeDrafter{}, writer)

	conv := domain.NewConversation(lead.ID, time.Now())
	conv.Scores = domain.Scores{Budget: 20, Authority: 20, Need: 20, Timeline: 15}
	conv.Status = domain.StatusQualified

	_, action, err := o.Step(ctx, lead, conv, "")
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if writer.calls != 2 {
		t.Errorf("writer calls = %d, want 2 (retry once)", writer.calls)
	}
	if action.Kind != ActionHandoffToSales {
		t.Fatalf("action = %+v, want handoff with fallback summary", action)
	}
	if !strings.Contains(action.Summary, "75/100") {
		t.Errorf("fallback summary should carry the score, got %q", action.Summary)
	}
}

func TestLeadLocksSerializePerLead(t *testing.T) {
	locks := NewLeadLocks()
	leadID := uuid.New()

	unlock := locks.Lock(leadID)

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock(leadID)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(20 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after release")
	}

	// A different lead is never blocked.
	done := make(chan struct{})
	go func() {
		u := locks.Lock(uuid.New())
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unrelated lead blocked")
	}
}

// Package qualification drives one qualification step end to end: fold in
// the latest reply, pick the next action, and decide whether the lead is
// handed to sales. All state goes in and out by value; persistence and
// per-lead serialization belong to the caller.
package qualification

import (
	"context"
	"errors"
	"time"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/scoring"
	"leadqual_backend/platform/ai/nova"
	"leadqual_backend/platform/logger"
)

// ActionKind tags the orchestrator's outbound decision.
type ActionKind string

const (
	ActionSendQuestion   ActionKind = "send_question"
	ActionHandoffToSales ActionKind = "handoff_to_sales"
	ActionNone           ActionKind = "no_action"
)

// QuestionDraft is one qualifying email to send to the lead.
type QuestionDraft struct {
	Subject string
	Body    string
}

// OutboundAction is what the caller should do after a step: send a question
// email, hand the lead to sales with a summary, or nothing.
type OutboundAction struct {
	Kind     ActionKind
	Category domain.Category // set for send_question
	Draft    QuestionDraft   // set for send_question
	Summary  string          // set for handoff_to_sales
}

// ReplyScorer folds one reply into a BANT assessment.
type ReplyScorer interface {
	ScoreReply(ctx context.Context, in scoring.Input) (domain.Assessment, error)
}

// QuestionDrafter produces the next qualifying email for a category.
type QuestionDrafter interface {
	DraftQuestion(ctx context.Context, lead domain.Lead, conv domain.Conversation, category domain.Category) (QuestionDraft, error)
}

// SummaryWriter produces the handoff summary for the sales team.
type SummaryWriter interface {
	WriteSummary(ctx context.Context, lead domain.Lead, conv domain.Conversation) (string, error)
}

// Orchestrator advances a qualification conversation one step at a time.
// Collaborator failures never corrupt the conversation: every external call
// is retried once and then degrades to a canned template.
type Orchestrator struct {
	scorer   ReplyScorer
	drafter  QuestionDrafter
	writer   SummaryWriter
	maxTurns int
	log      *logger.Logger

	// retryDelay is shortened in tests.
	retryDelay time.Duration
}

func NewOrchestrator(scorer ReplyScorer, drafter QuestionDrafter, writer SummaryWriter, maxTurns int, log *logger.Logger) *Orchestrator {
	if maxTurns <= 0 {
		maxTurns = 6
	}
	return &Orchestrator{
		scorer:     scorer,
		drafter:    drafter,
		writer:     writer,
		maxTurns:   maxTurns,
		log:        log,
		retryDelay: 500 * time.Millisecond,
	}
}

// Step advances the conversation given the latest inbound reply (empty for
// the opening step). It returns the new conversation value and the outbound
// action. Steps on a closed conversation fail with ErrConversationClosed.
//
// Callers must serialize Step per lead id; two concurrent steps on stale
// copies of the same conversation would lose a scored turn.
func (o *Orchestrator) Step(ctx context.Context, lead domain.Lead, conv domain.Conversation, reply string) (domain.Conversation, OutboundAction, error) {
	now := time.Now().UTC()

	if conv.Status.Terminal() {
		// A qualified conversation whose CRM push failed earlier is
		// still open for exactly one thing: retrying the handoff.
		if conv.Status == domain.StatusQualified && !conv.HandedOff {
			return o.handoff(ctx, lead, conv)
		}
		return conv, OutboundAction{Kind: ActionNone}, domain.ErrConversationClosed
	}

	// 1. Fold in the reply, if one arrived for an open slot.
	if reply != "" && conv.AwaitingReply() {
		assessment := o.scoreWithRecovery(ctx, scoring.Input{
			Reply:         reply,
			Prior:         conv.Scores,
			PriorAnalysis: conv.Analysis,
		})
		next, err := conv.ApplyReply(reply, assessment, now)
		if err != nil {
			return conv, OutboundAction{Kind: ActionNone}, err
		}
		conv = next

		o.log.QualificationStep(conv.LeadID.String(), string(conv.Status), conv.Scores.Total(), "reply_scored")
	}

	// 2. Qualified ends with a sales handoff, never a new question.
	if conv.Status == domain.StatusQualified {
		return o.handoff(ctx, lead, conv)
	}

	// 3. Turn budget exhausted: close out at whatever the scores justify.
	if len(conv.Turns) >= o.maxTurns {
		return o.exhaust(ctx, lead, conv, now)
	}

	// 4. Otherwise ask about the weakest category.
	next := domain.NextQuestion(conv.Scores, conv.AskedCounts(), conv.Status)
	if next.Conclude {
		// Selector says stop while the rubric still reads qualifying.
		// Closing via the exhausted rule keeps status derivation in one
		// place and prevents a selector/rubric disagreement loop.
		return o.exhaust(ctx, lead, conv, now)
	}

	draft := o.draftWithFallback(ctx, lead, conv, next.Category)
	asked, err := conv.AskQuestion(next.Category, draft.Body, now)
	if err != nil {
		return conv, OutboundAction{Kind: ActionNone}, err
	}

	return asked, OutboundAction{
		Kind:     ActionSendQuestion,
		Category: next.Category,
		Draft:    draft,
	}, nil
}

// handoff emits HandoffToSales with a generated summary. The handed-off
// flag is set by the caller only after the CRM push succeeds, so a failed
// push stays retryable through another Step.
func (o *Orchestrator) handoff(ctx context.Context, lead domain.Lead, conv domain.Conversation) (domain.Conversation, OutboundAction, error) {
	summary, err := o.writer.WriteSummary(ctx, lead, conv)
	if err != nil {
		if retryErr := o.backoff(ctx); retryErr != nil {
			return conv, OutboundAction{Kind: ActionNone}, retryErr
		}
		summary, err = o.writer.WriteSummary(ctx, lead, conv)
	}
	if err != nil {
		o.log.CollaboratorError("nova", "write_summary", err)
		summary = FallbackSummary(lead, conv)
	}

	return conv, OutboundAction{Kind: ActionHandoffToSales, Summary: summary}, nil
}

// exhaust closes the conversation without a handoff. Leads that end up
// Nurturing or Unqualified are not pushed to the CRM; nurturing follow-up
// stays in the email channel.
func (o *Orchestrator) exhaust(ctx context.Context, lead domain.Lead, conv domain.Conversation, now time.Time) (domain.Conversation, OutboundAction, error) {
	closed, err := conv.Exhaust(now)
	if err != nil {
		return conv, OutboundAction{Kind: ActionNone}, err
	}
	if closed.Status == domain.StatusQualified {
		return o.handoff(ctx, lead, closed)
	}

	o.log.QualificationStep(closed.LeadID.String(), string(closed.Status), closed.Scores.Total(), "closed")
	return closed, OutboundAction{Kind: ActionNone}, nil
}

// scoreWithRecovery retries an unavailable scorer once and then keeps the
// prior scores. A reply is never dropped because the collaborator is down.
func (o *Orchestrator) scoreWithRecovery(ctx context.Context, in scoring.Input) domain.Assessment {
	a, err := o.scorer.ScoreReply(ctx, in)
	if err == nil {
		return a
	}
	if errors.Is(err, nova.ErrUnavailable) {
		if o.backoff(ctx) == nil {
			if a, err = o.scorer.ScoreReply(ctx, in); err == nil {
				return a
			}
		}
	}
	o.log.CollaboratorError("nova", "score_reply", err)
	return scoring.Unparsed(in.Prior)
}

// draftWithFallback retries the drafter once and then falls back to the
// canned template for the category.
func (o *Orchestrator) draftWithFallback(ctx context.Context, lead domain.Lead, conv domain.Conversation, cat domain.Category) QuestionDraft {
	draft, err := o.drafter.DraftQuestion(ctx, lead, conv, cat)
	if err == nil {
		return draft
	}
	if o.backoff(ctx) == nil {
		if draft, err = o.drafter.DraftQuestion(ctx, lead, conv, cat); err == nil {
			return draft
		}
	}
	o.log.CollaboratorError("nova", "draft_question", err)
	return FallbackQuestion(lead, cat, conv.AskedCount(cat))
}

func (o *Orchestrator) backoff(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(o.retryDelay):
		return nil
	}
}

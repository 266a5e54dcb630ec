// Package agent is the Nova-backed implementation of the qualification
// collaborators: reply scoring, question drafting, and handoff summaries.
package agent

import (
	"context"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/qualification"
	"leadqual_backend/internal/leads/scoring"
	"leadqual_backend/platform/ai/nova"
	"leadqual_backend/platform/sanitize"
)

// maxReplyLen bounds how much lead-supplied text goes into a prompt.
const maxReplyLen = 4000

// Agent calls the Nova chat-completions service with the qualification
// prompts. The lite model drafts emails; the pro model scores replies and
// writes summaries, where accuracy matters more than latency.
type Agent struct {
	client *nova.Client
}

func New(client *nova.Client) *Agent {
	return &Agent{client: client}
}

// ScoreReply implements scoring.Generator.
func (a *Agent) ScoreReply(ctx context.Context, in scoring.Input, expectedFields []string) (map[string]interface{}, error) {
	reply := sanitize.Text(in.Reply, maxReplyLen)
	return a.client.GenerateStructured(ctx, nova.Request{
		System: getSystemPrompt(),
		Prompt: buildScoringPrompt(reply, in.Prior, in.PriorAnalysis),
		UsePro: true,
	}, expectedFields)
}

// DraftQuestion implements qualification.QuestionDrafter.
func (a *Agent) DraftQuestion(ctx context.Context, lead domain.Lead, conv domain.Conversation, category domain.Category) (qualification.QuestionDraft, error) {
	fields, err := a.client.GenerateStructured(ctx, nova.Request{
		System: getSystemPrompt(),
		Prompt: buildQuestionPrompt(lead, conv, category),
	}, []string{"subject", "body"})
	if err != nil {
		return qualification.QuestionDraft{}, err
	}

	subject, _ := fields["subject"].(string)
	body, _ := fields["body"].(string)
	if body == "" {
		return qualification.QuestionDraft{}, &nova.ParseError{Missing: []string{"body"}}
	}
	return qualification.QuestionDraft{Subject: subject, Body: body}, nil
}

// WriteSummary implements qualification.SummaryWriter.
func (a *Agent) WriteSummary(ctx context.Context, lead domain.Lead, conv domain.Conversation) (string, error) {
	return a.client.Generate(ctx, nova.Request{
		System: getSystemPrompt(),
		Prompt: buildSummaryPrompt(lead, conv),
		UsePro: true,
	})
}

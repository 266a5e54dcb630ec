package agent

import (
	"fmt"
	"strings"

	"leadqual_backend/internal/leads/domain"
)

// getSystemPrompt returns the system prompt shared by all qualification
// prompts: the assistant persona plus the BANT rubric and thresholds.
func getSystemPrompt() string {
	return `You are LeadQual AI, a professional and friendly lead qualification assistant.

Your role is to:
1. Engage leads in natural conversation via email
2. Ask qualifying questions to understand their needs, budget, timeline, and decision-making authority
3. Score leads based on their responses
4. Identify hot leads who are ready to buy

Guidelines:
- Be professional but conversational, not robotic
- Ask one question at a time to avoid overwhelming
- Show genuine interest in helping solve their problems
- Never be pushy or salesy
- Keep emails concise (under 150 words)
- Use the lead's name when available
- Acknowledge their responses before asking follow-up questions

Qualification Criteria (BANT Framework):
- Budget: Can they afford the solution? (25 points max)
- Authority: Are they the decision maker? (25 points max)
- Need: Do they have a clear problem to solve? (25 points max)
- Timeline: Are they ready to buy soon? (25 points max)

Score Thresholds:
- 70+ = Qualified (hot lead, ready for sales)
- 40-69 = Nurturing (interested but not ready)
- Below 40 = Unqualified (not a good fit)`
}

// buildScoringPrompt asks the model to re-assess the four category scores
// in the light of one new reply.
func buildScoringPrompt(reply string, prior domain.Scores, priorAnalysis string) string {
	return fmt.Sprintf(`Analyze the lead's response and update their qualification score.

Lead Response:
%s

Current Scores:
- Budget: %d/25
- Authority: %d/25
- Need: %d/25
- Timeline: %d/25
- Total: %d/100

Previous Analysis:
%s

Instructions:
1. Analyze what the response reveals about BANT criteria
2. Update scores based on new information
3. Scores may go down if the response contradicts earlier answers

Return your response in this JSON format:
{
    "budget_score": <0-25>,
    "authority_score": <0-25>,
    "need_score": <0-25>,
    "timeline_score": <0-25>,
    "analysis": "What we learned from this response",
    "confidence": <0-100>
}`,
		reply,
		prior.Budget, prior.Authority, prior.Need, prior.Timeline, prior.Total(),
		orDash(priorAnalysis))
}

// buildQuestionPrompt asks the model to draft the next qualifying email,
// focused on one category.
func buildQuestionPrompt(lead domain.Lead, conv domain.Conversation, category domain.Category) string {
	return fmt.Sprintf(`Generate the next email to continue qualifying this lead.

Lead Information:
- Name: %s
- Email: %s
- Company: %s
- Initial message: %s

Current Qualification Status:
- Questions asked so far: %d
- Current score: %d/100
- Focus for this email: %s

Conversation History:
%s

Instructions:
1. If this is the first email, introduce yourself and ask about their %s situation
2. If continuing a conversation, acknowledge their last response first
3. Ask exactly one question, aimed at the focus category above
4. Keep the email under 150 words
5. End with a clear question

Return your response in this JSON format:
{
    "subject": "Email subject line",
    "body": "Email body text",
    "question_type": "%s"
}`,
		orDash(lead.Name), orDash(lead.Email), orDash(lead.Company), orDash(lead.Message),
		len(conv.Turns), conv.Scores.Total(), category,
		formatHistory(conv),
		category, category)
}

// buildSummaryPrompt asks the model for the handoff summary sent to sales.
func buildSummaryPrompt(lead domain.Lead, conv domain.Conversation) string {
	return fmt.Sprintf(`Create a brief qualification summary for this lead to pass to the sales team.

Lead Information:
- Name: %s
- Email: %s
- Company: %s
- Score: %d/100 (Budget %d, Authority %d, Need %d, Timeline %d)

Latest Analysis:
%s

Conversation:
%s

Create a concise summary (under 200 words) highlighting:
1. Key pain points and needs
2. Budget indicators
3. Decision-making authority
4. Timeline/urgency
5. Recommended next steps for sales team`,
		orDash(lead.Name), orDash(lead.Email), orDash(lead.Company),
		conv.Scores.Total(), conv.Scores.Budget, conv.Scores.Authority, conv.Scores.Need, conv.Scores.Timeline,
		orDash(conv.Analysis),
		formatHistory(conv))
}

// formatHistory renders the turns as an alternating transcript.
func formatHistory(conv domain.Conversation) string {
	if len(conv.Turns) == 0 {
		return "(no messages yet)"
	}
	var b strings.Builder
	for _, t := range conv.Turns {
		fmt.Fprintf(&b, "Assistant (%s): %s\n", t.Category, t.Question)
		if t.Answered() {
			fmt.Fprintf(&b, "Lead: %s\n", t.Reply)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

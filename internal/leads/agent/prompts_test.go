package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadqual_backend/internal/leads/domain"
)

func TestBuildScoringPromptCarriesPriorScores(t *testing.T) {
	prompt := buildScoringPrompt("we have budget", domain.Scores{Budget: 12, Authority: 3}, "early interest")

	for _, want := range []string{"Budget: 12/25", "Authority: 3/25", "Total: 15/100", "early interest", "we have budget"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("scoring prompt missing %q", want)
		}
	}
}

func TestFormatHistory(t *testing.T) {
	now := time.Now()
	conv := domain.NewConversation(uuid.New(), now)

	if got := formatHistory(conv); got != "(no messages yet)" {
		t.Errorf("empty history = %q", got)
	}

	conv, err := conv.AskQuestion(domain.CategoryBudget, "What is your budget?", now)
	if err != nil {
		t.Fatal(err)
	}
	got := formatHistory(conv)
	if !strings.Contains(got, "Assistant (budget): What is your budget?") {
		t.Errorf("history missing question: %q", got)
	}
	if strings.Contains(got, "Lead:") {
		t.Errorf("unanswered turn should have no lead line: %q", got)
	}

	conv, err = conv.ApplyReply("Around $40k", domain.Assessment{}, now)
	if err != nil {
		t.Fatal(err)
	}
	if got := formatHistory(conv); !strings.Contains(got, "Lead: Around $40k") {
		t.Errorf("history missing reply: %q", got)
	}
}

func TestBuildQuestionPromptFocusesCategory(t *testing.T) {
	lead := domain.Lead{Name: "Sam Lee", Email: "sam@acme.test", Company: "Acme"}
	conv := domain.NewConversation(uuid.New(), time.Now())

	prompt := buildQuestionPrompt(lead, conv, domain.CategoryTimeline)
	if !strings.Contains(prompt, "Focus for this email: timeline") {
		t.Error("question prompt does not name the focus category")
	}
	if !strings.Contains(prompt, "Sam Lee") {
		t.Error("question prompt does not carry the lead name")
	}
}

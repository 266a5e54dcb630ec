package qualification

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"leadqual_backend/internal/leads/domain"
)

//go:embed questions.yaml
var questionsYAML []byte

type templateCatalog struct {
	Subjects  map[string]string   `yaml:"subjects"`
	Questions map[string][]string `yaml:"questions"`
}

var catalog = mustLoadCatalog()

func mustLoadCatalog() templateCatalog {
	var c templateCatalog
	if err := yaml.Unmarshal(questionsYAML, &c); err != nil {
		panic(fmt.Sprintf("qualification: invalid questions.yaml: %v", err))
	}
	for _, cat := range domain.CategoryOrder {
		if len(c.Questions[string(cat)]) == 0 {
			panic(fmt.Sprintf("qualification: questions.yaml has no questions for %s", cat))
		}
	}
	return c
}

// FallbackQuestion returns the canned question for a category. askedBefore
// rotates through the catalog so a repeat ask does not send the identical
// email twice.
func FallbackQuestion(lead domain.Lead, cat domain.Category, askedBefore int) QuestionDraft {
	questions := catalog.Questions[string(cat)]
	body := questions[askedBefore%len(questions)]
	if name := firstName(lead.Name); name != "" {
		body = "Hi " + name + ",\n\n" + body
	}

	subject := catalog.Subjects[string(cat)]
	if subject == "" {
		subject = "A quick question"
	}
	return QuestionDraft{Subject: subject, Body: body}
}

// FallbackSummary is the handoff summary used when the text-generation
// service cannot produce one. It carries the raw scores so sales still gets
// the qualification picture.
func FallbackSummary(lead domain.Lead, conv domain.Conversation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead %s (%s) qualified with a BANT score of %d/100.\n",
		orUnknown(lead.Name), orUnknown(lead.Company), conv.Scores.Total())
	fmt.Fprintf(&b, "Budget %d/25, Authority %d/25, Need %d/25, Timeline %d/25.\n",
		conv.Scores.Budget, conv.Scores.Authority, conv.Scores.Need, conv.Scores.Timeline)
	if conv.Analysis != "" && conv.Analysis != "unparseable" {
		fmt.Fprintf(&b, "Latest analysis: %s\n", conv.Analysis)
	}
	fmt.Fprintf(&b, "Conversation ran %d turns. Full transcript is on the lead record.", len(conv.Turns))
	return b.String()
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}

package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"leadqual_backend/internal/leads/domain"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"", "", "Unknown"},
		{"Cher", "", "Cher"},
		{"Dana Smith", "Dana", "Smith"},
		{"Ana Maria de Souza", "Ana Maria de", "Souza"},
	}
	for _, tt := range tests {
		first, last := splitName(tt.in)
		if first != tt.first || last != tt.last {
			t.Errorf("splitName(%q) = (%q, %q), want (%q, %q)", tt.in, first, last, tt.first, tt.last)
		}
	}
}

func TestBuildDescription(t *testing.T) {
	now := time.Now()
	conv := domain.NewConversation(uuid.New(), now)
	conv.Scores = domain.Scores{Budget: 22, Authority: 20, Need: 18, Timeline: 15}
	conv, _ = conv.AskQuestion(domain.CategoryBudget, "What budget do you have?", now)
	conv, _ = conv.ApplyReply("$50k this quarter", domain.Assessment{Scores: conv.Scores}, now)

	desc := buildDescription(conv, "Ready for sales.")
	for _, want := range []string{"Score: 75/100", "Ready for sales.", "Q (budget): What budget do you have?", "A: $50k this quarter"} {
		if !strings.Contains(desc, want) {
			t.Errorf("description missing %q:\n%s", want, desc)
		}
	}
}

func TestPushLead(t *testing.T) {
	var tokenCalls, createCalls int

	accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		if got := r.FormValue("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123",
			"expires_in":   3600,
		})
	}))
	defer accounts.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		createCalls++
		if got := r.Header.Get("Authorization"); got != "Zoho-oauthtoken tok-123" {
			t.Errorf("authorization = %q", got)
		}
		var payload struct {
			Data []map[string]interface{} `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if len(payload.Data) != 1 {
			t.Fatalf("payload carries %d records, want 1", len(payload.Data))
		}
		record := payload.Data[0]
		if record["Last_Name"] != "Smith" || record["Lead_Status"] != "Qualified" {
			t.Errorf("record = %v", record)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{
				"code":    "SUCCESS",
				"status":  "success",
				"details": map[string]string{"id": "zoho-42"},
			}},
		})
	}))
	defer api.Close()

	client := NewZohoClient(ZohoConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RefreshToken: "refresh",
		AccountsURL:  accounts.URL,
		APIURL:       api.URL,
	})

	lead := domain.Lead{ID: uuid.New(), Name: "Dana Smith", Email: "dana@example.com", Company: "Acme"}
	conv := domain.NewConversation(lead.ID, time.Now())

	id, err := client.PushLead(context.Background(), lead, conv, "summary")
	if err != nil {
		t.Fatalf("PushLead: %v", err)
	}
	if id != "zoho-42" {
		t.Errorf("external id = %q, want zoho-42", id)
	}

	// Second push reuses the cached token.
	if _, err := client.PushLead(context.Background(), lead, conv, "summary"); err != nil {
		t.Fatal(err)
	}
	if tokenCalls != 1 {
		t.Errorf("token endpoint called %d times, want 1 (cached)", tokenCalls)
	}
	if createCalls != 2 {
		t.Errorf("create endpoint called %d times, want 2", createCalls)
	}
}

// Package crm pushes qualified leads to Zoho CRM. The push is not
// idempotent on the Zoho side, so callers guard it with the lead's
// handed-off flag and only mark the lead synced after success.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"leadqual_backend/internal/leads/domain"
)

// Pusher is the CRM collaborator seen by the qualification flow.
type Pusher interface {
	// PushLead creates the lead in the CRM and returns its external id.
	PushLead(ctx context.Context, lead domain.Lead, conv domain.Conversation, summary string) (string, error)
}

// NoopPusher is used in development when no CRM credentials are configured.
type NoopPusher struct{}

func (NoopPusher) PushLead(ctx context.Context, lead domain.Lead, conv domain.Conversation, summary string) (string, error) {
	return "noop-" + lead.ID.String(), nil
}

// ZohoConfig carries the OAuth refresh-token credentials.
type ZohoConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccountsURL  string
	APIURL       string
}

// ZohoClient talks to the Zoho CRM v3 API. Access tokens are minted from
// the refresh token and cached until shortly before expiry.
type ZohoClient struct {
	config ZohoConfig
	client *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewZohoClient(cfg ZohoConfig) *ZohoClient {
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = "https://accounts.zoho.com"
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://www.zohoapis.com/crm/v3"
	}
	return &ZohoClient{
		config: cfg,
		client: &http.Client{Timeout: 20 * time.Second},
	}
}

func (z *ZohoClient) PushLead(ctx context.Context, lead domain.Lead, conv domain.Conversation, summary string) (string, error) {
	first, last := splitName(lead.Name)

	record := map[string]interface{}{
		"Last_Name":   last,
		"Email":       lead.Email,
		"Lead_Source": "LeadQual AI",
		"Lead_Status": "Qualified",
		"Description": buildDescription(conv, summary),
	}
	if first != "" {
		record["First_Name"] = first
	}
	if lead.Company != "" {
		record["Company"] = lead.Company
	}
	if lead.Phone != "" {
		record["Phone"] = lead.Phone
	}
	if lead.JobTitle != "" {
		record["Designation"] = lead.JobTitle
	}
	if lead.Website != "" {
		record["Website"] = lead.Website
	}

	var result struct {
		Data []struct {
			Code    string `json:"code"`
			Status  string `json:"status"`
			Message string `json:"message"`
			Details struct {
				ID string `json:"id"`
			} `json:"details"`
		} `json:"data"`
	}
	if err := z.request(ctx, http.MethodPost, "Leads", map[string]interface{}{
		"data": []interface{}{record},
	}, &result); err != nil {
		return "", err
	}

	if len(result.Data) == 0 {
		return "", fmt.Errorf("zoho: empty create response")
	}
	entry := result.Data[0]
	if entry.Status != "success" {
		return "", fmt.Errorf("zoho: create lead failed: %s (%s)", entry.Message, entry.Code)
	}
	return entry.Details.ID, nil
}

func (z *ZohoClient) request(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	token, err := z.accessTokenFor(ctx)
	if err != nil {
		return err
	}

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, z.config.APIURL+"/"+endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Zoho-oauthtoken "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := z.client.Do(req)
	if err != nil {
		return fmt.Errorf("zoho: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("zoho: status %d", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("zoho: decode response: %w", err)
		}
	}
	return nil
}

// accessTokenFor returns a cached access token, refreshing it when it is
// within a minute of expiry.
func (z *ZohoClient) accessTokenFor(ctx context.Context) (string, error) {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.accessToken != "" && time.Now().Before(z.expiresAt) {
		return z.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {z.config.ClientID},
		"client_secret": {z.config.ClientSecret},
		"refresh_token": {z.config.RefreshToken},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.config.AccountsURL+"/oauth/v2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := z.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("zoho token: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
		Error       string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("zoho token: decode: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("zoho token: refresh failed: %s", result.Error)
	}

	expiresIn := result.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	z.accessToken = result.AccessToken
	z.expiresAt = time.Now().Add(time.Duration(expiresIn-60) * time.Second)
	return z.accessToken, nil
}

// buildDescription renders the qualification picture into the CRM
// description field.
func buildDescription(conv domain.Conversation, summary string) string {
	var b strings.Builder
	b.WriteString("=== LeadQual AI Qualification ===\n")
	fmt.Fprintf(&b, "Score: %d/100 (Budget %d, Authority %d, Need %d, Timeline %d)\n",
		conv.Scores.Total(), conv.Scores.Budget, conv.Scores.Authority, conv.Scores.Need, conv.Scores.Timeline)

	if summary != "" {
		b.WriteString("\n--- Summary ---\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}

	if len(conv.Turns) > 0 {
		b.WriteString("\n--- Qualification Responses ---\n")
		for _, t := range conv.Turns {
			fmt.Fprintf(&b, "Q (%s): %s\n", t.Category, t.Question)
			if t.Answered() {
				fmt.Fprintf(&b, "A: %s\n", t.Reply)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func splitName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", fields[0]
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

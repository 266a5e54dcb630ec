package transport

import (
	"time"

	"github.com/google/uuid"

	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/repository"
)

// Request DTOs
type CreateLeadRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=5,max=20"`
	Company  string `json:"company,omitempty" validate:"omitempty,max=200"`
	JobTitle string `json:"jobTitle,omitempty" validate:"omitempty,max=200"`
	Website  string `json:"website,omitempty" validate:"omitempty,url,max=500"`
	Source   string `json:"source,omitempty" validate:"omitempty,max=100"`
	Message  string `json:"message,omitempty" validate:"omitempty,max=5000"`
}

type ReplyRequest struct {
	Reply string `json:"reply" validate:"required,min=1,max=10000"`
}

type ListLeadsQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=qualifying qualified nurturing unqualified"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
	Offset int    `form:"offset" validate:"omitempty,min=0"`
}

// Response DTOs
type ScoresResponse struct {
	Budget    int `json:"budget"`
	Authority int `json:"authority"`
	Need      int `json:"need"`
	Timeline  int `json:"timeline"`
	Total     int `json:"total"`
}

type TurnResponse struct {
	Category   string     `json:"category"`
	Question   string     `json:"question"`
	Reply      string     `json:"reply,omitempty"`
	AskedAt    time.Time  `json:"askedAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

type LeadResponse struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Phone        string         `json:"phone,omitempty"`
	Company      string         `json:"company,omitempty"`
	JobTitle     string         `json:"jobTitle,omitempty"`
	Website      string         `json:"website,omitempty"`
	Source       string         `json:"source,omitempty"`
	Message      string         `json:"message,omitempty"`
	Status       string         `json:"status"`
	Scores       ScoresResponse `json:"scores"`
	Analysis     string         `json:"analysis,omitempty"`
	Confidence   float64        `json:"confidence"`
	HandedOff    bool           `json:"handedOff"`
	ZohoLeadID   string         `json:"zohoLeadId,omitempty"`
	ZohoSyncedAt *time.Time     `json:"zohoSyncedAt,omitempty"`
	QualifiedAt  *time.Time     `json:"qualifiedAt,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

type LeadDetailResponse struct {
	LeadResponse
	Turns []TurnResponse `json:"turns"`
}

type LeadListResponse struct {
	Items  []LeadResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

type OverviewResponse struct {
	Counts map[string]int `json:"counts"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:      lead.ID,
		Name:    lead.Name,
		Email:   lead.Email,
		Phone:    strDeref(lead.Phone),
		Company:  strDeref(lead.Company),
		JobTitle: strDeref(lead.JobTitle),
		Website:  strDeref(lead.Website),
		Source:   strDeref(lead.Source),
		Message:  strDeref(lead.Message),
		Status:   string(lead.Status),
		Scores: ScoresResponse{
			Budget:    lead.Scores.Budget,
			Authority: lead.Scores.Authority,
			Need:      lead.Scores.Need,
			Timeline:  lead.Scores.Timeline,
			Total:     lead.Scores.Total(),
		},
		Analysis:     strDeref(lead.Analysis),
		Confidence:   lead.Confidence,
		HandedOff:    lead.HandedOff,
		ZohoLeadID:   strDeref(lead.ZohoLeadID),
		ZohoSyncedAt: lead.ZohoSyncedAt,
		QualifiedAt:  lead.QualifiedAt,
		CreatedAt:    lead.CreatedAt,
		UpdatedAt:    lead.UpdatedAt,
	}
}

func ToLeadDetailResponse(lead repository.Lead, conv domain.Conversation) LeadDetailResponse {
	resp := LeadDetailResponse{LeadResponse: ToLeadResponse(lead)}
	for _, t := range conv.Turns {
		resp.Turns = append(resp.Turns, TurnResponse{
			Category:   string(t.Category),
			Question:   t.Question,
			Reply:      t.Reply,
			AskedAt:    t.AskedAt,
			AnsweredAt: t.AnsweredAt,
		})
	}
	return resp
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

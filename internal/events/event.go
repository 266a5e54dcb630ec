// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadqual_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// LeadCreated is published when a new lead enters the system. It triggers
// the opening qualification step.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Email  string    `json:"email"`
	Source string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadReplyReceived is published when a lead answers a qualifying email.
type LeadReplyReceived struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Reply  string    `json:"reply"`
}

func (e LeadReplyReceived) EventName() string { return "leads.reply.received" }

// LeadQualified is published when a conversation reaches the qualified
// threshold, before the CRM push.
type LeadQualified struct {
	BaseEvent
	LeadID  uuid.UUID `json:"leadId"`
	Total   int       `json:"total"`
	Summary string    `json:"summary"`
}

func (e LeadQualified) EventName() string { return "leads.lead.qualified" }

// LeadHandedOff is published after a successful CRM push.
type LeadHandedOff struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ZohoLeadID string    `json:"zohoLeadId"`
}

func (e LeadHandedOff) EventName() string { return "leads.lead.handed_off" }

// LeadHandoffFailed is published when the CRM push fails. The lead stays
// qualified and un-synced; the push is retryable without re-qualification.
type LeadHandoffFailed struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Reason string    `json:"reason"`
}

func (e LeadHandoffFailed) EventName() string { return "leads.lead.handoff_failed" }

// LeadClosed is published when a conversation ends without qualification.
type LeadClosed struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Status string    `json:"status"`
	Total  int       `json:"total"`
}

func (e LeadClosed) EventName() string { return "leads.lead.closed" }

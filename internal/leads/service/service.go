// Package service glues the qualification core to its surroundings:
// persistence, the task queue, email delivery, the CRM, and the event bus.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"leadqual_backend/internal/crm"
	"leadqual_backend/internal/email"
	"leadqual_backend/internal/events"
	"leadqual_backend/internal/leads/domain"
	"leadqual_backend/internal/leads/qualification"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/transport"
	"leadqual_backend/internal/scheduler"
	"leadqual_backend/platform/apperr"
	"leadqual_backend/platform/logger"
	"leadqual_backend/platform/phone"
	"leadqual_backend/platform/sanitize"
)

var (
	ErrLeadNotFound       = apperr.NotFound("lead not found")
	ErrConversationClosed = domain.ErrConversationClosed
	ErrNotQualified       = apperr.Conflict("lead is not qualified for handoff")
	ErrAlreadyHandedOff   = apperr.Conflict("lead was already pushed to the CRM")
)

const maxMessageLen = 5000

type Service struct {
	repo         *repository.Repository
	orchestrator *qualification.Orchestrator
	locks        *qualification.LeadLocks
	pusher       crm.Pusher
	sender       email.Sender
	enqueuer     scheduler.StepEnqueuer
	bus          events.Bus
	salesEmail   string
	log          *logger.Logger
}

func New(
	repo *repository.Repository,
	orchestrator *qualification.Orchestrator,
	pusher crm.Pusher,
	sender email.Sender,
	enqueuer scheduler.StepEnqueuer,
	bus events.Bus,
	salesEmail string,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:         repo,
		orchestrator: orchestrator,
		locks:        qualification.NewLeadLocks(),
		pusher:       pusher,
		sender:       sender,
		enqueuer:     enqueuer,
		bus:          bus,
		salesEmail:   salesEmail,
		log:          log,
	}
}

// Create registers a new lead and queues the opening qualification step.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	params := repository.CreateLeadParams{
		Name:  req.Name,
		Email: req.Email,
	}
	if req.Phone != "" {
		normalized := phone.NormalizeE164(req.Phone)
		params.Phone = &normalized
	}
	if req.Company != "" {
		params.Company = &req.Company
	}
	if req.JobTitle != "" {
		params.JobTitle = &req.JobTitle
	}
	if req.Website != "" {
		params.Website = &req.Website
	}
	if req.Source != "" {
		params.Source = &req.Source
	}
	if req.Message != "" {
		msg := sanitize.Text(req.Message, maxMessageLen)
		params.Message = &msg
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Email:     lead.Email,
		Source:    req.Source,
	})

	if err := s.enqueuer.EnqueueQualificationStep(ctx, scheduler.QualificationStepPayload{
		LeadID: lead.ID.String(),
	}); err != nil {
		// The lead exists either way; the opening step can be kicked off
		// again through the reply endpoint or a manual push.
		s.log.Error("failed to enqueue opening qualification step", "leadId", lead.ID, "error", err)
	}

	return transport.ToLeadResponse(lead), nil
}

// HandleReply queues a qualification step for an inbound reply.
func (s *Service) HandleReply(ctx context.Context, leadID uuid.UUID, reply string) error {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrLeadNotFound
		}
		return err
	}
	if lead.Status.Terminal() && lead.HandedOff {
		return ErrConversationClosed
	}

	reply = sanitize.Text(reply, maxMessageLen)

	s.bus.Publish(ctx, events.LeadReplyReceived{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Reply:     reply,
	})

	return s.enqueuer.EnqueueQualificationStep(ctx, scheduler.QualificationStepPayload{
		LeadID: leadID.String(),
		Reply:  reply,
	})
}

// HandleInboundEmail resolves a reply by sender address, for mail webhooks
// that do not know the lead id.
func (s *Service) HandleInboundEmail(ctx context.Context, fromEmail, reply string) error {
	lead, err := s.repo.GetByEmail(ctx, fromEmail)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrLeadNotFound
		}
		return err
	}
	return s.HandleReply(ctx, lead.ID, reply)
}

// RunStep executes one qualification step under the lead's lock. This is
// the scheduler worker's entry point; all conversation mutation funnels
// through here so steps for one lead never interleave.
func (s *Service) RunStep(ctx context.Context, leadID uuid.UUID, reply string) error {
	unlock := s.locks.Lock(leadID)
	defer unlock()

	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrLeadNotFound
		}
		return err
	}
	conv, err := s.repo.GetConversation(ctx, leadID)
	if err != nil {
		return err
	}

	next, action, err := s.orchestrator.Step(ctx, lead.Snapshot(), conv, reply)
	if err != nil {
		if errors.Is(err, domain.ErrConversationClosed) {
			// Late reply on a finished conversation. Nothing to do and
			// nothing to retry.
			s.log.Info("step on closed conversation ignored", "leadId", leadID)
			return nil
		}
		return err
	}

	if err := s.repo.SaveConversation(ctx, next); err != nil {
		return err
	}

	return s.perform(ctx, lead, next, action)
}

// RetryHandoff re-runs the step for a qualified, un-synced lead, which
// yields the handoff action again.
func (s *Service) RetryHandoff(ctx context.Context, leadID uuid.UUID) error {
	return s.RunStep(ctx, leadID, "")
}

// perform carries out the orchestrator's outbound action.
func (s *Service) perform(ctx context.Context, lead repository.Lead, conv domain.Conversation, action qualification.OutboundAction) error {
	switch action.Kind {
	case qualification.ActionSendQuestion:
		if err := s.sender.SendQualificationEmail(ctx, lead.Email, lead.Name, action.Draft.Subject, action.Draft.Body); err != nil {
			// The turn is already persisted; a delivery failure must not
			// fail the task and replay the step.
			s.log.Error("failed to send qualification email", "leadId", lead.ID, "error", err)
		}
		return nil

	case qualification.ActionHandoffToSales:
		return s.handoff(ctx, lead, conv, action.Summary)

	default:
		if conv.Status.Terminal() && conv.Status != domain.StatusQualified {
			s.bus.Publish(ctx, events.LeadClosed{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    lead.ID,
				Status:    string(conv.Status),
				Total:     conv.Scores.Total(),
			})
		}
		return nil
	}
}

// handoff pushes the lead to the CRM exactly once. The handed-off flag is
// persisted only after the push succeeds; a failure leaves the lead
// qualified and un-synced, and a delayed retry task is queued.
func (s *Service) handoff(ctx context.Context, lead repository.Lead, conv domain.Conversation, summary string) error {
	s.bus.Publish(ctx, events.LeadQualified{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Total:     conv.Scores.Total(),
		Summary:   summary,
	})

	zohoID, err := s.pusher.PushLead(ctx, lead.Snapshot(), conv, summary)
	if err != nil {
		s.log.CollaboratorError("zoho", "push_lead", err)
		s.bus.Publish(ctx, events.LeadHandoffFailed{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			Reason:    err.Error(),
		})
		if qErr := s.enqueuer.EnqueueHandoffPush(ctx, scheduler.HandoffPushPayload{
			LeadID: lead.ID.String(),
		}, 5*time.Minute); qErr != nil {
			s.log.Error("failed to queue handoff retry", "leadId", lead.ID, "error", qErr)
		}
		return fmt.Errorf("crm push: %w", err)
	}

	if err := s.repo.MarkSynced(ctx, lead.ID, zohoID); err != nil {
		return err
	}

	s.bus.Publish(ctx, events.LeadHandedOff{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		ZohoLeadID: zohoID,
	})

	if s.salesEmail != "" {
		if err := s.sender.SendHandoffNotification(ctx, s.salesEmail, lead.Name, conv.Scores.Total(), summary); err != nil {
			s.log.Error("failed to send handoff notification", "leadId", lead.ID, "error", err)
		}
	}

	s.log.QualificationStep(lead.ID.String(), string(domain.StatusQualified), conv.Scores.Total(), "handed_off")
	return nil
}

// Get returns one lead with its conversation transcript.
func (s *Service) Get(ctx context.Context, leadID uuid.UUID) (transport.LeadDetailResponse, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if repository.IsNotFound(err) {
			return transport.LeadDetailResponse{}, ErrLeadNotFound
		}
		return transport.LeadDetailResponse{}, err
	}
	conv, err := s.repo.GetConversation(ctx, leadID)
	if err != nil {
		return transport.LeadDetailResponse{}, err
	}
	return transport.ToLeadDetailResponse(lead, conv), nil
}

// List returns leads filtered by status.
func (s *Service) List(ctx context.Context, query transport.ListLeadsQuery) (transport.LeadListResponse, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = 25
	}
	items, total, err := s.repo.List(ctx, repository.ListParams{
		Status: query.Status,
		Limit:  limit,
		Offset: query.Offset,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}

	resp := transport.LeadListResponse{
		Items:  make([]transport.LeadResponse, 0, len(items)),
		Total:  total,
		Limit:  limit,
		Offset: query.Offset,
	}
	for _, lead := range items {
		resp.Items = append(resp.Items, transport.ToLeadResponse(lead))
	}
	return resp, nil
}

// Push manually retries the CRM handoff for a qualified lead.
func (s *Service) Push(ctx context.Context, leadID, operatorID uuid.UUID) error {
	lead, err := s.repo.GetByID(ctx, leadID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrLeadNotFound
		}
		return err
	}
	if lead.Status != domain.StatusQualified {
		return ErrNotQualified
	}
	if lead.HandedOff {
		return ErrAlreadyHandedOff
	}
	s.log.Info("manual CRM push requested", "leadId", leadID, "operatorId", operatorID)
	return s.RetryHandoff(ctx, leadID)
}

// Overview returns lead counts per status.
func (s *Service) Overview(ctx context.Context) (transport.OverviewResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return transport.OverviewResponse{}, err
	}
	resp := transport.OverviewResponse{Counts: make(map[string]int, len(counts))}
	for status, n := range counts {
		resp.Counts[string(status)] = n
	}
	return resp, nil
}

// Package leads provides the lead qualification bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"

	"leadqual_backend/internal/crm"
	"leadqual_backend/internal/email"
	"leadqual_backend/internal/events"
	apphttp "leadqual_backend/internal/http"
	"leadqual_backend/internal/leads/agent"
	"leadqual_backend/internal/leads/handler"
	"leadqual_backend/internal/leads/qualification"
	"leadqual_backend/internal/leads/repository"
	"leadqual_backend/internal/leads/scoring"
	"leadqual_backend/internal/leads/service"
	"leadqual_backend/internal/scheduler"
	"leadqual_backend/platform/ai/nova"
	"leadqual_backend/platform/config"
	"leadqual_backend/platform/logger"
	"leadqual_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(
	pool *pgxpool.Pool,
	eventBus events.Bus,
	val *validator.Validator,
	cfg *config.Config,
	pusher crm.Pusher,
	sender email.Sender,
	enqueuer scheduler.StepEnqueuer,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)

	novaClient := nova.NewClient(nova.Config{
		APIKey:   cfg.GetNovaAPIKey(),
		BaseURL:  cfg.GetNovaBaseURL(),
		Model:    cfg.GetNovaModel(),
		ModelPro: cfg.GetNovaModelPro(),
		Timeout:  cfg.GetNovaTimeout(),
	})
	qualAgent := agent.New(novaClient)

	scorer := scoring.NewScorer(qualAgent, log)
	orchestrator := qualification.NewOrchestrator(
		scorer, qualAgent, qualAgent,
		cfg.GetMaxQualificationTurns(), log,
	)

	svc := service.New(repo, orchestrator, pusher, sender, enqueuer, eventBus, cfg.GetSalesNotifyEmail(), log)

	// Handoff failures are retried by the queue; the subscription keeps a
	// visible audit trail in the logs.
	eventBus.Subscribe(events.LeadHandoffFailed{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.LeadHandoffFailed)
		if !ok {
			return nil
		}
		log.Warn("lead handoff failed, retry queued", "leadId", e.LeadID, "reason", e.Reason)
		return nil
	}))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the leads service, used by the scheduler worker as its
// step runner.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Lead and reply ingestion is public but rate limited; management
	// endpoints require authentication.
	m.handler.RegisterIngestRoutes(ctx.Ingest.Group("/leads"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

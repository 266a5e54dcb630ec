package scheduler

import (
	"context"
	"fmt"

	"leadqual_backend/platform/config"
	"leadqual_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// StepRunner is implemented by the leads service. The worker stays thin:
// parse the payload, delegate, let asynq retry on error.
type StepRunner interface {
	RunStep(ctx context.Context, leadID uuid.UUID, reply string) error
	RetryHandoff(ctx context.Context, leadID uuid.UUID) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner StepRunner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner StepRunner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		runner: runner,
		log:    log,
	}

	mux.HandleFunc(TaskQualificationStep, w.handleQualificationStep)
	mux.HandleFunc(TaskHandoffPush, w.handleHandoffPush)

	return w, nil
}

func (w *Worker) handleQualificationStep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseQualificationStepPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	return w.runner.RunStep(ctx, leadID, payload.Reply)
}

func (w *Worker) handleHandoffPush(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseHandoffPushPayload(task)
	if err != nil {
		return err
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return err
	}

	return w.runner.RetryHandoff(ctx, leadID)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

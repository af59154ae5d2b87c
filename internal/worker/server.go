package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"club-finance/internal/consumers"
	"club-finance/internal/logger"
	"club-finance/internal/services"
)

type Worker struct {
	Processor *consumers.NotificationProcessor
}

func NewWorker(processor *consumers.NotificationProcessor) *Worker {
	return &Worker{
		Processor: processor,
	}
}

func (w *Worker) HandleNotification(ctx context.Context, t *asynq.Task) error {
	var p services.NotificationPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.Processor.ProcessNotification(ctx, p); err != nil {
		if errors.Is(err, consumers.ErrInvalidNotification) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}

// NewServeMux routes every task type this worker understands.
func (w *Worker) NewServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(services.TypeNotification, w.HandleNotification)
	return mux
}

// StartWorker blocks processing tasks until the server is shut down.
func StartWorker(redisOpt asynq.RedisConnOpt, processor *consumers.NotificationProcessor, log *logger.Logger) error {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues:      Queues,
			Logger:      log,
		},
	)

	worker := NewWorker(processor)
	return srv.Run(worker.NewServeMux())
}

// Package outbox moves committed messages out of the database and into a
// message sink. Messages are inserted in the same transaction as the change
// they describe, so the relay never sees an event whose write rolled back.
package outbox

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teachreg/trs-api/internal/models"
	"github.com/teachreg/trs-api/pkg/jobs"
)

type outboxStore interface {
	ListUndispatched(ctx context.Context, limit int) ([]models.OutboxMessage, error)
	MarkDispatched(ctx context.Context, id string) error
}

// MessageSink receives dispatched messages. Implementations hand them to the
// downstream bus (the register service, notify integrations).
type MessageSink interface {
	Send(ctx context.Context, message models.OutboxMessage) error
}

type dispatchRecorder interface {
	RecordOutboxDispatch(status string)
}

// RelayConfig tunes the polling relay.
type RelayConfig struct {
	PollInterval time.Duration
	BatchSize    int
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// Relay polls the outbox table and pushes undispatched messages through a
// worker queue to the sink. Delivery is at-least-once: a message is marked
// dispatched only after the sink accepts it.
type Relay struct {
	store   outboxStore
	sink    MessageSink
	queue   *jobs.Queue
	metrics dispatchRecorder
	logger  *zap.Logger
	cfg     RelayConfig
}

// NewRelay constructs a Relay.
func NewRelay(store outboxStore, sink MessageSink, metrics dispatchRecorder, cfg RelayConfig, logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	r := &Relay{
		store:   store,
		sink:    sink,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
	r.queue = jobs.NewQueue("outbox-relay", r.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return r
}

// Start boots the worker queue and the polling loop. It returns immediately;
// both stop when ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	r.queue.Start(ctx)
	ticker := time.NewTicker(r.cfg.PollInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.poll(ctx)
			}
		}
	}()
}

// Stop drains the worker queue.
func (r *Relay) Stop() {
	r.queue.Stop()
}

func (r *Relay) poll(ctx context.Context) {
	messages, err := r.store.ListUndispatched(ctx, r.cfg.BatchSize)
	if err != nil {
		r.logger.Warn("outbox poll failed", zap.Error(err))
		return
	}
	for _, message := range messages {
		if err := r.queue.Enqueue(jobs.Job{ID: message.ID.String(), Type: message.MessageName, Payload: message}); err != nil {
			r.logger.Warn("failed to enqueue outbox message", zap.String("message_id", message.ID.String()), zap.Error(err))
		}
	}
}

func (r *Relay) deliver(ctx context.Context, job jobs.Job) error {
	message, ok := job.Payload.(models.OutboxMessage)
	if !ok {
		return fmt.Errorf("unexpected payload type for job %s", job.ID)
	}

	// Re-delivery between poll and dispatch is possible; the sink must
	// tolerate duplicates keyed on the message id.
	if err := r.sink.Send(ctx, message); err != nil {
		if r.metrics != nil {
			r.metrics.RecordOutboxDispatch("failed")
		}
		return fmt.Errorf("send outbox message %s: %w", message.ID, err)
	}

	if err := r.store.MarkDispatched(ctx, message.ID.String()); err != nil {
		return fmt.Errorf("mark dispatched %s: %w", message.ID, err)
	}
	if r.metrics != nil {
		r.metrics.RecordOutboxDispatch("sent")
	}
	r.logger.Info("outbox message dispatched",
		zap.String("message_id", message.ID.String()),
		zap.String("message_name", message.MessageName))
	return nil
}

// LogSink writes messages to the log. It stands in for a real bus in
// development environments.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Send logs the message payload.
func (s *LogSink) Send(_ context.Context, message models.OutboxMessage) error {
	s.logger.Info("outbox message",
		zap.String("message_id", message.ID.String()),
		zap.String("message_name", message.MessageName),
		zap.ByteString("payload", message.Payload))
	return nil
}

// Package app runs the contact email delivery loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/storefront/internal/services/storefront/storage"
	workerdomain "github.com/louisbranch/storefront/internal/services/worker/domain"
	"go.uber.org/zap"
)

const (
	defaultPollInterval  = 30 * time.Second
	defaultMaxAttempts   = 5
	defaultRetryBackoff  = 30 * time.Second
	defaultRetryMaxDelay = 30 * time.Minute
	defaultBatchSize     = 10
)

// parkedUntil schedules permanently failed messages out of reach of the
// pending query while keeping them visible to admins.
var parkedUntil = time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)

// Config controls polling and retry behavior.
type Config struct {
	PollInterval  time.Duration
	MaxAttempts   int
	RetryBackoff  time.Duration
	RetryMaxDelay time.Duration
	BatchSize     int
}

func (c Config) normalized() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.RetryMaxDelay <= 0 {
		c.RetryMaxDelay = defaultRetryMaxDelay
	}
	if c.RetryMaxDelay < c.RetryBackoff {
		c.RetryMaxDelay = c.RetryBackoff
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	return c
}

// Handler delivers one message.
type Handler interface {
	Handle(ctx context.Context, message storage.ContactMessage) error
}

// DeliveryStore is the slice of contact storage the loop needs.
type DeliveryStore interface {
	ListPendingDeliveries(ctx context.Context, now time.Time, maxAttempts, limit int) ([]storage.ContactMessage, error)
	MarkContactMessageSent(ctx context.Context, id string) error
	RecordDeliveryFailure(ctx context.Context, id, lastError string, nextAttemptAt time.Time) error
}

// Loop polls for unsent contact messages and delivers them.
type Loop struct {
	store   DeliveryStore
	handler Handler
	cfg     Config
	logger  *zap.Logger
	clock   func() time.Time
	wake    chan struct{}
}

// New builds a delivery loop.
func New(store DeliveryStore, handler Handler, cfg Config, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		store:   store,
		handler: handler,
		cfg:     cfg.normalized(),
		logger:  logger,
		clock:   time.Now,
		wake:    make(chan struct{}, 1),
	}
}

// Notify wakes the loop ahead of its next poll. It never blocks.
func (l *Loop) Notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run polls until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	if l.store == nil || l.handler == nil {
		return errors.New("delivery loop requires a store and a handler")
	}
	l.logger.Info("contact delivery loop started",
		zap.Duration("poll_interval", l.cfg.PollInterval),
		zap.Int("max_attempts", l.cfg.MaxAttempts),
	)
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if _, err := l.RunOnce(ctx); err != nil && ctx.Err() == nil {
			l.logger.Warn("contact delivery pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			l.logger.Info("contact delivery loop stopped")
			return nil
		case <-ticker.C:
		case <-l.wake:
		}
	}
}

// RunOnce delivers one batch of due messages and reports how many were sent.
func (l *Loop) RunOnce(ctx context.Context) (int, error) {
	now := l.clock().UTC()
	pending, err := l.store.ListPendingDeliveries(ctx, now, l.cfg.MaxAttempts, l.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list pending deliveries: %w", err)
	}
	sent := 0
	for _, message := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		ok, err := l.deliver(ctx, message, now)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// deliver reports whether the message was sent. A delivery failure is
// recorded and is not an error; only storage failures are returned.
func (l *Loop) deliver(ctx context.Context, message storage.ContactMessage, now time.Time) (bool, error) {
	handleErr := l.handler.Handle(ctx, message)
	if handleErr == nil {
		if err := l.store.MarkContactMessageSent(ctx, message.ID); err != nil {
			return false, fmt.Errorf("mark message %s sent: %w", message.ID, err)
		}
		l.logger.Info("contact message delivered", zap.String("message_id", message.ID))
		return true, nil
	}

	attempt := message.Attempts + 1
	next := now.Add(l.retryDelay(attempt))
	if workerdomain.IsPermanent(handleErr) {
		next = parkedUntil
	}
	if err := l.store.RecordDeliveryFailure(ctx, message.ID, handleErr.Error(), next); err != nil {
		return false, fmt.Errorf("record delivery failure for %s: %w", message.ID, err)
	}
	fields := []zap.Field{
		zap.String("message_id", message.ID),
		zap.Int("attempt", attempt),
		zap.Error(handleErr),
	}
	switch {
	case workerdomain.IsPermanent(handleErr):
		l.logger.Error("contact message delivery failed permanently", fields...)
	case attempt >= l.cfg.MaxAttempts:
		l.logger.Error("contact message delivery gave up", fields...)
	default:
		l.logger.Warn("contact message delivery failed", append(fields, zap.Time("next_attempt_at", next))...)
	}
	return false, nil
}

// retryDelay doubles RetryBackoff per prior attempt, capped at RetryMaxDelay.
func (l *Loop) retryDelay(attempt int) time.Duration {
	delay := l.cfg.RetryBackoff
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= l.cfg.RetryMaxDelay {
			return l.cfg.RetryMaxDelay
		}
	}
	return delay
}

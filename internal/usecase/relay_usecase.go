package usecase

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgerd/internal/domain"
)

// LogRelay tails the transaction log and forwards committed entries.
// Delivery is at-least-once: the cursor only advances past published entries.
type LogRelay struct {
	log       TransactionLog
	publisher EntryPublisher
	interval  time.Duration
	logger    zerolog.Logger
	observer  RelayObserver
	cursor    atomic.Int64
}

// NewLogRelay creates a relay that resumes after sequence afterSequence.
// A non-positive interval falls back to DefaultRelayInterval.
func NewLogRelay(log TransactionLog, publisher EntryPublisher, interval time.Duration, afterSequence int64, logger zerolog.Logger) *LogRelay {
	if interval <= 0 {
		interval = DefaultRelayInterval
	}
	r := &LogRelay{
		log:       log,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
	r.cursor.Store(afterSequence)
	return r
}

// WithObserver reports every pass to o.
func (r *LogRelay) WithObserver(o RelayObserver) *LogRelay {
	r.observer = o
	return r
}

// Cursor returns the last published sequence ID.
func (r *LogRelay) Cursor() int64 {
	return r.cursor.Load()
}

// Run polls until ctx is cancelled.
func (r *LogRelay) Run(ctx context.Context) {
	r.logger.Info().Dur("interval", r.interval).Int64("cursor", r.Cursor()).Msg("log relay started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Int64("cursor", r.Cursor()).Msg("log relay stopped")
			return
		case <-ticker.C:
			sent, err := r.PublishPending(ctx)
			if r.observer != nil {
				r.observer.ObserveRelayPass(sent, r.Cursor(), err)
			}
			if err != nil && ctx.Err() == nil {
				r.logger.Warn().Err(err).Int64("cursor", r.Cursor()).Msg("log relay pass failed")
			}
		}
	}
}

// PublishPending publishes every entry after the cursor and returns how many were sent.
func (r *LogRelay) PublishPending(ctx context.Context) (int, error) {
	entries, err := r.log.ReadLog(ctx, r.Cursor())
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, entry := range entries {
		if err := r.publisher.Publish(ctx, domain.NewEntryCommittedEvent(entry)); err != nil {
			return sent, err
		}
		r.cursor.Store(entry.SequenceID)
		sent++
	}

	return sent, nil
}

// internal/historian/historian.go is an asynchronous consumer that pops session action records
// from a Redis queue and archives them through a Sink.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jason-s-yu/happyfamilies/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// sweepInterval is how often idle sessions are checked for abandonment.
const sweepInterval = time.Minute

// Sink persists archived records. The Postgres history repository satisfies it.
type Sink interface {
	SaveActions(ctx context.Context, recs []game.ActionRecord) error
	MarkAbandoned(ctx context.Context, sessionID string) error
}

// Config tunes batching and abandonment.
type Config struct {
	Queue         string
	BatchSize     int
	FlushInterval time.Duration
	// Inactivity is how long a session may stay silent before it is marked abandoned.
	Inactivity time.Duration
}

// Service batches records popped from the queue and flushes them to the sink, either when the
// batch is full or when FlushInterval has passed since the last flush. It also tracks the last
// activity per session and marks silent sessions abandoned.
type Service struct {
	rdb  *redis.Client
	sink Sink
	cfg  Config
	log  *logrus.Entry

	batch        []game.ActionRecord
	lastFlush    time.Time
	lastActivity map[string]time.Time
}

// New builds a Service. Zero config values fall back to 20 records, 500ms and 10 minutes.
func New(rdb *redis.Client, sink Sink, cfg Config, logger *logrus.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	if cfg.Inactivity <= 0 {
		cfg.Inactivity = 10 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		rdb:          rdb,
		sink:         sink,
		cfg:          cfg,
		log:          logger.WithField("component", "historian"),
		batch:        make([]game.ActionRecord, 0, cfg.BatchSize),
		lastFlush:    time.Now(),
		lastActivity: make(map[string]time.Time),
	}
}

// Run consumes the queue until ctx is cancelled, then flushes whatever is still batched.
func (hs *Service) Run(ctx context.Context) error {
	sweep := time.NewTicker(sweepInterval)
	defer sweep.Stop()

	// BLPop only supports whole-second timeouts.
	popTimeout := max(hs.cfg.FlushInterval, time.Second)

	hs.log.WithField("queue", hs.cfg.Queue).Info("historian started")
	for {
		select {
		case <-ctx.Done():
			hs.flush(context.Background())
			hs.log.Info("historian stopped")
			return nil
		case now := <-sweep.C:
			hs.sweep(ctx, now)
		default:
		}

		res, err := hs.rdb.BLPop(ctx, popTimeout, hs.cfg.Queue).Result()
		switch {
		case err == nil && len(res) == 2:
			// res[0] is the queue name and res[1] the payload.
			hs.handle(res[1], time.Now())
		case err == nil, errors.Is(err, redis.Nil), ctx.Err() != nil:
		default:
			hs.log.WithError(err).Warn("BLPop failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}

		if len(hs.batch) >= hs.cfg.BatchSize || time.Since(hs.lastFlush) >= hs.cfg.FlushInterval {
			hs.flush(ctx)
		}
	}
}

// handle decodes one queued payload into the batch and records the session's activity.
func (hs *Service) handle(payload string, now time.Time) {
	var rec game.ActionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		hs.log.WithError(err).Warn("invalid action record")
		return
	}
	if rec.SessionID == "" {
		hs.log.WithField("action", rec.ActionType).Warn("action record without session id")
		return
	}

	if isTerminal(rec.ActionType) {
		delete(hs.lastActivity, rec.SessionID)
	} else {
		hs.lastActivity[rec.SessionID] = now
	}
	hs.batch = append(hs.batch, rec)
}

// flush writes the batch in one call. A failed batch is logged and dropped.
func (hs *Service) flush(ctx context.Context) {
	hs.lastFlush = time.Now()
	if len(hs.batch) == 0 {
		return
	}
	batch := append([]game.ActionRecord(nil), hs.batch...)
	hs.batch = hs.batch[:0]

	if err := hs.sink.SaveActions(ctx, batch); err != nil {
		hs.log.WithError(err).WithField("records", len(batch)).Error("failed to archive actions")
		return
	}
	hs.log.WithField("records", len(batch)).Debug("archived actions")
}

// sweep marks sessions silent for longer than Inactivity as abandoned. Pending records are
// flushed first so the session row exists.
func (hs *Service) sweep(ctx context.Context, now time.Time) {
	hs.flush(ctx)
	for id, last := range hs.lastActivity {
		if now.Sub(last) <= hs.cfg.Inactivity {
			continue
		}
		if err := hs.sink.MarkAbandoned(ctx, id); err != nil {
			hs.log.WithError(err).WithField("session", id).Warn("failed to mark session abandoned")
			continue
		}
		hs.log.WithField("session", id).Info("marked session abandoned due to inactivity")
		delete(hs.lastActivity, id)
	}
}

func isTerminal(actionType string) bool {
	switch actionType {
	case "game_end", "session_closed", "session_abandoned":
		return true
	}
	return false
}

// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jason-s-yu/happyfamilies/internal/game"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for session action records.
const DefaultQueueName = "happyfamilies_actions"

// recordBuffer is how many records may wait for the background pusher before new ones are dropped.
const recordBuffer = 256

// Publisher pushes session action records onto a Redis list for downstream consumers
// (replay, analytics). It is safe for concurrent use.
type Publisher struct {
	rdb     *redis.Client
	queue   string
	timeout time.Duration
	log     *logrus.Entry

	mu      sync.RWMutex
	closed  bool
	records chan game.ActionRecord
	done    chan struct{}
}

// Connect opens a Redis client for addr/db and verifies it with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewPublisher connects to Redis at addr and starts the background pusher.
func NewPublisher(ctx context.Context, addr string, db int, queue string, logger *logrus.Logger) (*Publisher, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	rdb, err := Connect(ctx, addr, db)
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		rdb:     rdb,
		queue:   queue,
		timeout: 2 * time.Second,
		log:     logger.WithField("component", "action_queue"),
		records: make(chan game.ActionRecord, recordBuffer),
		done:    make(chan struct{}),
	}
	go p.run()
	return p, nil
}

// Publish serializes rec to JSON, then pushes it to the Redis queue.
func (p *Publisher) Publish(ctx context.Context, rec game.ActionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal action record: %w", err)
	}
	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Record is shaped for game.Session.ActionLogFn. It runs with the session lock held, so it only
// enqueues; a full buffer drops the record with a warning. Records arriving after Close are
// ignored.
func (p *Publisher) Record(rec game.ActionRecord) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.records <- rec:
	default:
		p.log.WithFields(logrus.Fields{
			"session": rec.SessionCode,
			"action":  rec.ActionType,
		}).Warn("action queue full, dropping record")
	}
}

// run pushes queued records in order until Close.
func (p *Publisher) run() {
	defer close(p.done)
	for rec := range p.records {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.Publish(ctx, rec); err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{
				"session": rec.SessionCode,
				"action":  rec.ActionType,
			}).Warn("dropping action record")
		}
		cancel()
	}
}

// Queue returns the Redis list name records are pushed to.
func (p *Publisher) Queue() string {
	return p.queue
}

// Close flushes queued records and closes the Redis client. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.records)
	p.mu.Unlock()

	<-p.done
	return p.rdb.Close()
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
)

const (
	recordKeyPrefix    = "cnpie:record:"        // cnpie:record:{user_id}:{project_type} -> record JSON
	recordEventsPrefix = "cnpie:record-events:" // Pub/Sub channel per record
	defaultRecordTTL   = 24 * time.Hour
	maxStoreAttempts   = 3
)

// EventInvalidated tells other sessions their copy of the record is stale.
const EventInvalidated = "invalidated"

// ErrMiss is returned by Get when the record is not cached.
var ErrMiss = errors.New("record not cached")

// Event is published every time a record is written.
type Event struct {
	Type        string             `json:"type"`
	UserID      string             `json:"user_id"`
	ProjectType domain.ProjectType `json:"project_type"`
	StageKey    domain.StageKey    `json:"stage_key,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// RecordCache is the shared client-side store for ProjectRecords, keyed by
// (userID, projectType). The relational store stays the source of truth.
type RecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecordCache(client *redis.Client, ttl time.Duration) *RecordCache {
	if ttl <= 0 {
		ttl = defaultRecordTTL
	}
	return &RecordCache{client: client, ttl: ttl}
}

func (c *RecordCache) Get(ctx context.Context, userID string, pt domain.ProjectType) (*domain.ProjectRecord, error) {
	data, err := c.client.Get(ctx, recordKey(userID, pt)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached record: %w", err)
	}

	var rec domain.ProjectRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached record: %w", err)
	}
	if rec.StageCompletion == nil {
		rec.StageCompletion = map[domain.StageKey]domain.Status{}
	}
	if rec.StageData == nil {
		rec.StageData = map[domain.StageKey]domain.Payload{}
	}
	return &rec, nil
}

// Fill caches a record just read from the store. It never replaces a
// cached copy: the row may be older than one written through by Store.
func (c *RecordCache) Fill(ctx context.Context, rec *domain.ProjectRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := c.client.SetNX(ctx, recordKey(rec.UserID, rec.ProjectType), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to fill record cache: %w", err)
	}
	return nil
}

// Store writes a saved record through to the cache and notifies
// subscribers. A cached copy with a later UpdatedAt is left in place.
func (c *RecordCache) Store(ctx context.Context, rec *domain.ProjectRecord, ev Event) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	payload, err := eventPayload(ev)
	if err != nil {
		return err
	}
	key := recordKey(rec.UserID, rec.ProjectType)

	write := func(tx *redis.Tx) error {
		newer, err := cachedAfter(ctx, tx, key, rec.UpdatedAt)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if !newer {
				pipe.Set(ctx, key, data, c.ttl)
			}
			pipe.Publish(ctx, eventChannel(rec.UserID, rec.ProjectType), payload)
			return nil
		})
		return err
	}

	for i := 0; i < maxStoreAttempts; i++ {
		err = c.client.Watch(ctx, write, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// Drop removes the cached copy and notifies subscribers of the write.
func (c *RecordCache) Drop(ctx context.Context, ev Event) error {
	payload, err := eventPayload(ev)
	if err != nil {
		return err
	}

	pipe := c.client.TxPipeline()
	pipe.Del(ctx, recordKey(ev.UserID, ev.ProjectType))
	pipe.Publish(ctx, eventChannel(ev.UserID, ev.ProjectType), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to drop cached record: %w", err)
	}
	return nil
}

// cachedAfter reports whether the copy under key was written after t.
// An unreadable copy counts as older so it gets replaced.
func cachedAfter(ctx context.Context, tx *redis.Tx, key string, t time.Time) (bool, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	var cached struct {
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &cached); err != nil {
		return false, nil
	}
	return cached.UpdatedAt.After(t), nil
}

func eventPayload(ev Event) ([]byte, error) {
	if ev.Type == "" {
		ev.Type = EventInvalidated
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return payload, nil
}

// Subscribe streams invalidation events for one record until ctx is done or
// the returned close func is called.
func (c *RecordCache) Subscribe(ctx context.Context, userID string, pt domain.ProjectType) (<-chan Event, func() error, error) {
	sub := c.client.Subscribe(ctx, eventChannel(userID, pt))
	// Wait for the subscription to be confirmed so no event published after
	// Subscribe returns is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, sub.Close, nil
}

func recordKey(userID string, pt domain.ProjectType) string {
	return fmt.Sprintf("%s%s:%s", recordKeyPrefix, userID, pt)
}

func eventChannel(userID string, pt domain.ProjectType) string {
	return fmt.Sprintf("%s%s:%s", recordEventsPrefix, userID, pt)
}

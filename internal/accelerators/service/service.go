package service

import (
	"context"
	"errors"
	"time"

	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/cache"
	"github.com/cnpie-acelerador/cnpie-backend/internal/accelerators/domain"
	"github.com/cnpie-acelerador/cnpie-backend/internal/logging"
)

// RecordStore is the relational store holding ProjectRecords.
type RecordStore interface {
	GetOrCreate(ctx context.Context, userID string, pt domain.ProjectType) (*domain.ProjectRecord, error)
	Save(ctx context.Context, rec *domain.ProjectRecord) error
}

// RecordCache is the shared keyed store sitting in front of RecordStore.
type RecordCache interface {
	Get(ctx context.Context, userID string, pt domain.ProjectType) (*domain.ProjectRecord, error)
	Fill(ctx context.Context, rec *domain.ProjectRecord) error
	Store(ctx context.Context, rec *domain.ProjectRecord, ev cache.Event) error
	Drop(ctx context.Context, ev cache.Event) error
	Subscribe(ctx context.Context, userID string, pt domain.ProjectType) (<-chan cache.Event, func() error, error)
}

// ErrSubscriptionsDisabled is returned by Subscribe when no cache is configured.
var ErrSubscriptionsDisabled = errors.New("record subscriptions are not enabled")

// Service opens Trackers over the project record of a (user, project type).
type Service struct {
	store  RecordStore
	cache  RecordCache
	layout domain.Layout
	now    func() time.Time
}

type Option func(*Service)

func WithCache(c RecordCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithLayout(l domain.Layout) Option {
	return func(s *Service) { s.layout = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store RecordStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		layout: domain.DefaultLayout,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Layout() domain.Layout { return s.layout }

// Open loads the record, creating it on first access, and returns a Tracker
// holding it in memory.
func (s *Service) Open(ctx context.Context, userID string, pt domain.ProjectType) (*Tracker, error) {
	logger := logging.NewLogger(ctx)

	if s.cache != nil {
		rec, err := s.cache.Get(ctx, userID, pt)
		if err == nil {
			return newTracker(s, rec), nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			logger.LogWarnf("open_record", "cache read failed user=%s project_type=%s: %v", userID, pt, err)
		}
	}

	rec, err := s.store.GetOrCreate(ctx, userID, pt)
	if err != nil {
		logger.LogError("open_record", err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Fill(ctx, rec); err != nil {
			logger.LogWarnf("open_record", "cache fill failed user=%s project_type=%s: %v", userID, pt, err)
		}
	}
	return newTracker(s, rec), nil
}

// RecordID returns the id of the (user, project type) record, creating it
// on first access. Sub-resources of a project hang off this id.
func (s *Service) RecordID(ctx context.Context, userID string, pt domain.ProjectType) (string, error) {
	tr, err := s.Open(ctx, userID, pt)
	if err != nil {
		return "", err
	}
	return tr.Record().ID, nil
}

// Subscribe streams write notifications for one record.
func (s *Service) Subscribe(ctx context.Context, userID string, pt domain.ProjectType) (<-chan cache.Event, func() error, error) {
	if s.cache == nil {
		return nil, nil, ErrSubscriptionsDisabled
	}
	return s.cache.Subscribe(ctx, userID, pt)
}

// persist writes next to the store and, only on success, writes it through
// to the cache. When the cache write fails the cached copy is dropped.
func (s *Service) persist(ctx context.Context, next *domain.ProjectRecord, key domain.StageKey) error {
	if err := s.store.Save(ctx, next); err != nil {
		return err
	}
	if s.cache != nil {
		ev := cache.Event{
			UserID:      next.UserID,
			ProjectType: next.ProjectType,
			StageKey:    key,
			UpdatedAt:   next.UpdatedAt,
		}
		if err := s.cache.Store(ctx, next, ev); err != nil {
			logger := logging.NewLogger(ctx)
			logger.LogWarnf("store_record", "user=%s project_type=%s: %v", next.UserID, next.ProjectType, err)
			if err := s.cache.Drop(ctx, ev); err != nil {
				logger.LogWarnf("drop_record", "user=%s project_type=%s: %v", next.UserID, next.ProjectType, err)
			}
		}
	}
	return nil
}

package progress

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"interntrack/internal/store"
)

// Cache holds materialized snapshots. Writers must call Invalidate after
// every change to a user's entries.
//
// Invalidate bumps a per-user generation. A fill passes the generation it
// observed before reading the store, and Set drops the snapshot when the
// generation has moved since, so a slow fill cannot overwrite a newer write.
type Cache interface {
	Get(ctx context.Context, userID uuid.UUID) (Snapshot, bool, error)
	Generation(ctx context.Context, userID uuid.UUID) (int64, error)
	Set(ctx context.Context, userID uuid.UUID, gen int64, s Snapshot) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

// Service recomputes snapshots from the store, optionally through a Cache.
type Service struct {
	entries store.Entries
	cache   Cache
	log     *zap.Logger
}

func NewService(entries store.Entries, cache Cache, log *zap.Logger) *Service {
	return &Service{entries: entries, cache: cache, log: log}
}

// Snapshot serves the cached snapshot when there is one. It is meant for
// reads that only display progress.
func (s *Service) Snapshot(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	if s.cache == nil {
		return s.Fresh(ctx, userID)
	}

	snap, ok, err := s.cache.Get(ctx, userID)
	if err != nil {
		s.log.Warn("progress cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		return s.Fresh(ctx, userID)
	}
	if ok {
		return snap, nil
	}

	gen, err := s.cache.Generation(ctx, userID)
	if err != nil {
		s.log.Warn("progress cache read failed", zap.String("user_id", userID.String()), zap.Error(err))
		return s.Fresh(ctx, userID)
	}
	snap, err = s.Fresh(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.cache.Set(ctx, userID, gen, snap); err != nil {
		s.log.Warn("progress cache write failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return snap, nil
}

// Fresh aggregates straight from the store. Guards that decide whether a
// write or a compilation is allowed use it instead of Snapshot.
func (s *Service) Fresh(ctx context.Context, userID uuid.UUID) (Snapshot, error) {
	entries, err := s.entries.ListEntries(ctx, userID, store.EntryFilter{})
	if err != nil {
		return Snapshot{}, err
	}
	return Aggregate(entries), nil
}

// Invalidate drops the cached snapshot for userID.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, userID)
}

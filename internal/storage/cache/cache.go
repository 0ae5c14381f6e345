// Package cache provides an LRU decorator for storage.Store.
package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/blue-az/BabAnalysis/internal/domain"
	"github.com/blue-az/BabAnalysis/internal/metrics"
	"github.com/blue-az/BabAnalysis/internal/storage"
)

// Store caches successful loads of the wrapped store. The source files are
// read-only, so entries never go stale within a process lifetime.
type Store struct {
	next     storage.Store
	sessions *lru.Cache[storage.Filter, []domain.Session]
	shots    *lru.Cache[storage.Filter, []domain.Shot]
}

// New wraps next with caches holding up to size entries per table.
func New(next storage.Store, size int) (*Store, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	sessions, err := lru.New[storage.Filter, []domain.Session](size)
	if err != nil {
		return nil, err
	}
	shots, err := lru.New[storage.Filter, []domain.Shot](size)
	if err != nil {
		return nil, err
	}
	return &Store{next: next, sessions: sessions, shots: shots}, nil
}

// Sessions returns cached session rows, loading them on a miss.
func (s *Store) Sessions(ctx context.Context, filter storage.Filter) ([]domain.Session, error) {
	if rows, ok := s.sessions.Get(filter); ok {
		metrics.RecordCacheRequest(string(storage.TableSessions), metrics.CacheHit)
		return cloneSessions(rows), nil
	}
	metrics.RecordCacheRequest(string(storage.TableSessions), metrics.CacheMiss)

	start := time.Now()
	rows, err := s.next.Sessions(ctx, filter)
	if err != nil {
		metrics.RecordLoadError(string(storage.TableSessions), errorKind(err))
		return nil, err
	}
	metrics.RecordLoadLatency(string(storage.TableSessions), float64(time.Since(start).Microseconds())/1000)
	metrics.RecordRowsLoaded(string(storage.TableSessions), len(rows))

	s.sessions.Add(filter, cloneSessions(rows))
	return rows, nil
}

// Shots returns cached shot rows, loading them on a miss.
func (s *Store) Shots(ctx context.Context, filter storage.Filter) ([]domain.Shot, error) {
	if rows, ok := s.shots.Get(filter); ok {
		metrics.RecordCacheRequest(string(storage.TableShots), metrics.CacheHit)
		return cloneShots(rows), nil
	}
	metrics.RecordCacheRequest(string(storage.TableShots), metrics.CacheMiss)

	start := time.Now()
	rows, err := s.next.Shots(ctx, filter)
	if err != nil {
		metrics.RecordLoadError(string(storage.TableShots), errorKind(err))
		return nil, err
	}
	metrics.RecordLoadLatency(string(storage.TableShots), float64(time.Since(start).Microseconds())/1000)
	metrics.RecordRowsLoaded(string(storage.TableShots), len(rows))

	s.shots.Add(filter, cloneShots(rows))
	return rows, nil
}

// Purge drops every cached entry.
func (s *Store) Purge() {
	s.sessions.Purge()
	s.shots.Purge()
}

// Len returns the number of cached entries across both tables.
func (s *Store) Len() int {
	return s.sessions.Len() + s.shots.Len()
}

// Close closes the wrapped store.
func (s *Store) Close() error {
	s.Purge()
	return s.next.Close()
}

func errorKind(err error) string {
	switch {
	case storage.IsSchemaMismatch(err):
		return "schema_mismatch"
	case storage.IsDataUnavailable(err):
		return "data_unavailable"
	default:
		return "other"
	}
}

// cloneSessions copies the slice and the nested spin slices so callers cannot
// alias cached rows.
func cloneSessions(rows []domain.Session) []domain.Session {
	if rows == nil {
		return nil
	}
	out := make([]domain.Session, len(rows))
	copy(out, rows)
	for i := range out {
		if out[i].Spin != nil {
			out[i].Spin = append([]domain.SpinCount(nil), out[i].Spin...)
		}
	}
	return out
}

func cloneShots(rows []domain.Shot) []domain.Shot {
	if rows == nil {
		return nil
	}
	out := make([]domain.Shot, len(rows))
	copy(out, rows)
	return out
}

var _ storage.Store = (*Store)(nil)

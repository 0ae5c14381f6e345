// Package storage provides read access to the sensor session and shot tables.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blue-az/BabAnalysis/internal/domain"
)

// Table identifies one of the two tabular sources.
type Table string

const (
	TableSessions Table = "sessions"
	TableShots    Table = "shots"
)

// Filter narrows a load. The zero value loads every row.
type Filter struct {
	SessionID int64 // 0 means all sessions
}

// Store is the interface for the read-only sensor data sources.
type Store interface {
	// Sessions returns session summary rows. Start and End are in UTC.
	Sessions(ctx context.Context, filter Filter) ([]domain.Session, error)

	// Shots returns shot rows with wall clock timestamps.
	Shots(ctx context.Context, filter Filter) ([]domain.Shot, error)

	// Lifecycle
	Close() error
}

// ErrDataUnavailable is returned when a source is missing or unreadable.
type ErrDataUnavailable struct {
	Source string
	Err    error
}

func (e ErrDataUnavailable) Error() string {
	if e.Err == nil {
		return "data unavailable: " + e.Source
	}
	return fmt.Sprintf("data unavailable: %s: %v", e.Source, e.Err)
}

func (e ErrDataUnavailable) Unwrap() error {
	return e.Err
}

// ErrSchemaMismatch is returned when a table or its expected columns are absent.
type ErrSchemaMismatch struct {
	Table   string
	Missing []string
}

func (e ErrSchemaMismatch) Error() string {
	return "schema mismatch: " + e.Table + " missing columns: " + strings.Join(e.Missing, ", ")
}

// IsDataUnavailable checks if an error is a data unavailable error.
func IsDataUnavailable(err error) bool {
	var target ErrDataUnavailable
	return errors.As(err, &target)
}

// IsSchemaMismatch checks if an error is a schema mismatch error.
func IsSchemaMismatch(err error) bool {
	var target ErrSchemaMismatch
	return errors.As(err, &target)
}

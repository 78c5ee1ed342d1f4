package repository

import (
	"context"
	"time"

	"github.com/resolvewatch/api/internal/domain"
)

// QueryLogRepository reads the resolver's append-only DNS query log.
type QueryLogRepository interface {
	// ListBySystemWindow returns events for one system with
	// from < log_time < to, ascending by log_time.
	ListBySystemWindow(ctx context.Context, systemID string, from, to time.Time) ([]domain.QueryEvent, error)
	// CountByDay groups log rows whose requested name ends with the
	// given domain by month-day key and result kind.
	CountByDay(ctx context.Context, domainSuffix string) ([]domain.DayResultCount, error)
	// ListAfter returns events newer than the given id, ascending,
	// capped at limit. Used by the live tail.
	ListAfter(ctx context.Context, id int64, limit int) ([]domain.QueryEvent, error)
	// LatestID returns the highest event id, or zero when the log is
	// empty. The live tail starts its cursor here.
	LatestID(ctx context.Context) (int64, error)
}

// BlocklistRepository reads blocklist membership facts.
type BlocklistRepository interface {
	// SourceForSite returns the source tag of the entry whose site
	// equals the value verbatim, or ErrNotFound.
	SourceForSite(ctx context.Context, site string) (string, error)
	// SourceForSuffix returns the source tag of the first entry whose
	// site ends with the value, or ErrNotFound.
	SourceForSuffix(ctx context.Context, suffix string) (string, error)
}

// WhoisRepository persists fetched registration records.
type WhoisRepository interface {
	// FindRecord returns the first stored record for the domain, or
	// ErrNotFound. Records are reused indefinitely once stored.
	FindRecord(ctx context.Context, site string) (*domain.WhoisRecord, error)
	// SaveRecord appends a record. Existing rows are never touched.
	SaveRecord(ctx context.Context, record *domain.WhoisRecord) error
}

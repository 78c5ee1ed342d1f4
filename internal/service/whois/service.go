package whois

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"log/slog"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/repository"
)

// Fetcher performs one remote registration lookup.
type Fetcher interface {
	Fetch(ctx context.Context, domainName string) ([]byte, error)
}

// Result is a decoded registration with its retrieval metadata.
type Result struct {
	Registration domain.Registration `json:"registration"`
	SavedAt      time.Time           `json:"saved_at"`
	Cached       bool                `json:"cached"`
}

// Service looks up registration records cache-aside: the local store is
// always checked before the provider, which bounds paid call volume.
// Cached records never expire and are never re-fetched.
type Service struct {
	cache    repository.WhoisRepository
	provider Fetcher
	logger   *slog.Logger
	now      func() time.Time
}

// New returns a whois lookup service.
func New(cache repository.WhoisRepository, provider Fetcher, logger *slog.Logger) Service {
	return Service{cache: cache, provider: provider, logger: logger, now: time.Now}
}

// Lookup resolves the registration record for a domain. A cache hit is
// returned as stored, with no freshness check. On miss the provider is
// called once; a successful response body is persisted unconditionally
// before decoding, so a retry never re-spends provider quota.
func (s Service) Lookup(ctx context.Context, domainName string) (*Result, error) {
	record, err := s.cache.FindRecord(ctx, domainName)
	if err == nil {
		return s.decode(record, true)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, repository.NewQueryError("whois cache", err)
	}

	raw, err := s.provider.Fetch(ctx, domainName)
	if err != nil {
		return nil, err
	}

	record = &domain.WhoisRecord{
		Domain:  domainName,
		SavedAt: s.now().UTC(),
		Raw:     raw,
	}
	if err := s.cache.SaveRecord(ctx, record); err != nil {
		// The fetch already succeeded; losing the cache write costs
		// quota on the next lookup but must not fail this one.
		s.logger.Error("failed to cache whois record", "domain", domainName, "error", err)
	}
	return s.decode(record, false)
}

func (s Service) decode(record *domain.WhoisRecord, cached bool) (*Result, error) {
	var reg domain.Registration
	if err := json.Unmarshal(record.Raw, &reg); err != nil {
		return nil, fmt.Errorf("decode whois payload for %s: %w", record.Domain, err)
	}
	if reg.Error != "" {
		return nil, &PayloadError{Domain: record.Domain, Message: reg.Error}
	}
	return &Result{Registration: reg, SavedAt: record.SavedAt, Cached: cached}, nil
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.QueryLogRepository  = (*Repository)(nil)
	_ repository.BlocklistRepository = (*Repository)(nil)
	_ repository.WhoisRepository     = (*Repository)(nil)
)

// ListBySystemWindow returns query events for one system inside an open
// time interval, ascending by log time.
func (r *Repository) ListBySystemWindow(ctx context.Context, systemID string, from, to time.Time) ([]domain.QueryEvent, error) {
	const query = `SELECT id, log_time, sys, dns_request, dns_result
		FROM dnslog
		WHERE sys = $1 AND log_time > $2 AND log_time < $3
		ORDER BY log_time ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, systemID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.QueryEvent, 0)
	for rows.Next() {
		var (
			e      domain.QueryEvent
			result string
		)
		if err := rows.Scan(&e.ID, &e.Time, &e.SystemID, &e.RequestedName, &result); err != nil {
			return nil, err
		}
		e.Result = domain.QueryResult(result)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByDay groups matching log rows by month-day and result kind. The
// match is a suffix match of the requested name against the domain.
func (r *Repository) CountByDay(ctx context.Context, domainSuffix string) ([]domain.DayResultCount, error) {
	const query = `SELECT to_char(log_time, 'MM-DD') AS log_day, dns_result, COUNT(1)
		FROM dnslog
		WHERE dns_request LIKE '%' || $1
		GROUP BY dns_result, log_day`
	rows, err := r.pool.Query(ctx, query, domainSuffix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]domain.DayResultCount, 0)
	for rows.Next() {
		var (
			c      domain.DayResultCount
			result string
		)
		if err := rows.Scan(&c.Day, &result, &c.Count); err != nil {
			return nil, err
		}
		c.Result = domain.QueryResult(result)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// ListAfter returns events newer than the given id, ascending, capped at limit.
func (r *Repository) ListAfter(ctx context.Context, id int64, limit int) ([]domain.QueryEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, log_time, sys, dns_request, dns_result
		FROM dnslog WHERE id > $1 ORDER BY id ASC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, id, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.QueryEvent, 0)
	for rows.Next() {
		var (
			e      domain.QueryEvent
			result string
		)
		if err := rows.Scan(&e.ID, &e.Time, &e.SystemID, &e.RequestedName, &result); err != nil {
			return nil, err
		}
		e.Result = domain.QueryResult(result)
		events = append(events, e)
	}
	return events, rows.Err()
}

// LatestID returns the highest query event id, or zero for an empty log.
func (r *Repository) LatestID(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(MAX(id), 0) FROM dnslog`
	var id int64
	if err := r.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

// SourceForSite returns the source tag of the blocklist entry matching the
// site verbatim.
func (r *Repository) SourceForSite(ctx context.Context, site string) (string, error) {
	const query = `SELECT bl_source FROM blocklist WHERE site = $1 LIMIT 1`
	var source string
	if err := r.pool.QueryRow(ctx, query, site).Scan(&source); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return source, nil
}

// SourceForSuffix returns the source tag of the first blocklist entry whose
// site ends with the given suffix.
func (r *Repository) SourceForSuffix(ctx context.Context, suffix string) (string, error) {
	const query = `SELECT bl_source FROM blocklist WHERE site LIKE '%' || $1 LIMIT 1`
	var source string
	if err := r.pool.QueryRow(ctx, query, suffix).Scan(&source); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return source, nil
}

// FindRecord returns the earliest stored whois record for the domain.
func (r *Repository) FindRecord(ctx context.Context, site string) (*domain.WhoisRecord, error) {
	const query = `SELECT id, save_time, site, record FROM whois WHERE site = $1 ORDER BY id ASC LIMIT 1`
	row := r.pool.QueryRow(ctx, query, site)
	var (
		rec domain.WhoisRecord
		raw string
	)
	if err := row.Scan(&rec.ID, &rec.SavedAt, &rec.Domain, &raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	rec.Raw = []byte(raw)
	return &rec, nil
}

// SaveRecord appends a whois record. Rows are insert-only; a re-fetch for
// the same domain adds a new row and reads keep using the first one.
func (r *Repository) SaveRecord(ctx context.Context, record *domain.WhoisRecord) error {
	const query = `INSERT INTO whois (save_time, site, record) VALUES ($1, $2, $3) RETURNING id`
	return r.pool.QueryRow(ctx, query, record.SavedAt, record.Domain, string(record.Raw)).Scan(&record.ID)
}

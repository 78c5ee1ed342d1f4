package histogram

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/repository"
)

type fakeQueryRepo struct {
	counts     []domain.DayResultCount
	err        error
	lastSuffix string
}

func (f *fakeQueryRepo) CountByDay(ctx context.Context, domainSuffix string) ([]domain.DayResultCount, error) {
	f.lastSuffix = domainSuffix
	return f.counts, f.err
}

func (f *fakeQueryRepo) ListBySystemWindow(context.Context, string, time.Time, time.Time) ([]domain.QueryEvent, error) {
	return nil, nil
}

func (f *fakeQueryRepo) ListAfter(context.Context, int64, int) ([]domain.QueryEvent, error) {
	return nil, nil
}

func (f *fakeQueryRepo) LatestID(context.Context) (int64, error) { return 0, nil }

func newTestService(repo repository.QueryLogRepository, today time.Time) Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(repo, logger)
	svc.now = func() time.Time { return today }
	return svc
}

func TestAggregateEmptyStoreYieldsAllZeroSeries(t *testing.T) {
	today := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeQueryRepo{}, today)

	series, err := svc.Aggregate(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	if len(series) != 31 {
		t.Fatalf("expected 31 buckets, got %d", len(series))
	}
	if series[0].Day != "02-12" {
		t.Fatalf("expected first bucket 02-12, got %q", series[0].Day)
	}
	if series[30].Day != "03-14" {
		t.Fatalf("expected last bucket 03-14, got %q", series[30].Day)
	}
	for _, point := range series {
		if point.Allowed != 0 || point.Blocked != 0 {
			t.Fatalf("expected zero counts, got %+v", point)
		}
	}
}

func TestAggregateMergesAllowedAndBlocked(t *testing.T) {
	today := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	repo := &fakeQueryRepo{counts: []domain.DayResultCount{
		{Day: "03-10", Result: domain.ResultAllowed, Count: 5},
		{Day: "03-10", Result: domain.ResultBlocked, Count: 2},
		{Day: "03-14", Result: domain.ResultBlocked, Count: 7},
	}}
	svc := newTestService(repo, today)

	series, err := svc.Aggregate(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	if repo.lastSuffix != "example.com" {
		t.Fatalf("expected suffix to pass through, got %q", repo.lastSuffix)
	}

	byDay := make(map[string]domain.DailyCount, len(series))
	for _, point := range series {
		byDay[point.Day] = point
	}
	if got := byDay["03-10"]; got.Allowed != 5 || got.Blocked != 2 {
		t.Fatalf("unexpected 03-10 counts %+v", got)
	}
	if got := byDay["03-14"]; got.Allowed != 0 || got.Blocked != 7 {
		t.Fatalf("unexpected 03-14 counts %+v", got)
	}
}

func TestAggregateDiscardsOutOfRangeAndLocal(t *testing.T) {
	today := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	repo := &fakeQueryRepo{counts: []domain.DayResultCount{
		{Day: "01-01", Result: domain.ResultAllowed, Count: 99},
		{Day: "03-10", Result: domain.ResultLocal, Count: 4},
	}}
	svc := newTestService(repo, today)

	series, err := svc.Aggregate(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	for _, point := range series {
		if point.Allowed != 0 || point.Blocked != 0 {
			t.Fatalf("expected out-of-range and local rows discarded, got %+v", point)
		}
	}
}

func TestAggregateSpansMonthBoundary(t *testing.T) {
	today := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	svc := newTestService(&fakeQueryRepo{}, today)

	series, err := svc.Aggregate(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Aggregate returned error: %v", err)
	}
	if series[0].Day != "12-06" {
		t.Fatalf("expected series to start 12-06, got %q", series[0].Day)
	}
	if series[30].Day != "01-05" {
		t.Fatalf("expected series to end 01-05, got %q", series[30].Day)
	}
}

func TestAggregateWrapsStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	svc := newTestService(&fakeQueryRepo{err: storeErr}, time.Now())

	_, err := svc.Aggregate(context.Background(), "example.com")
	var queryErr *repository.QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected *repository.QueryError, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

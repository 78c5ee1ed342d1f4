package investigate

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/repository"
	"github.com/resolvewatch/api/internal/service/attribution"
	"github.com/resolvewatch/api/internal/service/correlate"
	"github.com/resolvewatch/api/internal/service/histogram"
	"github.com/resolvewatch/api/internal/service/whois"
)

type fakeQueryRepo struct {
	events    []domain.QueryEvent
	counts    []domain.DayResultCount
	windowErr error
	countErr  error
}

func (f *fakeQueryRepo) ListBySystemWindow(context.Context, string, time.Time, time.Time) ([]domain.QueryEvent, error) {
	return f.events, f.windowErr
}

func (f *fakeQueryRepo) CountByDay(context.Context, string) ([]domain.DayResultCount, error) {
	return f.counts, f.countErr
}

func (f *fakeQueryRepo) ListAfter(context.Context, int64, int) ([]domain.QueryEvent, error) {
	return nil, nil
}

func (f *fakeQueryRepo) LatestID(context.Context) (int64, error) { return 0, nil }

type fakeBlocklistRepo struct{}

func (fakeBlocklistRepo) SourceForSite(context.Context, string) (string, error) {
	return "", repository.ErrNotFound
}

func (fakeBlocklistRepo) SourceForSuffix(context.Context, string) (string, error) {
	return "", repository.ErrNotFound
}

type fakeWhoisRepo struct {
	record *domain.WhoisRecord
}

func (f *fakeWhoisRepo) FindRecord(context.Context, string) (*domain.WhoisRecord, error) {
	if f.record != nil {
		return f.record, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWhoisRepo) SaveRecord(context.Context, *domain.WhoisRecord) error { return nil }

type stubFetcher struct {
	body []byte
	err  error
}

func (s stubFetcher) Fetch(context.Context, string) ([]byte, error) {
	return s.body, s.err
}

type testOption func(*testDeps)

type testDeps struct {
	queries   *fakeQueryRepo
	whoisRepo *fakeWhoisRepo
	fetcher   whois.Fetcher
	keySet    bool
}

func newTestService(opts ...testOption) Service {
	deps := &testDeps{
		queries:   &fakeQueryRepo{},
		whoisRepo: &fakeWhoisRepo{},
		fetcher:   stubFetcher{body: []byte(`{"domain":"example.com"}`)},
		keySet:    true,
	}
	for _, opt := range opts {
		opt(deps)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	attributor := attribution.New(fakeBlocklistRepo{}, logger)
	correlator := correlate.New(deps.queries, attributor, logger, "https://duckduckgo.com/?q=", "https://who.is/whois/")
	whoisSvc := whois.New(deps.whoisRepo, deps.fetcher, logger)
	histogramSvc := histogram.New(deps.queries, logger)
	return New(correlator, whoisSvc, histogramSvc, logger, deps.keySet)
}

func TestInvestigateRunsAllSections(t *testing.T) {
	svc := newTestService(func(deps *testDeps) {
		deps.queries.events = []domain.QueryEvent{
			{ID: 1, RequestedName: "tracker.example.com", Result: domain.ResultAllowed},
		}
	})

	report, err := svc.Investigate(context.Background(), Params{
		Site:     "tracker.example.com",
		System:   "192.168.0.2",
		Datetime: "2026-03-14 12:30:00",
	})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Correlation == nil {
		t.Fatal("expected correlation section")
	}
	if report.Whois == nil {
		t.Fatal("expected whois section")
	}
	if report.Histogram == nil {
		t.Fatal("expected histogram section")
	}
	if report.Domain != "example.com" {
		t.Fatalf("expected registrable domain example.com, got %q", report.Domain)
	}
	if len(report.Correlation.Events) != 1 {
		t.Fatalf("expected one correlated event, got %d", len(report.Correlation.Events))
	}
	if report.Whois.Status != WhoisStatusOK {
		t.Fatalf("expected whois ok, got %q (%s)", report.Whois.Status, report.Whois.Error)
	}
	if len(report.Histogram.Days) != 31 {
		t.Fatalf("expected 31 histogram buckets, got %d", len(report.Histogram.Days))
	}
}

func TestInvestigateInvalidSystemSkipsCorrelation(t *testing.T) {
	svc := newTestService()

	report, err := svc.Investigate(context.Background(), Params{
		Site:     "example.com",
		System:   "not-an-ip",
		Datetime: "2026-03-14 12:30:00",
	})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Correlation != nil {
		t.Fatal("expected correlation to be skipped for invalid system")
	}
	if report.Whois == nil || report.Histogram == nil {
		t.Fatal("expected site sections to still run")
	}
}

func TestInvestigateInvalidDatetimeSkipsCorrelation(t *testing.T) {
	svc := newTestService()

	report, err := svc.Investigate(context.Background(), Params{
		Site:     "example.com",
		System:   "192.168.0.2",
		Datetime: "14/03/2026 12:30",
	})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Correlation != nil {
		t.Fatal("expected correlation to be skipped for malformed datetime")
	}
}

func TestInvestigateNoUsableParams(t *testing.T) {
	svc := newTestService()

	_, err := svc.Investigate(context.Background(), Params{
		Site:   "not a domain",
		System: "not-an-ip",
	})
	if !errors.Is(err, ErrNoUsableParams) {
		t.Fatalf("expected ErrNoUsableParams, got %v", err)
	}
}

func TestInvestigateCorrelationFailureStaysLocal(t *testing.T) {
	svc := newTestService(func(deps *testDeps) {
		deps.queries.windowErr = errors.New("connection refused")
	})

	report, err := svc.Investigate(context.Background(), Params{
		Site:     "example.com",
		System:   "192.168.0.2",
		Datetime: "2026-03-14 12:30:00",
	})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Correlation == nil || report.Correlation.Error == "" {
		t.Fatal("expected correlation section with error text")
	}
	if report.Whois == nil || report.Whois.Status != WhoisStatusOK {
		t.Fatal("expected whois section to succeed despite correlation failure")
	}
	if report.Histogram == nil || report.Histogram.Error != "" {
		t.Fatal("expected histogram section to succeed despite correlation failure")
	}
}

func TestInvestigateWhoisUnconfigured(t *testing.T) {
	svc := newTestService(func(deps *testDeps) {
		deps.keySet = false
	})

	report, err := svc.Investigate(context.Background(), Params{Site: "example.com"})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Whois.Status != WhoisStatusUnconfigured {
		t.Fatalf("expected unconfigured status, got %q", report.Whois.Status)
	}
	if report.Whois.Error != "no whois API key configured" {
		t.Fatalf("unexpected error text %q", report.Whois.Error)
	}
}

func TestInvestigateWhoisDomainNotFound(t *testing.T) {
	svc := newTestService(func(deps *testDeps) {
		deps.fetcher = stubFetcher{err: whois.ErrDomainNotFound}
	})

	report, err := svc.Investigate(context.Background(), Params{Site: "nosuch.example"})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Whois.Status != WhoisStatusNotFound {
		t.Fatalf("expected not_found status, got %q", report.Whois.Status)
	}
	if report.Whois.Error != "nosuch.example does not exist" {
		t.Fatalf("unexpected error text %q", report.Whois.Error)
	}
}

func TestInvestigateWhoisPayloadError(t *testing.T) {
	svc := newTestService(func(deps *testDeps) {
		deps.fetcher = stubFetcher{body: []byte(`{"error":"quota exceeded"}`)}
	})

	report, err := svc.Investigate(context.Background(), Params{Site: "example.com"})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Whois.Status != WhoisStatusError {
		t.Fatalf("expected error status, got %q", report.Whois.Status)
	}
	if report.Whois.Error != "quota exceeded" {
		t.Fatalf("unexpected error text %q", report.Whois.Error)
	}
}

func TestInvestigateLooksUpRegistrableDomain(t *testing.T) {
	record := &domain.WhoisRecord{
		Domain:  "example.com",
		SavedAt: time.Now().UTC(),
		Raw:     []byte(`{"domain":"example.com"}`),
	}
	svc := newTestService(func(deps *testDeps) {
		deps.whoisRepo.record = record
	})

	report, err := svc.Investigate(context.Background(), Params{Site: "cdn.tracker.example.com"})
	if err != nil {
		t.Fatalf("Investigate returned error: %v", err)
	}
	if report.Whois.Domain != "example.com" {
		t.Fatalf("expected lookup keyed on example.com, got %q", report.Whois.Domain)
	}
	if !report.Whois.Cached {
		t.Fatal("expected cached record to be used")
	}
}

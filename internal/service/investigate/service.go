package investigate

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/service/correlate"
	"github.com/resolvewatch/api/internal/service/histogram"
	"github.com/resolvewatch/api/internal/service/whois"
)

// DatetimeLayout is the accepted reference-instant format.
const DatetimeLayout = "2006-01-02 15:04:05"

// ErrNoUsableParams is returned when no parameter survives validation,
// so no section can run at all.
var ErrNoUsableParams = errors.New("no usable investigation parameters")

// Whois section statuses.
const (
	WhoisStatusOK           = "ok"
	WhoisStatusNotFound     = "not_found"
	WhoisStatusError        = "error"
	WhoisStatusUnconfigured = "unconfigured"
)

// Params are the raw request parameters of one investigation.
type Params struct {
	Site     string
	System   string
	Datetime string
}

// CorrelationSection holds the time-window view around the reference event.
type CorrelationSection struct {
	System    string                     `json:"system"`
	Reference time.Time                  `json:"reference"`
	Events    []correlate.AnnotatedEvent `json:"events"`
	Error     string                     `json:"error,omitempty"`
}

// WhoisSection holds the registration lookup outcome.
type WhoisSection struct {
	Domain       string               `json:"domain"`
	Status       string               `json:"status"`
	Registration *domain.Registration `json:"registration,omitempty"`
	RetrievedAt  *time.Time           `json:"retrieved_at,omitempty"`
	Cached       bool                 `json:"cached,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// HistogramSection holds the 30-day series.
type HistogramSection struct {
	Domain string              `json:"domain"`
	Days   []domain.DailyCount `json:"days,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// Report is the combined investigation response. Sections are independent
// read paths: a failure in one never prevents the others from running,
// and each failure stays localized to its own section.
type Report struct {
	Site        string              `json:"site,omitempty"`
	Domain      string              `json:"domain,omitempty"`
	Correlation *CorrelationSection `json:"correlation,omitempty"`
	Whois       *WhoisSection       `json:"whois,omitempty"`
	Histogram   *HistogramSection   `json:"histogram,omitempty"`
}

// Service orchestrates one investigation request.
type Service struct {
	correlator      correlate.Service
	whois           whois.Service
	histogram       histogram.Service
	logger          *slog.Logger
	whoisConfigured bool
}

// New returns an investigation service. whoisConfigured reflects provider
// credential presence; when false the whois path is never invoked.
func New(correlator correlate.Service, whoisSvc whois.Service, histogramSvc histogram.Service, logger *slog.Logger, whoisConfigured bool) Service {
	return Service{
		correlator:      correlator,
		whois:           whoisSvc,
		histogram:       histogramSvc,
		logger:          logger,
		whoisConfigured: whoisConfigured,
	}
}

// Investigate validates the request parameters and runs every applicable
// section. Invalid parameters are dropped, not fatal: a malformed system
// IP simply skips the correlation section. Only when nothing survives
// validation does the call fail with ErrNoUsableParams.
func (s Service) Investigate(ctx context.Context, params Params) (Report, error) {
	var report Report

	site := strings.TrimSpace(params.Site)
	if site != "" && !domain.ValidSite(site) {
		s.logger.Warn("rejected site parameter", "site", site)
		site = ""
	}
	report.Site = site
	if site != "" {
		report.Domain = domain.RegistrableDomain(site)
	}

	system := strings.TrimSpace(params.System)
	if system != "" && !domain.ValidSystemID(system) {
		s.logger.Warn("rejected system parameter", "sys", system)
		system = ""
	}

	var reference time.Time
	if raw := strings.TrimSpace(params.Datetime); raw != "" {
		parsed, err := time.Parse(DatetimeLayout, raw)
		if err != nil {
			s.logger.Warn("rejected datetime parameter", "datetime", raw)
		} else {
			reference = parsed
		}
	}

	if site == "" && (system == "" || reference.IsZero()) {
		return Report{}, ErrNoUsableParams
	}
	if system != "" && !reference.IsZero() {
		report.Correlation = s.correlationSection(ctx, system, reference, site)
	}
	if site != "" {
		report.Whois = s.whoisSection(ctx, report.Domain)
		report.Histogram = s.histogramSection(ctx, report.Domain)
	}
	return report, nil
}

func (s Service) correlationSection(ctx context.Context, system string, reference time.Time, site string) *CorrelationSection {
	section := &CorrelationSection{System: system, Reference: reference}
	events, err := s.correlator.Correlate(ctx, system, reference, site)
	if err != nil {
		s.logger.Error("correlation failed", "sys", system, "error", err)
		section.Error = err.Error()
		return section
	}
	section.Events = events
	return section
}

// LookupWhois runs the registration lookup path alone.
func (s Service) LookupWhois(ctx context.Context, domainName string) *WhoisSection {
	return s.whoisSection(ctx, domainName)
}

func (s Service) whoisSection(ctx context.Context, domainName string) *WhoisSection {
	section := &WhoisSection{Domain: domainName}
	if !s.whoisConfigured {
		section.Status = WhoisStatusUnconfigured
		section.Error = "no whois API key configured"
		return section
	}

	result, err := s.whois.Lookup(ctx, domainName)
	if err != nil {
		var payloadErr *whois.PayloadError
		switch {
		case errors.Is(err, whois.ErrDomainNotFound):
			section.Status = WhoisStatusNotFound
			section.Error = domainName + " does not exist"
		case errors.As(err, &payloadErr):
			section.Status = WhoisStatusError
			section.Error = payloadErr.Message
		default:
			s.logger.Error("whois lookup failed", "domain", domainName, "error", err)
			section.Status = WhoisStatusError
			section.Error = err.Error()
		}
		return section
	}

	section.Status = WhoisStatusOK
	section.Registration = &result.Registration
	section.RetrievedAt = &result.SavedAt
	section.Cached = result.Cached
	return section
}

// Histogram runs the aggregation path alone. The site must already have
// passed validation.
func (s Service) Histogram(ctx context.Context, site string) *HistogramSection {
	return s.histogramSection(ctx, domain.RegistrableDomain(site))
}

func (s Service) histogramSection(ctx context.Context, domainName string) *HistogramSection {
	section := &HistogramSection{Domain: domainName}
	days, err := s.histogram.Aggregate(ctx, domainName)
	if err != nil {
		s.logger.Error("histogram failed", "domain", domainName, "error", err)
		section.Error = err.Error()
		return section
	}
	section.Days = days
	return section
}

package correlate

import (
	"context"
	"time"

	"log/slog"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/repository"
	"github.com/resolvewatch/api/internal/service/attribution"
)

// The window is asymmetric on purpose: it favours showing the moments
// leading up to and including the reference event.
const (
	lookBack  = 5 * time.Second
	lookAhead = 3 * time.Second
)

// RowClass tags a correlated event for presentation emphasis.
type RowClass string

const (
	ClassNone      RowClass = ""
	ClassBlocked   RowClass = "blocked"
	ClassInvalid   RowClass = "invalid"
	ClassLocal     RowClass = "local"
	ClassHighlight RowClass = "highlight"
)

// ReportAction is the payload offered for reporting a query upstream.
// Blocked says the query was blocked; Listed says the block (or the wish
// to block) is already covered by the curated or user list.
type ReportAction struct {
	Site    string `json:"site"`
	Blocked bool   `json:"blocked"`
	Listed  bool   `json:"listed"`
}

// Actions describes what a client can do with one correlated event.
type Actions struct {
	SearchURL string        `json:"search_url"`
	WhoisURL  string        `json:"whois_url"`
	Report    *ReportAction `json:"report,omitempty"`
}

// AnnotatedEvent is one query event with its block attribution, reason
// text and action descriptor attached.
type AnnotatedEvent struct {
	Event       domain.QueryEvent        `json:"event"`
	Class       RowClass                 `json:"class,omitempty"`
	Attribution *attribution.Attribution `json:"attribution,omitempty"`
	Reason      string                   `json:"reason,omitempty"`
	Actions     Actions                  `json:"actions"`
}

// Service correlates query log events around a reference instant.
type Service struct {
	queries    repository.QueryLogRepository
	attributor attribution.Service
	logger     *slog.Logger
	searchURL  string
	whoisURL   string
}

// New returns a correlation service. searchURL and whoisURL are link
// templates completed with the requested name.
func New(queries repository.QueryLogRepository, attributor attribution.Service, logger *slog.Logger, searchURL, whoisURL string) Service {
	return Service{
		queries:    queries,
		attributor: attributor,
		logger:     logger,
		searchURL:  searchURL,
		whoisURL:   whoisURL,
	}
}

// Correlate returns all events of one system inside the window
// (ref-5s, ref+3s), ascending by timestamp, each annotated with its
// attribution and actions. searchedSite highlights the row whose
// requested name matches the site being investigated; it may be empty.
// An empty result is a normal outcome. Store failures surface as
// *repository.QueryError and are not retried.
func (s Service) Correlate(ctx context.Context, systemID string, ref time.Time, searchedSite string) ([]AnnotatedEvent, error) {
	events, err := s.queries.ListBySystemWindow(ctx, systemID, ref.Add(-lookBack), ref.Add(lookAhead))
	if err != nil {
		return nil, repository.NewQueryError("correlate", err)
	}

	annotated := make([]AnnotatedEvent, 0, len(events))
	for _, event := range events {
		row, err := s.annotate(ctx, event)
		if err != nil {
			return nil, err
		}
		if searchedSite != "" && event.RequestedName == searchedSite {
			row.Class = ClassHighlight
		}
		annotated = append(annotated, row)
	}
	return annotated, nil
}

func (s Service) annotate(ctx context.Context, event domain.QueryEvent) (AnnotatedEvent, error) {
	row := AnnotatedEvent{
		Event: event,
		Actions: Actions{
			SearchURL: s.searchURL + event.RequestedName,
			WhoisURL:  s.whoisURL + event.RequestedName,
		},
	}

	switch event.Result {
	case domain.ResultAllowed:
		row.Actions.Report = &ReportAction{Site: event.RequestedName, Blocked: false, Listed: true}
	case domain.ResultBlocked:
		attr, err := s.attributor.Attribute(ctx, event.RequestedName)
		if err != nil {
			return AnnotatedEvent{}, repository.NewQueryError("attribute", err)
		}
		s.annotateBlocked(&row, attr)
	case domain.ResultLocal:
		row.Class = ClassLocal
	}
	return row, nil
}

func (s Service) annotateBlocked(row *AnnotatedEvent, attr attribution.Attribution) {
	row.Class = ClassBlocked
	site := row.Event.RequestedName
	switch attr.Kind {
	case attribution.KindNoTrack, attribution.KindCustom:
		row.Attribution = &attr
		row.Reason = "Blocked by " + attr.DisplayName
		row.Actions.Report = &ReportAction{Site: site, Blocked: true, Listed: true}
	case attribution.KindList:
		row.Attribution = &attr
		row.Reason = "Blocked by " + attr.DisplayName
		row.Actions.Report = &ReportAction{Site: site, Blocked: true, Listed: false}
	default:
		// No resolvable reason: most likely an IP literal or a
		// malformed lookup, not a gap in the blocklist data.
		row.Class = ClassInvalid
		row.Reason = "Invalid request"
	}
}

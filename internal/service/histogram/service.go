package histogram

import (
	"context"
	"time"

	"log/slog"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/repository"
)

// The series covers the 30 days up to and including today: 31 points,
// one per day, keyed by month-day.
const seriesDays = 30

const dayKeyFormat = "01-02"

// Service builds the daily allowed/blocked histogram for a domain.
type Service struct {
	queries repository.QueryLogRepository
	logger  *slog.Logger
	now     func() time.Time
}

// New returns a histogram service.
func New(queries repository.QueryLogRepository, logger *slog.Logger) Service {
	return Service{queries: queries, logger: logger, now: time.Now}
}

// Aggregate returns exactly 31 day buckets in ascending date order for
// queries whose requested name ends with domainName. Days with no
// activity are legitimately (0,0); an empty store result yields an
// all-zero series. Store failures surface as *repository.QueryError.
func (s Service) Aggregate(ctx context.Context, domainName string) ([]domain.DailyCount, error) {
	counts, err := s.queries.CountByDay(ctx, domainName)
	if err != nil {
		return nil, repository.NewQueryError("histogram", err)
	}

	today := s.now()
	series := make([]domain.DailyCount, 0, seriesDays+1)
	index := make(map[string]int, seriesDays+1)
	for offset := -seriesDays; offset <= 0; offset++ {
		key := today.AddDate(0, 0, offset).Format(dayKeyFormat)
		index[key] = len(series)
		series = append(series, domain.DailyCount{Day: key})
	}

	for _, count := range counts {
		i, ok := index[count.Day]
		if !ok {
			// Grouped days outside the window are discarded; the
			// store query is not time-bounded.
			continue
		}
		switch count.Result {
		case domain.ResultAllowed:
			series[i].Allowed += count.Count
		case domain.ResultBlocked:
			series[i].Blocked += count.Count
		}
	}
	return series, nil
}

package tail

import (
	"context"
	"encoding/json"
	"time"

	"log/slog"

	"github.com/resolvewatch/api/internal/repository"
	"github.com/resolvewatch/api/internal/ws"
)

// Service follows the query log and broadcasts new events to websocket
// subscribers. Each event goes to its system's topic and to the wildcard
// topic. The log is written by the resolver subsystem; this service only
// polls it forward from the id observed at startup.
type Service struct {
	queries  repository.QueryLogRepository
	hub      *ws.Hub
	logger   *slog.Logger
	interval time.Duration
	limit    int
	cursor   int64
}

// New returns a tail service.
func New(queries repository.QueryLogRepository, hub *ws.Hub, logger *slog.Logger, interval time.Duration, limit int) *Service {
	if interval <= 0 {
		interval = 4 * time.Second
	}
	if limit <= 0 {
		limit = 200
	}
	return &Service{queries: queries, hub: hub, logger: logger, interval: interval, limit: limit}
}

// Run polls until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	latest, err := s.queries.LatestID(ctx)
	if err != nil {
		s.logger.Error("tail could not read log cursor", "error", err)
	}
	s.cursor = latest

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

func (s *Service) poll(ctx context.Context) {
	events, err := s.queries.ListAfter(ctx, s.cursor, s.limit)
	if err != nil {
		s.logger.Error("tail poll failed", "error", err)
		return
	}
	for _, event := range events {
		if event.ID > s.cursor {
			s.cursor = event.ID
		}
		payload, err := json.Marshal(event)
		if err != nil {
			s.logger.Warn("tail could not marshal event", "error", err)
			continue
		}
		s.hub.Broadcast(event.SystemID, payload)
		s.hub.Broadcast(ws.TopicAll, payload)
	}
}

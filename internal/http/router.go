package httpx

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/resolvewatch/api/internal/domain"
	"github.com/resolvewatch/api/internal/service/investigate"
	"github.com/resolvewatch/api/internal/ws"
)

// Router wires HTTP endpoints to services.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	inv      investigate.Service
	hub      *ws.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter
	dbHealth func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

const (
	rateWindowDefault    = time.Minute
	rateWindowRealtime   = 30 * time.Second
	rateLimitInvestigate = 30
	rateLimitWhois       = 10
	rateLimitHistogram   = 60
	rateLimitWebsocket   = 30
	healthCheckTimeout   = 2 * time.Second
)

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, inv investigate.Service, hub *ws.Hub, limiter RateLimiter, dbHealth func(context.Context) error) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
		inv:    inv,
		hub:    hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter:  limiter,
		dbHealth: dbHealth,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.HandleFunc("/investigate", r.audit("/investigate", r.withRateLimit("/investigate", rateLimitInvestigate, rateWindowDefault, r.handleInvestigate)))
	r.mux.HandleFunc("/whois/", r.audit("/whois/{domain}", r.withRateLimit("/whois/{domain}", rateLimitWhois, rateWindowDefault, r.handleWhois)))
	r.mux.HandleFunc("/queries/histogram", r.audit("/queries/histogram", r.withRateLimit("/queries/histogram", rateLimitHistogram, rateWindowDefault, r.handleHistogram)))
	r.mux.HandleFunc("/ws/queries", r.audit("/ws/queries", r.withRateLimit("/ws/queries", rateLimitWebsocket, rateWindowRealtime, r.handleQueriesWS)))
	r.mux.Handle("/metrics", promhttp.Handler())
}

func (r *Router) handleInvestigate(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	query := req.URL.Query()
	params := investigate.Params{
		Site:     strings.TrimSpace(query.Get("site")),
		System:   strings.TrimSpace(query.Get("sys")),
		Datetime: strings.TrimSpace(query.Get("datetime")),
	}
	report, err := r.inv.Investigate(req.Context(), params)
	if err != nil {
		if errors.Is(err, investigate.ErrNoUsableParams) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (r *Router) handleWhois(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	site := strings.TrimPrefix(req.URL.Path, "/whois/")
	if site == "" || strings.Contains(site, "/") {
		r.notFound(w)
		return
	}
	if !domain.ValidSite(site) {
		writeError(w, http.StatusBadRequest, "invalid domain name")
		return
	}
	section := r.inv.LookupWhois(req.Context(), domain.RegistrableDomain(site))
	switch section.Status {
	case investigate.WhoisStatusOK:
		writeJSON(w, http.StatusOK, section)
	case investigate.WhoisStatusNotFound:
		writeJSON(w, http.StatusNotFound, section)
	case investigate.WhoisStatusUnconfigured:
		writeJSON(w, http.StatusServiceUnavailable, section)
	default:
		writeJSON(w, http.StatusBadGateway, section)
	}
}

func (r *Router) handleHistogram(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	site := strings.TrimSpace(req.URL.Query().Get("site"))
	if site == "" {
		writeError(w, http.StatusBadRequest, "site query parameter required")
		return
	}
	if !domain.ValidSite(site) {
		writeError(w, http.StatusBadRequest, "invalid domain name")
		return
	}
	section := r.inv.Histogram(req.Context(), site)
	if section.Error != "" {
		writeJSON(w, http.StatusInternalServerError, section)
		return
	}
	writeJSON(w, http.StatusOK, section)
}

func (r *Router) handleQueriesWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	topic := ws.TopicAll
	if sys := strings.TrimSpace(req.URL.Query().Get("sys")); sys != "" {
		if !domain.ValidSystemID(sys) {
			writeError(w, http.StatusBadRequest, "invalid system address")
			return
		}
		topic = sys
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(topic, client)
	go func() {
		defer func() {
			r.hub.Unregister(topic, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			status = "degraded"
			components["database"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["database"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()

		requestID := strings.TrimSpace(req.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		recorder.Header().Set("X-Request-ID", requestID)

		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
			"request_id", requestID,
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
		r.recordRequestMetrics(req.Method, route, status, duration)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := sr.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func (sr *statusRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := sr.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

package whois

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

const lookupPath = "/api/v1/whois/"

var providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "resolvewatch",
	Subsystem: "whois",
	Name:      "provider_requests_total",
	Help:      "Count of whois provider calls by outcome",
}, []string{"outcome"})

func init() {
	if err := prometheus.Register(providerRequests); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if v, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				providerRequests = v
			}
		}
	}
}

// Provider fetches registration documents from the remote whois service.
// Every call spends paid quota; the cache must be consulted first.
type Provider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewProvider constructs a Provider. timeout bounds a single lookup;
// expiry surfaces as a provider failure.
func NewProvider(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Provider {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Provider{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch performs one provider lookup and returns the raw response body.
// A 400 status means the domain does not exist; any other non-2xx status
// is a provider failure carrying status and body.
func (p *Provider) Fetch(ctx context.Context, domainName string) ([]byte, error) {
	if p.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	endpoint := p.baseURL + lookupPath + "?domain=" + url.QueryEscape(domainName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create whois request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token token="+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		providerRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("perform whois request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		providerRequests.WithLabelValues("transport_error").Inc()
		return nil, fmt.Errorf("read whois response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		providerRequests.WithLabelValues("not_found").Inc()
		return nil, ErrDomainNotFound
	case resp.StatusCode >= 300:
		providerRequests.WithLabelValues("provider_error").Inc()
		p.logger.Warn("whois provider failure", "status", resp.StatusCode, "domain", domainName)
		return nil, &ProviderError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	providerRequests.WithLabelValues("ok").Inc()
	return body, nil
}

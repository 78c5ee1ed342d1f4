package whois

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"
)

func newTestProvider(baseURL, apiKey string) *Provider {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProvider(baseURL, apiKey, 5*time.Second, logger)
}

func TestFetchSendsAuthAndDomain(t *testing.T) {
	var gotPath, gotDomain, gotAuth, gotAccept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotDomain = r.URL.Query().Get("domain")
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"domain":"example.com"}`))
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, "secret-key")
	body, err := provider.Fetch(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if gotPath != "/api/v1/whois/" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotDomain != "example.com" {
		t.Fatalf("unexpected domain parameter %q", gotDomain)
	}
	if gotAuth != "Token token=secret-key" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Fatalf("unexpected accept header %q", gotAccept)
	}
	if string(body) != `{"domain":"example.com"}` {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestFetchBadRequestMeansDomainNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, "secret-key")
	_, err := provider.Fetch(context.Background(), "nosuch.example")
	if !errors.Is(err, ErrDomainNotFound) {
		t.Fatalf("expected ErrDomainNotFound, got %v", err)
	}
}

func TestFetchServerFailureCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, "secret-key")
	_, err := provider.Fetch(context.Background(), "example.com")
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ProviderError, got %v", err)
	}
	if providerErr.Status != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", providerErr.Status)
	}
	if providerErr.Body != "upstream exploded" {
		t.Fatalf("unexpected body %q", providerErr.Body)
	}
}

func TestFetchWithoutAPIKeyFailsFast(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	provider := newTestProvider(server.URL, "")
	_, err := provider.Fetch(context.Background(), "example.com")
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if called {
		t.Fatal("expected no request without a credential")
	}
}

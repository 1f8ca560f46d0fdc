package httprunner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

func apiContext(baseURL string) *domain.ExecutionContext {
	return &domain.ExecutionContext{
		Connector: &domain.ConnectorDefinition{
			ID:   "support-desk",
			Name: "Support Desk",
			Type: domain.TransportAPI,
			API: &domain.APIConfig{
				BaseURL: baseURL,
				Auth: domain.AuthDescriptor{
					Type:  domain.AuthToken,
					Token: "{{credentials.api_token}}",
				},
			},
		},
		FetchName:   "open_tickets",
		Fetch:       &domain.FetchDefinition{Endpoint: "GET /tickets"},
		Credentials: map[string]string{"api_token": "xyz"},
		Params:      map[string]any{"status": "open"},
		SourceID:    "support-desk-open_tickets",
		SourceName:  "Support Desk",
	}
}

func TestExecuteGetWithBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/tickets", r.URL.Path)
		assert.Equal(t, "Bearer xyz", r.Header.Get("Authorization"))
		assert.Equal(t, "open", r.URL.Query().Get("status"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tickets": []}`))
	}))
	defer srv.Close()

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), apiContext(srv.URL))
	require.NoError(t, err)
	require.True(t, rec.OK(), rec.Error)
	assert.Equal(t, "support-desk-open_tickets", rec.SourceID)
	assert.Equal(t, map[string]any{"tickets": []any{}}, rec.Data)
}

func TestExecuteGetSendsJSONHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), apiContext(srv.URL))
	require.NoError(t, err)
	assert.True(t, rec.OK(), rec.Error)
}

func TestExecutePostSendsResolvedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.URL.RawQuery)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "open", body["state"])
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	ec := apiContext(srv.URL)
	ec.Fetch = &domain.FetchDefinition{
		Endpoint: "POST /search",
		Body:     map[string]any{"state": "{{params.status}}"},
	}

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), ec)
	require.NoError(t, err)
	require.True(t, rec.OK(), rec.Error)
}

func TestExecuteBasicAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "s3cret", pass)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ec := apiContext(srv.URL)
	ec.Connector.API.Auth = domain.AuthDescriptor{
		Type:     domain.AuthBasic,
		Username: "{{credentials.user}}",
		Password: "{{credentials.pass}}",
	}
	ec.Credentials = map[string]string{"user": "alice", "pass": "s3cret"}

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.True(t, rec.OK(), rec.Error)
}

func TestExecuteCustomHeaderGetsRawToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xyz", r.Header.Get("X-Api-Key"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ec := apiContext(srv.URL)
	ec.Connector.API.Auth.Header = "X-Api-Key"

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.True(t, rec.OK(), rec.Error)
}

func TestExecuteUnresolvedCredentialIsFailureRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not leave the process")
	}))
	defer srv.Close()

	ec := apiContext(srv.URL)
	ec.Credentials = nil

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), ec)
	require.NoError(t, err)
	assert.False(t, rec.OK())
	assert.Contains(t, rec.Error, "placeholder")
}

func TestExecuteNon2xxIsFailureRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "tickets unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), apiContext(srv.URL))
	require.NoError(t, err)
	assert.False(t, rec.OK())
	assert.Contains(t, rec.Error, "502")
	assert.Contains(t, rec.Error, "tickets unavailable")
}

func TestExecuteRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"tickets": []}`))
	}))
	defer srv.Close()

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), apiContext(srv.URL))
	require.NoError(t, err)
	assert.True(t, rec.OK(), rec.Error)
	assert.Equal(t, int32(2), calls.Load())
}

func TestExecute429ExhaustedIsFailureRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rec, err := NewRunner(srv.Client()).Execute(context.Background(), apiContext(srv.URL))
	require.NoError(t, err)
	assert.False(t, rec.OK())
	assert.Contains(t, rec.Error, "429")
}

func TestExecuteWrongTransportIsContractError(t *testing.T) {
	ec := apiContext("http://unused")
	ec.Connector.Type = domain.TransportMCP
	ec.Connector.API = nil

	_, err := NewRunner(nil).Execute(context.Background(), ec)
	assert.Error(t, err)
}

func TestSplitEndpoint(t *testing.T) {
	m, p := splitEndpoint("POST /search")
	assert.Equal(t, "POST", m)
	assert.Equal(t, "/search", p)

	m, p = splitEndpoint("/tickets")
	assert.Equal(t, "GET", m)
	assert.Equal(t, "/tickets", p)
}

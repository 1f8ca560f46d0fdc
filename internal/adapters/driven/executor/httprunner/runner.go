// Package httprunner executes connector fetches as direct HTTP requests
// against REST APIs.
package httprunner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

var _ driven.Executor = (*Runner)(nil)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 2
	maxErrorBody   = 512
)

// Runner issues one HTTP request per fetch. A shared limiter smooths
// request bursts across sources, and 429 responses are retried a
// bounded number of times honoring Retry-After.
type Runner struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewRunner creates a runner with the given client. A nil client gets a
// default with a request timeout.
func NewRunner(client *http.Client) *Runner {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Runner{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

func (r *Runner) Transport() domain.TransportType {
	return domain.TransportAPI
}

// Execute performs the HTTP fetch described by ec.
func (r *Runner) Execute(ctx context.Context, ec *domain.ExecutionContext) (domain.ResultRecord, error) {
	fail := func(err error) domain.ResultRecord {
		return domain.Failure(ec.SourceID, ec.SourceName, err)
	}

	// Contract checks.
	if ec.Connector == nil || ec.Connector.Type != domain.TransportAPI || ec.Connector.API == nil {
		return domain.ResultRecord{}, fmt.Errorf("http executor invoked for non-api connector %q", ec.SourceID)
	}
	if ec.Fetch == nil || ec.Fetch.Endpoint == "" {
		return domain.ResultRecord{}, fmt.Errorf("connector %s fetch %s has no endpoint", ec.Connector.ID, ec.FetchName)
	}

	req, err := r.buildRequest(ctx, ec)
	if err != nil {
		return fail(err), nil
	}

	resp, err := r.do(ctx, req)
	if err != nil {
		return fail(err), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(fmt.Errorf("reading response: %w", err)), nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(fmt.Errorf("%s returned %d: %s", req.URL.Path, resp.StatusCode, bodySnippet(body))), nil
	}

	var data any
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			return fail(fmt.Errorf("parsing response from %s: %w", req.URL.Path, err)), nil
		}
	}

	return domain.ResultRecord{SourceID: ec.SourceID, SourceName: ec.SourceName, Data: data}, nil
}

// do sends req through the limiter and retries 429 responses, waiting
// out any Retry-After the server sends.
func (r *Runner) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("requesting %s: %w", req.URL.Path, err)
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		wait := retryAfter(resp)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		logger.Debug("rate limited by %s, retrying in %s", req.URL.Host, wait)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w: %w", req.URL.Path, domain.ErrRateLimited, ctx.Err())
		case <-time.After(wait):
		}

		req = req.Clone(ctx)
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}
	}
}

// buildRequest resolves the endpoint, auth and payload of a fetch into
// a ready-to-send request. Any placeholder still unresolved in an
// outgoing value is an error here, before anything leaves the process.
func (r *Runner) buildRequest(ctx context.Context, ec *domain.ExecutionContext) (*http.Request, error) {
	tc := domain.NewTemplateContext(ec.Credentials, ec.Params)

	method, path := splitEndpoint(ec.Fetch.Endpoint)
	path = tc.ResolveString(path)

	fullURL := strings.TrimSuffix(ec.Connector.API.BaseURL, "/") + path
	if domain.ContainsPlaceholder(fullURL) {
		return nil, unresolvedErr("url", fullURL)
	}

	var body io.Reader
	hasBody := false
	if method != http.MethodGet && method != http.MethodHead && method != http.MethodDelete {
		payload := any(ec.Params)
		if len(ec.Fetch.Body) > 0 {
			payload = tc.Resolve(ec.Fetch.Body)
		}
		if unresolved := domain.FindUnresolved(payload); len(unresolved) > 0 {
			return nil, unresolvedErr("body", strings.Join(unresolved, ", "))
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
		hasBody = true
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	// Query parameters carry the params for non-body methods. Anything
	// already consumed by a path placeholder is still appended; servers
	// tolerate the redundancy and the alternative needs path parsing.
	if !hasBody && len(ec.Params) > 0 {
		q := req.URL.Query()
		for key, value := range ec.Params {
			s := fmt.Sprintf("%v", value)
			if domain.ContainsPlaceholder(s) {
				return nil, unresolvedErr("query param "+key, s)
			}
			q.Set(key, s)
		}
		req.URL.RawQuery = q.Encode()
	}

	// Content-Type is sent on every request, body or not, so servers
	// that key parsing off the header see a consistent client.
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	for name, tmpl := range ec.Connector.API.Headers {
		v := tc.ResolveString(tmpl)
		if domain.ContainsPlaceholder(v) {
			return nil, unresolvedErr("header "+name, v)
		}
		req.Header.Set(name, v)
	}

	if err := applyAuth(req, &ec.Connector.API.Auth, tc); err != nil {
		return nil, err
	}
	return req, nil
}

// applyAuth sets the auth header per the connector's descriptor.
func applyAuth(req *http.Request, auth *domain.AuthDescriptor, tc *domain.TemplateContext) error {
	switch auth.Type {
	case domain.AuthNone, "":
		return nil

	case domain.AuthBasic:
		user := tc.ResolveString(auth.Username)
		pass := tc.ResolveString(auth.Password)
		if domain.ContainsPlaceholder(user) || domain.ContainsPlaceholder(pass) {
			return unresolvedErr("basic auth", user+":"+"***")
		}
		encoded := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		req.Header.Set("Authorization", "Basic "+encoded)
		return nil

	case domain.AuthToken:
		token := tc.ResolveString(auth.Token)
		if domain.ContainsPlaceholder(token) {
			return unresolvedErr("auth token", "{{...}}")
		}
		header := auth.Header
		if header == "" || strings.EqualFold(header, "Authorization") {
			// The standard header carries the conventional scheme; a
			// custom header gets the raw token.
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			req.Header.Set(header, token)
		}
		return nil

	default:
		return fmt.Errorf("unsupported auth type %q: %w", auth.Type, domain.ErrInvalidDefinition)
	}
}

// splitEndpoint parses a "METHOD /path" endpoint. A bare path defaults
// to GET.
func splitEndpoint(endpoint string) (method, path string) {
	endpoint = strings.TrimSpace(endpoint)
	if m, p, ok := strings.Cut(endpoint, " "); ok {
		return strings.ToUpper(m), strings.TrimSpace(p)
	}
	return http.MethodGet, endpoint
}

// retryAfter reads a Retry-After header, clamped to a sane range.
func retryAfter(resp *http.Response) time.Duration {
	const fallback = 2 * time.Second
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > 30*time.Second {
			d = 30 * time.Second
		}
		return d
	}
	if at, err := http.ParseTime(raw); err == nil {
		if d := time.Until(at); d > 0 && d <= 30*time.Second {
			return d
		}
	}
	return fallback
}

func unresolvedErr(where, value string) error {
	return fmt.Errorf("%s still contains a placeholder (%s): %w", where, value, domain.ErrUnresolvedTemplate)
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

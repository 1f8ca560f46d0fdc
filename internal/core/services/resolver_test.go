package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
)

// stubCredentials is a fixed-map credentials store.
type stubCredentials struct {
	values map[string]string
}

var _ driven.CredentialsStore = (*stubCredentials)(nil)

func (s *stubCredentials) Resolve(ctx context.Context, def *domain.ConnectorDefinition) map[string]string {
	return s.values
}

func (s *stubCredentials) Save(ctx context.Context, connectorID string, values map[string]string) error {
	return nil
}

func (s *stubCredentials) Load(ctx context.Context, connectorID string) (map[string]string, error) {
	return s.values, nil
}

func (s *stubCredentials) Delete(ctx context.Context, connectorID string) error {
	return nil
}

func resolverFixture(t *testing.T) *SourceResolver {
	t.Helper()
	reg := NewConnectorRegistry(t.TempDir())
	require.NoError(t, reg.Load())

	require.NoError(t, reg.Register(&domain.ConnectorDefinition{
		ID:   "issue-tracker",
		Name: "Issue Tracker",
		Type: domain.TransportMCP,
		MCP:  &domain.MCPConfig{Package: "@example/tracker-mcp"},
		Auth: map[string]domain.AuthField{
			"token": {Label: "API token", Kind: "password"},
		},
		Fetches: map[string]domain.FetchDefinition{
			"list_issues": {
				Tool: "list_issues",
				Params: map[string]domain.ParamDefinition{
					"days_back": {Type: "number", Default: 7},
					"org":       {Type: "string", Required: true},
					"assignee":  {Type: "string", Required: true},
				},
			},
		},
	}))

	return NewSourceResolver(reg, &stubCredentials{values: map[string]string{"token": "tok-123"}})
}

func TestResolveSourceDefaultsAndIdentity(t *testing.T) {
	r := resolverFixture(t)

	ec, err := r.ResolveSource(context.Background(), &domain.SourceRef{
		Connector: "issue-tracker",
		Fetch:     "list_issues",
		Params:    map[string]any{"org": "acme", "assignee": "me"},
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "issue-tracker-list_issues", ec.SourceID)
	assert.Equal(t, "Issue Tracker", ec.SourceName)
	assert.Equal(t, 7, ec.Params["days_back"])
	assert.Equal(t, "acme", ec.Params["org"])
	assert.Equal(t, map[string]string{"token": "tok-123"}, ec.Credentials)
	assert.Equal(t, "list_issues", ec.Fetch.Tool)
}

func TestResolveSourceOverrides(t *testing.T) {
	r := resolverFixture(t)

	ec, err := r.ResolveSource(context.Background(), &domain.SourceRef{
		Connector: "issue-tracker",
		Fetch:     "list_issues",
		ID:        "tracker-weekly",
		Name:      "Weekly Tracker",
		Params:    map[string]any{"org": "acme", "assignee": "me", "days_back": 14},
	}, map[string]any{"days_back": 30})
	require.NoError(t, err)

	assert.Equal(t, "tracker-weekly", ec.SourceID)
	assert.Equal(t, "Weekly Tracker", ec.SourceName)
	// Runtime params win over the reference's static params.
	assert.Equal(t, 30, ec.Params["days_back"])
}

func TestResolveSourceStaticParamReferencesRuntime(t *testing.T) {
	r := resolverFixture(t)

	ec, err := r.ResolveSource(context.Background(), &domain.SourceRef{
		Connector: "issue-tracker",
		Fetch:     "list_issues",
		Params:    map[string]any{"org": "{{params.team}}", "assignee": "me"},
	}, map[string]any{"team": "platform"})
	require.NoError(t, err)

	assert.Equal(t, "platform", ec.Params["org"])
}

func TestResolveSourceCollectsAllMissingRequired(t *testing.T) {
	r := resolverFixture(t)

	_, err := r.ResolveSource(context.Background(), &domain.SourceRef{
		Connector: "issue-tracker",
		Fetch:     "list_issues",
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidParams)

	var invalid *domain.InvalidParamsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"assignee", "org"}, invalid.Missing)
}

func TestResolveSourceRequiredPresenceNotTruthiness(t *testing.T) {
	r := resolverFixture(t)

	// Empty string and nil still count as present.
	_, err := r.ResolveSource(context.Background(), &domain.SourceRef{
		Connector: "issue-tracker",
		Fetch:     "list_issues",
		Params:    map[string]any{"org": "", "assignee": nil},
	}, nil)
	assert.NoError(t, err)
}

func TestResolveSourceUnknownConnector(t *testing.T) {
	r := resolverFixture(t)

	_, err := r.ResolveSource(context.Background(), &domain.SourceRef{
		Connector: "nope",
		Fetch:     "list_issues",
	}, nil)
	assert.ErrorIs(t, err, domain.ErrUnknownConnector)
}

func TestResolveSourceUnknownFetch(t *testing.T) {
	r := resolverFixture(t)

	_, err := r.ResolveSource(context.Background(), &domain.SourceRef{
		Connector: "issue-tracker",
		Fetch:     "close_issues",
	}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownFetch)

	var unknown *domain.UnknownFetchError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"list_issues"}, unknown.Known)
}

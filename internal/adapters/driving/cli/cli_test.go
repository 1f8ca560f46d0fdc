package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/brief-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/services"
)

// fakeGatherer returns canned records in input order.
type fakeGatherer struct{}

func (fakeGatherer) Gather(ctx context.Context, refs []domain.SourceRef, runtimeParams map[string]any) []domain.ResultRecord {
	records := make([]domain.ResultRecord, len(refs))
	for i := range refs {
		records[i] = domain.ResultRecord{
			SourceID:   refs[i].EffectiveID(),
			SourceName: refs[i].EffectiveName(),
			Data:       map[string]any{"items": []any{}},
		}
	}
	return records
}

func setupTestServices(t *testing.T) {
	t.Helper()

	reg := services.NewConnectorRegistry(t.TempDir())
	require.NoError(t, reg.Load())
	require.NoError(t, reg.Register(&domain.ConnectorDefinition{
		ID:   "support-desk",
		Name: "Support Desk",
		Type: domain.TransportAPI,
		API:  &domain.APIConfig{BaseURL: "https://desk.example.com"},
		Auth: map[string]domain.AuthField{
			"api_token": {Label: "API token", Kind: "password"},
		},
		Fetches: map[string]domain.FetchDefinition{
			"open_tickets": {
				Endpoint:    "GET /tickets",
				Description: "List open tickets",
				Params: map[string]domain.ParamDefinition{
					"status": {Type: "string", Required: true},
				},
			},
		},
	}))

	history := memory.NewBriefingStore()
	require.NoError(t, history.Save(context.Background(), domain.Briefing{
		ID:        "b-1",
		Name:      "morning",
		Model:     "fake-model",
		Output:    "All quiet.",
		Sources:   []domain.SourceStatus{{SourceID: "s", SourceName: "Support Desk", OK: true}},
		CreatedAt: time.Date(2026, 8, 27, 7, 0, 0, 0, time.UTC),
	}))

	old := Services{
		Catalog:     catalogService,
		Gatherer:    gathererService,
		Briefings:   briefingService,
		Credentials: credentialsService,
		Discovery:   discoveryService,
		History:     historyStore,
		Config:      configStore,
	}
	t.Cleanup(func() { SetServices(old) })

	SetServices(Services{
		Catalog:  reg,
		Gatherer: fakeGatherer{},
		History:  history,
		Config:   memory.NewConfigStore(),
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	assert.NoError(t, err)
	assert.Contains(t, out, "brief version")
}

func TestConnectorsListCmd(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "connectors", "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "support-desk")
	assert.Contains(t, out, "Support Desk")
	assert.Contains(t, out, "1 fetches")
}

func TestConnectorsShowCmd(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "connectors", "show", "support-desk")
	assert.NoError(t, err)
	assert.Contains(t, out, "open_tickets")
	assert.Contains(t, out, "status: string (required)")
	assert.Contains(t, out, "SUPPORT_DESK_API_TOKEN")
}

func TestConnectorsShowUnknown(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "connectors", "show", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownConnector)
}

func TestGatherCmd(t *testing.T) {
	setupTestServices(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "morning.yaml")
	cfg := "name: morning\nprompt: Summarize.\nsources:\n  - connector: support-desk\n    fetch: open_tickets\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := execute(t, "gather", cfgPath)
	assert.NoError(t, err)
	assert.Contains(t, out, "support-desk-open_tickets")
	assert.Contains(t, out, "items")
}

func TestHistoryListAndShow(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "history", "list")
	assert.NoError(t, err)
	assert.Contains(t, out, "morning")
	assert.Contains(t, out, "b-1")

	out, err = execute(t, "history", "show", "b-1")
	assert.NoError(t, err)
	assert.Contains(t, out, "All quiet.")
	assert.Contains(t, out, "Support Desk")
}

func TestHistoryShowMissing(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "history", "show", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigGetSet(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "config", "get", "llm.model")
	assert.NoError(t, err)
	assert.Contains(t, out, "is not set")

	_, err = execute(t, "config", "set", "llm.max_tokens", "4096")
	assert.NoError(t, err)

	out, err = execute(t, "config", "get", "llm.max_tokens")
	assert.NoError(t, err)
	assert.Contains(t, out, "4096")
	assert.Equal(t, 4096, configStore.GetInt("llm.max_tokens"))
}

func TestRunCmdNotConfigured(t *testing.T) {
	setupTestServices(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "morning.yaml")
	cfg := "name: morning\nprompt: Summarize.\nsources:\n  - connector: support-desk\n    fetch: open_tickets\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	_, err := execute(t, "run", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

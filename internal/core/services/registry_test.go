package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

const trackerYAML = `
id: issue-tracker
name: Issue Tracker
type: mcp
mcp:
  package: "@example/tracker-mcp"
fetches:
  list_issues:
    tool: list_issues
`

const deskYAML = `
id: support-desk
name: Support Desk
type: api
api:
  base_url: https://desk.example.com
  auth:
    type: token
    token: "{{credentials.api_token}}"
fetches:
  open_tickets:
    endpoint: GET /tickets
`

func writeConnector(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadRegistersDefinitions(t *testing.T) {
	dir := t.TempDir()
	writeConnector(t, dir, "tracker.yaml", trackerYAML)
	writeConnector(t, dir, "desk.yml", deskYAML)
	writeConnector(t, dir, "notes.txt", "not a connector")

	reg := NewConnectorRegistry(dir)
	require.NoError(t, reg.Load())

	assert.Equal(t, []string{"issue-tracker", "support-desk"}, reg.ListIDs())
	def, err := reg.Get("issue-tracker")
	require.NoError(t, err)
	assert.Equal(t, "Issue Tracker", def.Name)
	assert.Equal(t, domain.TransportMCP, def.Type)
}

func TestLoadFirstRegisteredWins(t *testing.T) {
	dir := t.TempDir()
	writeConnector(t, dir, "a.yaml", trackerYAML)
	// Same id, different name, lexically later file.
	dupe := "\nid: issue-tracker\nname: Shadow Tracker\ntype: mcp\nmcp:\n  package: \"@other/tracker\"\nfetches:\n  list_issues:\n    tool: list_issues\n"
	writeConnector(t, dir, "z.yaml", dupe)

	reg := NewConnectorRegistry(dir)
	require.NoError(t, reg.Load())

	def, err := reg.Get("issue-tracker")
	require.NoError(t, err)
	assert.Equal(t, "Issue Tracker", def.Name)
	assert.Len(t, reg.ListIDs(), 1)
}

func TestLoadOverridePathBeatsWorkingDir(t *testing.T) {
	work := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(work, "connectors"), 0o755))
	shadowed := "\nid: issue-tracker\nname: Workdir Tracker\ntype: mcp\nmcp:\n  package: \"@work/tracker\"\nfetches:\n  list_issues:\n    tool: list_issues\n"
	writeConnector(t, filepath.Join(work, "connectors"), "tracker.yaml", shadowed)
	t.Chdir(work)

	override := t.TempDir()
	writeConnector(t, override, "tracker.yaml", trackerYAML)

	reg := NewConnectorRegistry(override)
	require.NoError(t, reg.Load())

	def, err := reg.Get("issue-tracker")
	require.NoError(t, err)
	assert.Equal(t, "Issue Tracker", def.Name)
}

func TestLoadSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	writeConnector(t, dir, "broken.yaml", "id: [unclosed")
	writeConnector(t, dir, "invalid.yaml", "id: no-transport\nname: X\ntype: mcp\n")
	writeConnector(t, dir, "good.yaml", deskYAML)

	reg := NewConnectorRegistry(dir)
	require.NoError(t, reg.Load())

	assert.Equal(t, []string{"support-desk"}, reg.ListIDs())
}

func TestLoadIdempotentUntilReset(t *testing.T) {
	dir := t.TempDir()
	writeConnector(t, dir, "tracker.yaml", trackerYAML)

	reg := NewConnectorRegistry(dir)
	require.NoError(t, reg.Load())
	assert.Len(t, reg.ListIDs(), 1)

	// New file appears after load; Load is a no-op, Reload picks it up.
	writeConnector(t, dir, "desk.yaml", deskYAML)
	require.NoError(t, reg.Load())
	assert.Len(t, reg.ListIDs(), 1)

	reg.Reload()
	assert.Len(t, reg.ListIDs(), 2)

	reg.Reset()
	assert.Empty(t, reg.ListIDs())
	require.NoError(t, reg.Load())
	assert.Len(t, reg.ListIDs(), 2)
}

func TestGetUnknownConnector(t *testing.T) {
	dir := t.TempDir()
	writeConnector(t, dir, "tracker.yaml", trackerYAML)

	reg := NewConnectorRegistry(dir)
	require.NoError(t, reg.Load())

	_, err := reg.Get("nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownConnector)

	var unknown *domain.UnknownConnectorError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "nope", unknown.ID)
	assert.Equal(t, []string{"issue-tracker"}, unknown.Known)
}

func TestRegisterValidatesAndReplaces(t *testing.T) {
	reg := NewConnectorRegistry(t.TempDir())
	require.NoError(t, reg.Load())

	def := &domain.ConnectorDefinition{
		ID:   "issue-tracker",
		Name: "Injected Tracker",
		Type: domain.TransportMCP,
		MCP:  &domain.MCPConfig{Package: "@example/tracker-mcp"},
		Fetches: map[string]domain.FetchDefinition{
			"list_issues": {Tool: "list_issues"},
		},
	}
	require.NoError(t, reg.Register(def))
	assert.True(t, reg.Has("issue-tracker"))

	def2 := *def
	def2.Name = "Replaced Tracker"
	require.NoError(t, reg.Register(&def2))

	got, err := reg.Get("issue-tracker")
	require.NoError(t, err)
	assert.Equal(t, "Replaced Tracker", got.Name)

	// Invalid definitions are rejected.
	bad := &domain.ConnectorDefinition{ID: "bad", Name: "Bad", Type: domain.TransportMCP}
	assert.Error(t, reg.Register(bad))
}

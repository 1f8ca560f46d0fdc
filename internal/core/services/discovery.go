package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driving"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

// Ensure Discoverer implements the interface.
var _ driving.ConnectorDiscovery = (*Discoverer)(nil)

// Discoverer probes unregistered subprocess sources and synthesizes
// connector definitions from what they advertise.
type Discoverer struct {
	prober driven.ToolProber
}

// NewDiscoverer creates a discoverer over the given prober.
func NewDiscoverer(prober driven.ToolProber) *Discoverer {
	return &Discoverer{prober: prober}
}

// Probe launches command as an MCP server and reports its tools.
// envKeys name environment variables forwarded to the probe from the
// current process; the generator turns them into credential fields.
func (d *Discoverer) Probe(ctx context.Context, command string, args []string, envKeys []string) (*domain.DiscoveryReport, error) {
	if command == "" {
		return nil, fmt.Errorf("probe: %w: command is required", domain.ErrInvalidInput)
	}

	env := make(map[string]string, len(envKeys))
	for _, key := range envKeys {
		if val, ok := os.LookupEnv(key); ok {
			env[key] = val
		} else {
			logger.Warn("probe env %s is not set in the environment", key)
		}
	}

	tools, err := d.prober.ProbeTools(ctx, command, args, env)
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", command, err)
	}
	logger.Info("probe of %s found %d tools", command, len(tools))

	return &domain.DiscoveryReport{
		ServerName: filepath.Base(command),
		Command:    command,
		Args:       args,
		Tools:      tools,
		EnvKeys:    envKeys,
	}, nil
}

// Generate turns a probe report into a registrable connector definition:
// one fetch per discovered tool, an env template entry plus credential
// field per probed env key.
func (d *Discoverer) Generate(report *domain.DiscoveryReport, id, name string) (*domain.ConnectorDefinition, error) {
	if report == nil || len(report.Tools) == 0 {
		return nil, fmt.Errorf("generate: %w: report has no tools", domain.ErrInvalidInput)
	}
	if id == "" {
		id = domain.SanitizeConnectorID(report.ServerName)
	}
	if name == "" {
		name = report.ServerName
	}

	fetches := make(map[string]domain.FetchDefinition, len(report.Tools))
	for _, tool := range report.Tools {
		fetches[tool.Name] = domain.FetchDefinition{
			Tool:        tool.Name,
			Description: tool.Description,
			Params:      tool.Params,
		}
	}

	env := make(map[string]string, len(report.EnvKeys))
	auth := make(map[string]domain.AuthField, len(report.EnvKeys))
	for _, key := range report.EnvKeys {
		field := fieldNameForEnv(key)
		env[key] = fmt.Sprintf("{{credentials.%s}}", field)
		auth[field] = domain.AuthField{Label: key, Kind: "password"}
	}

	def := &domain.ConnectorDefinition{
		ID:   id,
		Name: name,
		Type: domain.TransportMCP,
		MCP: &domain.MCPConfig{
			Command: report.Command,
			Args:    report.Args,
			Env:     env,
		},
		Fetches: fetches,
	}
	if len(auth) > 0 {
		def.Auth = auth
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("generated definition for %q: %w", id, err)
	}
	return def, nil
}

// fieldNameForEnv lowers an env var name into a snake_case credential
// field name: "API_KEY" becomes "api_key".
func fieldNameForEnv(key string) string {
	out := make([]rune, 0, len(key))
	for _, r := range key {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		out = append(out, r)
	}
	return string(out)
}

// SortedToolNames returns the tool names of a report in lexical order.
// Used by the CLI when rendering probe results.
func SortedToolNames(report *domain.DiscoveryReport) []string {
	names := make([]string, 0, len(report.Tools))
	for _, t := range report.Tools {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

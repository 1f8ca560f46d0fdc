// Package mcprunner executes connector fetches against MCP servers
// spawned as subprocesses over stdio.
package mcprunner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

var (
	_ driven.Executor       = (*Runner)(nil)
	_ driven.DirectExecutor = (*Runner)(nil)
	_ driven.ToolProber     = (*Runner)(nil)
)

// Runner spawns a fresh MCP server process per fetch, calls a single
// tool over the stdio session, and tears the process down again.
type Runner struct {
	// clientVersion identifies this client to servers during the MCP
	// handshake.
	clientVersion string
}

func NewRunner(clientVersion string) *Runner {
	if clientVersion == "" {
		clientVersion = "dev"
	}
	return &Runner{clientVersion: clientVersion}
}

func (r *Runner) Transport() domain.TransportType {
	return domain.TransportMCP
}

// Execute runs one resolved fetch against the connector's MCP server.
func (r *Runner) Execute(ctx context.Context, ec *domain.ExecutionContext) (domain.ResultRecord, error) {
	fail := func(err error) domain.ResultRecord {
		return domain.Failure(ec.SourceID, ec.SourceName, err)
	}

	// Contract checks. A definition that reaches us in this state never
	// passed registry validation.
	if ec.Connector == nil || ec.Connector.Type != domain.TransportMCP || ec.Connector.MCP == nil {
		return domain.ResultRecord{}, fmt.Errorf("mcp executor invoked for non-mcp connector %q", ec.SourceID)
	}
	if ec.Fetch == nil || ec.Fetch.Tool == "" {
		return domain.ResultRecord{}, fmt.Errorf("connector %s fetch %s has no tool", ec.Connector.ID, ec.FetchName)
	}

	// Unresolved placeholders must not leave the process as tool
	// arguments.
	if unresolved := domain.FindUnresolved(ec.Params); len(unresolved) > 0 {
		return fail(fmt.Errorf("params contain unresolved placeholders %s: %w",
			strings.Join(unresolved, ", "), domain.ErrUnresolvedTemplate)), nil
	}

	cmd, err := r.buildCommand(ec)
	if err != nil {
		return fail(err), nil
	}

	session, err := r.connect(ctx, cmd)
	if err != nil {
		return fail(fmt.Errorf("starting mcp server: %w", err)), nil
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ec.Fetch.Tool,
		Arguments: ec.Params,
	})
	if err != nil {
		return fail(fmt.Errorf("calling tool %s: %w", ec.Fetch.Tool, err)), nil
	}
	if res.IsError {
		return fail(fmt.Errorf("tool %s reported an error: %s", ec.Fetch.Tool, textContent(res))), nil
	}

	return domain.ResultRecord{
		SourceID:   ec.SourceID,
		SourceName: ec.SourceName,
		Data:       resultData(res),
	}, nil
}

// ExecuteDirect runs a legacy inline source reference. The command, env
// and tool come from the reference verbatim; no template resolution or
// credential lookup applies.
func (r *Runner) ExecuteDirect(ctx context.Context, ref *domain.SourceRef, runtimeParams map[string]any) (domain.ResultRecord, error) {
	id, name := ref.EffectiveID(), ref.EffectiveName()
	fail := func(err error) domain.ResultRecord {
		return domain.Failure(id, name, err)
	}

	if ref.Connection == nil || ref.Connection.Command == "" || ref.Tool == "" {
		return domain.ResultRecord{}, fmt.Errorf("direct reference %q is missing command or tool", id)
	}

	args := make(map[string]any, len(ref.Args)+len(runtimeParams))
	for k, v := range ref.Args {
		args[k] = v
	}
	for k, v := range runtimeParams {
		args[k] = v
	}

	cmd := exec.Command(ref.Connection.Command, ref.Connection.Args...)
	cmd.Dir = workingDir()
	cmd.Env = mergedEnv(ref.Connection.Env)

	session, err := r.connect(ctx, cmd)
	if err != nil {
		return fail(fmt.Errorf("starting mcp server: %w", err)), nil
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: ref.Tool, Arguments: args})
	if err != nil {
		return fail(fmt.Errorf("calling tool %s: %w", ref.Tool, err)), nil
	}
	if res.IsError {
		return fail(fmt.Errorf("tool %s reported an error: %s", ref.Tool, textContent(res))), nil
	}

	return domain.ResultRecord{SourceID: id, SourceName: name, Data: resultData(res)}, nil
}

// ProbeTools launches the command as an MCP server, lists the tools it
// advertises, and shuts it down.
func (r *Runner) ProbeTools(ctx context.Context, command string, args []string, env map[string]string) ([]domain.DiscoveredTool, error) {
	cmd := exec.Command(command, args...)
	cmd.Dir = workingDir()
	cmd.Env = mergedEnv(env)

	session, err := r.connect(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("starting mcp server: %w", err)
	}
	defer session.Close()

	listed, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}

	tools := make([]domain.DiscoveredTool, 0, len(listed.Tools))
	for _, t := range listed.Tools {
		// InputSchema is declared as any in the SDK; servers send a
		// JSON schema or nothing.
		schema, _ := t.InputSchema.(*jsonschema.Schema)
		tools = append(tools, domain.DiscoveredTool{
			Name:        t.Name,
			Description: t.Description,
			Params:      paramsFromSchema(schema),
		})
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools, nil
}

func (r *Runner) connect(ctx context.Context, cmd *exec.Cmd) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "brief", Version: r.clientVersion}, nil)
	return client.Connect(ctx, &mcp.CommandTransport{Command: cmd}, nil)
}

// buildCommand synthesizes the server subprocess for a registered MCP
// connector: an explicit command is used verbatim, otherwise the npm
// package is run through npx.
func (r *Runner) buildCommand(ec *domain.ExecutionContext) (*exec.Cmd, error) {
	mc := ec.Connector.MCP

	var cmd *exec.Cmd
	switch {
	case mc.Command != "":
		cmd = exec.Command(mc.Command, mc.Args...)
	case mc.Package != "":
		cmd = exec.Command("npx", append([]string{"-y", mc.Package}, mc.Args...)...)
	default:
		return nil, fmt.Errorf("connector %s defines neither command nor package: %w",
			ec.Connector.ID, domain.ErrInvalidDefinition)
	}

	cmd.Dir = workingDir()
	cmd.Env = mergedEnv(ResolveEnv(mc.Env, ec))
	return cmd, nil
}

// ResolveEnv renders a connector's env templates against the execution
// context. Entries that stay unresolved, or resolve to empty, are
// dropped so a server never sees a literal "{{credentials.token}}".
func ResolveEnv(env map[string]string, ec *domain.ExecutionContext) map[string]string {
	if len(env) == 0 {
		return nil
	}
	tc := domain.NewTemplateContext(ec.Credentials, ec.Params)

	out := make(map[string]string, len(env))
	for key, tmpl := range env {
		resolved := tc.ResolveString(tmpl)
		if resolved == "" || domain.ContainsPlaceholder(resolved) {
			logger.Warn("connector %s: dropping env %s (unresolved)", ec.Connector.ID, key)
			continue
		}
		out[key] = resolved
	}
	return out
}

// mergedEnv layers extra variables over the parent process environment.
func mergedEnv(extra map[string]string) []string {
	env := os.Environ()
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+extra[k])
	}
	return env
}

// workingDir returns the nearest enclosing project root (a directory
// holding .git, package.json or go.mod), so npx resolves locally
// installed servers. Falls back to the current directory.
func workingDir() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	dir := cwd
	for {
		for _, marker := range []string{".git", "package.json", "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return cwd
		}
		dir = parent
	}
}

// resultData extracts the payload of a tool result: structured content
// when present, otherwise the text content parsed as JSON when it is
// JSON, otherwise the raw text.
func resultData(res *mcp.CallToolResult) any {
	if res.StructuredContent != nil {
		return res.StructuredContent
	}
	text := textContent(res)
	if text == "" {
		return nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err == nil {
		return parsed
	}
	return text
}

// textContent concatenates the text blocks of a tool result.
func textContent(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

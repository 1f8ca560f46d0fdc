package driven

import (
	"context"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

// ToolProber introspects a not-yet-registered subprocess source: it
// launches the command as an MCP server, lists the tools it advertises,
// and tears the process down again.
type ToolProber interface {
	ProbeTools(ctx context.Context, command string, args []string, env map[string]string) ([]domain.DiscoveredTool, error)
}

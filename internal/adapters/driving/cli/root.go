// Package cli implements the brief command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driving"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

var (
	version = "dev"
	verbose bool
)

// Services bundles everything the commands call. main wires concrete
// adapters in; commands only see the ports.
type Services struct {
	Catalog     driving.ConnectorCatalog
	Gatherer    driving.ContextGatherer
	Briefings   driving.BriefingService
	Credentials driving.CredentialsManager
	Discovery   driving.ConnectorDiscovery
	History     driven.BriefingStore
	Config      driven.ConfigStore
}

var (
	catalogService     driving.ConnectorCatalog
	gathererService    driving.ContextGatherer
	briefingService    driving.BriefingService
	credentialsService driving.CredentialsManager
	discoveryService   driving.ConnectorDiscovery
	historyStore       driven.BriefingStore
	configStore        driven.ConfigStore
)

var rootCmd = &cobra.Command{
	Use:   "brief",
	Short: "Gather context from your tools and turn it into briefings",
	Long: `brief resolves declarative connectors (MCP servers and REST APIs),
fans fetches out concurrently, and hands the aggregated context to a
language model to produce a briefing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetServices injects the wired services. Must be called before Execute.
func SetServices(s Services) {
	catalogService = s.Catalog
	gathererService = s.Gatherer
	briefingService = s.Briefings
	credentialsService = s.Credentials
	discoveryService = s.Discovery
	historyStore = s.History
	configStore = s.Config
}

// Execute runs the root command.
func Execute(v string, s Services) error {
	version = v
	SetServices(s)
	return rootCmd.Execute()
}

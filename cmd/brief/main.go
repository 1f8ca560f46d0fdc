// Command brief is the entry point: it wires the concrete adapters to
// the core services and hands them to the CLI.
package main

import (
	"fmt"
	"os"

	configfile "github.com/custodia-labs/brief-cli/internal/adapters/driven/config/file"
	credfile "github.com/custodia-labs/brief-cli/internal/adapters/driven/credentials/file"
	"github.com/custodia-labs/brief-cli/internal/adapters/driven/executor/httprunner"
	"github.com/custodia-labs/brief-cli/internal/adapters/driven/executor/mcprunner"
	"github.com/custodia-labs/brief-cli/internal/adapters/driven/llm"
	"github.com/custodia-labs/brief-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/brief-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/brief-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
	"github.com/custodia-labs/brief-cli/internal/core/services"
	"github.com/custodia-labs/brief-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}

	credStore, err := credfile.NewStore("")
	if err != nil {
		return fmt.Errorf("opening credential store: %w", err)
	}

	registry := services.NewConnectorRegistry(configStore.GetString("connectors.path"))
	resolver := services.NewSourceResolver(registry, credStore)

	mcpRunner := mcprunner.NewRunner(version)
	httpRunner := httprunner.NewRunner(nil)
	aggregator := services.NewContextAggregator(resolver,
		[]driven.Executor{mcpRunner, httpRunner}, mcpRunner)

	var history driven.BriefingStore
	if sqliteStore, err := sqlite.NewStore(""); err == nil {
		defer sqliteStore.Close()
		history = sqliteStore
	} else {
		logger.Warn("briefing history unavailable, runs will not be recorded: %v", err)
		history = memory.NewBriefingStore()
	}

	llmService, err := llm.CreateLLMService(llm.SettingsFromConfig(configStore))
	if err != nil {
		logger.Warn("LLM unavailable, briefing generation disabled: %v", err)
	}
	if llmService != nil {
		defer llmService.Close()
	}

	briefings := services.NewBriefingRunner(aggregator, llmService, history,
		configStore.GetInt("llm.max_tokens"))

	return cli.Execute(version, cli.Services{
		Catalog:     registry,
		Gatherer:    aggregator,
		Briefings:   briefings,
		Credentials: services.NewCredentialsManager(registry, credStore),
		Discovery:   services.NewDiscoverer(mcpRunner),
		History:     history,
		Config:      configStore,
	})
}

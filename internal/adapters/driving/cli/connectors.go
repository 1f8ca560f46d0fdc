package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/brief-cli/internal/core/services"
)

var (
	discoverEnvKeys []string
	generateID      string
	generateName    string
	generateDir     string
)

var connectorsCmd = &cobra.Command{
	Use:   "connectors",
	Short: "Manage connector definitions",
	RunE:  runConnectorsList,
}

var connectorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered connectors",
	RunE:  runConnectorsList,
}

var connectorsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one connector's fetches and auth fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnectorsShow,
}

var connectorsDiscoverCmd = &cobra.Command{
	Use:   "discover [command] [args...]",
	Short: "Probe an MCP server for its tools",
	Long: `Launches the command as an MCP server over stdio, lists the tools
it advertises, and tears it down again. Use --env to forward environment
variables the server needs; each becomes a credential field when the
probe is turned into a definition with generate.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConnectorsDiscover,
}

var connectorsGenerateCmd = &cobra.Command{
	Use:   "generate [command] [args...]",
	Short: "Probe an MCP server and write a connector definition",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConnectorsGenerate,
}

var connectorsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload connector definitions as files change",
	Long: `Watches the connector search paths and reloads the registry when a
definition file is added or modified. Reloads are additive: removing a
file does not unregister its connector. Runs until interrupted.`,
	RunE: runConnectorsWatch,
}

func init() {
	connectorsDiscoverCmd.Flags().StringSliceVar(&discoverEnvKeys, "env", nil, "environment variables to forward to the probe")
	connectorsGenerateCmd.Flags().StringSliceVar(&discoverEnvKeys, "env", nil, "environment variables to forward to the probe")
	connectorsGenerateCmd.Flags().StringVar(&generateID, "id", "", "connector id (default: derived from the command)")
	connectorsGenerateCmd.Flags().StringVar(&generateName, "name", "", "display name (default: the server name)")
	connectorsGenerateCmd.Flags().StringVar(&generateDir, "dir", "connectors", "directory to write the definition into")

	connectorsCmd.AddCommand(connectorsListCmd)
	connectorsCmd.AddCommand(connectorsShowCmd)
	connectorsCmd.AddCommand(connectorsDiscoverCmd)
	connectorsCmd.AddCommand(connectorsGenerateCmd)
	connectorsCmd.AddCommand(connectorsWatchCmd)
	rootCmd.AddCommand(connectorsCmd)
}

func runConnectorsList(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("connector catalog not configured")
	}
	if err := catalogService.Load(); err != nil {
		return err
	}

	defs := catalogService.List()
	if len(defs) == 0 {
		cmd.Println("No connectors registered.")
		return nil
	}

	for _, def := range defs {
		cmd.Printf("%s  %s %s\n",
			headingStyle.Render(def.ID),
			def.Name,
			mutedStyle.Render(fmt.Sprintf("(%s, %d fetches)", def.Type, len(def.Fetches))))
	}
	return nil
}

func runConnectorsShow(cmd *cobra.Command, args []string) error {
	if catalogService == nil {
		return errors.New("connector catalog not configured")
	}
	if err := catalogService.Load(); err != nil {
		return err
	}

	def, err := catalogService.Get(args[0])
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render(def.Name))
	cmd.Printf("id:   %s\n", def.ID)
	cmd.Printf("type: %s\n", def.Type)
	cmd.Println()

	cmd.Println(headingStyle.Render("Fetches"))
	for _, name := range def.FetchNames() {
		fetch := def.Fetches[name]
		cmd.Printf("  %s", name)
		if fetch.Description != "" {
			cmd.Printf("  %s", mutedStyle.Render(fetch.Description))
		}
		cmd.Println()
		for pname, p := range fetch.Params {
			req := ""
			if p.Required {
				req = " (required)"
			}
			cmd.Printf("    %s: %s%s\n", pname, p.Type, req)
		}
	}

	if len(def.Auth) > 0 {
		cmd.Println()
		cmd.Println(headingStyle.Render("Credentials"))
		for field := range def.Auth {
			cmd.Printf("  %s  %s\n", field, mutedStyle.Render("env "+envVarHint(def.ID, field)))
		}
	}
	return nil
}

func runConnectorsDiscover(cmd *cobra.Command, args []string) error {
	if discoveryService == nil {
		return errors.New("discovery not configured")
	}

	report, err := discoveryService.Probe(context.Background(), args[0], args[1:], discoverEnvKeys)
	if err != nil {
		return err
	}

	cmd.Printf("%s advertises %d tools:\n", headingStyle.Render(report.ServerName), len(report.Tools))
	for _, name := range services.SortedToolNames(report) {
		cmd.Printf("  %s\n", name)
	}
	return nil
}

func runConnectorsGenerate(cmd *cobra.Command, args []string) error {
	if discoveryService == nil {
		return errors.New("discovery not configured")
	}

	report, err := discoveryService.Probe(context.Background(), args[0], args[1:], discoverEnvKeys)
	if err != nil {
		return err
	}

	def, err := discoveryService.Generate(report, generateID, generateName)
	if err != nil {
		return err
	}

	path, err := services.WriteDefinition(def, generateDir)
	if err != nil {
		return err
	}

	cmd.Printf("Wrote %s (%d fetches)\n", path, len(def.Fetches))
	if len(def.Auth) > 0 {
		cmd.Println("Set its credentials with: brief creds set " + def.ID)
	}
	return nil
}

func runConnectorsWatch(cmd *cobra.Command, _ []string) error {
	if catalogService == nil {
		return errors.New("connector catalog not configured")
	}
	if err := catalogService.Load(); err != nil {
		return err
	}

	// Watching is a capability of the file-backed registry, not part of
	// the catalog port.
	watcher, ok := catalogService.(interface{ Watch(context.Context) error })
	if !ok {
		return errors.New("the configured catalog does not support watching")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Watching connector directories. Press Ctrl-C to stop.")
	if err := watcher.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

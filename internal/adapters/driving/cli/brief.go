package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/services"
)

var gatherJSON bool

var runCmd = &cobra.Command{
	Use:   "run [briefing.yaml]",
	Short: "Run a briefing end to end",
	Long: `Loads a briefing config, gathers context from every source
concurrently, and generates the briefing with the configured model.
Failed sources are reported and skipped; the run only fails when no
source produced any context.`,
	Args: cobra.ExactArgs(1),
	RunE: runBriefing,
}

var gatherCmd = &cobra.Command{
	Use:   "gather [briefing.yaml]",
	Short: "Gather context without generating a briefing",
	Long: `Runs only the fan-out phase of a briefing config and prints one
result record per source, in config order.`,
	Args: cobra.ExactArgs(1),
	RunE: runGather,
}

func init() {
	gatherCmd.Flags().BoolVar(&gatherJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(gatherCmd)
}

func loadConfig(path string) (*domain.BriefingConfig, error) {
	if err := catalogService.Load(); err != nil {
		return nil, fmt.Errorf("loading connectors: %w", err)
	}
	return services.LoadBriefingConfig(path)
}

func runBriefing(cmd *cobra.Command, args []string) error {
	if briefingService == nil {
		return errors.New("briefing service not configured")
	}

	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	briefing, err := briefingService.Run(context.Background(), cfg)
	if err != nil {
		if errors.Is(err, domain.ErrNoContext) {
			return fmt.Errorf("every source failed, nothing to brief on")
		}
		return err
	}

	cmd.Println(titleStyle.Render(briefing.Name))
	cmd.Println(mutedStyle.Render(fmt.Sprintf("model %s, id %s", briefing.Model, briefing.ID)))
	cmd.Println()
	cmd.Println(briefing.Output)
	cmd.Println()

	cmd.Println(headingStyle.Render("Sources"))
	for _, src := range briefing.Sources {
		line := fmt.Sprintf("  %s  %s", statusMark(src.OK), src.SourceName)
		if !src.OK {
			line += mutedStyle.Render("  " + src.Error)
		}
		cmd.Println(line)
	}
	return nil
}

func runGather(cmd *cobra.Command, args []string) error {
	if gathererService == nil {
		return errors.New("gatherer not configured")
	}

	cfg, err := loadConfig(args[0])
	if err != nil {
		return err
	}

	records := gathererService.Gather(context.Background(), cfg.Sources, cfg.Params)

	if gatherJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding records: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, rec := range records {
		cmd.Printf("%s  %s\n", statusMark(rec.OK()), rec.SourceID)
		if rec.OK() {
			data, err := json.MarshalIndent(rec.Data, "  ", "  ")
			if err != nil {
				data = []byte(fmt.Sprintf("%v", rec.Data))
			}
			cmd.Printf("  %s\n", data)
		} else {
			cmd.Printf("  %s\n", mutedStyle.Render(rec.Error))
		}
	}
	return nil
}

package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse past briefings",
	RunE:  runHistoryList,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent briefings, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored briefing",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a stored briefing",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum number of briefings")
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	if historyStore == nil {
		return errors.New("history store not configured")
	}

	briefings, err := historyStore.List(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	if len(briefings) == 0 {
		cmd.Println("No briefings yet.")
		return nil
	}

	for _, b := range briefings {
		cmd.Printf("%s  %s  %s\n",
			b.CreatedAt.Format("2006-01-02 15:04"),
			headingStyle.Render(b.Name),
			mutedStyle.Render(b.ID))
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	if historyStore == nil {
		return errors.New("history store not configured")
	}

	b, err := historyStore.Get(context.Background(), args[0])
	if err != nil {
		return err
	}

	cmd.Println(titleStyle.Render(b.Name))
	cmd.Println(mutedStyle.Render(b.CreatedAt.Format("2006-01-02 15:04") + ", model " + b.Model))
	cmd.Println()
	cmd.Println(b.Output)
	cmd.Println()
	cmd.Println(headingStyle.Render("Sources"))
	for _, src := range b.Sources {
		cmd.Printf("  %s  %s\n", statusMark(src.OK), src.SourceName)
	}
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	if historyStore == nil {
		return errors.New("history store not configured")
	}

	if err := historyStore.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted briefing %s\n", args[0])
	return nil
}

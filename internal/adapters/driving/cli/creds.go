package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/brief-cli/internal/core/domain"
)

var credsCmd = &cobra.Command{
	Use:   "creds",
	Short: "Manage connector credentials",
	Long: `Stores per-connector secrets in owner-only files under
~/.brief/credentials. At fetch time, environment variables take
precedence over stored values.`,
}

var credsSetCmd = &cobra.Command{
	Use:   "set [connector-id]",
	Short: "Prompt for and store a connector's credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsSet,
}

var credsShowCmd = &cobra.Command{
	Use:   "show [connector-id]",
	Short: "Show stored credentials with secrets masked",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsShow,
}

var credsDeleteCmd = &cobra.Command{
	Use:   "delete [connector-id]",
	Short: "Delete a connector's stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredsDelete,
}

func init() {
	credsCmd.AddCommand(credsSetCmd)
	credsCmd.AddCommand(credsShowCmd)
	credsCmd.AddCommand(credsDeleteCmd)
	rootCmd.AddCommand(credsCmd)
}

// envVarHint names the environment variable that overrides a stored
// credential field.
func envVarHint(connectorID, field string) string {
	return domain.CredentialEnvVar(connectorID, field)
}

func runCredsSet(cmd *cobra.Command, args []string) error {
	if credentialsService == nil || catalogService == nil {
		return errors.New("credentials service not configured")
	}
	if err := catalogService.Load(); err != nil {
		return err
	}

	fields, order, err := credentialsService.Fields(args[0])
	if err != nil {
		return err
	}

	values := make(map[string]string, len(order))
	reader := bufio.NewReader(cmd.InOrStdin())
	for _, name := range order {
		field := fields[name]
		label := field.Label
		if label == "" {
			label = name
		}

		var value string
		if field.IsSecret() && term.IsTerminal(int(os.Stdin.Fd())) {
			cmd.Printf("%s: ", label)
			secret, err := term.ReadPassword(int(os.Stdin.Fd()))
			cmd.Println()
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			value = string(secret)
		} else {
			cmd.Printf("%s: ", label)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading %s: %w", name, err)
			}
			value = strings.TrimSpace(line)
		}

		if value == "" && !field.IsRequired() {
			continue
		}
		values[name] = value
	}

	if err := credentialsService.Set(context.Background(), args[0], values); err != nil {
		return err
	}
	cmd.Printf("Stored %d credentials for %s\n", len(values), args[0])
	return nil
}

func runCredsShow(cmd *cobra.Command, args []string) error {
	if credentialsService == nil || catalogService == nil {
		return errors.New("credentials service not configured")
	}
	if err := catalogService.Load(); err != nil {
		return err
	}

	values, err := credentialsService.Show(context.Background(), args[0])
	if err != nil {
		return err
	}
	if len(values) == 0 {
		cmd.Printf("No credentials stored for %s\n", args[0])
		return nil
	}

	for field, value := range values {
		cmd.Printf("%s = %s  %s\n", field, value, mutedStyle.Render("(env "+envVarHint(args[0], field)+")"))
	}
	return nil
}

func runCredsDelete(cmd *cobra.Command, args []string) error {
	if credentialsService == nil || catalogService == nil {
		return errors.New("credentials service not configured")
	}
	if err := catalogService.Load(); err != nil {
		return err
	}

	if err := credentialsService.Delete(context.Background(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Deleted credentials for %s\n", args[0])
	return nil
}

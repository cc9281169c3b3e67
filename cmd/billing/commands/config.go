package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// EnvironmentConfig is one environment's settings as shown by config show.
type EnvironmentConfig struct {
	Environment  string `json:"environment"   yaml:"environment"`
	Active       bool   `json:"active"        yaml:"active"`
	BaseURL      string `json:"base_url"      yaml:"base_url"`
	TimeoutMs    int    `json:"timeout_ms"    yaml:"timeout_ms"`
	ClientID     string `json:"client_id"     yaml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage API configuration",
		Long:  "Show and change the API host, timeout and client credentials of the active environment",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetHostCommand())
	cmd.AddCommand(newConfigSetTimeoutCommand())
	cmd.AddCommand(newConfigSetCredentialsCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the API configuration of the active environment, or of every environment with --all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				envs := []billing.Environment{client.Environment()}
				if all {
					envs = billing.Environments()
				}

				configs := make([]EnvironmentConfig, 0, len(envs))
				for _, env := range envs {
					cfg := client.APIConfig(ctx, env)
					configs = append(configs, EnvironmentConfig{
						Environment:  env.String(),
						Active:       env == client.Environment(),
						BaseURL:      cfg.BaseURL,
						TimeoutMs:    cfg.TimeoutMs,
						ClientID:     cfg.ClientID,
						ClientSecret: maskSecret(cfg.ClientSecret),
					})
				}

				return render(cmd, configs, func(table *tablewriter.Table) {
					table.Header("Environment", "Active", "Base URL", "Timeout (ms)", "Client ID", "Client Secret")

					for _, cfg := range configs {
						clientID := cfg.ClientID
						if clientID == "" {
							clientID = constants.None
						}

						_ = table.Append(cfg.Environment, formatBool(cfg.Active), cfg.BaseURL,
							strconv.Itoa(cfg.TimeoutMs), clientID, cfg.ClientSecret)
					}
				})
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "show every environment")

	return cmd
}

func newConfigSetHostCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-host URL",
		Short: "Set the API host",
		Long:  "Set the API base URL of the active environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				err := client.UpdateAPIHost(ctx, args[0])
				if err != nil {
					return err
				}

				printMessage(cmd.OutOrStdout(), "API host for %s set to %s", client.Environment(), client.APIHost())

				return nil
			})
		},
	}
}

func newConfigSetTimeoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-timeout TIMEOUT",
		Short: "Set the request timeout",
		Long:  "Set the request timeout of the active environment, as a duration (15s) or milliseconds (15000)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			timeout, err := parseTimeout(args[0])
			if err != nil {
				return err
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				err := client.UpdateTimeout(ctx, timeout)
				if err != nil {
					return err
				}

				printMessage(cmd.OutOrStdout(), "Request timeout for %s set to %s", client.Environment(), timeout)

				return nil
			})
		},
	}
}

func newConfigSetCredentialsCommand() *cobra.Command {
	var (
		clientID     string
		clientSecret string
	)

	cmd := &cobra.Command{
		Use:   "set-credentials",
		Short: "Set the client credentials",
		Long: `Set the client id and secret of the active environment.

The cached bearer token is discarded. When --client-secret is omitted the
secret is read from the terminal without echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clientSecret == "" {
				secret, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				clientSecret = secret
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				err := client.UpdateClientCredentials(ctx, clientID, clientSecret)
				if err != nil {
					return err
				}

				printMessage(cmd.OutOrStdout(), "Client credentials for %s updated", client.Environment())

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "client id (required)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "client secret (prompted when omitted)")
	_ = cmd.MarkFlagRequired("client-id")

	return cmd
}

// readSecret prompts on a terminal, otherwise reads one line from in.
func readSecret(in io.Reader, prompt io.Writer) (string, error) {
	if file, ok := in.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		_, _ = fmt.Fprint(prompt, "Client secret: ")

		secretBytes, err := term.ReadPassword(int(file.Fd()))

		_, _ = fmt.Fprintln(prompt)

		if err != nil {
			return "", fmt.Errorf("failed to read client secret: %w", err)
		}

		if len(secretBytes) == 0 {
			return "", constants.ErrNoClientSecret
		}

		return string(secretBytes), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read client secret: %w", err)
	}

	secret := strings.TrimSpace(line)
	if secret == "" {
		return "", constants.ErrNoClientSecret
	}

	return secret, nil
}

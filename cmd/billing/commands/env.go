package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// EnvironmentInfo is the output of the env command.
type EnvironmentInfo struct {
	Environment string `json:"environment" yaml:"environment"`
	APIHost     string `json:"api_host"    yaml:"api_host"`
}

// NewEnvCommand creates the env command.
func NewEnvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env",
		Short: "Show the active environment",
		Long:  "Display the active environment and its API host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(_ context.Context, client billing.Client) error {
				info := EnvironmentInfo{
					Environment: client.Environment().String(),
					APIHost:     client.APIHost(),
				}

				return render(cmd, info, propertyTable([][2]string{
					{"Environment", info.Environment},
					{"API Host", info.APIHost},
				}))
			})
		},
	}
}

// NewURLCommand creates the url command.
func NewURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url PATH",
		Short: "Print the full URL of an API path",
		Long:  "Join PATH to the API host of the active environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}

			return withClient(cmd, func(_ context.Context, client billing.Client) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), client.URL(path))

				return err
			})
		},
	}
}

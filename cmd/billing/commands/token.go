package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// TokenInfo describes the cached bearer token without revealing it.
type TokenInfo struct {
	Environment string     `json:"environment"          yaml:"environment"`
	Present     bool       `json:"present"              yaml:"present"`
	Preview     string     `json:"preview,omitempty"    yaml:"preview,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// NewTokenCommand creates the token command group.
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bearer token",
		Long:  "Inspect, discard or renew the cached bearer token of the active environment",
	}

	cmd.AddCommand(newTokenShowCommand())
	cmd.AddCommand(newTokenClearCommand())
	cmd.AddCommand(newTokenRefreshCommand())

	return cmd
}

func newTokenShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the cached token",
		Long:  "Display whether a usable bearer token is cached and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				return renderToken(cmd, tokenInfo(ctx, client))
			})
		},
	}
}

func newTokenClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Discard the cached token",
		Long:  "Remove the bearer token from memory and from the state backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				client.ClearToken(ctx)

				printMessage(cmd.OutOrStdout(), "Token for %s cleared", client.Environment())

				return nil
			})
		},
	}
}

func newTokenRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Request a new token",
		Long:  "Discard the cached token and authorize again with the configured client credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				err := client.RefreshToken(ctx)
				if err != nil {
					return err
				}

				return renderToken(cmd, tokenInfo(ctx, client))
			})
		},
	}
}

func tokenInfo(ctx context.Context, client billing.Client) TokenInfo {
	info := TokenInfo{Environment: client.Environment().String()}

	token, ok := client.Token(ctx)
	if !ok {
		return info
	}

	info.Present = true
	info.Preview = previewToken(token)

	if expiresAt := client.TokenExpiry(); !expiresAt.IsZero() {
		info.ExpiresAt = &expiresAt
	}

	return info
}

func renderToken(cmd *cobra.Command, info TokenInfo) error {
	preview := info.Preview
	if !info.Present {
		preview = constants.None
	}

	expires := constants.None
	if info.ExpiresAt != nil {
		expires = info.ExpiresAt.Local().Format(time.RFC3339)
	}

	return render(cmd, info, propertyTable([][2]string{
		{"Environment", info.Environment},
		{"Token", preview},
		{"Expires", expires},
	}))
}

package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/billing-client/internal/constants"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

func subcommandNames(cmd *cobra.Command) []string {
	names := make([]string, 0, len(cmd.Commands()))
	for _, subcmd := range cmd.Commands() {
		names = append(names, subcmd.Name())
	}

	return names
}

func TestNewItemsCommand(t *testing.T) {
	t.Parallel()

	cmd := NewItemsCommand()
	assert.Equal(t, "items", cmd.Use)
	assert.Equal(t, []string{"item"}, cmd.Aliases)
	assert.Equal(t, "Manage items", cmd.Short)
	assert.ElementsMatch(t, []string{"list", "get", "create", "update", "delete"}, subcommandNames(cmd))

	get := findSubcommand(cmd, "get")
	require.NotNil(t, get)
	assert.Equal(t, "get ID", get.Use)
	assert.NotNil(t, get.Flags().Lookup("alt"))

	create := findSubcommand(cmd, "create")
	require.NotNil(t, create)

	for _, flagName := range []string{"name", "description", "unit-price", "created-by"} {
		assert.NotNil(t, create.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}

	assert.Equal(t, defaultAuthor, create.Flags().Lookup("created-by").DefValue)

	update := findSubcommand(cmd, "update")
	require.NotNil(t, update)
	assert.Equal(t, "update ID", update.Use)

	for _, flagName := range []string{"name", "description", "unit-price", "changed-by"} {
		assert.NotNil(t, update.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}
}

func TestNewPersonsCommand(t *testing.T) {
	t.Parallel()

	cmd := NewPersonsCommand()
	assert.Equal(t, "persons", cmd.Use)
	assert.Equal(t, []string{"person"}, cmd.Aliases)
	assert.ElementsMatch(t, []string{"list", "get", "create", "update", "delete"}, subcommandNames(cmd))

	get := findSubcommand(cmd, "get")
	require.NotNil(t, get)
	assert.NotNil(t, get.Flags().Lookup("alt"))
	assert.NotNil(t, get.Flags().Lookup("email"))

	create := findSubcommand(cmd, "create")
	require.NotNil(t, create)
	assert.NotNil(t, create.Flags().Lookup("email"))
}

func TestNewInvoicesCommand(t *testing.T) {
	t.Parallel()

	cmd := NewInvoicesCommand()
	assert.Equal(t, "invoices", cmd.Use)
	assert.Equal(t, []string{"invoice"}, cmd.Aliases)
	assert.ElementsMatch(t, []string{"list", "get", "create", "update", "delete"}, subcommandNames(cmd))

	list := findSubcommand(cmd, "list")
	require.NotNil(t, list)
	assert.NotNil(t, list.Flags().Lookup("user"))

	update := findSubcommand(cmd, "update")
	require.NotNil(t, update)

	for _, flagName := range []string{"total", "paid", "user-id", "changed-by"} {
		assert.NotNil(t, update.Flags().Lookup(flagName), "Flag %s should exist", flagName)
	}
}

func TestNewInvoiceItemsCommand(t *testing.T) {
	t.Parallel()

	cmd := NewInvoiceItemsCommand()
	assert.Equal(t, "invoice-items", cmd.Use)
	assert.Equal(t, []string{"invoice-item", "ii"}, cmd.Aliases)
	assert.ElementsMatch(t, []string{"list", "get", "create", "delete"}, subcommandNames(cmd))

	del := findSubcommand(cmd, "delete")
	require.NotNil(t, del)
	assert.Equal(t, "delete [INVOICE_ID ITEM_ID]", del.Use)
	assert.NotNil(t, del.Flags().Lookup("invoice"))
	assert.NotNil(t, del.Flags().Lookup("item"))
}

func TestNewConfigCommand(t *testing.T) {
	t.Parallel()

	cmd := NewConfigCommand()
	assert.Equal(t, "config", cmd.Use)
	assert.ElementsMatch(t, []string{"show", "set-host", "set-timeout", "set-credentials"}, subcommandNames(cmd))

	show := findSubcommand(cmd, "show")
	require.NotNil(t, show)
	assert.Equal(t, "false", show.Flags().Lookup("all").DefValue)

	creds := findSubcommand(cmd, "set-credentials")
	require.NotNil(t, creds)
	assert.NotNil(t, creds.Flags().Lookup("client-id"))
	assert.NotNil(t, creds.Flags().Lookup("client-secret"))
}

func TestNewTokenCommand(t *testing.T) {
	t.Parallel()

	cmd := NewTokenCommand()
	assert.Equal(t, "token", cmd.Use)
	assert.ElementsMatch(t, []string{"show", "clear", "refresh"}, subcommandNames(cmd))
}

func TestNewEnvAndURLCommands(t *testing.T) {
	t.Parallel()

	env := NewEnvCommand()
	assert.Equal(t, "env", env.Use)
	assert.NotNil(t, env.RunE)

	url := NewURLCommand()
	assert.Equal(t, "url PATH", url.Use)
	assert.NotNil(t, url.Args)
}

func TestParseTimeout(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{name: "milliseconds", raw: "15000", want: 15 * time.Second},
		{name: "duration", raw: "1m30s", want: 90 * time.Second},
		{name: "sub-second duration", raw: "250ms", want: 250 * time.Millisecond},
		{name: "garbage", raw: "soon", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parseTimeout(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTimeout)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadSecret(t *testing.T) {
	t.Parallel()

	t.Run("reads first line", func(t *testing.T) {
		t.Parallel()

		secret, err := readSecret(strings.NewReader("s3cret\nignored\n"), &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "s3cret", secret)
	})

	t.Run("accepts missing newline", func(t *testing.T) {
		t.Parallel()

		secret, err := readSecret(strings.NewReader("  s3cret  "), &bytes.Buffer{})
		require.NoError(t, err)
		assert.Equal(t, "s3cret", secret)
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := readSecret(strings.NewReader("\n"), &bytes.Buffer{})
		require.ErrorIs(t, err, constants.ErrNoClientSecret)
	})
}

func TestDisplayHelpers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, constants.None, maskSecret(""))
	assert.Equal(t, constants.MaskedSecret, maskSecret("hunter2"))

	assert.Equal(t, constants.MaskedSecret, previewToken("short"))
	assert.Equal(t, "abcdefgh...", previewToken("abcdefghijklmnop"))

	assert.Equal(t, "2.50", formatFloat(2.5))
	assert.Equal(t, "yes", formatBool(true))
	assert.Equal(t, "no", formatBool(false))
}

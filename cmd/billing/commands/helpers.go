package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
	"github.com/fivetwenty-io/billing-client/pkg/billingclient"
)

// Common string constants used throughout the commands package.
const (
	configDirName = ".billing"
	stateFileName = "state.yml"
	cliUserAgent  = "billing-cli"
	defaultAuthor = "billing-cli"
)

// Common static errors used throughout the commands package.
var (
	ErrConflictingFlags = errors.New("flags cannot be combined")
	ErrInvalidTimeout   = errors.New("timeout must be a duration such as 15s or a number of milliseconds")
)

// ConfigDir returns ~/.billing.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}

	return filepath.Join(home, configDirName), nil
}

// loadStoreConfig reads the store section, defaulting to the file backend
// at ~/.billing/state.yml.
func loadStoreConfig() (*billingclient.StoreConfig, error) {
	storeConfig := &billingclient.StoreConfig{}

	err := viper.UnmarshalKey("store", storeConfig)
	if err != nil {
		return nil, fmt.Errorf("reading store configuration: %w", err)
	}

	if storeType := viper.GetString("store.type"); storeType != "" {
		storeConfig.Type = billingclient.StoreType(storeType)
	}

	if storeConfig.Type == "" {
		storeConfig.Type = billingclient.StoreTypeFile
	}

	if storeConfig.Type != billingclient.StoreTypeFile {
		return storeConfig, nil
	}

	path := viper.GetString("store.file.path")
	if path == "" && storeConfig.File != nil {
		path = storeConfig.File.Path
	}

	if path == "" {
		configDir, err := ConfigDir()
		if err != nil {
			return nil, err
		}

		path = filepath.Join(configDir, stateFileName)
	}

	storeConfig.File = &billingclient.FileConfig{Path: path}

	return storeConfig, nil
}

func newLogger() billing.Logger {
	level := viper.GetString("log_level")
	if viper.GetBool("verbose") {
		level = "debug"
	}

	return billingclient.NewLogger(billingclient.LoggerConfig{
		Level: level,
		JSON:  viper.GetBool("log_json"),
		Name:  "billing",
	})
}

// newClient creates a client for the configured environment and backend.
func newClient(ctx context.Context) (billing.Client, error) {
	env, err := billing.ResolveEnvironment(viper.GetString("environment"))
	if err != nil {
		return nil, err
	}

	storeConfig, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	config := &billing.Config{
		Environment:   env,
		Logger:        newLogger(),
		Debug:         viper.GetBool("debug"),
		UserAgent:     cliUserAgent,
		TokenLifetime: viper.GetDuration("token_lifetime"),
	}

	client, err := billingclient.NewWithStore(ctx, config, storeConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return client, nil
}

// withClient runs fn with a client and closes it afterwards.
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client billing.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	client, err := newClient(ctx)
	if err != nil {
		return err
	}

	defer func() { _ = client.Close() }()

	return fn(ctx, client)
}

// render writes value as JSON or YAML, or calls table for the table format.
func render(cmd *cobra.Command, value interface{}, table func(*tablewriter.Table)) error {
	out := cmd.OutOrStdout()

	switch output := viper.GetString("output"); output {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")

		return encoder.Encode(value)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)

		err := encoder.Encode(value)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}

		return encoder.Close()
	case constants.FormatTable, "":
		writer := tablewriter.NewWriter(out)
		table(writer)

		err := writer.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", constants.ErrUnsupportedFormat, output)
	}
}

// propertyTable renders key/value rows.
func propertyTable(rows [][2]string) func(*tablewriter.Table) {
	return func(table *tablewriter.Table) {
		table.Header("Property", "Value")

		for _, row := range rows {
			_ = table.Append(row[0], row[1])
		}
	}
}

func printMessage(out io.Writer, format string, args ...interface{}) {
	if viper.GetString("output") == constants.FormatTable || viper.GetString("output") == "" {
		_, _ = fmt.Fprintf(out, format+"\n", args...)
	}
}

// deleted is the machine-readable result of a delete command.
type deleted struct {
	Deleted string `json:"deleted" yaml:"deleted"`
	ID      string `json:"id"      yaml:"id"`
}

func renderDeleted(cmd *cobra.Command, kind, id string) error {
	if viper.GetString("output") == constants.FormatTable || viper.GetString("output") == "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", kind, id)

		return nil
	}

	return render(cmd, deleted{Deleted: kind, ID: id}, nil)
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func formatBool(value bool) string {
	if value {
		return "yes"
	}

	return "no"
}

// parseTimeout accepts a Go duration or a plain number of milliseconds.
func parseTimeout(raw string) (time.Duration, error) {
	ms, err := strconv.Atoi(raw)
	if err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}

	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, raw)
	}

	return timeout, nil
}

func maskSecret(secret string) string {
	if secret == "" {
		return constants.None
	}

	return constants.MaskedSecret
}

func previewToken(token string) string {
	if len(token) <= constants.TokenPreviewLength {
		return constants.MaskedSecret
	}

	return token[:constants.TokenPreviewLength] + "..."
}

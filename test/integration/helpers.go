//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIURL       string
	ClientID     string
	ClientSecret string
	BillingPath  string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables. Leaving
// BILLING_API_URL unset selects the in-memory fake API.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		APIURL:       os.Getenv("BILLING_API_URL"),
		ClientID:     os.Getenv("BILLING_CLIENT_ID"),
		ClientSecret: os.Getenv("BILLING_CLIENT_SECRET"),
		BillingPath:  getBillingPath(),
		Verbose:      os.Getenv("BILLING_VERBOSE") == "true",
	}
}

// getBillingPath determines the path to the billing binary
func getBillingPath() string {
	if path := os.Getenv("BILLING_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../billing",
		"./billing",
		"../billing",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "billing" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIURL != "" && (config.ClientID == "" || config.ClientSecret == "") {
		t.Skip("BILLING_CLIENT_ID or BILLING_CLIENT_SECRET not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BillingPath); err != nil {
		t.Skipf("billing binary not found at %s, skipping integration test", config.BillingPath)
	}
}

// CommandRunner runs the billing binary with an isolated home directory and
// state file.
type CommandRunner struct {
	config    *TestConfig
	t         *testing.T
	home      string
	stateFile string
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	// Without BILLING_API_URL the workflows run against an in-memory API
	if config.APIURL == "" {
		config.APIURL = StartFakeAPI(t).URL()
		config.ClientID = fakeClientID
		config.ClientSecret = fakeClientSecret
	}

	home := t.TempDir()

	return &CommandRunner{
		config:    config,
		t:         t,
		home:      home,
		stateFile: filepath.Join(home, "state.yml"),
	}
}

// Run executes a billing command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a billing command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--environment", "development", "--state-file", runner.stateFile}, args...)

	cmd := exec.Command(runner.config.BillingPath, args...)
	cmd.Env = append(os.Environ(), "HOME="+runner.home)
	cmd.Stdin = strings.NewReader(input)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BillingPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Configure points the development environment at the API under test.
func (runner *CommandRunner) Configure() error {
	_, stderr, err := runner.Run("config", "set-host", runner.config.APIURL)
	if err != nil {
		return fmt.Errorf("failed to set API host: %s", stderr)
	}

	_, stderr, err = runner.RunWithInput(runner.config.ClientSecret+"\n",
		"config", "set-credentials", "--client-id", runner.config.ClientID)
	if err != nil {
		return fmt.Errorf("failed to set client credentials: %s", stderr)
	}

	return nil
}

// RunJSON executes a billing command with JSON output and decodes it into v.
func (runner *CommandRunner) RunJSON(v interface{}, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	require.NoError(runner.t, err, "billing %s failed: %s", strings.Join(args, " "), stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), v), "output is not JSON: %s", stdout)
}

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupResource attempts to delete a test resource
func (runner *CommandRunner) CleanupResource(resourceType, id string) {
	var args []string

	switch resourceType {
	case "item":
		args = []string{"items", "delete", id}
	case "person":
		args = []string{"persons", "delete", id}
	case "invoice":
		args = []string{"invoices", "delete", id}
	default:
		runner.t.Logf("Unknown resource type for cleanup: %s", resourceType)

		return
	}

	stdout, stderr, err := runner.Run(args...)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", resourceType, id, stdout, stderr)
	}
}

// AssertYAMLOutput verifies command output looks like YAML
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, "---") || strings.Contains(output, ":") {
		return // Looks like YAML
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}

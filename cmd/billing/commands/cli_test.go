package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// These tests share the global viper instance and must not run in parallel.

type apiCall struct {
	Method string
	Path   string
	Body   map[string]interface{}
}

type cannedReply struct {
	status int
	body   interface{}
}

type billingAPI struct {
	server         *httptest.Server
	mu             sync.Mutex
	replies        map[string]cannedReply
	calls          []apiCall
	authorizeCalls atomic.Int32
}

func newBillingAPI(t *testing.T) *billingAPI {
	t.Helper()

	api := &billingAPI{replies: make(map[string]cannedReply)}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.server.Close)

	return api
}

func (a *billingAPI) reply(method, path string, status int, body interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.replies[method+" "+path] = cannedReply{status: status, body: body}
}

func (a *billingAPI) lastCall() apiCall {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.calls) == 0 {
		return apiCall{}
	}

	return a.calls[len(a.calls)-1]
}

func (a *billingAPI) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.calls)
}

func (a *billingAPI) serve(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "application/json")

	if request.URL.Path == constants.AuthorizePath {
		a.authorizeCalls.Add(1)

		clientID, _, ok := request.BasicAuth()
		if !ok || clientID != "cli-client" {
			writer.WriteHeader(http.StatusUnauthorized)

			return
		}

		_ = json.NewEncoder(writer).Encode(map[string]interface{}{"token": "cli-token-value", "expires_in": 3600})

		return
	}

	if request.Header.Get("Authorization") != "Bearer cli-token-value" {
		writer.WriteHeader(http.StatusUnauthorized)

		return
	}

	call := apiCall{Method: request.Method, Path: request.URL.Path}

	raw, _ := io.ReadAll(request.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &call.Body)
	}

	a.mu.Lock()
	a.calls = append(a.calls, call)
	reply, ok := a.replies[request.Method+" "+request.URL.Path]
	a.mu.Unlock()

	if !ok {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"message":"not found"}`))

		return
	}

	writer.WriteHeader(reply.status)

	if reply.body != nil {
		_ = json.NewEncoder(writer).Encode(reply.body)
	}
}

// setupCLI points viper at a fresh state file and configures the
// development environment against api.
func setupCLI(t *testing.T, api *billingAPI) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	statePath := filepath.Join(t.TempDir(), stateFileName)

	viper.Set("environment", "development")
	viper.Set("store.type", "file")
	viper.Set("store.file.path", statePath)
	viper.Set("log_level", "error")
	viper.Set("output", constants.FormatTable)

	_, err := runCLI(t, "config", "set-host", api.server.URL+"/")
	require.NoError(t, err)

	_, err = runCLI(t, "config", "set-credentials", "--client-id", "cli-client", "--client-secret", "cli-secret")
	require.NoError(t, err)

	return statePath
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := &cobra.Command{Use: "billing", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(
		NewEnvCommand(),
		NewURLCommand(),
		NewConfigCommand(),
		NewTokenCommand(),
		NewItemsCommand(),
		NewPersonsCommand(),
		NewInvoicesCommand(),
		NewInvoiceItemsCommand(),
	)

	var out bytes.Buffer

	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestCLIConfiguration(t *testing.T) {
	api := newBillingAPI(t)
	statePath := setupCLI(t, api)

	_, err := os.Stat(statePath)
	require.NoError(t, err, "settings should be written to the state file")

	out, err := runCLI(t, "env")
	require.NoError(t, err)
	assert.Contains(t, out, "development")
	assert.Contains(t, out, api.server.URL)

	out, err = runCLI(t, "url", "items")
	require.NoError(t, err)
	assert.Equal(t, api.server.URL+"/items\n", out)

	viper.Set("output", constants.FormatJSON)

	out, err = runCLI(t, "config", "show")
	require.NoError(t, err)

	var configs []EnvironmentConfig
	require.NoError(t, json.Unmarshal([]byte(out), &configs))
	require.Len(t, configs, 1)
	assert.Equal(t, "development", configs[0].Environment)
	assert.True(t, configs[0].Active)
	assert.Equal(t, api.server.URL, configs[0].BaseURL)
	assert.Equal(t, "cli-client", configs[0].ClientID)
	assert.Equal(t, constants.MaskedSecret, configs[0].ClientSecret)

	_, err = runCLI(t, "config", "set-timeout", "2s")
	require.NoError(t, err)

	out, err = runCLI(t, "config", "show", "--all")
	require.NoError(t, err)

	configs = nil
	require.NoError(t, json.Unmarshal([]byte(out), &configs))
	require.Len(t, configs, 3)
	assert.Equal(t, 2000, configs[0].TimeoutMs)
	assert.False(t, configs[1].Active)

	_, err = runCLI(t, "config", "set-timeout", "later")
	require.ErrorIs(t, err, ErrInvalidTimeout)

	_, err = runCLI(t, "config", "set-host", "not a url")
	require.ErrorIs(t, err, billing.ErrInvalidBaseURL)

	_, err = runCLI(t, "config", "set-credentials", "--client-id", "cli-client")
	require.ErrorIs(t, err, constants.ErrNoClientSecret)
}

func TestCLIToken(t *testing.T) {
	api := newBillingAPI(t)
	setupCLI(t, api)

	viper.Set("output", constants.FormatJSON)

	out, err := runCLI(t, "token", "show")
	require.NoError(t, err)

	var info TokenInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.False(t, info.Present)
	assert.Equal(t, "development", info.Environment)

	out, err = runCLI(t, "token", "refresh")
	require.NoError(t, err)

	info = TokenInfo{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.True(t, info.Present)
	assert.Equal(t, "cli-toke...", info.Preview)
	assert.NotNil(t, info.ExpiresAt)

	// The token is read back from the state file by the next invocation.
	api.reply("GET", "/items", http.StatusOK, []interface{}{})

	_, err = runCLI(t, "items", "list")
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.authorizeCalls.Load())

	viper.Set("output", constants.FormatTable)

	out, err = runCLI(t, "token", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Token for development cleared")

	viper.Set("output", constants.FormatJSON)

	out, err = runCLI(t, "token", "show")
	require.NoError(t, err)

	info = TokenInfo{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.False(t, info.Present)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestCLIItems(t *testing.T) {
	api := newBillingAPI(t)
	setupCLI(t, api)

	api.reply("POST", "/items", http.StatusCreated, map[string]interface{}{
		"id": 1, "alt_id": "ITEM-1", "name": "Widget", "unit_price": 2.5,
	})
	api.reply("GET", "/items", http.StatusOK, []map[string]interface{}{
		{"id": 1, "alt_id": "ITEM-1", "name": "Widget", "unit_price": 2.5},
		{"id": "2", "alt_id": "ITEM-2", "name": "Gadget", "unit_price": 10},
	})
	api.reply("GET", "/items/alt/ITEM-1", http.StatusOK, map[string]interface{}{"id": 1, "name": "Widget"})
	api.reply("PUT", "/items/1", http.StatusOK, map[string]interface{}{"id": 1, "name": "Widget", "unit_price": 3})
	api.reply("DELETE", "/items/1", http.StatusNoContent, nil)

	viper.Set("output", constants.FormatJSON)

	out, err := runCLI(t, "items", "create", "--name", "Widget", "--unit-price", "2.5")
	require.NoError(t, err)

	var item billing.Item
	require.NoError(t, json.Unmarshal([]byte(out), &item))
	assert.Equal(t, billing.ID("1"), item.ID)
	assert.Equal(t, "ITEM-1", item.AltID)

	call := api.lastCall()
	assert.Equal(t, "POST", call.Method)
	assert.Equal(t, "Widget", call.Body["name"])
	assert.InDelta(t, 2.5, call.Body["unit_price"], 0.0001)
	assert.Equal(t, defaultAuthor, call.Body["created_by"])

	_, err = runCLI(t, "items", "create", "--unit-price", "1")
	require.Error(t, err, "--name is required")

	out, err = runCLI(t, "items", "list")
	require.NoError(t, err)

	var items []billing.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, billing.ID("2"), items[1].ID)

	_, err = runCLI(t, "items", "get", "ITEM-1", "--alt")
	require.NoError(t, err)
	assert.Equal(t, "/items/alt/ITEM-1", api.lastCall().Path)

	before := api.callCount()

	_, err = runCLI(t, "items", "update", "1")
	require.ErrorIs(t, err, constants.ErrNothingToUpdate)
	assert.Equal(t, before, api.callCount())

	_, err = runCLI(t, "items", "update", "1", "--unit-price", "3")
	require.NoError(t, err)

	call = api.lastCall()
	assert.Equal(t, "PUT", call.Method)
	assert.InDelta(t, 3.0, call.Body["unit_price"], 0.0001)
	assert.NotContains(t, call.Body, "name")
	assert.Equal(t, defaultAuthor, call.Body["last_changed_by"])

	_, err = runCLI(t, "items", "get", "999")
	require.Error(t, err)
	assert.True(t, billing.IsNotFound(err))

	viper.Set("output", constants.FormatTable)

	out, err = runCLI(t, "items", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Gadget")
	assert.Contains(t, out, "10.00")

	out, err = runCLI(t, "items", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted item 1\n", out)

	viper.Set("output", "xml")

	_, err = runCLI(t, "items", "list")
	require.ErrorIs(t, err, constants.ErrUnsupportedFormat)
}

func TestCLIPersons(t *testing.T) {
	api := newBillingAPI(t)
	setupCLI(t, api)

	api.reply("GET", "/persons/email/ada@example.com", http.StatusOK, map[string]interface{}{
		"id": 7, "name": "Ada", "email": "ada@example.com",
	})
	api.reply("PUT", "/persons/7", http.StatusOK, map[string]interface{}{"id": 7, "name": "Ada L"})

	viper.Set("output", constants.FormatYAML)

	out, err := runCLI(t, "persons", "get", "ada@example.com", "--email")
	require.NoError(t, err)
	assert.Contains(t, out, "email: ada@example.com")

	_, err = runCLI(t, "persons", "get", "7", "--alt", "--email")
	require.ErrorIs(t, err, ErrConflictingFlags)

	_, err = runCLI(t, "persons", "update", "7", "--name", "Ada L")
	require.NoError(t, err)

	call := api.lastCall()
	assert.Equal(t, "/persons/7", call.Path)
	assert.Equal(t, "Ada L", call.Body["name"])
	assert.NotContains(t, call.Body, "email")
}

func TestCLIInvoices(t *testing.T) {
	api := newBillingAPI(t)
	setupCLI(t, api)

	api.reply("GET", "/invoices/user/42", http.StatusOK, []map[string]interface{}{
		{"id": 3, "alt_id": "INV-3", "user_id": "42", "total": 99.5, "paid": true},
	})
	api.reply("PUT", "/invoices/3", http.StatusOK, map[string]interface{}{"id": 3, "paid": false})

	out, err := runCLI(t, "invoices", "list", "--user", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "INV-3")
	assert.Contains(t, out, "99.50")
	assert.Contains(t, out, "yes")

	_, err = runCLI(t, "invoices", "update", "3", "--paid=false")
	require.NoError(t, err)

	call := api.lastCall()
	assert.Equal(t, "PUT", call.Method)
	assert.Equal(t, false, call.Body["paid"])
	assert.NotContains(t, call.Body, "total")
}

func TestCLIInvoiceItems(t *testing.T) {
	api := newBillingAPI(t)
	setupCLI(t, api)

	api.reply("POST", "/invoices-items", http.StatusCreated, map[string]interface{}{"invoice_id": 3, "item_id": 1})
	api.reply("DELETE", "/invoices-items/invoice/3", http.StatusNoContent, nil)
	api.reply("DELETE", "/invoices-items/3/1", http.StatusNoContent, nil)

	viper.Set("output", constants.FormatJSON)

	out, err := runCLI(t, "invoice-items", "create", "3", "1")
	require.NoError(t, err)

	var link billing.InvoiceItem
	require.NoError(t, json.Unmarshal([]byte(out), &link))
	assert.Equal(t, billing.InvoiceItem{InvoiceID: "3", ItemID: "1"}, link)

	out, err = runCLI(t, "invoice-items", "delete", "--invoice", "3")
	require.NoError(t, err)
	assert.Equal(t, "DELETE", api.lastCall().Method)
	assert.Equal(t, "/invoices-items/invoice/3", api.lastCall().Path)
	assert.Contains(t, out, `"deleted": "invoice items of invoice"`)

	_, err = runCLI(t, "invoice-items", "delete", "3", "1")
	require.NoError(t, err)
	assert.Equal(t, "/invoices-items/3/1", api.lastCall().Path)

	_, err = runCLI(t, "invoice-items", "delete", "3")
	require.ErrorIs(t, err, ErrConflictingFlags)

	_, err = runCLI(t, "invoice-items", "delete", "3", "1", "--item", "1")
	require.ErrorIs(t, err, ErrConflictingFlags)

	_, err = runCLI(t, "invoice-items", "delete")
	require.ErrorIs(t, err, ErrConflictingFlags)

	_, err = runCLI(t, "invoice-items", "list", "--invoice", "3", "--item", "1")
	require.ErrorIs(t, err, ErrConflictingFlags)
}

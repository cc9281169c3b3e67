package client_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/billing-client/internal/client"
	"github.com/fivetwenty-io/billing-client/internal/store"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

const (
	testClientID     = "test-client"
	testClientSecret = "test-secret"
	testToken        = "test-token"
)

// recordedRequest is a resource call seen by the fake API.
type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Body          []byte
}

// route is a canned reply. A string body is written verbatim.
type route struct {
	status      int
	body        interface{}
	contentType string
}

// fakeAPI serves /authorize plus whatever routes a test registers.
type fakeAPI struct {
	server         *httptest.Server
	mu             sync.Mutex
	routes         map[string]route
	requests       []recordedRequest
	authorizeCalls atomic.Int32
	lastClientID   atomic.Value
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{routes: make(map[string]route)}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.server.Close)

	return api
}

func (f *fakeAPI) handle(method, path string, status int, body interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.routes[method+" "+path] = route{status: status, body: body}
}

// handleText registers a route answering with a text/plain body.
func (f *fakeAPI) handleText(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.routes[method+" "+path] = route{status: status, body: body, contentType: "text/plain; charset=utf-8"}
}

func (f *fakeAPI) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeAPI) last() recordedRequest {
	requests := f.recorded()
	if len(requests) == 0 {
		return recordedRequest{}
	}

	return requests[len(requests)-1]
}

func (f *fakeAPI) serve(writer http.ResponseWriter, request *http.Request) {
	if request.URL.Path == "/authorize" {
		f.authorizeCalls.Add(1)

		clientID, clientSecret, ok := request.BasicAuth()
		if !ok || clientID == "" {
			writer.WriteHeader(http.StatusUnauthorized)

			return
		}

		f.lastClientID.Store(clientID)

		if clientSecret == "wrong" {
			writer.WriteHeader(http.StatusUnauthorized)

			return
		}

		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]interface{}{"token": testToken, "expires_in": 3600})

		return
	}

	body, _ := io.ReadAll(request.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method:        request.Method,
		Path:          request.URL.Path,
		Authorization: request.Header.Get("Authorization"),
		Body:          body,
	})
	reply, ok := f.routes[request.Method+" "+request.URL.Path]
	f.mu.Unlock()

	if request.Header.Get("Authorization") != "Bearer "+testToken {
		writer.WriteHeader(http.StatusUnauthorized)

		return
	}

	if !ok {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"message":"not found"}`))

		return
	}

	contentType := reply.contentType
	if contentType == "" {
		contentType = "application/json"
	}

	writer.Header().Set("Content-Type", contentType)
	writer.WriteHeader(reply.status)

	switch body := reply.body.(type) {
	case nil:
	case string:
		_, _ = writer.Write([]byte(body))
	default:
		_ = json.NewEncoder(writer).Encode(body)
	}
}

// newTestClient creates a development client pointed at api with test
// credentials, backed by kv.
func newTestClient(t *testing.T, api *fakeAPI, kv billing.KeyValueStore) *client.Client {
	t.Helper()

	if kv == nil {
		kv = store.NewMemoryStore()
	}

	ctx := context.Background()

	c, err := client.New(ctx, &billing.Config{
		Environment: billing.EnvironmentDevelopment,
		Store:       kv,
	})
	require.NoError(t, err)

	require.NoError(t, c.UpdateAPIHost(ctx, api.server.URL))
	require.NoError(t, c.UpdateClientCredentials(ctx, testClientID, testClientSecret))

	return c
}

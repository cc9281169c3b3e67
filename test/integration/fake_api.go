//go:build integration

package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

const (
	fakeClientID     = "integration-client"
	fakeClientSecret = "integration-secret"
	fakeToken        = "integration-token"
)

type record map[string]interface{}

// collection is one resource table of the fake API, in insertion order.
type collection struct {
	prefix  string
	nextID  int
	order   []string
	records map[string]record
}

func newCollection(prefix string) *collection {
	return &collection{prefix: prefix, records: make(map[string]record)}
}

func (c *collection) create(fields record) record {
	c.nextID++
	id := fmt.Sprint(c.nextID)

	fields["id"] = c.nextID
	fields["alt_id"] = fmt.Sprintf("%s-%d", c.prefix, c.nextID)
	fields["created_at"] = time.Now().UTC().Format(time.RFC3339)

	c.records[id] = fields
	c.order = append(c.order, id)

	return fields
}

func (c *collection) list(match func(record) bool) []record {
	result := []record{}

	for _, id := range c.order {
		if rec, ok := c.records[id]; ok && (match == nil || match(rec)) {
			result = append(result, rec)
		}
	}

	return result
}

func (c *collection) findBy(field, value string) record {
	for _, rec := range c.list(nil) {
		if fmt.Sprint(rec[field]) == value {
			return rec
		}
	}

	return nil
}

func (c *collection) remove(id string) bool {
	_, ok := c.records[id]
	delete(c.records, id)

	return ok
}

// FakeBillingAPI is an in-memory billing API for running the CLI without a
// real backend.
type FakeBillingAPI struct {
	server   *httptest.Server
	mu       sync.Mutex
	items    *collection
	persons  *collection
	invoices *collection
	links    []record
}

// StartFakeAPI serves a fake billing API until the test ends.
func StartFakeAPI(t *testing.T) *FakeBillingAPI {
	t.Helper()

	api := &FakeBillingAPI{
		items:    newCollection("ITEM"),
		persons:  newCollection("PERSON"),
		invoices: newCollection("INV"),
	}
	api.server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.server.Close)

	return api
}

// URL returns the base URL of the fake API.
func (api *FakeBillingAPI) URL() string {
	return api.server.URL
}

func (api *FakeBillingAPI) serve(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "application/json")

	if request.URL.Path == "/authorize" {
		clientID, clientSecret, ok := request.BasicAuth()
		if !ok || clientID != fakeClientID || clientSecret != fakeClientSecret {
			writeJSON(writer, http.StatusUnauthorized, record{"message": "invalid client"})

			return
		}

		writeJSON(writer, http.StatusOK, record{"token": fakeToken, "expires_in": 3600})

		return
	}

	if request.Header.Get("Authorization") != "Bearer "+fakeToken {
		writeJSON(writer, http.StatusUnauthorized, record{"message": "unauthorized"})

		return
	}

	var body record
	if request.Method == http.MethodPost || request.Method == http.MethodPut {
		err := json.NewDecoder(request.Body).Decode(&body)
		if err != nil {
			writeJSON(writer, http.StatusBadRequest, record{"message": err.Error()})

			return
		}
	}

	segments := strings.Split(strings.Trim(request.URL.Path, "/"), "/")

	api.mu.Lock()
	defer api.mu.Unlock()

	if segments[0] == "invoices-items" {
		api.serveLinks(writer, request.Method, segments[1:], body)

		return
	}

	var coll *collection

	switch segments[0] {
	case "items":
		coll = api.items
	case "persons":
		coll = api.persons
	case "invoices":
		coll = api.invoices
	default:
		writeJSON(writer, http.StatusNotFound, record{"message": "not found"})

		return
	}

	api.serveCollection(writer, request.Method, coll, segments[1:], body)
}

func (api *FakeBillingAPI) serveCollection(writer http.ResponseWriter, method string, coll *collection, rest []string, body record) {
	switch {
	case len(rest) == 0 && method == http.MethodGet:
		writeJSON(writer, http.StatusOK, coll.list(nil))
	case len(rest) == 0 && method == http.MethodPost:
		writeJSON(writer, http.StatusCreated, coll.create(body))
	case len(rest) == 2 && method == http.MethodGet && rest[0] == "user":
		writeJSON(writer, http.StatusOK, coll.list(func(rec record) bool { return fmt.Sprint(rec["user_id"]) == rest[1] }))
	case len(rest) == 2 && method == http.MethodGet && (rest[0] == "alt" || rest[0] == "email"):
		field := "alt_id"
		if rest[0] == "email" {
			field = "email"
		}

		writeFound(writer, coll.findBy(field, rest[1]))
	case len(rest) == 1 && method == http.MethodGet:
		writeFound(writer, coll.records[rest[0]])
	case len(rest) == 1 && method == http.MethodPut:
		rec := coll.records[rest[0]]
		if rec != nil {
			for key, value := range body {
				rec[key] = value
			}

			rec["last_update"] = time.Now().UTC().Format(time.RFC3339)
		}

		writeFound(writer, rec)
	case len(rest) == 1 && method == http.MethodDelete:
		if !coll.remove(rest[0]) {
			writeJSON(writer, http.StatusNotFound, record{"message": "not found"})

			return
		}

		writer.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(writer, http.StatusNotFound, record{"message": "not found"})
	}
}

func (api *FakeBillingAPI) serveLinks(writer http.ResponseWriter, method string, rest []string, body record) {
	matches := func(rec record) bool { return true }

	switch {
	case len(rest) == 2 && rest[0] == "invoice":
		matches = func(rec record) bool { return fmt.Sprint(rec["invoice_id"]) == rest[1] }
	case len(rest) == 2 && rest[0] == "item":
		matches = func(rec record) bool { return fmt.Sprint(rec["item_id"]) == rest[1] }
	case len(rest) == 2:
		matches = func(rec record) bool {
			return fmt.Sprint(rec["invoice_id"]) == rest[0] && fmt.Sprint(rec["item_id"]) == rest[1]
		}
	}

	switch {
	case len(rest) == 0 && method == http.MethodPost:
		api.links = append(api.links, body)
		writeJSON(writer, http.StatusCreated, body)
	case method == http.MethodGet && len(rest) == 2 && rest[0] != "invoice" && rest[0] != "item":
		var found record

		for _, link := range api.links {
			if matches(link) {
				found = link
			}
		}

		writeFound(writer, found)
	case method == http.MethodGet:
		result := []record{}

		for _, link := range api.links {
			if matches(link) {
				result = append(result, link)
			}
		}

		writeJSON(writer, http.StatusOK, result)
	case method == http.MethodDelete && len(rest) == 2:
		kept := api.links[:0]

		for _, link := range api.links {
			if !matches(link) {
				kept = append(kept, link)
			}
		}

		api.links = kept
		writer.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(writer, http.StatusNotFound, record{"message": "not found"})
	}
}

func writeFound(writer http.ResponseWriter, rec record) {
	if rec == nil {
		writeJSON(writer, http.StatusNotFound, record{"message": "not found"})

		return
	}

	writeJSON(writer, http.StatusOK, rec)
}

func writeJSON(writer http.ResponseWriter, status int, value interface{}) {
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(value)
}

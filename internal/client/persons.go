package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/billing-client/internal/http"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

const personsPath = "/persons"

// PersonsClient implements billing.PersonsClient.
type PersonsClient struct {
	httpClient *http.Client
}

// NewPersonsClient creates a new persons client.
func NewPersonsClient(httpClient *http.Client) *PersonsClient {
	return &PersonsClient{
		httpClient: httpClient,
	}
}

// List implements billing.PersonsClient.List.
func (c *PersonsClient) List(ctx context.Context) ([]billing.Person, error) {
	persons, err := fetchList[billing.Person](ctx, c.httpClient, personsPath)
	if err != nil {
		return nil, fmt.Errorf("listing persons: %w", err)
	}

	return persons, nil
}

// Get implements billing.PersonsClient.Get.
func (c *PersonsClient) Get(ctx context.Context, id string) (*billing.Person, error) {
	err := requireID(id)
	if err != nil {
		return nil, fmt.Errorf("getting person: %w", err)
	}

	person, err := fetchOne[billing.Person](ctx, c.httpClient, joinPath(personsPath, id))
	if err != nil {
		return nil, fmt.Errorf("getting person %s: %w", id, err)
	}

	return person, nil
}

// GetByAltID implements billing.PersonsClient.GetByAltID.
func (c *PersonsClient) GetByAltID(ctx context.Context, altID string) (*billing.Person, error) {
	err := requireID(altID)
	if err != nil {
		return nil, fmt.Errorf("getting person by alt id: %w", err)
	}

	person, err := fetchOne[billing.Person](ctx, c.httpClient, joinPath(personsPath, "alt", altID))
	if err != nil {
		return nil, fmt.Errorf("getting person by alt id %s: %w", altID, err)
	}

	return person, nil
}

// GetByEmail implements billing.PersonsClient.GetByEmail.
func (c *PersonsClient) GetByEmail(ctx context.Context, email string) (*billing.Person, error) {
	err := requireID(email)
	if err != nil {
		return nil, fmt.Errorf("getting person by email: %w", err)
	}

	person, err := fetchOne[billing.Person](ctx, c.httpClient, joinPath(personsPath, "email", email))
	if err != nil {
		return nil, fmt.Errorf("getting person by email %s: %w", email, err)
	}

	return person, nil
}

// Create implements billing.PersonsClient.Create.
func (c *PersonsClient) Create(ctx context.Context, request *billing.PersonCreateRequest) (*billing.Person, error) {
	person, err := send[billing.Person](ctx, c.httpClient, nethttp.MethodPost, personsPath, request)
	if err != nil {
		return nil, fmt.Errorf("creating person: %w", err)
	}

	return person, nil
}

// Update implements billing.PersonsClient.Update.
func (c *PersonsClient) Update(ctx context.Context, id string, request *billing.PersonUpdateRequest) (*billing.Person, error) {
	err := requireID(id)
	if err != nil {
		return nil, fmt.Errorf("updating person: %w", err)
	}

	person, err := send[billing.Person](ctx, c.httpClient, nethttp.MethodPut, joinPath(personsPath, id), request)
	if err != nil {
		return nil, fmt.Errorf("updating person %s: %w", id, err)
	}

	return person, nil
}

// Delete implements billing.PersonsClient.Delete.
func (c *PersonsClient) Delete(ctx context.Context, id string) error {
	err := requireID(id)
	if err != nil {
		return fmt.Errorf("deleting person: %w", err)
	}

	err = remove(ctx, c.httpClient, joinPath(personsPath, id))
	if err != nil {
		return fmt.Errorf("deleting person %s: %w", id, err)
	}

	return nil
}

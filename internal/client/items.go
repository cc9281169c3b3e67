package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/billing-client/internal/http"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

const itemsPath = "/items"

// ItemsClient implements billing.ItemsClient.
type ItemsClient struct {
	httpClient *http.Client
}

// NewItemsClient creates a new items client.
func NewItemsClient(httpClient *http.Client) *ItemsClient {
	return &ItemsClient{
		httpClient: httpClient,
	}
}

// List implements billing.ItemsClient.List.
func (c *ItemsClient) List(ctx context.Context) ([]billing.Item, error) {
	items, err := fetchList[billing.Item](ctx, c.httpClient, itemsPath)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	return items, nil
}

// Get implements billing.ItemsClient.Get.
func (c *ItemsClient) Get(ctx context.Context, id string) (*billing.Item, error) {
	err := requireID(id)
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	item, err := fetchOne[billing.Item](ctx, c.httpClient, joinPath(itemsPath, id))
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", id, err)
	}

	return item, nil
}

// GetByAltID implements billing.ItemsClient.GetByAltID.
func (c *ItemsClient) GetByAltID(ctx context.Context, altID string) (*billing.Item, error) {
	err := requireID(altID)
	if err != nil {
		return nil, fmt.Errorf("getting item by alt id: %w", err)
	}

	item, err := fetchOne[billing.Item](ctx, c.httpClient, joinPath(itemsPath, "alt", altID))
	if err != nil {
		return nil, fmt.Errorf("getting item by alt id %s: %w", altID, err)
	}

	return item, nil
}

// Create implements billing.ItemsClient.Create.
func (c *ItemsClient) Create(ctx context.Context, request *billing.ItemCreateRequest) (*billing.Item, error) {
	item, err := send[billing.Item](ctx, c.httpClient, nethttp.MethodPost, itemsPath, request)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return item, nil
}

// Update implements billing.ItemsClient.Update.
func (c *ItemsClient) Update(ctx context.Context, id string, request *billing.ItemUpdateRequest) (*billing.Item, error) {
	err := requireID(id)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	item, err := send[billing.Item](ctx, c.httpClient, nethttp.MethodPut, joinPath(itemsPath, id), request)
	if err != nil {
		return nil, fmt.Errorf("updating item %s: %w", id, err)
	}

	return item, nil
}

// Delete implements billing.ItemsClient.Delete.
func (c *ItemsClient) Delete(ctx context.Context, id string) error {
	err := requireID(id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	err = remove(ctx, c.httpClient, joinPath(itemsPath, id))
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}

	return nil
}

package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/billing-client/internal/http"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

const invoiceItemsPath = "/invoices-items"

// InvoiceItemsClient implements billing.InvoiceItemsClient.
type InvoiceItemsClient struct {
	httpClient *http.Client
}

// NewInvoiceItemsClient creates a new invoice items client.
func NewInvoiceItemsClient(httpClient *http.Client) *InvoiceItemsClient {
	return &InvoiceItemsClient{
		httpClient: httpClient,
	}
}

// List implements billing.InvoiceItemsClient.List.
func (c *InvoiceItemsClient) List(ctx context.Context) ([]billing.InvoiceItem, error) {
	links, err := fetchList[billing.InvoiceItem](ctx, c.httpClient, invoiceItemsPath)
	if err != nil {
		return nil, fmt.Errorf("listing invoice items: %w", err)
	}

	return links, nil
}

// ListByInvoice implements billing.InvoiceItemsClient.ListByInvoice.
func (c *InvoiceItemsClient) ListByInvoice(ctx context.Context, invoiceID string) ([]billing.InvoiceItem, error) {
	err := requireID(invoiceID)
	if err != nil {
		return nil, fmt.Errorf("listing invoice items by invoice: %w", err)
	}

	links, err := fetchList[billing.InvoiceItem](ctx, c.httpClient, joinPath(invoiceItemsPath, "invoice", invoiceID))
	if err != nil {
		return nil, fmt.Errorf("listing invoice items for invoice %s: %w", invoiceID, err)
	}

	return links, nil
}

// ListByItem implements billing.InvoiceItemsClient.ListByItem.
func (c *InvoiceItemsClient) ListByItem(ctx context.Context, itemID string) ([]billing.InvoiceItem, error) {
	err := requireID(itemID)
	if err != nil {
		return nil, fmt.Errorf("listing invoice items by item: %w", err)
	}

	links, err := fetchList[billing.InvoiceItem](ctx, c.httpClient, joinPath(invoiceItemsPath, "item", itemID))
	if err != nil {
		return nil, fmt.Errorf("listing invoice items for item %s: %w", itemID, err)
	}

	return links, nil
}

// Get implements billing.InvoiceItemsClient.Get.
func (c *InvoiceItemsClient) Get(ctx context.Context, invoiceID, itemID string) (*billing.InvoiceItem, error) {
	err := requireID(invoiceID, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting invoice item: %w", err)
	}

	link, err := fetchOne[billing.InvoiceItem](ctx, c.httpClient, joinPath(invoiceItemsPath, invoiceID, itemID))
	if err != nil {
		return nil, fmt.Errorf("getting invoice item %s/%s: %w", invoiceID, itemID, err)
	}

	return link, nil
}

// Create implements billing.InvoiceItemsClient.Create.
func (c *InvoiceItemsClient) Create(ctx context.Context, request *billing.InvoiceItem) (*billing.InvoiceItem, error) {
	if request == nil {
		return nil, fmt.Errorf("creating invoice item: %w", billing.ErrIDRequired)
	}

	err := requireID(request.InvoiceID.String(), request.ItemID.String())
	if err != nil {
		return nil, fmt.Errorf("creating invoice item: %w", err)
	}

	link, err := send[billing.InvoiceItem](ctx, c.httpClient, nethttp.MethodPost, invoiceItemsPath, request)
	if err != nil {
		return nil, fmt.Errorf("creating invoice item: %w", err)
	}

	return link, nil
}

// DeleteByInvoice implements billing.InvoiceItemsClient.DeleteByInvoice.
func (c *InvoiceItemsClient) DeleteByInvoice(ctx context.Context, invoiceID string) error {
	err := requireID(invoiceID)
	if err != nil {
		return fmt.Errorf("deleting invoice items by invoice: %w", err)
	}

	err = remove(ctx, c.httpClient, joinPath(invoiceItemsPath, "invoice", invoiceID))
	if err != nil {
		return fmt.Errorf("deleting invoice items for invoice %s: %w", invoiceID, err)
	}

	return nil
}

// DeleteByItem implements billing.InvoiceItemsClient.DeleteByItem.
func (c *InvoiceItemsClient) DeleteByItem(ctx context.Context, itemID string) error {
	err := requireID(itemID)
	if err != nil {
		return fmt.Errorf("deleting invoice items by item: %w", err)
	}

	err = remove(ctx, c.httpClient, joinPath(invoiceItemsPath, "item", itemID))
	if err != nil {
		return fmt.Errorf("deleting invoice items for item %s: %w", itemID, err)
	}

	return nil
}

// Delete implements billing.InvoiceItemsClient.Delete.
func (c *InvoiceItemsClient) Delete(ctx context.Context, invoiceID, itemID string) error {
	err := requireID(invoiceID, itemID)
	if err != nil {
		return fmt.Errorf("deleting invoice item: %w", err)
	}

	err = remove(ctx, c.httpClient, joinPath(invoiceItemsPath, invoiceID, itemID))
	if err != nil {
		return fmt.Errorf("deleting invoice item %s/%s: %w", invoiceID, itemID, err)
	}

	return nil
}

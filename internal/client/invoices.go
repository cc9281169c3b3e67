package client

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/fivetwenty-io/billing-client/internal/http"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

const invoicesPath = "/invoices"

// InvoicesClient implements billing.InvoicesClient.
type InvoicesClient struct {
	httpClient *http.Client
}

// NewInvoicesClient creates a new invoices client.
func NewInvoicesClient(httpClient *http.Client) *InvoicesClient {
	return &InvoicesClient{
		httpClient: httpClient,
	}
}

// List implements billing.InvoicesClient.List.
func (c *InvoicesClient) List(ctx context.Context) ([]billing.Invoice, error) {
	invoices, err := fetchList[billing.Invoice](ctx, c.httpClient, invoicesPath)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}

	return invoices, nil
}

// Get implements billing.InvoicesClient.Get.
func (c *InvoicesClient) Get(ctx context.Context, id string) (*billing.Invoice, error) {
	err := requireID(id)
	if err != nil {
		return nil, fmt.Errorf("getting invoice: %w", err)
	}

	invoice, err := fetchOne[billing.Invoice](ctx, c.httpClient, joinPath(invoicesPath, id))
	if err != nil {
		return nil, fmt.Errorf("getting invoice %s: %w", id, err)
	}

	return invoice, nil
}

// GetByAltID implements billing.InvoicesClient.GetByAltID.
func (c *InvoicesClient) GetByAltID(ctx context.Context, altID string) (*billing.Invoice, error) {
	err := requireID(altID)
	if err != nil {
		return nil, fmt.Errorf("getting invoice by alt id: %w", err)
	}

	invoice, err := fetchOne[billing.Invoice](ctx, c.httpClient, joinPath(invoicesPath, "alt", altID))
	if err != nil {
		return nil, fmt.Errorf("getting invoice by alt id %s: %w", altID, err)
	}

	return invoice, nil
}

// ListByUser implements billing.InvoicesClient.ListByUser.
func (c *InvoicesClient) ListByUser(ctx context.Context, userID string) ([]billing.Invoice, error) {
	err := requireID(userID)
	if err != nil {
		return nil, fmt.Errorf("listing invoices by user: %w", err)
	}

	invoices, err := fetchList[billing.Invoice](ctx, c.httpClient, joinPath(invoicesPath, "user", userID))
	if err != nil {
		return nil, fmt.Errorf("listing invoices for user %s: %w", userID, err)
	}

	return invoices, nil
}

// Create implements billing.InvoicesClient.Create.
func (c *InvoicesClient) Create(ctx context.Context, request *billing.InvoiceCreateRequest) (*billing.Invoice, error) {
	invoice, err := send[billing.Invoice](ctx, c.httpClient, nethttp.MethodPost, invoicesPath, request)
	if err != nil {
		return nil, fmt.Errorf("creating invoice: %w", err)
	}

	return invoice, nil
}

// Update implements billing.InvoicesClient.Update.
func (c *InvoicesClient) Update(ctx context.Context, id string, request *billing.InvoiceUpdateRequest) (*billing.Invoice, error) {
	err := requireID(id)
	if err != nil {
		return nil, fmt.Errorf("updating invoice: %w", err)
	}

	invoice, err := send[billing.Invoice](ctx, c.httpClient, nethttp.MethodPut, joinPath(invoicesPath, id), request)
	if err != nil {
		return nil, fmt.Errorf("updating invoice %s: %w", id, err)
	}

	return invoice, nil
}

// Delete implements billing.InvoicesClient.Delete.
func (c *InvoicesClient) Delete(ctx context.Context, id string) error {
	err := requireID(id)
	if err != nil {
		return fmt.Errorf("deleting invoice: %w", err)
	}

	err = remove(ctx, c.httpClient, joinPath(invoicesPath, id))
	if err != nil {
		return fmt.Errorf("deleting invoice %s: %w", id, err)
	}

	return nil
}

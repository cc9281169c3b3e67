package commands

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// NewInvoiceItemsCommand creates the invoice-items command group.
func NewInvoiceItemsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoice-items",
		Aliases: []string{"invoice-item", "ii"},
		Short:   "Manage invoice items",
		Long:    "List, view, create and delete the links between invoices and items",
	}

	cmd.AddCommand(newInvoiceItemsListCommand())
	cmd.AddCommand(newInvoiceItemsGetCommand())
	cmd.AddCommand(newInvoiceItemsCreateCommand())
	cmd.AddCommand(newInvoiceItemsDeleteCommand())

	return cmd
}

func newInvoiceItemsListCommand() *cobra.Command {
	var invoiceID, itemID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoice items",
		Long:  "List all invoice items, or those of one invoice (--invoice) or one item (--item)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if invoiceID != "" && itemID != "" {
				return fmt.Errorf("%w: --invoice and --item", ErrConflictingFlags)
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				var (
					links []billing.InvoiceItem
					err   error
				)

				switch {
				case invoiceID != "":
					links, err = client.InvoiceItems().ListByInvoice(ctx, invoiceID)
				case itemID != "":
					links, err = client.InvoiceItems().ListByItem(ctx, itemID)
				default:
					links, err = client.InvoiceItems().List(ctx)
				}

				if err != nil {
					return err
				}

				return render(cmd, links, func(table *tablewriter.Table) {
					table.Header("Invoice ID", "Item ID")

					for _, link := range links {
						_ = table.Append(link.InvoiceID.String(), link.ItemID.String())
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&invoiceID, "invoice", "", "only links of this invoice id")
	cmd.Flags().StringVar(&itemID, "item", "", "only links of this item id")

	return cmd
}

func newInvoiceItemsGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get INVOICE_ID ITEM_ID",
		Short: "Get an invoice item",
		Long:  "Display the link between an invoice and an item",
		Args:  cobra.ExactArgs(2), //nolint:mnd // invoice id and item id
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				link, err := client.InvoiceItems().Get(ctx, args[0], args[1])
				if err != nil {
					return err
				}

				return renderInvoiceItem(cmd, link)
			})
		},
	}
}

func newInvoiceItemsCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create INVOICE_ID ITEM_ID",
		Short: "Add an item to an invoice",
		Long:  "Link an item to an invoice",
		Args:  cobra.ExactArgs(2), //nolint:mnd // invoice id and item id
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				link, err := client.InvoiceItems().Create(ctx, &billing.InvoiceItem{
					InvoiceID: billing.ID(args[0]),
					ItemID:    billing.ID(args[1]),
				})
				if err != nil {
					return err
				}

				return renderInvoiceItem(cmd, link)
			})
		},
	}
}

func newInvoiceItemsDeleteCommand() *cobra.Command {
	var invoiceID, itemID string

	cmd := &cobra.Command{
		Use:   "delete [INVOICE_ID ITEM_ID]",
		Short: "Remove invoice items",
		Long: `Remove one link between an invoice and an item, or every link of an
invoice (--invoice) or of an item (--item).`,
		Args: cobra.MaximumNArgs(2), //nolint:mnd // invoice id and item id
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors := 0
			for _, set := range []bool{len(args) > 0, invoiceID != "", itemID != ""} {
				if set {
					selectors++
				}
			}

			if selectors != 1 || len(args) == 1 {
				return fmt.Errorf("%w: pass INVOICE_ID ITEM_ID, --invoice or --item", ErrConflictingFlags)
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				switch {
				case invoiceID != "":
					err := client.InvoiceItems().DeleteByInvoice(ctx, invoiceID)
					if err != nil {
						return err
					}

					return renderDeleted(cmd, "invoice items of invoice", invoiceID)
				case itemID != "":
					err := client.InvoiceItems().DeleteByItem(ctx, itemID)
					if err != nil {
						return err
					}

					return renderDeleted(cmd, "invoice items of item", itemID)
				default:
					err := client.InvoiceItems().Delete(ctx, args[0], args[1])
					if err != nil {
						return err
					}

					return renderDeleted(cmd, "invoice item", args[0]+"/"+args[1])
				}
			})
		},
	}

	cmd.Flags().StringVar(&invoiceID, "invoice", "", "remove every link of this invoice id")
	cmd.Flags().StringVar(&itemID, "item", "", "remove every link of this item id")

	return cmd
}

func renderInvoiceItem(cmd *cobra.Command, link *billing.InvoiceItem) error {
	return render(cmd, link, propertyTable([][2]string{
		{"Invoice ID", link.InvoiceID.String()},
		{"Item ID", link.ItemID.String()},
	}))
}

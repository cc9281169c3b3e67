package commands

import (
	"context"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// NewInvoicesCommand creates the invoices command group.
func NewInvoicesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoices",
		Aliases: []string{"invoice"},
		Short:   "Manage invoices",
		Long:    "List, view, create, update and delete invoices",
	}

	cmd.AddCommand(newInvoicesListCommand())
	cmd.AddCommand(newInvoicesGetCommand())
	cmd.AddCommand(newInvoicesCreateCommand())
	cmd.AddCommand(newInvoicesUpdateCommand())
	cmd.AddCommand(newInvoicesDeleteCommand())

	return cmd
}

func newInvoicesListCommand() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Long:  "List all invoices, or the invoices of one user with --user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				var (
					invoices []billing.Invoice
					err      error
				)

				if userID != "" {
					invoices, err = client.Invoices().ListByUser(ctx, userID)
				} else {
					invoices, err = client.Invoices().List(ctx)
				}

				if err != nil {
					return err
				}

				return render(cmd, invoices, func(table *tablewriter.Table) {
					table.Header("ID", "Alt ID", "User ID", "Total", "Paid")

					for _, invoice := range invoices {
						_ = table.Append(invoice.ID.String(), invoice.AltID, invoice.UserID,
							formatFloat(invoice.Total), formatBool(invoice.Paid))
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "only invoices of this user id")

	return cmd
}

func newInvoicesGetCommand() *cobra.Command {
	var alt bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Get invoice details",
		Long:  "Display a single invoice by id, or by alternate id with --alt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				var (
					invoice *billing.Invoice
					err     error
				)

				if alt {
					invoice, err = client.Invoices().GetByAltID(ctx, args[0])
				} else {
					invoice, err = client.Invoices().Get(ctx, args[0])
				}

				if err != nil {
					return err
				}

				return renderInvoice(cmd, invoice)
			})
		},
	}

	cmd.Flags().BoolVar(&alt, "alt", false, "look up by alternate id")

	return cmd
}

func newInvoicesCreateCommand() *cobra.Command {
	request := &billing.InvoiceCreateRequest{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an invoice",
		Long:  "Create a new invoice for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				invoice, err := client.Invoices().Create(ctx, request)
				if err != nil {
					return err
				}

				return renderInvoice(cmd, invoice)
			})
		},
	}

	cmd.Flags().StringVar(&request.UserID, "user-id", "", "id of the invoiced user (required)")
	cmd.Flags().Float64Var(&request.Total, "total", 0, "invoice total")
	cmd.Flags().BoolVar(&request.Paid, "paid", false, "mark the invoice as paid")
	cmd.Flags().StringVar(&request.CreatedBy, "created-by", defaultAuthor, "author recorded on the invoice")
	_ = cmd.MarkFlagRequired("user-id")

	return cmd
}

func newInvoicesUpdateCommand() *cobra.Command {
	var (
		total         float64
		paid          bool
		userID        string
		lastChangedBy string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an invoice",
		Long:  "Update the total, paid flag or user of an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &billing.InvoiceUpdateRequest{LastChangedBy: lastChangedBy}

			if cmd.Flags().Changed("total") {
				request.Total = &total
			}

			if cmd.Flags().Changed("paid") {
				request.Paid = &paid
			}

			if cmd.Flags().Changed("user-id") {
				request.UserID = &userID
			}

			if request.Total == nil && request.Paid == nil && request.UserID == nil {
				return constants.ErrNothingToUpdate
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				invoice, err := client.Invoices().Update(ctx, args[0], request)
				if err != nil {
					return err
				}

				return renderInvoice(cmd, invoice)
			})
		},
	}

	cmd.Flags().Float64Var(&total, "total", 0, "new total")
	cmd.Flags().BoolVar(&paid, "paid", false, "paid flag (use --paid=false to clear)")
	cmd.Flags().StringVar(&userID, "user-id", "", "new user id")
	cmd.Flags().StringVar(&lastChangedBy, "changed-by", defaultAuthor, "author recorded on the change")

	return cmd
}

func newInvoicesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an invoice",
		Long:  "Delete an invoice by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				err := client.Invoices().Delete(ctx, args[0])
				if err != nil {
					return err
				}

				return renderDeleted(cmd, "invoice", args[0])
			})
		},
	}
}

func renderInvoice(cmd *cobra.Command, invoice *billing.Invoice) error {
	return render(cmd, invoice, propertyTable([][2]string{
		{"ID", invoice.ID.String()},
		{"Alt ID", invoice.AltID},
		{"User ID", invoice.UserID},
		{"Total", formatFloat(invoice.Total)},
		{"Paid", formatBool(invoice.Paid)},
		{"Created By", invoice.CreatedBy},
		{"Created At", invoice.CreatedAt},
		{"Last Update", invoice.LastUpdate},
		{"Last Changed By", invoice.LastChangedBy},
	}))
}

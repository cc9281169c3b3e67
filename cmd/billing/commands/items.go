package commands

import (
	"context"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// NewItemsCommand creates the items command group.
func NewItemsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "items",
		Aliases: []string{"item"},
		Short:   "Manage items",
		Long:    "List, view, create, update and delete billable items",
	}

	cmd.AddCommand(newItemsListCommand())
	cmd.AddCommand(newItemsGetCommand())
	cmd.AddCommand(newItemsCreateCommand())
	cmd.AddCommand(newItemsUpdateCommand())
	cmd.AddCommand(newItemsDeleteCommand())

	return cmd
}

func newItemsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List items",
		Long:  "List all billable items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				items, err := client.Items().List(ctx)
				if err != nil {
					return err
				}

				return render(cmd, items, func(table *tablewriter.Table) {
					table.Header("ID", "Alt ID", "Name", "Unit Price", "Description")

					for _, item := range items {
						_ = table.Append(item.ID.String(), item.AltID, item.Name, formatFloat(item.UnitPrice), item.Description)
					}
				})
			})
		},
	}
}

func newItemsGetCommand() *cobra.Command {
	var alt bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Get item details",
		Long:  "Display a single item by id, or by alternate id with --alt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				var (
					item *billing.Item
					err  error
				)

				if alt {
					item, err = client.Items().GetByAltID(ctx, args[0])
				} else {
					item, err = client.Items().Get(ctx, args[0])
				}

				if err != nil {
					return err
				}

				return renderItem(cmd, item)
			})
		},
	}

	cmd.Flags().BoolVar(&alt, "alt", false, "look up by alternate id")

	return cmd
}

func newItemsCreateCommand() *cobra.Command {
	request := &billing.ItemCreateRequest{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		Long:  "Create a new billable item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				item, err := client.Items().Create(ctx, request)
				if err != nil {
					return err
				}

				return renderItem(cmd, item)
			})
		},
	}

	cmd.Flags().StringVar(&request.Name, "name", "", "item name (required)")
	cmd.Flags().StringVar(&request.Description, "description", "", "item description")
	cmd.Flags().Float64Var(&request.UnitPrice, "unit-price", 0, "unit price")
	cmd.Flags().StringVar(&request.CreatedBy, "created-by", defaultAuthor, "author recorded on the item")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newItemsUpdateCommand() *cobra.Command {
	var (
		name          string
		description   string
		unitPrice     float64
		lastChangedBy string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update an item",
		Long:  "Update the name, description or unit price of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &billing.ItemUpdateRequest{LastChangedBy: lastChangedBy}

			if cmd.Flags().Changed("name") {
				request.Name = &name
			}

			if cmd.Flags().Changed("description") {
				request.Description = &description
			}

			if cmd.Flags().Changed("unit-price") {
				request.UnitPrice = &unitPrice
			}

			if request.Name == nil && request.Description == nil && request.UnitPrice == nil {
				return constants.ErrNothingToUpdate
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				item, err := client.Items().Update(ctx, args[0], request)
				if err != nil {
					return err
				}

				return renderItem(cmd, item)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().Float64Var(&unitPrice, "unit-price", 0, "new unit price")
	cmd.Flags().StringVar(&lastChangedBy, "changed-by", defaultAuthor, "author recorded on the change")

	return cmd
}

func newItemsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an item",
		Long:  "Delete an item by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				err := client.Items().Delete(ctx, args[0])
				if err != nil {
					return err
				}

				return renderDeleted(cmd, "item", args[0])
			})
		},
	}
}

func renderItem(cmd *cobra.Command, item *billing.Item) error {
	return render(cmd, item, propertyTable([][2]string{
		{"ID", item.ID.String()},
		{"Alt ID", item.AltID},
		{"Name", item.Name},
		{"Description", item.Description},
		{"Unit Price", formatFloat(item.UnitPrice)},
		{"Created By", item.CreatedBy},
		{"Created At", item.CreatedAt},
		{"Last Update", item.LastUpdate},
		{"Last Changed By", item.LastChangedBy},
	}))
}

package commands

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/billing-client/internal/constants"
	"github.com/fivetwenty-io/billing-client/pkg/billing"
)

// NewPersonsCommand creates the persons command group.
func NewPersonsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "persons",
		Aliases: []string{"person"},
		Short:   "Manage persons",
		Long:    "List, view, create, update and delete persons",
	}

	cmd.AddCommand(newPersonsListCommand())
	cmd.AddCommand(newPersonsGetCommand())
	cmd.AddCommand(newPersonsCreateCommand())
	cmd.AddCommand(newPersonsUpdateCommand())
	cmd.AddCommand(newPersonsDeleteCommand())

	return cmd
}

func newPersonsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List persons",
		Long:  "List all persons",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				persons, err := client.Persons().List(ctx)
				if err != nil {
					return err
				}

				return render(cmd, persons, func(table *tablewriter.Table) {
					table.Header("ID", "Alt ID", "Name", "Email")

					for _, person := range persons {
						_ = table.Append(person.ID.String(), person.AltID, person.Name, person.Email)
					}
				})
			})
		},
	}
}

func newPersonsGetCommand() *cobra.Command {
	var alt, email bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Get person details",
		Long:  "Display a single person by id, by alternate id with --alt, or by email address with --email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if alt && email {
				return fmt.Errorf("%w: --alt and --email", ErrConflictingFlags)
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				var (
					person *billing.Person
					err    error
				)

				switch {
				case alt:
					person, err = client.Persons().GetByAltID(ctx, args[0])
				case email:
					person, err = client.Persons().GetByEmail(ctx, args[0])
				default:
					person, err = client.Persons().Get(ctx, args[0])
				}

				if err != nil {
					return err
				}

				return renderPerson(cmd, person)
			})
		},
	}

	cmd.Flags().BoolVar(&alt, "alt", false, "look up by alternate id")
	cmd.Flags().BoolVar(&email, "email", false, "look up by email address")

	return cmd
}

func newPersonsCreateCommand() *cobra.Command {
	request := &billing.PersonCreateRequest{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a person",
		Long:  "Create a new person",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				person, err := client.Persons().Create(ctx, request)
				if err != nil {
					return err
				}

				return renderPerson(cmd, person)
			})
		},
	}

	cmd.Flags().StringVar(&request.Name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&request.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&request.CreatedBy, "created-by", defaultAuthor, "author recorded on the person")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newPersonsUpdateCommand() *cobra.Command {
	var (
		name          string
		email         string
		lastChangedBy string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a person",
		Long:  "Update the name or email address of a person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			request := &billing.PersonUpdateRequest{LastChangedBy: lastChangedBy}

			if cmd.Flags().Changed("name") {
				request.Name = &name
			}

			if cmd.Flags().Changed("email") {
				request.Email = &email
			}

			if request.Name == nil && request.Email == nil {
				return constants.ErrNothingToUpdate
			}

			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				person, err := client.Persons().Update(ctx, args[0], request)
				if err != nil {
					return err
				}

				return renderPerson(cmd, person)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&lastChangedBy, "changed-by", defaultAuthor, "author recorded on the change")

	return cmd
}

func newPersonsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a person",
		Long:  "Delete a person by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, client billing.Client) error {
				err := client.Persons().Delete(ctx, args[0])
				if err != nil {
					return err
				}

				return renderDeleted(cmd, "person", args[0])
			})
		},
	}
}

func renderPerson(cmd *cobra.Command, person *billing.Person) error {
	return render(cmd, person, propertyTable([][2]string{
		{"ID", person.ID.String()},
		{"Alt ID", person.AltID},
		{"Name", person.Name},
		{"Email", person.Email},
		{"Created By", person.CreatedBy},
		{"Created At", person.CreatedAt},
		{"Last Update", person.LastUpdate},
		{"Last Changed By", person.LastChangedBy},
	}))
}

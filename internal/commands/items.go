package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"example.com/flow-budget/backend/internal/client"
	"example.com/flow-budget/backend/internal/models"
)

func newListCommand(a *app) *cobra.Command {
	var category string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List budget items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.client.List(cmd.Context(), client.ListOptions{Category: category})
			if err != nil {
				return fmt.Errorf("listing budget items: %w", err)
			}
			return printItems(cmd.OutOrStdout(), items, asJSON)
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only items of this category")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func newGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one budget item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			item, err := a.client.Get(cmd.Context(), id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("budget item %s not found", id)
				}
				return fmt.Errorf("fetching budget item: %w", err)
			}
			return printItem(cmd.OutOrStdout(), item)
		},
	}
}

type itemFlags struct {
	name        string
	category    string
	amount      string
	description string
	income      bool
	expense     bool
	recurring   bool
	interval    string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "display name")
	cmd.Flags().StringVar(&f.category, "category", "", "category, e.g. Food")
	cmd.Flags().StringVar(&f.amount, "amount", "", "positive amount with up to 2 decimals")
	cmd.Flags().StringVar(&f.description, "description", "", "free text, up to 500 characters")
	cmd.Flags().BoolVar(&f.income, "income", false, "record as income (positive)")
	cmd.Flags().BoolVar(&f.expense, "expense", false, "record as expense (negative)")
	cmd.Flags().BoolVar(&f.recurring, "recurring", false, "item recurs")
	cmd.Flags().StringVar(&f.interval, "interval", "", "recurrence interval: weekly, monthly or yearly")
	cmd.MarkFlagsMutuallyExclusive("income", "expense")
}

// apply переносит заданные флаги в форму.
func (f *itemFlags) apply(cmd *cobra.Command, form *client.Form) {
	changed := cmd.Flags().Changed
	if changed("name") {
		form.SetName(f.name)
	}
	if changed("category") {
		form.SetCategory(f.category)
	}
	if changed("amount") {
		form.SetAmount(f.amount)
	}
	if changed("description") {
		form.SetDescription(f.description)
	}
	if changed("income") {
		form.SetExpense(!f.income)
	}
	if changed("expense") {
		form.SetExpense(f.expense)
	}
	if changed("recurring") {
		form.SetRecurring(f.recurring)
	}
	if changed("interval") {
		form.SetRecurrenceInterval(f.interval)
	}
}

func newAddCommand(a *app) *cobra.Command {
	flags := &itemFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a budget item (expense unless --income)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := client.NewCreateForm(a.client, client.WithRequiredName())
			form.Expand()
			flags.apply(cmd, form)

			item, err := form.Submit(cmd.Context())
			if err != nil {
				return describeSubmitError("creating budget item", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", item.ID)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	flags := &itemFlags{}

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a budget item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			current, err := a.client.Get(cmd.Context(), id)
			if err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("budget item %s not found", id)
				}
				return fmt.Errorf("fetching budget item: %w", err)
			}

			form := client.NewEditForm(a.client, current)
			form.Expand()
			flags.apply(cmd, form)

			item, err := form.Submit(cmd.Context())
			if err != nil {
				return describeSubmitError("updating budget item", err)
			}
			if item == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "budget item %s no longer exists\n", id)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", item.ID)
			return nil
		},
	}
	flags.register(cmd)

	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a budget item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			if err := a.client.Delete(cmd.Context(), id); err != nil {
				if client.IsNotFound(err) {
					return fmt.Errorf("budget item %s not found", id)
				}
				return fmt.Errorf("deleting budget item: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, err)
	}
	return id, nil
}

func describeSubmitError(action string, err error) error {
	var validationErr *client.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return fmt.Errorf("%s: %w", action, err)
}

// printItem печатает одну статью как JSON-объект.
func printItem(w io.Writer, item models.BudgetItem) error {
	return writeJSON(w, item)
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func printItems(w io.Writer, items []models.BudgetItem, asJSON bool) error {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})

	if asJSON {
		return writeJSON(w, items)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tAMOUNT\tRECURRING")
	for _, item := range items {
		recurring := "-"
		if item.Recurring && item.RecurrenceInterval != nil {
			recurring = string(*item.RecurrenceInterval)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", item.ID, item.Name, item.Category, item.Amount.StringFixed(2), recurring)
	}
	return tw.Flush()
}

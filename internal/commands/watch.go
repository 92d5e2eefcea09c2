package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"example.com/flow-budget/backend/internal/client"
	"example.com/flow-budget/backend/internal/models"
)

func newWatchCommand(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the item list every time it changes on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := client.NewItemList(a.client, client.ListOptions{Category: category})

			items, err := list.Items(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing budget items: %w", err)
			}
			if err := printItems(cmd.OutOrStdout(), items, false); err != nil {
				return err
			}

			return list.Watch(cmd.Context(), a.client, func(items []models.BudgetItem, err error) {
				if err != nil {
					a.logger.Warn("refetch after change failed", slog.String("error", err.Error()))
					return
				}
				fmt.Fprintln(cmd.OutOrStdout())
				_ = printItems(cmd.OutOrStdout(), items, false)
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only items of this category")

	return cmd
}

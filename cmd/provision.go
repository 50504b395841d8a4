package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var provisionCategoryID int64

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create missing year/month/day folders of a category",
	Long:  `Re-run folder provisioning for an existing category, for example after a partial failure. Existing folders are kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if provisionCategoryID <= 0 {
			return fmt.Errorf("--category is required")
		}

		ctx := context.Background()
		deps, err := initializeDependencies(ctx)
		if err != nil {
			return err
		}
		defer deps.Close()

		result, err := deps.Services.Categories.ProvisionExisting(ctx, provisionCategoryID)
		if err != nil {
			return fmt.Errorf("provision category %d: %w", provisionCategoryID, err)
		}

		fmt.Fprintf(os.Stdout, "Category %d: created %d years, %d months, %d days\n",
			provisionCategoryID, result.Years, result.Months, result.Days)
		return nil
	},
}

func init() {
	provisionCmd.Flags().Int64Var(&provisionCategoryID, "category", 0, "id of the category to provision")
}

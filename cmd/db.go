package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdwight/quittance/internal/config"
	"github.com/mdwight/quittance/internal/store"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if _, err := store.Open(cfg.DatabasePath); err != nil {
			return err
		}
		fmt.Printf("schema up to date: %s\n", cfg.DatabasePath)
		return nil
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record counts per table",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}

		counts := []struct {
			name  string
			model interface{}
		}{
			{"owners", &store.Owner{}},
			{"tenants", &store.Tenant{}},
			{"properties", &store.Property{}},
			{"rent_payments", &store.RentPayment{}},
			{"receipts", &store.Receipt{}},
		}
		for _, c := range counts {
			var n int64
			if err := app.db.Model(c.model).Count(&n).Error; err != nil {
				return err
			}
			fmt.Printf("%s=%d\n", c.name, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
}

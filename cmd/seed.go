package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdwight/quittance/internal/logger"
	"github.com/mdwight/quittance/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed [file]",
	Short: "Import owners, tenants, properties and payments from a YAML file",
	Long: `Import seed data from a YAML file. The import is idempotent: owners
are upserted by email, and records whose natural key already exists
(tenant email, property label, payment triple) are skipped, so the same
file can be applied repeatedly.`,
	Example: `  quittance seed seed.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}

	importer := seed.NewImporter(app.parties, app.payments, logger.WithComponent("seed"))
	stats, err := importer.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("done created=%d skipped=%d\n", stats.Created, stats.Skipped)
	return nil
}

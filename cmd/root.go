package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mdwight/quittance/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "quittance",
	Short: "quittance - rent receipt management for landlords",
	Long: `quittance tracks owners, tenants, properties and rent payments,
generates PDF rent receipts, emails them to tenants and archives the
PDFs to a remote store with a local fallback.

Every pipeline command is safe to re-run: receipts are generated at
most once per payment, and emails/archives are skipped when already
done unless explicitly forced.`,
	Version: version,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdwight/quittance/internal/config"
	"github.com/mdwight/quittance/internal/logger"
	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/receipt"
)

var receiptCmd = &cobra.Command{
	Use:   "receipt",
	Short: "Generate, send and archive rent receipts",
}

var receiptGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate PDF receipts for every payment of a period",
	Long: `Generate a PDF rent receipt for every payment recorded for the given
period. Tenants that already have a receipt for the period are skipped,
so the command can be re-run safely after a partial failure.

The PDF is rendered with wkhtmltopdf from the configured HTML template;
the binary is resolved from PATH or WKHTMLTOPDF_PATH.`,
	Example: `  # Generate all receipts for March 2026
  quittance receipt generate --period 2026-03`,
	RunE: runReceiptGenerate,
}

var receiptSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Email pending receipts of a period and archive them",
	Long: `Send every pending receipt of the period to its tenant by email and
archive the PDF to the remote store (falling back to local disk when the
remote is unreachable). Receipts already sent are not re-sent; receipts
sent earlier whose archival failed get an archive-only retry.

With --force every receipt of the period is reprocessed regardless of
status, for recovery scenarios. With --dry-run the command only reports
what it would do.`,
	Example: `  # Send and archive March 2026 receipts
  quittance receipt send --period 2026-03

  # See what would happen without touching anything
  quittance receipt send --period 2026-03 --dry-run

  # Recovery: reprocess everything for the period
  quittance receipt send --period 2026-03 --force`,
	RunE: runReceiptSend,
}

var receiptProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "One-click: upsert payment, generate receipt, send and archive",
	Long: `Run the full flow for one tenant and property: record (or update) the
rent payment for the period using the property's default amounts, render
the receipt PDF, email it to the tenant and archive it.

Every step is idempotent. Re-running the command after a partial failure
only performs what is still missing; --resend and --rearchive override
the send/archive idempotence guards.

The command prints one machine-parsable line per phase and exits with
code 0 on full success, 2 when warnings were recorded and 1 on error.`,
	Example: `  # Process the current month for tenant 1 in property 2
  quittance receipt process --tenant-id 1 --property-id 2 --yes

  # Process a specific month without side effects
  quittance receipt process --tenant-id 1 --property-id 2 --period 2026-03 --dry-run`,
	RunE: runReceiptProcess,
}

var receiptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List receipts of a period with their status",
	RunE:  runReceiptList,
}

var receiptEnvCheckCmd = &cobra.Command{
	Use:   "env-check",
	Short: "Check that the environment is ready for sending receipts",
	Long: `Report whether the settings the pipeline depends on are usable: SMTP
and WebDAV transport, the receipt HTML template and the wkhtmltopdf
binary. Values are never printed, only their status.

With --dry-run the transport settings are reported but not required,
matching what a dry-run send actually needs. Exits with code 1 when a
required setting is missing.`,
	Example: `  quittance receipt env-check
  quittance receipt env-check --dry-run`,
	RunE: runReceiptEnvCheck,
}

func init() {
	rootCmd.AddCommand(receiptCmd)
	receiptCmd.AddCommand(receiptGenerateCmd)
	receiptCmd.AddCommand(receiptSendCmd)
	receiptCmd.AddCommand(receiptProcessCmd)
	receiptCmd.AddCommand(receiptListCmd)
	receiptCmd.AddCommand(receiptEnvCheckCmd)

	receiptGenerateCmd.Flags().String("period", "", "Billing period (YYYY-MM)")
	_ = receiptGenerateCmd.MarkFlagRequired("period")

	receiptSendCmd.Flags().String("period", "", "Billing period (YYYY-MM)")
	receiptSendCmd.Flags().Bool("dry-run", false, "Report without sending or archiving")
	receiptSendCmd.Flags().Bool("force", false, "Reprocess every receipt of the period")
	_ = receiptSendCmd.MarkFlagRequired("period")

	receiptProcessCmd.Flags().Uint("tenant-id", 0, "Tenant id")
	receiptProcessCmd.Flags().Uint("property-id", 0, "Property id")
	receiptProcessCmd.Flags().String("period", "", "Period override (YYYY-MM), default: current month")
	receiptProcessCmd.Flags().String("paid-at", "", "Payment date override (YYYY-MM-DD), default: today")
	receiptProcessCmd.Flags().Bool("dry-run", false, "Simulation only: no DB write, no PDF, no email, no upload")
	receiptProcessCmd.Flags().Bool("resend", false, "Send email even if already sent")
	receiptProcessCmd.Flags().Bool("rearchive", false, "Upload even if already archived")
	receiptProcessCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	_ = receiptProcessCmd.MarkFlagRequired("tenant-id")
	_ = receiptProcessCmd.MarkFlagRequired("property-id")

	receiptListCmd.Flags().String("period", "", "Billing period (YYYY-MM)")
	_ = receiptListCmd.MarkFlagRequired("period")

	receiptEnvCheckCmd.Flags().Bool("dry-run", false, "Do not require the SMTP/WebDAV transport settings")
}

func runReceiptGenerate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("receipt-generate")

	periodText, _ := cmd.Flags().GetString("period")

	app, err := newApp()
	if err != nil {
		return err
	}

	log.Info().Str("period", periodText).Msg("Starting receipt generation")

	result, err := app.batchGenerator().Execute(periodText)
	if err != nil {
		return err
	}

	for _, c := range result.Created {
		fmt.Printf("created receipt=%d tenant=%d payment=%d pdf=%s\n",
			c.ReceiptID, c.TenantID, c.RentPaymentID, c.PDFPath)
	}
	for _, s := range result.Skipped {
		fmt.Printf("skipped tenant=%d reason=%s\n", s.TenantID, s.Reason)
	}
	fmt.Printf("done created=%d skipped=%d\n", len(result.Created), len(result.Skipped))
	return nil
}

func runReceiptSend(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("receipt-send")

	periodText, _ := cmd.Flags().GetString("period")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	p, err := period.Parse(periodText)
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	log.Info().
		Str("period", p.String()).
		Bool("dry_run", dryRun).
		Bool("force", force).
		Msg("Starting receipt send")

	stats, err := app.batchSender().Execute(p, dryRun, force)
	if err != nil {
		return err
	}

	fmt.Printf("done processed=%d sent=%d failed=%d skipped=%d\n",
		stats.Processed, stats.Sent, stats.Failed, stats.Skipped)
	return nil
}

func runReceiptProcess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("receipt-process")

	tenantID, _ := cmd.Flags().GetUint("tenant-id")
	propertyID, _ := cmd.Flags().GetUint("property-id")
	periodText, _ := cmd.Flags().GetString("period")
	paidAtRaw, _ := cmd.Flags().GetString("paid-at")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	resend, _ := cmd.Flags().GetBool("resend")
	rearchive, _ := cmd.Flags().GetBool("rearchive")
	yes, _ := cmd.Flags().GetBool("yes")

	if tenantID == 0 || propertyID == 0 {
		return fmt.Errorf("--tenant-id and --property-id must be positive integers")
	}

	if periodText != "" {
		if _, err := period.Parse(periodText); err != nil {
			return err
		}
	}

	opts := receipt.ProcessOptions{
		Period:    periodText,
		DryRun:    dryRun,
		Resend:    resend,
		Rearchive: rearchive,
	}
	if paidAtRaw != "" {
		paidAt, err := time.Parse("2006-01-02", paidAtRaw)
		if err != nil {
			return fmt.Errorf("invalid --paid-at, expected YYYY-MM-DD: %q", paidAtRaw)
		}
		opts.PaidAt = &paidAt
	}

	if !dryRun && !yes && !confirmProcess(tenantID, propertyID, periodText, paidAtRaw, resend, rearchive) {
		fmt.Println("Aborted.")
		return nil
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	result, err := app.processor().Execute(tenantID, propertyID, opts)
	if err != nil {
		log.Error().
			Err(err).
			Uint("tenant_id", tenantID).
			Uint("property_id", propertyID).
			Msg("Receipt processing failed")
		fmt.Println("[ERROR] message=" + escapeResultValue(err.Error()))
		fmt.Println("[RESULT] ok warnings=0 errors=1")
		os.Exit(1)
	}

	writeProcessOutput(result)

	warnings := result.Warnings()
	switch {
	case len(result.Errors) > 0:
		fmt.Printf("[RESULT] ok warnings=%d errors=%d\n", warnings, len(result.Errors))
		os.Exit(1)
	case warnings > 0:
		fmt.Printf("[RESULT] ok warnings=%d errors=0\n", warnings)
		os.Exit(2)
	default:
		fmt.Println("[RESULT] ok warnings=0 errors=0")
	}
	return nil
}

func confirmProcess(tenantID, propertyID uint, periodText, paidAt string, resend, rearchive bool) bool {
	if periodText == "" {
		periodText = "(current month)"
	}
	if paidAt == "" {
		paidAt = "(today)"
	}
	fmt.Printf("About to process: tenant_id=%d property_id=%d period=%s paid_at=%s resend=%v rearchive=%v\n",
		tenantID, propertyID, periodText, paidAt, resend, rearchive)
	fmt.Print("Continue? [y/N] ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func writeProcessOutput(result *receipt.ProcessResult) {
	in := result.Input
	fmt.Printf("[INPUT] tenant_id=%d property_id=%d period=%s paid_at=%s dry_run=%s resend=%s rearchive=%s\n",
		in.TenantID, in.PropertyID, in.Period, in.PaidAt,
		boolFlag(in.DryRun), boolFlag(in.Resend), boolFlag(in.Rearchive))

	fmt.Printf("[PAYMENT] action=%s id=%s\n", result.Payment.Action, idOrEmpty(result.Payment.PaymentID))
	fmt.Printf("[RECEIPT] action=%s id=%s pdf=%s\n",
		result.Receipt.Action, idOrEmpty(result.Receipt.ReceiptID), escapeResultValue(result.Receipt.PDFPath))
	fmt.Printf("[EMAIL] action=%s reason=%s\n", result.Email.Action, escapeResultValue(result.Email.Reason))
	fmt.Printf("[ARCHIVE] action=%s path=%s reason=%s\n",
		result.Archive.Action, escapeResultValue(result.Archive.Path), escapeResultValue(result.Archive.Reason))
}

func runReceiptEnvCheck(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	report := receipt.CheckEnvironment(cfg.SMTPConfig(), cfg.WebdavConfig(), cfg.TemplatePath, !dryRun)
	for _, c := range report.Checks {
		status := "missing"
		if c.OK {
			status = "ok"
		} else if !c.Required {
			status = "not set"
		}
		fmt.Printf("%-18s %-8s %s\n", c.Name, status, c.Detail)
	}

	if missing := report.Missing(); len(missing) > 0 {
		fmt.Printf("missing %d required setting(s): %s\n", len(missing), strings.Join(missing, ", "))
		os.Exit(1)
	}
	fmt.Println("environment ready")
	return nil
}

func runReceiptList(cmd *cobra.Command, args []string) error {
	periodText, _ := cmd.Flags().GetString("period")

	p, err := period.Parse(periodText)
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	rows, err := app.receipts.FindByPeriod(p)
	if err != nil {
		return err
	}

	for _, r := range rows {
		sent := "-"
		if r.SentAt != nil {
			sent = r.SentAt.Format("2006-01-02")
		}
		archived := "-"
		if r.ArchivedAt != nil {
			archived = r.ArchivedAt.Format("2006-01-02")
		}
		fmt.Printf("receipt=%d tenant=%d pdf=%s sent=%s archived=%s\n",
			r.ID, r.TenantID, r.PDFPath, sent, archived)
	}
	fmt.Printf("total=%d\n", len(rows))
	return nil
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func idOrEmpty(id uint) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(id), 10)
}

func escapeResultValue(v string) string {
	v = strings.TrimSpace(v)
	v = strings.ReplaceAll(v, "\n", " ")
	v = strings.ReplaceAll(v, "\r", " ")
	return v
}

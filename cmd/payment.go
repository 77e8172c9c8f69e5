package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Manage rent payments",
}

var paymentUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or update the payment for a (tenant, property, period)",
	Long: `Record a rent payment for a tenant, property and period. The amounts
are taken from the property defaults. If a payment already exists for the
triple it is updated in place, never duplicated.`,
	RunE: runPaymentUpsert,
}

var paymentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments, optionally filtered",
	RunE:  runPaymentList,
}

var paymentShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one payment with tenant and property details",
	RunE:  runPaymentShow,
}

var paymentDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a payment that has no receipt",
	RunE:  runPaymentDelete,
}

func init() {
	rootCmd.AddCommand(paymentCmd)
	paymentCmd.AddCommand(paymentUpsertCmd)
	paymentCmd.AddCommand(paymentListCmd)
	paymentCmd.AddCommand(paymentShowCmd)
	paymentCmd.AddCommand(paymentDeleteCmd)

	paymentUpsertCmd.Flags().Uint("tenant-id", 0, "Tenant id")
	paymentUpsertCmd.Flags().Uint("property-id", 0, "Property id")
	paymentUpsertCmd.Flags().String("period", "", "Billing period (YYYY-MM)")
	paymentUpsertCmd.Flags().String("paid-at", "", "Payment date (YYYY-MM-DD), default: today")
	_ = paymentUpsertCmd.MarkFlagRequired("tenant-id")
	_ = paymentUpsertCmd.MarkFlagRequired("property-id")
	_ = paymentUpsertCmd.MarkFlagRequired("period")

	paymentListCmd.Flags().String("period", "", "Filter by period (YYYY-MM)")
	paymentListCmd.Flags().Uint("tenant-id", 0, "Filter by tenant")
	paymentListCmd.Flags().Uint("property-id", 0, "Filter by property")

	paymentShowCmd.Flags().Uint("id", 0, "Payment id")
	_ = paymentShowCmd.MarkFlagRequired("id")

	paymentDeleteCmd.Flags().Uint("id", 0, "Payment id")
	_ = paymentDeleteCmd.MarkFlagRequired("id")
}

func runPaymentUpsert(cmd *cobra.Command, args []string) error {
	tenantID, _ := cmd.Flags().GetUint("tenant-id")
	propertyID, _ := cmd.Flags().GetUint("property-id")
	periodText, _ := cmd.Flags().GetString("period")
	paidAtRaw, _ := cmd.Flags().GetString("paid-at")

	p, err := period.Parse(periodText)
	if err != nil {
		return err
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	paidAt := time.Now().In(app.cfg.Location())
	if paidAtRaw != "" {
		paidAt, err = time.Parse("2006-01-02", paidAtRaw)
		if err != nil {
			return fmt.Errorf("invalid --paid-at, expected YYYY-MM-DD: %q", paidAtRaw)
		}
	}

	id, action, err := app.payments.UpsertForPeriod(tenantID, propertyID, p, paidAt)
	if err != nil {
		return err
	}

	fmt.Printf("%s payment=%d tenant=%d property=%d period=%s\n", action, id, tenantID, propertyID, p)
	return nil
}

func runPaymentList(cmd *cobra.Command, args []string) error {
	periodText, _ := cmd.Flags().GetString("period")
	tenantID, _ := cmd.Flags().GetUint("tenant-id")
	propertyID, _ := cmd.Flags().GetUint("property-id")

	if periodText != "" {
		if _, err := period.Parse(periodText); err != nil {
			return err
		}
	}

	app, err := newApp()
	if err != nil {
		return err
	}

	payments, err := app.payments.List(store.PaymentFilter{
		Period:     periodText,
		TenantID:   tenantID,
		PropertyID: propertyID,
	})
	if err != nil {
		return err
	}

	for _, pay := range payments {
		fmt.Printf("payment=%d tenant=%d property=%d period=%s rent=%d charges=%d paid_at=%s\n",
			pay.ID, pay.TenantID, pay.PropertyID, pay.Period,
			pay.RentAmount, pay.ChargesAmount, pay.PaidAt.Format("2006-01-02"))
	}
	fmt.Printf("total=%d\n", len(payments))
	return nil
}

func runPaymentShow(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")

	app, err := newApp()
	if err != nil {
		return err
	}

	details, err := app.payments.FindWithDetails(id)
	if err != nil {
		return err
	}

	fmt.Printf("payment=%d period=%s paid_at=%s\n", details.RentPaymentID, details.Period, details.PaidAt.Format("2006-01-02"))
	fmt.Printf("tenant=%d name=%q email=%s\n", details.TenantID, details.TenantName, details.TenantEmail)
	fmt.Printf("property=%d label=%q\n", details.PropertyID, details.PropertyLabel)
	fmt.Printf("rent=%d charges=%d\n", details.RentAmount, details.ChargesAmount)
	return nil
}

func runPaymentDelete(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")

	app, err := newApp()
	if err != nil {
		return err
	}

	// A payment referenced by a receipt must not disappear from under it.
	existing, err := app.receipts.FindByPaymentID(id)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("payment %d is referenced by receipt %d, delete refused", id, existing.ID)
	}

	if err := app.payments.Delete(id); err != nil {
		return err
	}

	fmt.Printf("deleted payment=%d\n", id)
	return nil
}

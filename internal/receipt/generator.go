// Package receipt implements the rent receipt pipeline: deterministic PDF
// generation from payment records, exactly-once-effective email delivery
// and archival with a remote-then-local fallback.
//
// Every orchestrator here is safe to re-run: generation is idempotent per
// payment, sending and archival are idempotent per flag unless explicitly
// forced. Expected failures (invalid email, missing file, transport or
// storage errors) are converted to structured outcomes and persisted on
// the receipt record; only programmer errors such as unknown ids surface
// as Go errors.
package receipt

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

// Actions reported by the pipeline orchestrators.
const (
	ActionGenerated     = "generated"
	ActionSkipped       = "skipped"
	ActionSkippedDryRun = "skipped_in_dry_run"
	ActionSent          = "sent"
	ActionUploaded      = "uploaded"
)

// Skip reasons that are idempotence short-circuits, not failures.
const (
	ReasonAlreadySent      = "already_sent"
	ReasonAlreadyArchived  = "already_archived"
	ReasonReceiptExists    = "receipt_already_exists"
	ReasonMissingPaymentID = "missing_rent_payment_id"
)

// PaymentReader is the payment lookup capability the pipeline consumes.
type PaymentReader interface {
	FindForPeriod(p period.Period) ([]store.PaymentDetails, error)
	FindWithDetails(id uint) (*store.PaymentDetails, error)
}

// ReceiptRecorder is the receipt lookup/write capability the pipeline
// consumes.
type ReceiptRecorder interface {
	ExistsForTenantAndPeriod(tenantID uint, p period.Period) (bool, error)
	Create(rentPaymentID uint, pdfPath string) (uint, error)
	FindByPaymentID(rentPaymentID uint) (*store.Receipt, error)
	FindDetailed(id uint) (*store.ReceiptDetails, error)
	FindPendingByPeriod(p period.Period) ([]store.ReceiptDetails, error)
	FindByPeriod(p period.Period) ([]store.ReceiptDetails, error)
	FindSentNotArchivedByPeriod(p period.Period) ([]store.ReceiptDetails, error)
	MarkSent(id uint, sendErr error) error
	MarkArchived(id uint, archivedPath string, archiveErr error) error
}

// PDFPath is the deterministic location of a receipt PDF. It is a pure
// function of (period, tenant) so both generation and archival can derive
// it without a database lookup.
func PDFPath(p period.Period, tenantID uint) string {
	return fmt.Sprintf("var/receipts/receipt-%s-tenant-%d.pdf", p, tenantID)
}

// ReceiptNumber derives the human-readable receipt number printed on the
// PDF.
func ReceiptNumber(p period.Period, paymentID uint) string {
	return fmt.Sprintf("QL-%s-%06d", p, paymentID)
}

// ArchiveRemotePath resolves the logical remote path of a receipt. A
// configured target directory prefix wins; otherwise receipts are filed
// under archives/<period>/.
func ArchiveRemotePath(p period.Period, tenantID uint, targetDir string) string {
	filename := fmt.Sprintf("receipt-%s-tenant-%d.pdf", p, tenantID)
	if prefix := trimSlashes(targetDir); prefix != "" {
		return prefix + "/" + filename
	}
	return fmt.Sprintf("archives/%s/%s", p, filename)
}

func trimSlashes(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Landlord identifies the issuing landlord on generated receipts.
type Landlord struct {
	Name      string
	Address   string
	IssueCity string
}

// GenerateResult reports what Generate did for one payment.
type GenerateResult struct {
	Action    string
	ReceiptID uint
	PDFPath   string
}

// Generator produces the receipt PDF for a single payment, exactly once.
type Generator struct {
	payments PaymentReader
	receipts ReceiptRecorder
	html     *HTMLBuilder
	pdf      PDFGenerator
	pdfOpts  PDFOptions
	landlord Landlord
	log      zerolog.Logger
	now      func() time.Time
}

// NewGenerator wires a single-payment receipt generator.
func NewGenerator(
	payments PaymentReader,
	receipts ReceiptRecorder,
	html *HTMLBuilder,
	pdf PDFGenerator,
	pdfOpts PDFOptions,
	landlord Landlord,
	log zerolog.Logger,
) *Generator {
	return &Generator{
		payments: payments,
		receipts: receipts,
		html:     html,
		pdf:      pdf,
		pdfOpts:  pdfOpts,
		landlord: landlord,
		log:      log,
		now:      time.Now,
	}
}

// Generate renders and persists the receipt for paymentID. A second call
// for the same payment returns the existing receipt without re-rendering
// anything. The receipt row is only written after the PDF exists on disk,
// so a failed render never leaves a dangling record.
func (g *Generator) Generate(paymentID uint, p period.Period, dryRun bool) (*GenerateResult, error) {
	if dryRun {
		return &GenerateResult{Action: ActionSkippedDryRun}, nil
	}

	existing, err := g.receipts.FindByPaymentID(paymentID)
	if err != nil {
		return nil, wrapOp("Generate", err, "idempotence lookup")
	}
	if existing != nil {
		g.log.Debug().
			Uint("payment_id", paymentID).
			Uint("receipt_id", existing.ID).
			Msg("Receipt already exists, skipping generation")
		return &GenerateResult{
			Action:    ActionSkipped,
			ReceiptID: existing.ID,
			PDFPath:   existing.PDFPath,
		}, nil
	}

	payment, err := g.payments.FindWithDetails(paymentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrPaymentNotFound, paymentID)
		}
		return nil, wrapOp("Generate", err, "load payment")
	}

	pdfPath := PDFPath(p, payment.TenantID)
	vars := g.templateVars(payment, p, paymentID)

	html, err := g.html.Build(vars)
	if err != nil {
		return nil, wrapOp("Generate", err, "render html")
	}

	if err := g.pdf.Generate(html, pdfPath, g.pdfOpts); err != nil {
		return nil, wrapOp("Generate", err, "render pdf")
	}

	receiptID, err := g.receipts.Create(paymentID, pdfPath)
	if err != nil {
		return nil, wrapOp("Generate", err, "persist receipt")
	}

	g.log.Info().
		Uint("payment_id", paymentID).
		Uint("receipt_id", receiptID).
		Str("pdf", pdfPath).
		Msg("Receipt generated")

	return &GenerateResult{
		Action:    ActionGenerated,
		ReceiptID: receiptID,
		PDFPath:   pdfPath,
	}, nil
}

func (g *Generator) templateVars(payment *store.PaymentDetails, p period.Period, paymentID uint) map[string]string {
	total := payment.RentAmount + payment.ChargesAmount
	return map[string]string{
		"receipt_number":     ReceiptNumber(p, paymentID),
		"period_label":       p.String(),
		"period_start":       p.Start().Format("02/01/2006"),
		"period_end":         p.End().Format("02/01/2006"),
		"issued_at":          g.now().Format("02/01/2006"),
		"issued_city":        g.landlord.IssueCity,
		"paid_at":            payment.PaidAt.Format("2006-01-02"),
		"landlord_name":      g.landlord.Name,
		"landlord_address":   g.landlord.Address,
		"tenant_name":        payment.TenantName,
		"tenant_address":     payment.TenantAddress,
		"property_label":     payment.PropertyLabel,
		"property_address":   payment.PropertyAddress,
		"rent_amount_eur":    FormatEuros(payment.RentAmount),
		"charges_amount_eur": FormatEuros(payment.ChargesAmount),
		"total_amount_eur":   FormatEuros(total),
	}
}

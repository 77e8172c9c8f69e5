package receipt

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

// PaymentUpserter is the payment upsert capability the one-click flow
// consumes.
type PaymentUpserter interface {
	UpsertForPeriod(tenantID, propertyID uint, p period.Period, paidAt time.Time) (uint, store.UpsertAction, error)
}

// ProcessOptions tunes one Execute call. Zero values mean "current period"
// and "today".
type ProcessOptions struct {
	Period    string
	PaidAt    *time.Time
	DryRun    bool
	Resend    bool
	Rearchive bool
}

// ProcessInput echoes the resolved inputs of a run.
type ProcessInput struct {
	TenantID   uint
	PropertyID uint
	Period     string
	PaidAt     string
	DryRun     bool
	Resend     bool
	Rearchive  bool
}

// PaymentPhase reports the payment upsert step.
type PaymentPhase struct {
	Action    string
	PaymentID uint
}

// ReceiptPhase reports the receipt generation step.
type ReceiptPhase struct {
	Action    string
	ReceiptID uint
	PDFPath   string
}

// EmailPhase reports the email delivery step.
type EmailPhase struct {
	Action string
	Reason string
}

// ArchivePhase reports the archival step.
type ArchivePhase struct {
	Action string
	Path   string
	Reason string
}

// ProcessResult is the structured summary of a one-click run, one entry
// per phase plus the list of recorded errors.
type ProcessResult struct {
	Input   ProcessInput
	Payment PaymentPhase
	Receipt ReceiptPhase
	Email   EmailPhase
	Archive ArchivePhase
	Errors  []string
}

// Processor is the one-click flow: upsert the payment for the period,
// generate its receipt, send and archive it.
type Processor struct {
	payments    PaymentUpserter
	generator   *Generator
	sendArchive *SendArchiver
	loc         *time.Location
	log         zerolog.Logger
}

// NewProcessor wires the one-click receipt flow. loc resolves the default
// period and payment date.
func NewProcessor(payments PaymentUpserter, generator *Generator, sendArchive *SendArchiver, loc *time.Location, log zerolog.Logger) *Processor {
	return &Processor{
		payments:    payments,
		generator:   generator,
		sendArchive: sendArchive,
		loc:         loc,
		log:         log,
	}
}

// Execute runs the full flow for one tenant and property. Every step is
// idempotent, so re-running after a partial failure only performs what is
// still missing.
func (pr *Processor) Execute(tenantID, propertyID uint, opts ProcessOptions) (*ProcessResult, error) {
	periodText := opts.Period
	if periodText == "" {
		periodText = period.Current(pr.loc).String()
	}
	p, err := period.Parse(periodText)
	if err != nil {
		return nil, err
	}

	paidAt := time.Now().In(pr.loc)
	if opts.PaidAt != nil {
		paidAt = *opts.PaidAt
	}

	result := &ProcessResult{
		Input: ProcessInput{
			TenantID:   tenantID,
			PropertyID: propertyID,
			Period:     p.String(),
			PaidAt:     paidAt.Format("2006-01-02"),
			DryRun:     opts.DryRun,
			Resend:     opts.Resend,
			Rearchive:  opts.Rearchive,
		},
	}

	if opts.DryRun {
		result.Payment.Action = ActionSkippedDryRun
		result.Receipt.Action = ActionSkippedDryRun
		result.Email.Action = ActionSkippedDryRun
		result.Archive.Action = ActionSkippedDryRun
		return result, nil
	}

	paymentID, action, err := pr.payments.UpsertForPeriod(tenantID, propertyID, p, paidAt)
	if err != nil {
		return nil, wrapOp("Process", err, "upsert payment")
	}
	result.Payment = PaymentPhase{Action: string(action), PaymentID: paymentID}
	if paymentID == 0 {
		result.Errors = append(result.Errors, "upsert payment did not return a payment id")
		result.Receipt.Action = ActionSkipped
		result.Email.Action = ActionSkipped
		result.Archive.Action = ActionSkipped
		return result, nil
	}

	genRes, err := pr.generator.Generate(paymentID, p, false)
	if err != nil {
		return nil, err
	}
	result.Receipt = ReceiptPhase{
		Action:    genRes.Action,
		ReceiptID: genRes.ReceiptID,
		PDFPath:   genRes.PDFPath,
	}

	sendRes, err := pr.sendArchive.SendAndArchive(genRes.ReceiptID, p, tenantID, false, opts.Resend, opts.Rearchive)
	if err != nil {
		return nil, err
	}
	result.Email = EmailPhase{Action: sendRes.EmailAction, Reason: sendRes.EmailReason}
	result.Archive = ArchivePhase{
		Action: sendRes.ArchiveAction,
		Path:   sendRes.ArchivePath,
		Reason: sendRes.ArchiveReason,
	}

	return result, nil
}

// Warnings counts degraded outcomes of a run, excluding the idempotent
// skip reasons that are expected on re-invocation.
func (r *ProcessResult) Warnings() int {
	n := 0
	if r.Email.Action == ActionSkipped && r.Email.Reason != "" && r.Email.Reason != ReasonAlreadySent {
		n++
	}
	if r.Archive.Action == ActionSkipped && r.Archive.Reason != "" && r.Archive.Reason != ReasonAlreadyArchived {
		n++
	}
	return n
}

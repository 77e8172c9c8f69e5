package receipt

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

// CreatedReceipt is one entry of a batch generation report.
type CreatedReceipt struct {
	ReceiptID     uint
	RentPaymentID uint
	TenantID      uint
	Period        string
	PDFPath       string
}

// SkippedReceipt is one skipped entry of a batch generation report, with
// the reason it was skipped.
type SkippedReceipt struct {
	TenantID uint
	Period   string
	Reason   string
}

// GenerateBatchResult aggregates a month's generation run. Both lists
// preserve processing order so callers can report per-tenant detail.
type GenerateBatchResult struct {
	Created []CreatedReceipt
	Skipped []SkippedReceipt
}

// BatchGenerator drives single-payment generation over every payment of a
// period.
type BatchGenerator struct {
	payments  PaymentReader
	receipts  ReceiptRecorder
	generator *Generator
	log       zerolog.Logger
}

// NewBatchGenerator wires a month-batch generation orchestrator.
func NewBatchGenerator(payments PaymentReader, receipts ReceiptRecorder, generator *Generator, log zerolog.Logger) *BatchGenerator {
	return &BatchGenerator{
		payments:  payments,
		receipts:  receipts,
		generator: generator,
		log:       log,
	}
}

// Execute generates receipts for every payment of the period, skipping
// tenants that already have one. The period string is validated before any
// I/O.
func (b *BatchGenerator) Execute(periodText string) (*GenerateBatchResult, error) {
	p, err := period.Parse(periodText)
	if err != nil {
		return nil, err
	}

	rows, err := b.payments.FindForPeriod(p)
	if err != nil {
		return nil, wrapOp("GenerateBatch", err, "list payments")
	}

	b.log.Info().
		Str("period", p.String()).
		Int("payments", len(rows)).
		Msg("Starting receipt generation batch")

	result := &GenerateBatchResult{}
	for _, row := range rows {
		// Defensive check against a malformed join: a receipt must
		// reference its payment.
		if row.RentPaymentID == 0 {
			result.Skipped = append(result.Skipped, SkippedReceipt{
				TenantID: row.TenantID,
				Period:   p.String(),
				Reason:   ReasonMissingPaymentID,
			})
			continue
		}

		exists, err := b.receipts.ExistsForTenantAndPeriod(row.TenantID, p)
		if err != nil {
			return nil, wrapOp("GenerateBatch", err, "idempotence lookup")
		}
		if exists {
			result.Skipped = append(result.Skipped, SkippedReceipt{
				TenantID: row.TenantID,
				Period:   p.String(),
				Reason:   ReasonReceiptExists,
			})
			continue
		}

		genRes, err := b.generator.Generate(row.RentPaymentID, p, false)
		if err != nil {
			return nil, err
		}

		result.Created = append(result.Created, CreatedReceipt{
			ReceiptID:     genRes.ReceiptID,
			RentPaymentID: row.RentPaymentID,
			TenantID:      row.TenantID,
			Period:        p.String(),
			PDFPath:       genRes.PDFPath,
		})
	}

	b.log.Info().
		Str("period", p.String()).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("Receipt generation batch done")

	return result, nil
}

// SendStats aggregates a month's send run. Processed counts every item
// touched in either pass; an archive failure after a delivered email still
// counts the item as sent.
type SendStats struct {
	Processed int
	Sent      int
	Failed    int
	Skipped   int
}

// BatchSender drives sending and archival over the receipts of a period.
type BatchSender struct {
	receipts  ReceiptRecorder
	sender    Sender
	archiver  Archiver
	targetDir string
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewBatchSender wires a month-batch send orchestrator.
func NewBatchSender(receipts ReceiptRecorder, sender Sender, archiver Archiver, targetDir string, log zerolog.Logger) *BatchSender {
	return &BatchSender{
		receipts:  receipts,
		sender:    sender,
		archiver:  archiver,
		targetDir: targetDir,
		validate:  validator.New(),
		log:       log,
	}
}

// Execute sends pending receipts of the period and archives them. Without
// force it also runs an archive-only retry pass over receipts whose email
// went out but whose archival failed earlier. With force every receipt of
// the period is reprocessed regardless of status, for recovery scenarios.
func (b *BatchSender) Execute(p period.Period, dryRun, force bool) (*SendStats, error) {
	var candidates []store.ReceiptDetails
	var err error
	if force {
		candidates, err = b.receipts.FindByPeriod(p)
	} else {
		candidates, err = b.receipts.FindPendingByPeriod(p)
	}
	if err != nil {
		return nil, wrapOp("SendBatch", err, "list receipts")
	}

	b.log.Info().
		Str("period", p.String()).
		Bool("dry_run", dryRun).
		Bool("force", force).
		Int("pending", len(candidates)).
		Msg("Starting receipt send batch")

	stats := &SendStats{}
	for i := range candidates {
		b.sendOne(&candidates[i], p, dryRun, stats)
	}

	if !force {
		retries, err := b.receipts.FindSentNotArchivedByPeriod(p)
		if err != nil {
			return nil, wrapOp("SendBatch", err, "list unarchived receipts")
		}
		for i := range retries {
			b.archiveOne(&retries[i], p, dryRun, stats)
		}
	}

	b.log.Info().
		Str("period", p.String()).
		Int("processed", stats.Processed).
		Int("sent", stats.Sent).
		Int("failed", stats.Failed).
		Int("skipped", stats.Skipped).
		Msg("Receipt send batch done")

	return stats, nil
}

func (b *BatchSender) sendOne(rec *store.ReceiptDetails, p period.Period, dryRun bool, stats *SendStats) {
	stats.Processed++

	if dryRun {
		b.log.Info().
			Uint("receipt_id", rec.ID).
			Uint("tenant_id", rec.TenantID).
			Str("email", rec.TenantEmail).
			Str("pdf", rec.PDFPath).
			Msg("Dry run, receipt not sent")
		stats.Skipped++
		return
	}

	if err := b.validate.Var(rec.TenantEmail, "required,email"); err != nil {
		b.recordSendFailure(rec, "invalid tenant email", stats)
		return
	}

	if !fileExists(rec.PDFPath) {
		b.recordSendFailure(rec, "pdf not found: "+rec.PDFPath, stats)
		return
	}

	sendRes := b.sender.Send(SendRequest{
		ToEmail:  rec.TenantEmail,
		ToName:   rec.TenantName,
		Subject:  EmailSubject(p),
		BodyText: emailBody,
		PDFPath:  rec.PDFPath,
	})
	if !sendRes.Success {
		reason := sendRes.ErrorMessage
		if reason == "" {
			reason = "send failed"
		}
		b.recordSendFailure(rec, reason, stats)
		return
	}

	if err := b.receipts.MarkSent(rec.ID, nil); err != nil {
		b.log.Error().Err(err).Uint("receipt_id", rec.ID).Msg("Failed to mark receipt sent")
	}

	// The email went out, so the item counts as sent even if archival
	// fails below; the failed archive is retried on the next invocation.
	b.archive(rec, p)
	stats.Sent++
}

func (b *BatchSender) recordSendFailure(rec *store.ReceiptDetails, reason string, stats *SendStats) {
	b.log.Error().
		Uint("receipt_id", rec.ID).
		Uint("tenant_id", rec.TenantID).
		Str("reason", reason).
		Msg("Receipt send failed")
	if err := b.receipts.MarkSent(rec.ID, errors.New(reason)); err != nil {
		b.log.Error().Err(err).Uint("receipt_id", rec.ID).Msg("Failed to record send error")
	}
	stats.Failed++
}

// archive attempts archival of a just-sent receipt and records the
// outcome. The caller decides how it affects the stats.
func (b *BatchSender) archive(rec *store.ReceiptDetails, p period.Period) bool {
	remotePath := ArchiveRemotePath(p, rec.TenantID, b.targetDir)
	res := b.archiver.Archive(rec.PDFPath, remotePath)
	if !res.Success {
		reason := res.ErrorMessage
		if reason == "" {
			reason = "archive failed"
		}
		b.log.Error().
			Uint("receipt_id", rec.ID).
			Str("remote_path", remotePath).
			Str("reason", reason).
			Msg("Receipt archive failed")
		if err := b.receipts.MarkArchived(rec.ID, "", errors.New(reason)); err != nil {
			b.log.Error().Err(err).Uint("receipt_id", rec.ID).Msg("Failed to record archive error")
		}
		return false
	}

	if err := b.receipts.MarkArchived(rec.ID, res.ArchivedPath, nil); err != nil {
		b.log.Error().Err(err).Uint("receipt_id", rec.ID).Msg("Failed to mark receipt archived")
	}
	return true
}

// archiveOne is the archive-only retry pass item handler, for receipts
// sent in a previous run whose archival never succeeded.
func (b *BatchSender) archiveOne(rec *store.ReceiptDetails, p period.Period, dryRun bool, stats *SendStats) {
	stats.Processed++

	if dryRun {
		b.log.Info().
			Uint("receipt_id", rec.ID).
			Str("pdf", rec.PDFPath).
			Msg("Dry run, receipt not archived")
		stats.Skipped++
		return
	}

	if !fileExists(rec.PDFPath) {
		reason := "pdf not found: " + rec.PDFPath
		b.log.Error().
			Uint("receipt_id", rec.ID).
			Str("reason", reason).
			Msg("Receipt archive retry failed")
		if err := b.receipts.MarkArchived(rec.ID, "", errors.New(reason)); err != nil {
			b.log.Error().Err(err).Uint("receipt_id", rec.ID).Msg("Failed to record archive error")
		}
		stats.Failed++
		return
	}

	if b.archive(rec, p) {
		stats.Sent++
	} else {
		stats.Failed++
	}
}

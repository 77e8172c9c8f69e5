package receipt

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

// SendAndArchiveResult reports the outcome of both phases for one receipt.
// Actions are ActionSent/ActionUploaded on success, ActionSkipped with a
// reason otherwise; ReasonAlreadySent and ReasonAlreadyArchived are
// idempotence short-circuits, any other reason is a recorded failure.
type SendAndArchiveResult struct {
	EmailAction   string
	EmailReason   string
	ArchiveAction string
	ArchivePath   string
	ArchiveReason string
}

// SendArchiver delivers a generated receipt by email and archives its PDF,
// each phase independently idempotent.
type SendArchiver struct {
	receipts  ReceiptRecorder
	sender    Sender
	archiver  Archiver
	targetDir string
	validate  *validator.Validate
	log       zerolog.Logger
}

// NewSendArchiver wires a single-receipt send and archive orchestrator.
// targetDir overrides the default archives/<period>/ remote layout when
// non-empty.
func NewSendArchiver(
	receipts ReceiptRecorder,
	sender Sender,
	archiver Archiver,
	targetDir string,
	log zerolog.Logger,
) *SendArchiver {
	return &SendArchiver{
		receipts:  receipts,
		sender:    sender,
		archiver:  archiver,
		targetDir: targetDir,
		validate:  validator.New(),
		log:       log,
	}
}

// EmailSubject is the fixed subject line of receipt emails.
func EmailSubject(p period.Period) string {
	return fmt.Sprintf("Quittance de loyer %s", p)
}

const emailBody = "Bonjour,\n\nVeuillez trouver en pièce jointe votre quittance de loyer.\n\nCordialement,"

// SendAndArchive sends the receipt email and archives the PDF. The archive
// phase runs regardless of the email outcome so a later re-invocation can
// catch up on either side. Expected failures are recorded on the receipt
// and reported in the result; only an unknown receipt id returns an error.
func (s *SendArchiver) SendAndArchive(receiptID uint, p period.Period, tenantID uint, dryRun, resend, rearchive bool) (*SendAndArchiveResult, error) {
	if dryRun {
		return &SendAndArchiveResult{
			EmailAction:   ActionSkippedDryRun,
			ArchiveAction: ActionSkippedDryRun,
		}, nil
	}

	rec, err := s.receipts.FindDetailed(receiptID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: #%d", ErrReceiptNotFound, receiptID)
		}
		return nil, wrapOp("SendAndArchive", err, "load receipt")
	}

	res := &SendAndArchiveResult{}
	s.sendPhase(res, rec, p, resend)
	s.archivePhase(res, rec, p, tenantID, rearchive)
	return res, nil
}

func (s *SendArchiver) sendPhase(res *SendAndArchiveResult, rec *store.ReceiptDetails, p period.Period, resend bool) {
	if rec.SentAt != nil && !resend {
		res.EmailAction = ActionSkipped
		res.EmailReason = ReasonAlreadySent
		return
	}

	if err := s.validate.Var(rec.TenantEmail, "required,email"); err != nil {
		s.recordSendFailure(res, rec.ID, "invalid tenant email")
		return
	}

	if !fileExists(rec.PDFPath) {
		s.recordSendFailure(res, rec.ID, "pdf not found: "+rec.PDFPath)
		return
	}

	sendRes := s.sender.Send(SendRequest{
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
		s.recordSendFailure(res, rec.ID, reason)
		return
	}

	if err := s.receipts.MarkSent(rec.ID, nil); err != nil {
		s.log.Error().Err(err).Uint("receipt_id", rec.ID).Msg("Failed to mark receipt sent")
	}
	res.EmailAction = ActionSent
	s.log.Info().
		Uint("receipt_id", rec.ID).
		Str("email", rec.TenantEmail).
		Msg("Receipt email sent")
}

func (s *SendArchiver) recordSendFailure(res *SendAndArchiveResult, receiptID uint, reason string) {
	if err := s.receipts.MarkSent(receiptID, errors.New(reason)); err != nil {
		s.log.Error().Err(err).Uint("receipt_id", receiptID).Msg("Failed to record send error")
	}
	res.EmailAction = ActionSkipped
	res.EmailReason = reason
	s.log.Warn().
		Uint("receipt_id", receiptID).
		Str("reason", reason).
		Msg("Receipt email not sent")
}

func (s *SendArchiver) archivePhase(res *SendAndArchiveResult, rec *store.ReceiptDetails, p period.Period, tenantID uint, rearchive bool) {
	if rec.ArchivedAt != nil && !rearchive {
		res.ArchiveAction = ActionSkipped
		res.ArchiveReason = ReasonAlreadyArchived
		return
	}

	if !fileExists(rec.PDFPath) {
		s.recordArchiveFailure(res, rec.ID, "pdf not found: "+rec.PDFPath)
		return
	}

	remotePath := ArchiveRemotePath(p, tenantID, s.targetDir)
	archiveRes := s.archiver.Archive(rec.PDFPath, remotePath)
	if !archiveRes.Success {
		reason := archiveRes.ErrorMessage
		if reason == "" {
			reason = "archive failed"
		}
		s.recordArchiveFailure(res, rec.ID, reason)
		return
	}

	if err := s.receipts.MarkArchived(rec.ID, archiveRes.ArchivedPath, nil); err != nil {
		s.log.Error().Err(err).Uint("receipt_id", rec.ID).Msg("Failed to mark receipt archived")
	}
	res.ArchiveAction = ActionUploaded
	res.ArchivePath = archiveRes.ArchivedPath
	s.log.Info().
		Uint("receipt_id", rec.ID).
		Str("archived_path", archiveRes.ArchivedPath).
		Msg("Receipt archived")
}

func (s *SendArchiver) recordArchiveFailure(res *SendAndArchiveResult, receiptID uint, reason string) {
	if err := s.receipts.MarkArchived(receiptID, "", errors.New(reason)); err != nil {
		s.log.Error().Err(err).Uint("receipt_id", receiptID).Msg("Failed to record archive error")
	}
	res.ArchiveAction = ActionSkipped
	res.ArchiveReason = reason
	s.log.Warn().
		Uint("receipt_id", receiptID).
		Str("reason", reason).
		Msg("Receipt not archived")
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package receipt

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdwight/quittance/internal/store"
)

func seedDetailedReceipt(t *testing.T, receipts *fakeReceipts, tenantID uint, email string, withPDF bool) uint {
	t.Helper()
	pdfPath := "does/not/exist.pdf"
	if withPDF {
		pdfPath = writeTempPDF(t, "%PDF-1.4 fake")
	}
	return receipts.seed(store.ReceiptDetails{
		RentPaymentID: 10,
		PDFPath:       pdfPath,
		Period:        "2026-07",
		TenantID:      tenantID,
		TenantEmail:   email,
		TenantName:    "Jean Martin",
	})
}

func newTestSendArchiver(receipts *fakeReceipts, sender *stubSender, archiver *stubArchiver, targetDir string) *SendArchiver {
	return NewSendArchiver(receipts, sender, archiver, targetDir, zerolog.Nop())
}

func TestSendAndArchiveHappyPath(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("https://cloud.example.com/archives/2026-07/r.pdf")}

	s := newTestSendArchiver(receipts, sender, archiver, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSent, res.EmailAction)
	assert.Equal(t, ActionUploaded, res.ArchiveAction)
	assert.Equal(t, "https://cloud.example.com/archives/2026-07/r.pdf", res.ArchivePath)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "jean@example.com", sender.sent[0].ToEmail)
	assert.Equal(t, "Quittance de loyer 2026-07", sender.sent[0].Subject)
	assert.Contains(t, sender.sent[0].BodyText, "quittance de loyer")

	require.Len(t, archiver.calls, 1)
	assert.Equal(t, "archives/2026-07/receipt-2026-07-tenant-42.pdf", archiver.calls[0])

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.NotNil(t, row.SentAt)
	assert.NotNil(t, row.ArchivedAt)
}

func TestSendAndArchiveDryRun(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("x")}

	s := newTestSendArchiver(receipts, sender, archiver, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, true, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSkippedDryRun, res.EmailAction)
	assert.Equal(t, ActionSkippedDryRun, res.ArchiveAction)
	assert.Empty(t, sender.sent)
	assert.Empty(t, archiver.calls)
}

func TestSendAndArchiveUnknownReceipt(t *testing.T) {
	s := newTestSendArchiver(newFakeReceipts(), &stubSender{}, &stubArchiver{}, "")
	_, err := s.SendAndArchive(999, mustPeriod(t, "2026-07"), 42, false, false, false)
	assert.ErrorIs(t, err, ErrReceiptNotFound)
}

func TestSendAndArchiveAlreadySent(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	require.NoError(t, receipts.MarkSent(id, nil))
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("x")}

	s := newTestSendArchiver(receipts, sender, archiver, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSkipped, res.EmailAction)
	assert.Equal(t, ReasonAlreadySent, res.EmailReason)
	assert.Empty(t, sender.sent)

	// The archive phase still runs.
	assert.Equal(t, ActionUploaded, res.ArchiveAction)
}

func TestSendAndArchiveResendOverridesGuard(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	require.NoError(t, receipts.MarkSent(id, nil))
	sender := &stubSender{result: SendResult{Success: true}}

	s := newTestSendArchiver(receipts, sender, &stubArchiver{result: archiveOK("x")}, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, true, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSent, res.EmailAction)
	assert.Len(t, sender.sent, 1)
}

func TestSendAndArchiveAlreadyArchived(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	require.NoError(t, receipts.MarkArchived(id, "archives/2026-07/r.pdf", nil))
	archiver := &stubArchiver{result: archiveOK("y")}

	s := newTestSendArchiver(receipts, &stubSender{result: SendResult{Success: true}}, archiver, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSkipped, res.ArchiveAction)
	assert.Equal(t, ReasonAlreadyArchived, res.ArchiveReason)
	assert.Empty(t, archiver.calls)

	// Rearchive forces a fresh upload.
	res, err = s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, true)
	require.NoError(t, err)
	assert.Equal(t, ActionUploaded, res.ArchiveAction)
	assert.Len(t, archiver.calls, 1)
}

func TestSendAndArchiveInvalidEmail(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "not-an-email", true)
	sender := &stubSender{result: SendResult{Success: true}}

	s := newTestSendArchiver(receipts, sender, &stubArchiver{result: archiveOK("x")}, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSkipped, res.EmailAction)
	assert.Equal(t, "invalid tenant email", res.EmailReason)
	assert.Empty(t, sender.sent)

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.Nil(t, row.SentAt)
	require.NotNil(t, row.SendError)
	assert.Equal(t, "invalid tenant email", *row.SendError)
}

func TestSendAndArchiveMissingPDF(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", false)
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("x")}

	s := newTestSendArchiver(receipts, sender, archiver, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSkipped, res.EmailAction)
	assert.Contains(t, res.EmailReason, "pdf not found")
	assert.Equal(t, ActionSkipped, res.ArchiveAction)
	assert.Contains(t, res.ArchiveReason, "pdf not found")
	assert.Empty(t, sender.sent)
	assert.Empty(t, archiver.calls)
}

func TestSendAndArchiveTransportFailureRecorded(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	sender := &stubSender{result: SendResult{ErrorMessage: "dial tcp: connection refused"}}
	archiver := &stubArchiver{result: archiveOK("x")}

	s := newTestSendArchiver(receipts, sender, archiver, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSkipped, res.EmailAction)
	assert.Equal(t, "dial tcp: connection refused", res.EmailReason)

	// Archival proceeds despite the failed email.
	assert.Equal(t, ActionUploaded, res.ArchiveAction)

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.Nil(t, row.SentAt)
	require.NotNil(t, row.SendError)
	assert.Equal(t, "dial tcp: connection refused", *row.SendError)
	assert.NotNil(t, row.ArchivedAt)
}

func TestSendAndArchiveFailedArchiveRecorded(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	archiver := &stubArchiver{result: archiveFail("disk full")}

	s := newTestSendArchiver(receipts, &stubSender{result: SendResult{Success: true}}, archiver, "")
	res, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	assert.Equal(t, ActionSent, res.EmailAction)
	assert.Equal(t, ActionSkipped, res.ArchiveAction)
	assert.Equal(t, "disk full", res.ArchiveReason)

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.NotNil(t, row.SentAt)
	assert.Nil(t, row.ArchivedAt)
	require.NotNil(t, row.ArchiveError)
	assert.Equal(t, "disk full", *row.ArchiveError)
}

func TestSendAndArchiveTargetDirOverridesLayout(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedDetailedReceipt(t, receipts, 42, "jean@example.com", true)
	archiver := &stubArchiver{result: archiveOK("x")}

	s := newTestSendArchiver(receipts, &stubSender{result: SendResult{Success: true}}, archiver, "Documents/Quittances")
	_, err := s.SendAndArchive(id, mustPeriod(t, "2026-07"), 42, false, false, false)
	require.NoError(t, err)

	require.Len(t, archiver.calls, 1)
	assert.Equal(t, "Documents/Quittances/receipt-2026-07-tenant-42.pdf", archiver.calls[0])
}

package receipt

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

func TestBatchGeneratorInvalidPeriod(t *testing.T) {
	b := NewBatchGenerator(newFakePayments(), newFakeReceipts(), nil, zerolog.Nop())

	_, err := b.Execute("2026-7")
	assert.ErrorIs(t, err, period.ErrInvalidFormat)

	_, err = b.Execute("2026-13")
	assert.ErrorIs(t, err, period.ErrInvalidRange)
}

func TestBatchGeneratorCreatesAndSkips(t *testing.T) {
	payments := newFakePayments()
	payments.add(samplePayment(10, 1))
	pay2 := samplePayment(11, 2)
	pay2.TenantName = "Claire Petit"
	payments.add(pay2)
	// Malformed join row without a payment id.
	payments.add(store.PaymentDetails{RentPaymentID: 0, TenantID: 3, Period: "2026-07"})

	receipts := newFakeReceipts()
	receipts.registerPayment(10, 1, "2026-07", "jean@example.com", "Jean Martin")
	receipts.registerPayment(11, 2, "2026-07", "claire@example.com", "Claire Petit")
	// Tenant 2 already has a receipt for the month.
	receipts.seed(store.ReceiptDetails{RentPaymentID: 11, TenantID: 2, Period: "2026-07", PDFPath: "var/receipts/old.pdf"})

	generator := newTestGenerator(payments, receipts, &stubRenderer{html: "<html></html>"}, &stubPDF{})
	b := NewBatchGenerator(payments, receipts, generator, zerolog.Nop())

	res, err := b.Execute("2026-07")
	require.NoError(t, err)

	require.Len(t, res.Created, 1)
	assert.Equal(t, uint(10), res.Created[0].RentPaymentID)
	assert.Equal(t, uint(1), res.Created[0].TenantID)
	assert.Equal(t, "var/receipts/receipt-2026-07-tenant-1.pdf", res.Created[0].PDFPath)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, ReasonMissingPaymentID, skipReason(res.Skipped, 3))
	assert.Equal(t, ReasonReceiptExists, skipReason(res.Skipped, 2))
}

func skipReason(skipped []SkippedReceipt, tenantID uint) string {
	for _, s := range skipped {
		if s.TenantID == tenantID {
			return s.Reason
		}
	}
	return ""
}

func TestBatchGeneratorRerunIsNoOp(t *testing.T) {
	payments := newFakePayments()
	payments.add(samplePayment(10, 1))
	receipts := newFakeReceipts()
	receipts.registerPayment(10, 1, "2026-07", "jean@example.com", "Jean Martin")
	pdf := &stubPDF{}

	generator := newTestGenerator(payments, receipts, &stubRenderer{html: "<html></html>"}, pdf)
	b := NewBatchGenerator(payments, receipts, generator, zerolog.Nop())

	first, err := b.Execute("2026-07")
	require.NoError(t, err)
	require.Len(t, first.Created, 1)

	second, err := b.Execute("2026-07")
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	require.Len(t, second.Skipped, 1)
	assert.Equal(t, ReasonReceiptExists, second.Skipped[0].Reason)
	assert.Equal(t, 1, pdf.calls)
}

func newTestBatchSender(receipts *fakeReceipts, sender *stubSender, archiver *stubArchiver) *BatchSender {
	return NewBatchSender(receipts, sender, archiver, "", zerolog.Nop())
}

func seedBatchReceipt(t *testing.T, receipts *fakeReceipts, tenantID uint, email string, withPDF bool) uint {
	t.Helper()
	return seedDetailedReceipt(t, receipts, tenantID, email, withPDF)
}

func TestBatchSenderSendsAndArchives(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedBatchReceipt(t, receipts, 1, "jean@example.com", true)
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("archives/2026-07/r.pdf")}

	stats, err := newTestBatchSender(receipts, sender, archiver).Execute(mustPeriod(t, "2026-07"), false, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Sent)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Skipped)

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.NotNil(t, row.SentAt)
	assert.NotNil(t, row.ArchivedAt)
}

func TestBatchSenderDryRun(t *testing.T) {
	receipts := newFakeReceipts()
	seedBatchReceipt(t, receipts, 1, "jean@example.com", true)
	seedBatchReceipt(t, receipts, 2, "claire@example.com", true)
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("x")}

	stats, err := newTestBatchSender(receipts, sender, archiver).Execute(mustPeriod(t, "2026-07"), true, false)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Skipped)
	assert.Empty(t, sender.sent)
	assert.Empty(t, archiver.calls)
}

func TestBatchSenderFailureCounted(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedBatchReceipt(t, receipts, 1, "jean@example.com", true)
	sender := &stubSender{result: SendResult{ErrorMessage: "relay rejected"}}

	stats, err := newTestBatchSender(receipts, sender, &stubArchiver{result: archiveOK("x")}).
		Execute(mustPeriod(t, "2026-07"), false, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Sent)

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.Nil(t, row.SentAt)
	require.NotNil(t, row.SendError)
	assert.Equal(t, "relay rejected", *row.SendError)
}

func TestBatchSenderArchiveFailureStillCountsSent(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedBatchReceipt(t, receipts, 1, "jean@example.com", true)
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveFail("disk full")}

	stats, err := newTestBatchSender(receipts, sender, archiver).Execute(mustPeriod(t, "2026-07"), false, false)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Sent)
	assert.Zero(t, stats.Failed)

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.NotNil(t, row.SentAt)
	assert.Nil(t, row.ArchivedAt)
	require.NotNil(t, row.ArchiveError)
}

func TestBatchSenderArchiveRetryPass(t *testing.T) {
	receipts := newFakeReceipts()
	id := seedBatchReceipt(t, receipts, 1, "jean@example.com", true)
	// Sent in a previous run, archival pending.
	require.NoError(t, receipts.MarkSent(id, nil))
	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("archives/2026-07/r.pdf")}

	stats, err := newTestBatchSender(receipts, sender, archiver).Execute(mustPeriod(t, "2026-07"), false, false)
	require.NoError(t, err)

	// Not in the pending pass, picked up by the archive-only retry pass.
	assert.Empty(t, sender.sent)
	assert.Len(t, archiver.calls, 1)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Sent)

	row, err := receipts.FindDetailed(id)
	require.NoError(t, err)
	assert.NotNil(t, row.ArchivedAt)
}

func TestBatchSenderForceReprocessesAll(t *testing.T) {
	receipts := newFakeReceipts()
	sentID := seedBatchReceipt(t, receipts, 1, "jean@example.com", true)
	require.NoError(t, receipts.MarkSent(sentID, nil))
	require.NoError(t, receipts.MarkArchived(sentID, "archives/2026-07/r.pdf", nil))
	seedBatchReceipt(t, receipts, 2, "claire@example.com", true)

	sender := &stubSender{result: SendResult{Success: true}}
	archiver := &stubArchiver{result: archiveOK("x")}

	stats, err := newTestBatchSender(receipts, sender, archiver).Execute(mustPeriod(t, "2026-07"), false, true)
	require.NoError(t, err)

	// Both receipts are re-sent regardless of status, no retry pass runs.
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Sent)
	assert.Len(t, sender.sent, 2)
}

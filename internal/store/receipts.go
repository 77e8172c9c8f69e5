package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mdwight/quittance/internal/period"
)

// ReceiptDetails is a receipt row joined with its payment's period and
// tenant contact details, as needed by the send and archive flow.
type ReceiptDetails struct {
	ID            uint       `gorm:"column:id"`
	RentPaymentID uint       `gorm:"column:rent_payment_id"`
	PDFPath       string     `gorm:"column:pdf_path"`
	SentAt        *time.Time `gorm:"column:sent_at"`
	SendError     *string    `gorm:"column:send_error"`
	ArchivedAt    *time.Time `gorm:"column:archived_at"`
	ArchivePath   *string    `gorm:"column:archive_path"`
	ArchiveError  *string    `gorm:"column:archive_error"`
	Period        string     `gorm:"column:period"`
	TenantID      uint       `gorm:"column:tenant_id"`
	TenantEmail   string     `gorm:"column:tenant_email"`
	TenantName    string     `gorm:"column:tenant_name"`
}

// ReceiptStore provides access to receipt records and their send/archive
// status.
type ReceiptStore struct {
	db *gorm.DB
}

// NewReceiptStore returns a ReceiptStore backed by db.
func NewReceiptStore(db *gorm.DB) *ReceiptStore {
	return &ReceiptStore{db: db}
}

const receiptDetailsSelect = `
receipts.id AS id,
receipts.rent_payment_id AS rent_payment_id,
receipts.pdf_path AS pdf_path,
receipts.sent_at AS sent_at,
receipts.send_error AS send_error,
receipts.archived_at AS archived_at,
receipts.archive_path AS archive_path,
receipts.archive_error AS archive_error,
rent_payments.period AS period,
rent_payments.tenant_id AS tenant_id,
tenants.email AS tenant_email,
tenants.full_name AS tenant_name`

func (s *ReceiptStore) detailedQuery() *gorm.DB {
	return s.db.Model(&Receipt{}).
		Select(receiptDetailsSelect).
		Joins("JOIN rent_payments ON rent_payments.id = receipts.rent_payment_id").
		Joins("JOIN tenants ON tenants.id = rent_payments.tenant_id")
}

// ExistsForTenantAndPeriod reports whether the tenant already has a receipt
// for the period. This is the month-level idempotence check of batch
// generation.
func (s *ReceiptStore) ExistsForTenantAndPeriod(tenantID uint, p period.Period) (bool, error) {
	var count int64
	err := s.db.Model(&Receipt{}).
		Joins("JOIN rent_payments ON rent_payments.id = receipts.rent_payment_id").
		Where("rent_payments.tenant_id = ? AND rent_payments.period = ?", tenantID, p.String()).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a receipt referencing a payment and returns its id.
func (s *ReceiptStore) Create(rentPaymentID uint, pdfPath string) (uint, error) {
	receipt := Receipt{
		RentPaymentID: rentPaymentID,
		PDFPath:       pdfPath,
	}
	if err := s.db.Create(&receipt).Error; err != nil {
		return 0, fmt.Errorf("create receipt for payment %d: %w", rentPaymentID, err)
	}
	return receipt.ID, nil
}

// FindByPaymentID looks up the receipt of a payment. Returns nil without
// error when none exists, which is the generator's idempotence signal.
func (s *ReceiptStore) FindByPaymentID(rentPaymentID uint) (*Receipt, error) {
	var receipt Receipt
	err := s.db.Where("rent_payment_id = ?", rentPaymentID).Take(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// FindDetailed loads a receipt with joined tenant contact details.
// Returns ErrNotFound if the receipt does not exist.
func (s *ReceiptStore) FindDetailed(id uint) (*ReceiptDetails, error) {
	var row ReceiptDetails
	err := s.detailedQuery().Where("receipts.id = ?", id).Take(&row).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &row, nil
}

// FindPendingByPeriod returns the receipts of the period that have not been
// successfully sent yet, in id order.
func (s *ReceiptStore) FindPendingByPeriod(p period.Period) ([]ReceiptDetails, error) {
	var rows []ReceiptDetails
	err := s.detailedQuery().
		Where("rent_payments.period = ? AND receipts.sent_at IS NULL", p.String()).
		Order("receipts.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByPeriod returns every receipt of the period regardless of status,
// in id order. Used by force mode and reporting.
func (s *ReceiptStore) FindByPeriod(p period.Period) ([]ReceiptDetails, error) {
	var rows []ReceiptDetails
	err := s.detailedQuery().
		Where("rent_payments.period = ?", p.String()).
		Order("receipts.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindSentNotArchivedByPeriod returns receipts whose email went out but
// whose archival never succeeded, in id order. These are picked up by the
// archive-only retry pass of batch sending.
func (s *ReceiptStore) FindSentNotArchivedByPeriod(p period.Period) ([]ReceiptDetails, error) {
	var rows []ReceiptDetails
	err := s.detailedQuery().
		Where("rent_payments.period = ? AND receipts.sent_at IS NOT NULL AND receipts.archived_at IS NULL", p.String()).
		Order("receipts.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkSent records the outcome of a send attempt. A nil sendErr stamps
// sent_at and clears any previous error; otherwise only send_error is
// updated, leaving sent_at untouched.
func (s *ReceiptStore) MarkSent(id uint, sendErr error) error {
	if sendErr == nil {
		now := time.Now()
		return s.db.Model(&Receipt{}).Where("id = ?", id).Updates(map[string]interface{}{
			"sent_at":    &now,
			"send_error": nil,
		}).Error
	}
	msg := sendErr.Error()
	return s.db.Model(&Receipt{}).Where("id = ?", id).
		Update("send_error", &msg).Error
}

// MarkArchived records the outcome of an archive attempt. On success the
// resolved path is stored with archived_at and the error cleared; on
// failure only archive_error is updated.
func (s *ReceiptStore) MarkArchived(id uint, archivedPath string, archiveErr error) error {
	if archiveErr == nil {
		now := time.Now()
		return s.db.Model(&Receipt{}).Where("id = ?", id).Updates(map[string]interface{}{
			"archived_at":   &now,
			"archive_path":  &archivedPath,
			"archive_error": nil,
		}).Error
	}
	msg := archiveErr.Error()
	return s.db.Model(&Receipt{}).Where("id = ?", id).
		Update("archive_error", &msg).Error
}

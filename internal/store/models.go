package store

import "time"

// Owner is the landlord issuing receipts.
type Owner struct {
	ID        uint `gorm:"primaryKey"`
	Name      string
	Address   string
	Email     string
	CreatedAt time.Time
}

// Tenant is the recipient of rent receipts.
type Tenant struct {
	ID        uint `gorm:"primaryKey"`
	FullName  string
	Email     string
	Address   string
	CreatedAt time.Time
}

// Property is a rented unit with its default monthly amounts in cents.
type Property struct {
	ID            uint `gorm:"primaryKey"`
	OwnerID       uint
	Owner         *Owner `gorm:"foreignKey:OwnerID"`
	Label         string
	Address       string
	RentAmount    int64
	ChargesAmount int64
	CreatedAt     time.Time
}

// RentPayment records one rent payment for a (tenant, property, period)
// triple. Amounts are integer cents; Period is the canonical "YYYY-MM" form.
type RentPayment struct {
	ID            uint `gorm:"primaryKey"`
	TenantID      uint
	PropertyID    uint
	Tenant        *Tenant   `gorm:"foreignKey:TenantID"`
	Property      *Property `gorm:"foreignKey:PropertyID"`
	Period        string    `gorm:"index"`
	RentAmount    int64
	ChargesAmount int64
	PaidAt        time.Time
	CreatedAt     time.Time
}

// Receipt tracks the generated PDF for a payment and the outcome of the
// latest send and archive attempts. Nil SentAt/ArchivedAt means the step
// has not succeeded yet; the error columns hold the latest failure reason
// and are cleared on success.
//
// One receipt per payment is guaranteed by the generator's idempotence
// check, not by a database constraint.
type Receipt struct {
	ID            uint `gorm:"primaryKey"`
	RentPaymentID uint `gorm:"index"`
	RentPayment   *RentPayment `gorm:"foreignKey:RentPaymentID"`
	PDFPath       string       `gorm:"column:pdf_path"`
	SentAt        *time.Time
	SendError     *string
	ArchivedAt    *time.Time
	ArchivePath   *string
	ArchiveError  *string
	CreatedAt     time.Time
}

package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mdwight/quittance/internal/period"
)

// PaymentDetails is a payment row joined with the tenant and property it
// belongs to, as needed by receipt generation.
type PaymentDetails struct {
	RentPaymentID   uint      `gorm:"column:rent_payment_id"`
	TenantID        uint      `gorm:"column:tenant_id"`
	PropertyID      uint      `gorm:"column:property_id"`
	Period          string    `gorm:"column:period"`
	RentAmount      int64     `gorm:"column:rent_amount"`
	ChargesAmount   int64     `gorm:"column:charges_amount"`
	PaidAt          time.Time `gorm:"column:paid_at"`
	TenantName      string    `gorm:"column:tenant_name"`
	TenantEmail     string    `gorm:"column:tenant_email"`
	TenantAddress   string    `gorm:"column:tenant_address"`
	PropertyLabel   string    `gorm:"column:property_label"`
	PropertyAddress string    `gorm:"column:property_address"`
}

// PaymentFilter narrows List results. Zero values mean "no filter".
type PaymentFilter struct {
	Period     string
	TenantID   uint
	PropertyID uint
}

// UpsertAction reports what an upsert did.
type UpsertAction string

const (
	UpsertCreated UpsertAction = "created"
	UpsertUpdated UpsertAction = "updated"
)

// PaymentStore provides access to rent payment records.
type PaymentStore struct {
	db *gorm.DB
}

// NewPaymentStore returns a PaymentStore backed by db.
func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

const paymentDetailsSelect = `
rent_payments.id AS rent_payment_id,
rent_payments.tenant_id AS tenant_id,
rent_payments.property_id AS property_id,
rent_payments.period AS period,
rent_payments.rent_amount AS rent_amount,
rent_payments.charges_amount AS charges_amount,
rent_payments.paid_at AS paid_at,
tenants.full_name AS tenant_name,
tenants.email AS tenant_email,
tenants.address AS tenant_address,
properties.label AS property_label,
properties.address AS property_address`

// FindForPeriod returns every payment of the period joined with tenant and
// property details, ordered by tenant id.
func (s *PaymentStore) FindForPeriod(p period.Period) ([]PaymentDetails, error) {
	var rows []PaymentDetails
	err := s.db.Model(&RentPayment{}).
		Select(paymentDetailsSelect).
		Joins("JOIN tenants ON tenants.id = rent_payments.tenant_id").
		Joins("JOIN properties ON properties.id = rent_payments.property_id").
		Where("rent_payments.period = ?", p.String()).
		Order("rent_payments.tenant_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find payments for %s: %w", p, err)
	}
	return rows, nil
}

// FindWithDetails loads a single payment with joined tenant and property
// details. Returns ErrNotFound if the payment does not exist.
func (s *PaymentStore) FindWithDetails(id uint) (*PaymentDetails, error) {
	var row PaymentDetails
	err := s.db.Model(&RentPayment{}).
		Select(paymentDetailsSelect).
		Joins("JOIN tenants ON tenants.id = rent_payments.tenant_id").
		Joins("JOIN properties ON properties.id = rent_payments.property_id").
		Where("rent_payments.id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &row, nil
}

// FindByTenantPropertyPeriod looks up the canonical payment for a
// (tenant, property, period) triple. Returns nil without error when no
// payment exists yet.
func (s *PaymentStore) FindByTenantPropertyPeriod(tenantID, propertyID uint, p period.Period) (*RentPayment, error) {
	var payment RentPayment
	err := s.db.
		Where("tenant_id = ? AND property_id = ? AND period = ?", tenantID, propertyID, p.String()).
		Take(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// List returns payments matching the filter, in a stable order.
func (s *PaymentStore) List(filter PaymentFilter) ([]RentPayment, error) {
	q := s.db.Model(&RentPayment{})
	if filter.Period != "" {
		q = q.Where("period = ?", filter.Period)
	}
	if filter.TenantID != 0 {
		q = q.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.PropertyID != 0 {
		q = q.Where("property_id = ?", filter.PropertyID)
	}

	var payments []RentPayment
	if err := q.Order("period ASC, tenant_id ASC, property_id ASC, id ASC").Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// Create inserts a payment and returns its id.
func (s *PaymentStore) Create(payment *RentPayment) (uint, error) {
	if err := s.db.Create(payment).Error; err != nil {
		return 0, err
	}
	return payment.ID, nil
}

// Update rewrites all mutable fields of a payment.
func (s *PaymentStore) Update(payment *RentPayment) error {
	res := s.db.Model(&RentPayment{}).Where("id = ?", payment.ID).Updates(map[string]interface{}{
		"tenant_id":      payment.TenantID,
		"property_id":    payment.PropertyID,
		"period":         payment.Period,
		"rent_amount":    payment.RentAmount,
		"charges_amount": payment.ChargesAmount,
		"paid_at":        payment.PaidAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a payment by id.
func (s *PaymentStore) Delete(id uint) error {
	res := s.db.Delete(&RentPayment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertForPeriod creates or updates the payment for a (tenant, property,
// period) triple, taking the rent and charges amounts from the property
// defaults. The triple stays canonical: an existing payment is updated in
// place, never duplicated.
func (s *PaymentStore) UpsertForPeriod(tenantID, propertyID uint, p period.Period, paidAt time.Time) (uint, UpsertAction, error) {
	var property Property
	if err := s.db.Take(&property, propertyID).Error; err != nil {
		return 0, "", fmt.Errorf("property %d: %w", propertyID, translateErr(err))
	}

	existing, err := s.FindByTenantPropertyPeriod(tenantID, propertyID, p)
	if err != nil {
		return 0, "", err
	}

	if existing != nil {
		existing.RentAmount = property.RentAmount
		existing.ChargesAmount = property.ChargesAmount
		existing.PaidAt = paidAt
		if err := s.Update(existing); err != nil {
			return 0, "", err
		}
		return existing.ID, UpsertUpdated, nil
	}

	payment := &RentPayment{
		TenantID:      tenantID,
		PropertyID:    propertyID,
		Period:        p.String(),
		RentAmount:    property.RentAmount,
		ChargesAmount: property.ChargesAmount,
		PaidAt:        paidAt,
	}
	id, err := s.Create(payment)
	if err != nil {
		return 0, "", err
	}
	return id, UpsertCreated, nil
}

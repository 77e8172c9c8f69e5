package store

import "gorm.io/gorm"

// PartyStore groups the plain CRUD access to owners, tenants and
// properties. No pipeline logic lives here; referential checks beyond
// lookups are the CLI commands' concern.
type PartyStore struct {
	db *gorm.DB
}

// NewPartyStore returns a PartyStore backed by db.
func NewPartyStore(db *gorm.DB) *PartyStore {
	return &PartyStore{db: db}
}

func (s *PartyStore) SaveOwner(owner *Owner) error {
	return s.db.Save(owner).Error
}

func (s *PartyStore) FindOwner(id uint) (*Owner, error) {
	var owner Owner
	if err := s.db.Take(&owner, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &owner, nil
}

// FindOwnerByEmail returns nil without error when no owner has the
// address. Used by seed import to stay idempotent.
func (s *PartyStore) FindOwnerByEmail(email string) (*Owner, error) {
	var owners []Owner
	if err := s.db.Where("email = ?", email).Limit(1).Find(&owners).Error; err != nil {
		return nil, err
	}
	if len(owners) == 0 {
		return nil, nil
	}
	return &owners[0], nil
}

func (s *PartyStore) ListOwners() ([]Owner, error) {
	var owners []Owner
	if err := s.db.Order("id ASC").Find(&owners).Error; err != nil {
		return nil, err
	}
	return owners, nil
}

func (s *PartyStore) DeleteOwner(id uint) error {
	return deleteByID(s.db, &Owner{}, id)
}

func (s *PartyStore) SaveTenant(tenant *Tenant) error {
	return s.db.Save(tenant).Error
}

func (s *PartyStore) FindTenant(id uint) (*Tenant, error) {
	var tenant Tenant
	if err := s.db.Take(&tenant, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &tenant, nil
}

// FindTenantByEmail returns nil without error when no tenant has the
// address. Used by seed import to stay idempotent.
func (s *PartyStore) FindTenantByEmail(email string) (*Tenant, error) {
	var tenants []Tenant
	if err := s.db.Where("email = ?", email).Limit(1).Find(&tenants).Error; err != nil {
		return nil, err
	}
	if len(tenants) == 0 {
		return nil, nil
	}
	return &tenants[0], nil
}

func (s *PartyStore) ListTenants() ([]Tenant, error) {
	var tenants []Tenant
	if err := s.db.Order("id ASC").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *PartyStore) DeleteTenant(id uint) error {
	return deleteByID(s.db, &Tenant{}, id)
}

func (s *PartyStore) SaveProperty(property *Property) error {
	return s.db.Save(property).Error
}

func (s *PartyStore) FindProperty(id uint) (*Property, error) {
	var property Property
	if err := s.db.Take(&property, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &property, nil
}

// FindPropertyByLabel returns nil without error when no property has the
// label.
func (s *PartyStore) FindPropertyByLabel(label string) (*Property, error) {
	var properties []Property
	if err := s.db.Where("label = ?", label).Limit(1).Find(&properties).Error; err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, nil
	}
	return &properties[0], nil
}

func (s *PartyStore) ListProperties() ([]Property, error) {
	var properties []Property
	if err := s.db.Order("id ASC").Find(&properties).Error; err != nil {
		return nil, err
	}
	return properties, nil
}

func (s *PartyStore) DeleteProperty(id uint) error {
	return deleteByID(s.db, &Property{}, id)
}

func deleteByID(db *gorm.DB, model interface{}, id uint) error {
	res := db.Delete(model, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

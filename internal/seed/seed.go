// Package seed imports owners, tenants, properties and payments from a
// YAML file. The import is idempotent on natural keys so it can be re-run
// against a populated database.
package seed

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mdwight/quittance/internal/period"
	"github.com/mdwight/quittance/internal/store"
)

// File is the YAML seed document.
type File struct {
	Owners     []OwnerSeed    `yaml:"owners"`
	Tenants    []TenantSeed   `yaml:"tenants"`
	Properties []PropertySeed `yaml:"properties"`
	Payments   []PaymentSeed  `yaml:"payments"`
}

type OwnerSeed struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	Email   string `yaml:"email"`
}

type TenantSeed struct {
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Address  string `yaml:"address"`
}

type PropertySeed struct {
	Label         string `yaml:"label"`
	Address       string `yaml:"address"`
	OwnerEmail    string `yaml:"owner_email"`
	RentAmount    int64  `yaml:"rent_amount"`
	ChargesAmount int64  `yaml:"charges_amount"`
}

type PaymentSeed struct {
	TenantEmail   string `yaml:"tenant_email"`
	PropertyLabel string `yaml:"property_label"`
	Period        string `yaml:"period"`
	PaidAt        string `yaml:"paid_at"`
}

// Stats reports what an import run did.
type Stats struct {
	Created int
	Skipped int
}

// Importer loads seed files into the store.
type Importer struct {
	parties  *store.PartyStore
	payments *store.PaymentStore
	log      zerolog.Logger
}

// NewImporter returns an Importer over the given stores.
func NewImporter(parties *store.PartyStore, payments *store.PaymentStore, log zerolog.Logger) *Importer {
	return &Importer{parties: parties, payments: payments, log: log}
}

// Load parses and imports the seed file at path. Owners are upserted by
// email; records whose natural key already exists (tenant email, property
// label, payment triple) are skipped.
func (i *Importer) Load(path string) (*Stats, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	stats := &Stats{}

	for _, o := range file.Owners {
		existing, err := i.parties.FindOwnerByEmail(o.Email)
		if err != nil {
			return stats, err
		}
		if existing != nil {
			existing.Name = o.Name
			existing.Address = o.Address
			if err := i.parties.SaveOwner(existing); err != nil {
				return stats, fmt.Errorf("seed owner %s: %w", o.Name, err)
			}
			stats.Skipped++
			continue
		}
		if err := i.parties.SaveOwner(&store.Owner{
			Name:    o.Name,
			Address: o.Address,
			Email:   o.Email,
		}); err != nil {
			return stats, fmt.Errorf("seed owner %s: %w", o.Name, err)
		}
		stats.Created++
	}

	for _, t := range file.Tenants {
		existing, err := i.parties.FindTenantByEmail(t.Email)
		if err != nil {
			return stats, err
		}
		if existing != nil {
			stats.Skipped++
			continue
		}
		if err := i.parties.SaveTenant(&store.Tenant{
			FullName: t.FullName,
			Email:    t.Email,
			Address:  t.Address,
		}); err != nil {
			return stats, fmt.Errorf("seed tenant %s: %w", t.Email, err)
		}
		stats.Created++
	}

	for _, p := range file.Properties {
		existing, err := i.parties.FindPropertyByLabel(p.Label)
		if err != nil {
			return stats, err
		}
		if existing != nil {
			stats.Skipped++
			continue
		}
		var ownerID uint
		if p.OwnerEmail != "" {
			owner, err := i.parties.FindOwnerByEmail(p.OwnerEmail)
			if err != nil {
				return stats, err
			}
			if owner == nil {
				return stats, fmt.Errorf("seed property %s: unknown owner %s", p.Label, p.OwnerEmail)
			}
			ownerID = owner.ID
		}
		property := &store.Property{
			OwnerID:       ownerID,
			Label:         p.Label,
			Address:       p.Address,
			RentAmount:    p.RentAmount,
			ChargesAmount: p.ChargesAmount,
		}
		if err := i.parties.SaveProperty(property); err != nil {
			return stats, fmt.Errorf("seed property %s: %w", p.Label, err)
		}
		stats.Created++
	}

	for _, pay := range file.Payments {
		created, err := i.importPayment(pay)
		if err != nil {
			return stats, err
		}
		if created {
			stats.Created++
		} else {
			stats.Skipped++
		}
	}

	i.log.Info().
		Str("file", path).
		Int("created", stats.Created).
		Int("skipped", stats.Skipped).
		Msg("Seed import done")

	return stats, nil
}

func (i *Importer) importPayment(pay PaymentSeed) (bool, error) {
	tenant, err := i.parties.FindTenantByEmail(pay.TenantEmail)
	if err != nil {
		return false, err
	}
	if tenant == nil {
		return false, fmt.Errorf("seed payment: unknown tenant %s", pay.TenantEmail)
	}

	property, err := i.parties.FindPropertyByLabel(pay.PropertyLabel)
	if err != nil {
		return false, err
	}
	if property == nil {
		return false, fmt.Errorf("seed payment: unknown property %s", pay.PropertyLabel)
	}

	p, err := period.Parse(pay.Period)
	if err != nil {
		return false, fmt.Errorf("seed payment for %s: %w", pay.TenantEmail, err)
	}

	existing, err := i.payments.FindByTenantPropertyPeriod(tenant.ID, property.ID, p)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	paidAt, err := time.Parse("2006-01-02", pay.PaidAt)
	if err != nil {
		return false, fmt.Errorf("seed payment for %s: invalid paid_at %q", pay.TenantEmail, pay.PaidAt)
	}

	_, err = i.payments.Create(&store.RentPayment{
		TenantID:      tenant.ID,
		PropertyID:    property.ID,
		Period:        p.String(),
		RentAmount:    property.RentAmount,
		ChargesAmount: property.ChargesAmount,
		PaidAt:        paidAt,
	})
	return err == nil, err
}

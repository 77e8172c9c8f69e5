package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdwight/quittance/internal/store"
)

// The owner/tenant/property command sets are plain CRUD against the
// relational store; the receipt pipeline only reads these records.

var ownerCmd = &cobra.Command{Use: "owner", Short: "Manage owners"}
var tenantCmd = &cobra.Command{Use: "tenant", Short: "Manage tenants"}
var propertyCmd = &cobra.Command{Use: "property", Short: "Manage properties"}

func init() {
	rootCmd.AddCommand(ownerCmd, tenantCmd, propertyCmd)

	ownerUpsert := &cobra.Command{Use: "upsert", Short: "Create or update an owner", RunE: runOwnerUpsert}
	ownerUpsert.Flags().Uint("id", 0, "Owner id (0 creates a new owner)")
	ownerUpsert.Flags().String("name", "", "Owner name")
	ownerUpsert.Flags().String("address", "", "Owner address")
	ownerUpsert.Flags().String("email", "", "Owner email")
	_ = ownerUpsert.MarkFlagRequired("name")

	ownerList := &cobra.Command{Use: "list", Short: "List owners", RunE: runOwnerList}
	ownerShow := &cobra.Command{Use: "show", Short: "Show an owner", RunE: runOwnerShow}
	ownerShow.Flags().Uint("id", 0, "Owner id")
	_ = ownerShow.MarkFlagRequired("id")
	ownerDelete := &cobra.Command{Use: "delete", Short: "Delete an owner", RunE: runOwnerDelete}
	ownerDelete.Flags().Uint("id", 0, "Owner id")
	_ = ownerDelete.MarkFlagRequired("id")
	ownerCmd.AddCommand(ownerUpsert, ownerList, ownerShow, ownerDelete)

	tenantUpsert := &cobra.Command{Use: "upsert", Short: "Create or update a tenant", RunE: runTenantUpsert}
	tenantUpsert.Flags().Uint("id", 0, "Tenant id (0 creates a new tenant)")
	tenantUpsert.Flags().String("name", "", "Tenant full name")
	tenantUpsert.Flags().String("email", "", "Tenant email")
	tenantUpsert.Flags().String("address", "", "Tenant address")
	_ = tenantUpsert.MarkFlagRequired("name")
	_ = tenantUpsert.MarkFlagRequired("email")

	tenantList := &cobra.Command{Use: "list", Short: "List tenants", RunE: runTenantList}
	tenantShow := &cobra.Command{Use: "show", Short: "Show a tenant", RunE: runTenantShow}
	tenantShow.Flags().Uint("id", 0, "Tenant id")
	_ = tenantShow.MarkFlagRequired("id")
	tenantDelete := &cobra.Command{Use: "delete", Short: "Delete a tenant", RunE: runTenantDelete}
	tenantDelete.Flags().Uint("id", 0, "Tenant id")
	_ = tenantDelete.MarkFlagRequired("id")
	tenantCmd.AddCommand(tenantUpsert, tenantList, tenantShow, tenantDelete)

	propertyUpsert := &cobra.Command{Use: "upsert", Short: "Create or update a property", RunE: runPropertyUpsert}
	propertyUpsert.Flags().Uint("id", 0, "Property id (0 creates a new property)")
	propertyUpsert.Flags().Uint("owner-id", 0, "Owner id")
	propertyUpsert.Flags().String("label", "", "Property label")
	propertyUpsert.Flags().String("address", "", "Property address")
	propertyUpsert.Flags().Int64("rent", 0, "Default monthly rent in cents")
	propertyUpsert.Flags().Int64("charges", 0, "Default monthly charges in cents")
	_ = propertyUpsert.MarkFlagRequired("label")

	propertyList := &cobra.Command{Use: "list", Short: "List properties", RunE: runPropertyList}
	propertyShow := &cobra.Command{Use: "show", Short: "Show a property", RunE: runPropertyShow}
	propertyShow.Flags().Uint("id", 0, "Property id")
	_ = propertyShow.MarkFlagRequired("id")
	propertyDelete := &cobra.Command{Use: "delete", Short: "Delete a property", RunE: runPropertyDelete}
	propertyDelete.Flags().Uint("id", 0, "Property id")
	_ = propertyDelete.MarkFlagRequired("id")
	propertyCmd.AddCommand(propertyUpsert, propertyList, propertyShow, propertyDelete)
}

func runOwnerUpsert(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	name, _ := cmd.Flags().GetString("name")
	address, _ := cmd.Flags().GetString("address")
	email, _ := cmd.Flags().GetString("email")

	app, err := newApp()
	if err != nil {
		return err
	}

	owner := &store.Owner{ID: id, Name: name, Address: address, Email: email}
	if err := app.parties.SaveOwner(owner); err != nil {
		return err
	}
	fmt.Printf("saved owner=%d\n", owner.ID)
	return nil
}

func runOwnerList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	owners, err := app.parties.ListOwners()
	if err != nil {
		return err
	}
	for _, o := range owners {
		fmt.Printf("owner=%d name=%q email=%s\n", o.ID, o.Name, o.Email)
	}
	fmt.Printf("total=%d\n", len(owners))
	return nil
}

func runOwnerShow(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	app, err := newApp()
	if err != nil {
		return err
	}
	o, err := app.parties.FindOwner(id)
	if err != nil {
		return err
	}
	fmt.Printf("owner=%d name=%q address=%q email=%s\n", o.ID, o.Name, o.Address, o.Email)
	return nil
}

func runOwnerDelete(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	app, err := newApp()
	if err != nil {
		return err
	}
	if err := app.parties.DeleteOwner(id); err != nil {
		return err
	}
	fmt.Printf("deleted owner=%d\n", id)
	return nil
}

func runTenantUpsert(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	address, _ := cmd.Flags().GetString("address")

	app, err := newApp()
	if err != nil {
		return err
	}

	tenant := &store.Tenant{ID: id, FullName: name, Email: email, Address: address}
	if err := app.parties.SaveTenant(tenant); err != nil {
		return err
	}
	fmt.Printf("saved tenant=%d\n", tenant.ID)
	return nil
}

func runTenantList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	tenants, err := app.parties.ListTenants()
	if err != nil {
		return err
	}
	for _, t := range tenants {
		fmt.Printf("tenant=%d name=%q email=%s\n", t.ID, t.FullName, t.Email)
	}
	fmt.Printf("total=%d\n", len(tenants))
	return nil
}

func runTenantShow(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	app, err := newApp()
	if err != nil {
		return err
	}
	t, err := app.parties.FindTenant(id)
	if err != nil {
		return err
	}
	fmt.Printf("tenant=%d name=%q email=%s address=%q\n", t.ID, t.FullName, t.Email, t.Address)
	return nil
}

func runTenantDelete(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	app, err := newApp()
	if err != nil {
		return err
	}

	payments, err := app.payments.List(store.PaymentFilter{TenantID: id})
	if err != nil {
		return err
	}
	if len(payments) > 0 {
		return fmt.Errorf("tenant %d has %d payments, delete refused", id, len(payments))
	}

	if err := app.parties.DeleteTenant(id); err != nil {
		return err
	}
	fmt.Printf("deleted tenant=%d\n", id)
	return nil
}

func runPropertyUpsert(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	ownerID, _ := cmd.Flags().GetUint("owner-id")
	label, _ := cmd.Flags().GetString("label")
	address, _ := cmd.Flags().GetString("address")
	rent, _ := cmd.Flags().GetInt64("rent")
	charges, _ := cmd.Flags().GetInt64("charges")

	app, err := newApp()
	if err != nil {
		return err
	}

	if ownerID != 0 {
		if _, err := app.parties.FindOwner(ownerID); err != nil {
			return fmt.Errorf("owner %d: %w", ownerID, err)
		}
	}

	property := &store.Property{
		ID:            id,
		OwnerID:       ownerID,
		Label:         label,
		Address:       address,
		RentAmount:    rent,
		ChargesAmount: charges,
	}
	if err := app.parties.SaveProperty(property); err != nil {
		return err
	}
	fmt.Printf("saved property=%d\n", property.ID)
	return nil
}

func runPropertyList(cmd *cobra.Command, args []string) error {
	app, err := newApp()
	if err != nil {
		return err
	}
	properties, err := app.parties.ListProperties()
	if err != nil {
		return err
	}
	for _, p := range properties {
		fmt.Printf("property=%d label=%q rent=%d charges=%d\n", p.ID, p.Label, p.RentAmount, p.ChargesAmount)
	}
	fmt.Printf("total=%d\n", len(properties))
	return nil
}

func runPropertyShow(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	app, err := newApp()
	if err != nil {
		return err
	}
	p, err := app.parties.FindProperty(id)
	if err != nil {
		return err
	}
	fmt.Printf("property=%d owner=%d label=%q address=%q rent=%d charges=%d\n",
		p.ID, p.OwnerID, p.Label, p.Address, p.RentAmount, p.ChargesAmount)
	return nil
}

func runPropertyDelete(cmd *cobra.Command, args []string) error {
	id, _ := cmd.Flags().GetUint("id")
	app, err := newApp()
	if err != nil {
		return err
	}

	payments, err := app.payments.List(store.PaymentFilter{PropertyID: id})
	if err != nil {
		return err
	}
	if len(payments) > 0 {
		return fmt.Errorf("property %d has %d payments, delete refused", id, len(payments))
	}

	if err := app.parties.DeleteProperty(id); err != nil {
		return err
	}
	fmt.Printf("deleted property=%d\n", id)
	return nil
}

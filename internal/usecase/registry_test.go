package usecase

import (
	"context"
	"errors"
	"testing"

	"medsupply/internal/domain"
)

func TestGrantRequiresAdmin(t *testing.T) {
	e := newEnv()
	e.grant(t, "0xadmin", domain.RoleAdmin)

	err := e.registry().Grant(context.Background(), "0xadmin", "0xmanu", domain.RoleManufacturer)
	if err != nil {
		t.Fatalf("admin grant: %v", err)
	}
	has, err := e.store.Roles().Has(context.Background(), "0xmanu", domain.RoleManufacturer)
	if err != nil || !has {
		t.Fatalf("grantee missing role: has=%v err=%v", has, err)
	}

	err = e.registry().Grant(context.Background(), "0xmanu", "0xelse", domain.RoleManufacturer)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("non-admin grant err = %v, want ErrUnauthorized", err)
	}
}

func TestGrantIsIdempotent(t *testing.T) {
	e := newEnv()
	e.grant(t, "0xadmin", domain.RoleAdmin)

	for i := 0; i < 3; i++ {
		if err := e.registry().Grant(context.Background(), "0xadmin", "0xdoc", domain.RoleDoctor); err != nil {
			t.Fatalf("grant %d: %v", i, err)
		}
	}
	roles, err := e.store.Roles().List(context.Background(), "0xdoc")
	if err != nil {
		t.Fatalf("list roles: %v", err)
	}
	if len(roles) != 1 {
		t.Errorf("roles = %v, want exactly one doctor grant", roles)
	}
}

func TestRegisterPatientSelfService(t *testing.T) {
	e := newEnv()

	if err := e.registry().RegisterPatient(context.Background(), "0xwalkin"); err != nil {
		t.Fatalf("register patient: %v", err)
	}
	has, err := e.registry().HasRole(context.Background(), "0xwalkin", domain.RolePatient)
	if err != nil || !has {
		t.Fatalf("patient role missing: has=%v err=%v", has, err)
	}
	if e.lastEventType(t) != domain.AuditEventRoleGranted {
		t.Errorf("last event = %s, want role.granted", e.lastEventType(t))
	}
}

func TestMultipleRolesPerIdentity(t *testing.T) {
	e := newEnv()
	e.grant(t, "0xadmin", domain.RoleAdmin)

	ctx := context.Background()
	if err := e.registry().Grant(ctx, "0xadmin", "0xboth", domain.RoleDoctor); err != nil {
		t.Fatalf("grant doctor: %v", err)
	}
	if err := e.registry().Grant(ctx, "0xadmin", "0xboth", domain.RolePharmacist); err != nil {
		t.Fatalf("grant pharmacist: %v", err)
	}
	roles, err := e.registry().RolesOf(ctx, "0xboth")
	if err != nil {
		t.Fatalf("roles of: %v", err)
	}
	if len(roles) != 2 {
		t.Errorf("roles = %v, want doctor and pharmacist", roles)
	}
}

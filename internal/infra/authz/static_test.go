package authz

import (
	"context"
	"errors"
	"testing"

	"medsupply/internal/domain"
)

type stubRoles map[string][]domain.Role

func (s stubRoles) List(_ context.Context, identity string) ([]domain.Role, error) {
	return s[identity], nil
}

func TestStaticRequire(t *testing.T) {
	authorizer := NewStatic(stubRoles{
		"0xadmin": {domain.RoleAdmin},
		"0xmanu":  {domain.RoleManufacturer},
		"0xpharm": {domain.RolePharmacist},
		"0xins":   {domain.RoleInsurer},
	})
	ctx := context.Background()

	cases := []struct {
		caller    string
		operation string
		allowed   bool
	}{
		{"0xmanu", "token:mint", true},
		{"0xpharm", "token:mint", false},
		{"0xpharm", "token:dispense", true},
		{"0xins", "claim:list_pending", true},
		{"0xins", "claim:process", true},
		{"0xins", "token:mint", false},
		{"0xmanu", "role:grant", false},
		{"0xadmin", "role:grant", true},
		{"0xnobody", "token:mint", false},
	}
	for _, tc := range cases {
		err := authorizer.Require(ctx, tc.caller, tc.operation)
		if tc.allowed && err != nil {
			t.Errorf("%s on %s: unexpected deny: %v", tc.caller, tc.operation, err)
		}
		if !tc.allowed {
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("%s on %s: err = %v, want ErrUnauthorized", tc.caller, tc.operation, err)
			}
		}
	}
}

// Admin gates role administration only; every supply-chain operation
// needs its own role.
func TestStaticAdminLimitedToRoleAdministration(t *testing.T) {
	authorizer := NewStatic(stubRoles{"0xadmin": {domain.RoleAdmin}})
	ctx := context.Background()
	for op := range operationRoles {
		err := authorizer.Require(ctx, "0xadmin", op)
		if op == "role:grant" {
			if err != nil {
				t.Errorf("admin denied %s: %v", op, err)
			}
			continue
		}
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("admin passed %s without the operation role", op)
		}
	}
}

func TestStaticUnknownOperation(t *testing.T) {
	authorizer := NewStatic(stubRoles{"0xadmin": {domain.RoleAdmin}})
	err := authorizer.Require(context.Background(), "0xadmin", "token:teleport")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	authzErr, ok := IsAuthzError(err)
	if !ok || authzErr.Code != "UNKNOWN_OPERATION" {
		t.Fatalf("authz error = %+v", authzErr)
	}
}

func TestStaticMissingCaller(t *testing.T) {
	authorizer := NewStatic(stubRoles{})
	err := authorizer.Require(context.Background(), "", "token:mint")
	authzErr, ok := IsAuthzError(err)
	if !ok || authzErr.Code != "MISSING_CALLER" {
		t.Fatalf("authz error = %+v", authzErr)
	}
}

package policyopa

import (
	"context"
	"errors"
	"testing"

	"medsupply/internal/domain"
	"medsupply/internal/infra/authz"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(context.Background(), "")
	if err != nil {
		t.Fatalf("prepare engine: %v", err)
	}
	return engine
}

func TestEmbeddedPolicyDecisions(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	cases := []struct {
		name      string
		operation string
		roles     []string
		allow     bool
	}{
		{"manufacturer mints", "token:mint", []string{"manufacturer"}, true},
		{"pharmacist cannot mint", "token:mint", []string{"pharmacist"}, false},
		{"pharmacist dispenses", "token:dispense", []string{"pharmacist"}, true},
		{"doctor prescribes", "prescription:create", []string{"doctor"}, true},
		{"patient claims", "claim:create", []string{"patient"}, true},
		{"insurer processes", "claim:process", []string{"insurer"}, true},
		{"admin grants roles", "role:grant", []string{"admin"}, true},
		{"admin cannot mint", "token:mint", []string{"admin"}, false},
		{"admin cannot process claims", "claim:process", []string{"admin"}, false},
		{"no roles", "token:mint", nil, false},
		{"unknown operation", "token:teleport", []string{"admin"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision, err := engine.Evaluate(ctx, Input{
				Caller:    "0xcaller",
				Operation: tc.operation,
				Roles:     tc.roles,
			})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if decision.Allow != tc.allow {
				t.Errorf("allow = %v, want %v", decision.Allow, tc.allow)
			}
			if !tc.allow && decision.Code == "" {
				t.Error("deny decision carries no code")
			}
		})
	}
}

type staticRoles map[string][]domain.Role

func (s staticRoles) List(_ context.Context, identity string) ([]domain.Role, error) {
	return s[identity], nil
}

func TestAuthorizerRequire(t *testing.T) {
	authorizer := NewAuthorizer(newTestEngine(t), staticRoles{
		"0xmanu": {domain.RoleManufacturer},
	})
	ctx := context.Background()

	if err := authorizer.Require(ctx, "0xmanu", "token:mint"); err != nil {
		t.Fatalf("manufacturer denied mint: %v", err)
	}

	err := authorizer.Require(ctx, "0xmanu", "claim:process")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	authzErr, ok := authz.IsAuthzError(err)
	if !ok || authzErr.Code != "MISSING_ROLE" {
		t.Fatalf("authz error = %+v", authzErr)
	}
}

func TestAuthorizerMissingCaller(t *testing.T) {
	authorizer := NewAuthorizer(newTestEngine(t), staticRoles{})
	err := authorizer.Require(context.Background(), "", "token:mint")
	authzErr, ok := authz.IsAuthzError(err)
	if !ok || authzErr.Code != "MISSING_CALLER" {
		t.Fatalf("authz error = %+v", authzErr)
	}
}

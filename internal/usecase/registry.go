package usecase

import (
	"context"

	"medsupply/internal/domain"
)

// RoleRegistry is the authoritative mapping of identity to role set.
// Every grant is re-checked against the granter's current roles at
// execution time.
type RoleRegistry struct {
	Roles RoleRepository
	Audit *AuditEmitter
}

// Grant gives grantee the role. Only an Admin may grant; granting a
// role the grantee already holds succeeds without effect.
func (r *RoleRegistry) Grant(ctx context.Context, granter, grantee string, role domain.Role) error {
	if granter == "" || grantee == "" {
		return domain.ErrInvalidInput
	}
	isAdmin, err := r.Roles.Has(ctx, granter, domain.RoleAdmin)
	if err != nil {
		return err
	}
	if !isAdmin {
		return domain.ErrUnauthorized
	}
	if err := r.Roles.Grant(ctx, domain.RoleGrant{Identity: grantee, Role: role, GrantedBy: granter}); err != nil {
		return err
	}
	r.emitGrant(ctx, granter, grantee, role)
	return nil
}

// RegisterPatient lets any identity self-grant the Patient role.
// Patients are the terminal consumers of the chain; this is the one
// grant path that bypasses the Admin gate.
func (r *RoleRegistry) RegisterPatient(ctx context.Context, caller string) error {
	if caller == "" {
		return domain.ErrInvalidInput
	}
	if err := r.Roles.Grant(ctx, domain.RoleGrant{Identity: caller, Role: domain.RolePatient, GrantedBy: caller}); err != nil {
		return err
	}
	r.emitGrant(ctx, caller, caller, domain.RolePatient)
	return nil
}

// HasRole is a pure lookup with no side effects.
func (r *RoleRegistry) HasRole(ctx context.Context, identity string, role domain.Role) (bool, error) {
	return r.Roles.Has(ctx, identity, role)
}

// RolesOf returns the role set held by identity. Callers use it to
// decide which operations to attempt; it is not an authorization
// check.
func (r *RoleRegistry) RolesOf(ctx context.Context, identity string) ([]domain.Role, error) {
	return r.Roles.List(ctx, identity)
}

func (r *RoleRegistry) emitGrant(ctx context.Context, granter, grantee string, role domain.Role) {
	if r.Audit == nil {
		return
	}
	_ = r.Audit.EmitRoleGranted(ctx, granter, grantee, role)
}

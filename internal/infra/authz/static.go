// Package authz is the static role-to-operation authorizer. It is the
// default when no policy bundle is configured.
package authz

import (
	"context"
	"errors"

	"medsupply/internal/domain"
)

type AuthzError struct {
	Code string
	Err  error
}

func (e *AuthzError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code
}

func (e *AuthzError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsAuthzError(err error) (*AuthzError, bool) {
	var authz *AuthzError
	if errors.As(err, &authz) {
		return authz, true
	}
	return nil, false
}

// RoleSource is the role lookup the authorizer needs. Membership is
// read fresh on every call.
type RoleSource interface {
	List(ctx context.Context, identity string) ([]domain.Role, error)
}

var operationRoles = map[string][]domain.Role{
	"role:grant":          {domain.RoleAdmin},
	"token:mint":          {domain.RoleManufacturer},
	"token:dispense":      {domain.RolePharmacist},
	"prescription:create": {domain.RoleDoctor},
	"claim:create":        {domain.RolePatient},
	"claim:list_pending":  {domain.RoleInsurer},
	"claim:process":       {domain.RoleInsurer},
}

type Static struct {
	Roles RoleSource
}

func NewStatic(roles RoleSource) *Static {
	return &Static{Roles: roles}
}

// Require allows the operation when the caller holds one of the roles
// mapped to it. Admin carries no blanket bypass: it gates role
// administration only, via the table.
func (a *Static) Require(ctx context.Context, caller string, operation string) error {
	if caller == "" {
		return &AuthzError{Code: "MISSING_CALLER", Err: domain.ErrUnauthorized}
	}
	roles, err := a.Roles.List(ctx, caller)
	if err != nil {
		return err
	}
	allowed, known := operationRoles[operation]
	if !known {
		return &AuthzError{Code: "UNKNOWN_OPERATION", Err: domain.ErrUnauthorized}
	}
	for _, role := range roles {
		for _, want := range allowed {
			if role == want {
				return nil
			}
		}
	}
	return &AuthzError{Code: "MISSING_ROLE", Err: domain.ErrUnauthorized}
}

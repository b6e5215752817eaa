package policyopa

import (
	"context"

	"medsupply/internal/domain"
	"medsupply/internal/infra/authz"
)

// Authorizer adapts the policy engine to the operation gate the
// usecases call. Role membership is looked up fresh per call and
// handed to the policy as input.
type Authorizer struct {
	Engine *Engine
	Roles  authz.RoleSource
}

func NewAuthorizer(engine *Engine, roles authz.RoleSource) *Authorizer {
	return &Authorizer{Engine: engine, Roles: roles}
}

func (a *Authorizer) Require(ctx context.Context, caller string, operation string) error {
	if caller == "" {
		return &authz.AuthzError{Code: "MISSING_CALLER", Err: domain.ErrUnauthorized}
	}
	roles, err := a.Roles.List(ctx, caller)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	decision, err := a.Engine.Evaluate(ctx, Input{
		Caller:    caller,
		Operation: operation,
		Roles:     names,
	})
	if err != nil {
		return err
	}
	if !decision.Allow {
		code := decision.Code
		if code == "" {
			code = "POLICY_DENIED"
		}
		return &authz.AuthzError{Code: code, Err: domain.ErrUnauthorized}
	}
	return nil
}

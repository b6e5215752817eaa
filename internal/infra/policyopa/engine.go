// Package policyopa evaluates authorization decisions with OPA. The
// embedded policy mirrors the static role table; operators can swap in
// their own bundle without rebuilding the daemon.
package policyopa

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"

	"github.com/open-policy-agent/opa/rego"
)

const defaultQuery = "data.medsupply.authz.result"

//go:embed policy.rego
var defaultPolicy string

// Input is the document the policy evaluates.
type Input struct {
	Caller    string   `json:"caller"`
	Operation string   `json:"operation"`
	Roles     []string `json:"roles"`
}

// Decision is the shape every policy must produce at the result rule.
type Decision struct {
	Allow bool   `json:"allow"`
	Code  string `json:"code"`
}

type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine prepares the evaluator. An empty bundlePath loads the
// embedded default policy.
func NewEngine(ctx context.Context, bundlePath string) (*Engine, error) {
	opts := []func(*rego.Rego){
		rego.Query(defaultQuery),
		rego.StrictBuiltinErrors(true),
	}
	if bundlePath == "" {
		opts = append(opts, rego.Module("medsupply_authz.rego", defaultPolicy))
	} else {
		opts = append(opts, rego.Load([]string{bundlePath}, nil))
	}
	prepared, err := rego.New(opts...).PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &Engine{query: prepared}, nil
}

func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	if e == nil {
		return Decision{}, errors.New("policy engine is nil")
	}
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return Decision{}, err
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{}, errors.New("empty policy result")
	}
	return decodeDecision(results[0].Expressions[0].Value)
}

func decodeDecision(value any) (Decision, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return Decision{}, err
	}
	var decision Decision
	if err := json.Unmarshal(payload, &decision); err != nil {
		return Decision{}, err
	}
	return decision, nil
}

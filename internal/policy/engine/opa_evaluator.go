package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const (
	policyModule = "access.rego"
	publicQuery  = "data.devicesession.access.public"
)

// DefaultPolicy lists the RPCs callable without an access token: session bootstrap and health probes.
const DefaultPolicy = `package devicesession.access

default public := false

public if input.method in public_methods

public_methods := {
	"/devicesession.auth.v1.AuthService/Signin",
	"/devicesession.auth.v1.AuthService/Signup",
	"/devicesession.auth.v1.AuthService/Refresh",
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/Watch",
	"/grpc.health.v1.Health/List",
}
`

// healthProbeMethod must be public under any policy the server runs with.
const healthProbeMethod = "/grpc.health.v1.Health/Check"

// ErrUndefinedDecision is returned when the policy produces no boolean for data.devicesession.access.public.
var ErrUndefinedDecision = errors.New("policy: undefined access decision")

// OPAEvaluator evaluates the access policy with a query prepared once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles module (DefaultPolicy when empty) and prepares the access query.
func NewOPAEvaluator(ctx context.Context, module string) (*OPAEvaluator, error) {
	if module == "" {
		module = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{policyModule: module})
	if err != nil {
		return nil, fmt.Errorf("compile access policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(publicQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare access policy: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// IsPublic evaluates the policy for fullMethod (e.g. /devicesession.auth.v1.AuthService/Signin).
func (e *OPAEvaluator) IsPublic(ctx context.Context, fullMethod string) (bool, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{"method": fullMethod}))
	if err != nil {
		return false, fmt.Errorf("eval access policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, ErrUndefinedDecision
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, ErrUndefinedDecision
	}
	return v, nil
}

// HealthCheck verifies the prepared policy still evaluates and keeps the health probe public.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	public, err := e.IsPublic(ctx, healthProbeMethod)
	if err != nil {
		return err
	}
	if !public {
		return fmt.Errorf("policy: %s must be public", healthProbeMethod)
	}
	return nil
}

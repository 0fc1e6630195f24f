// Package authz decides which routes are reachable without a credential.
// The decision lives in an embedded Rego policy evaluated in-process, so
// the public-route list reads as data, not as scattered handler checks.
package authz

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const routePolicyModule = `package routes

default public = false

# Registration and login are reachable without a credential; everything
# else behind the API requires one.
public if {
	input.method == "POST"
	input.path == "/api/users"
}

public if {
	input.method == "POST"
	input.path == "/api/sessions"
}
`

// RoutePolicy answers whether a method/path pair is public. The policy is
// compiled and prepared once; evaluation per request is allocation-light.
type RoutePolicy struct {
	query rego.PreparedEvalQuery
}

// NewRoutePolicy compiles the embedded route policy.
func NewRoutePolicy(ctx context.Context) (*RoutePolicy, error) {
	compiler, err := ast.CompileModules(map[string]string{"routes.rego": routePolicyModule})
	if err != nil {
		return nil, fmt.Errorf("compile route policy: %w", err)
	}
	query, err := rego.New(
		rego.Query("data.routes.public"),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare route policy: %w", err)
	}
	return &RoutePolicy{query: query}, nil
}

// Public reports whether the given request line is exempt from
// authentication. Evaluation failures deny: an unreachable policy must
// never open a protected route.
func (p *RoutePolicy) Public(ctx context.Context, method, path string) bool {
	rs, err := p.query.Eval(ctx, rego.EvalInput(map[string]any{
		"method": method,
		"path":   path,
	}))
	if err != nil || len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false
	}
	v, ok := rs[0].Expressions[0].Value.(bool)
	return ok && v
}

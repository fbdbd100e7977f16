// Package privacy decides which declared types are exposed to generated
// output, so internal serializers never reach a client package.
package privacy

import (
	"context"
	"errors"
	"fmt"

	"github.com/syssam/shapegen/compiler/gen"
	"github.com/syssam/shapegen/compiler/load"
)

// Policy decision sentinel errors. Use errors.Is to check for them:
//
//	if errors.Is(err, privacy.Deny) { ... }
var (
	// Allow may be returned by rules to terminate the evaluation with an
	// allow decision. The type is generated.
	Allow = errors.New("shapegen/privacy: allow rule")

	// Deny may be returned by rules to terminate the evaluation with a
	// deny decision. The type is skipped.
	Deny = errors.New("shapegen/privacy: deny rule")

	// Skip may be returned by rules to continue with the next rule.
	Skip = errors.New("shapegen/privacy: skip rule")
)

// Allowf returns a formatted wrapped Allow decision.
func Allowf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Allow)...)
}

// Denyf returns a formatted wrapped Deny decision.
func Denyf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Deny)...)
}

// Skipf returns a formatted wrapped Skip decision.
func Skipf(format string, a ...any) error {
	return fmt.Errorf(format+": %w", append(a, Skip)...)
}

// Rule decides whether a declared type is exposed.
type Rule interface {
	EvalType(context.Context, *load.Type) error
}

// RuleFunc type is an adapter which allows the use of ordinary functions
// as rules.
type RuleFunc func(context.Context, *load.Type) error

// EvalType returns f(ctx, t).
func (f RuleFunc) EvalType(ctx context.Context, t *load.Type) error {
	return f(ctx, t)
}

// Policy combines rules. Rules are evaluated in order until one returns
// a decision other than Skip. A policy where every rule skips allows the
// type.
type Policy []Rule

// EvalType evaluates the policy. Allow decisions are returned as nil.
func (p Policy) EvalType(ctx context.Context, t *load.Type) error {
	if decision, ok := DecisionFromContext(ctx); ok {
		return decision
	}
	for _, rule := range p {
		if rule == nil {
			continue
		}
		switch decision := rule.EvalType(ctx, t); {
		case decision == nil || errors.Is(decision, Skip):
		case errors.Is(decision, Allow):
			return nil
		default:
			return decision
		}
	}
	return nil
}

// Reject adapts the policy to the reject hook of a generator. Types the
// policy does not allow are rejected.
//
//	g := gen.NewGenerator(conf, gen.WithReject(privacy.Reject(ctx, policy)))
func Reject(ctx context.Context, p Policy) gen.RejectFunc {
	return func(t *load.Type) bool {
		return p.EvalType(ctx, t) != nil
	}
}

type decisionCtxKey struct{}

// DecisionContext creates a new context from the given parent context with
// a policy decision attached to it. The decision overrides every rule.
func DecisionContext(parent context.Context, decision error) context.Context {
	if decision == nil || errors.Is(decision, Skip) {
		return parent
	}
	return context.WithValue(parent, decisionCtxKey{}, decision)
}

// DecisionFromContext retrieves the policy decision from the context.
func DecisionFromContext(ctx context.Context) (error, bool) {
	decision, ok := ctx.Value(decisionCtxKey{}).(error)
	if ok && errors.Is(decision, Allow) {
		decision = nil
	}
	return decision, ok
}

type fixedDecision struct {
	decision error
}

func (f fixedDecision) EvalType(context.Context, *load.Type) error {
	return f.decision
}

package privacy_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/shapegen/compiler/load"
	"github.com/syssam/shapegen/privacy"
)

func TestDecisions(t *testing.T) {
	t.Run("formatted decisions wrap the sentinel", func(t *testing.T) {
		assert.ErrorIs(t, privacy.Allowf("ok %d", 1), privacy.Allow)
		assert.ErrorIs(t, privacy.Denyf("no %s", "x"), privacy.Deny)
		assert.ErrorIs(t, privacy.Skipf("pass"), privacy.Skip)
		assert.EqualError(t, privacy.Denyf("no %s", "x"), "no x: shapegen/privacy: deny rule")
	})

	t.Run("context decision", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, privacy.DecisionContext(ctx, nil))
		assert.Equal(t, ctx, privacy.DecisionContext(ctx, privacy.Skip))

		_, ok := privacy.DecisionFromContext(ctx)
		assert.False(t, ok)

		decision, ok := privacy.DecisionFromContext(privacy.DecisionContext(ctx, privacy.Allow))
		assert.True(t, ok)
		assert.NoError(t, decision)

		decision, ok = privacy.DecisionFromContext(privacy.DecisionContext(ctx, privacy.Deny))
		assert.True(t, ok)
		assert.ErrorIs(t, decision, privacy.Deny)
	})
}

func TestPolicyEvalType(t *testing.T) {
	user := &load.Type{Name: "UserSerializer"}
	evaluated := 0
	count := privacy.RuleFunc(func(context.Context, *load.Type) error {
		evaluated++
		return nil
	})

	tests := []struct {
		name   string
		policy privacy.Policy
		want   error
	}{
		{"empty policy allows", nil, nil},
		{"skips allow", privacy.Policy{count, nil, privacy.RuleFunc(func(context.Context, *load.Type) error { return privacy.Skip })}, nil},
		{"allow stops", privacy.Policy{privacy.AlwaysAllowRule(), privacy.AlwaysDenyRule()}, nil},
		{"deny stops", privacy.Policy{privacy.AlwaysDenyRule(), privacy.AlwaysAllowRule()}, privacy.Deny},
		{"errors are decisions", privacy.Policy{privacy.RuleFunc(func(context.Context, *load.Type) error { return errors.New("boom") })}, errors.New("boom")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.EvalType(context.Background(), user)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.want.Error())
		})
	}
	assert.Equal(t, 1, evaluated)

	t.Run("context decision overrides rules", func(t *testing.T) {
		p := privacy.Policy{privacy.AlwaysDenyRule()}
		ctx := privacy.DecisionContext(context.Background(), privacy.Allow)
		assert.NoError(t, p.EvalType(ctx, user))
	})
}

func TestRules(t *testing.T) {
	names, err := privacy.DenyNamesRule("Internal::*", "*Token*")
	require.NoError(t, err)
	p := privacy.Policy{
		privacy.AllowNamespaceRule("Internal::Public"),
		names,
		privacy.DenyNamespaceRule("Secret"),
		privacy.DenyModelRule("audit_logs"),
		privacy.DenyMatchRule(regexp.MustCompile(`Debug`)),
		privacy.RejectRule(func(t *load.Type) bool { return t.Name == "LegacySerializer" }),
	}
	reject := privacy.Reject(context.Background(), p)

	for name, want := range map[string]bool{
		"UserSerializer":                       false,
		"Internal::UserSerializer":             true,
		"Internal::Billing::InvoiceSerializer": false,
		"Internal::Public::UserSerializer":     false,
		"ApiTokenSerializer":                   true,
		"Secret::KeySerializer":                true,
		"Secret::Nested::KeySerializer":        true,
		"SecretSerializer":                     false,
		"DebugSerializer":                      true,
		"LegacySerializer":                     true,
	} {
		assert.Equal(t, want, reject(&load.Type{Name: name}), name)
	}
	assert.True(t, reject(&load.Type{Name: "AuditSerializer", Model: "audit_logs"}))

	t.Run("bad pattern", func(t *testing.T) {
		_, err := privacy.DenyNamesRule("[")
		assert.Error(t, err)
	})
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "", privacy.Namespace("UserSerializer"))
	assert.Equal(t, "Admin", privacy.Namespace("Admin::UserSerializer"))
	assert.Equal(t, "Admin::Billing", privacy.Namespace("Admin::Billing::InvoiceSerializer"))
}

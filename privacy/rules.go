package privacy

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/syssam/shapegen/compiler/load"
)

// AlwaysAllowRule returns a rule that always returns an Allow decision.
func AlwaysAllowRule() Rule {
	return fixedDecision{Allow}
}

// AlwaysDenyRule returns a rule that always returns a Deny decision.
func AlwaysDenyRule() Rule {
	return fixedDecision{Deny}
}

// Namespace returns the namespace of a declared type name, e.g. "Admin"
// for "Admin::UserSerializer".
func Namespace(name string) string {
	i := strings.LastIndex(name, "::")
	if i < 0 {
		return ""
	}
	return name[:i]
}

func inNamespace(name string, namespaces []string) bool {
	ns := Namespace(name)
	return slices.ContainsFunc(namespaces, func(want string) bool {
		return ns == want || strings.HasPrefix(ns, want+"::")
	})
}

// OnNamespace evaluates the given rule only on types of the given
// namespaces or their nested namespaces.
func OnNamespace(rule Rule, namespaces ...string) Rule {
	return RuleFunc(func(ctx context.Context, t *load.Type) error {
		if inNamespace(t.Name, namespaces) {
			return rule.EvalType(ctx, t)
		}
		return Skip
	})
}

// DenyNamespaceRule denies the types of the given namespaces.
//
//	privacy.Policy{
//		privacy.DenyNamespaceRule("Internal"),
//	}
func DenyNamespaceRule(namespaces ...string) Rule {
	return OnNamespace(RuleFunc(func(_ context.Context, t *load.Type) error {
		return Denyf("privacy: namespace %s is not exposed", Namespace(t.Name))
	}), namespaces...)
}

// AllowNamespaceRule allows the types of the given namespaces.
func AllowNamespaceRule(namespaces ...string) Rule {
	return OnNamespace(AlwaysAllowRule(), namespaces...)
}

// DenyNamesRule denies the types whose name matches one of the patterns.
// Patterns use path.Match syntax where "::" separates segments, so
// "Admin::*" matches "Admin::UserSerializer" but not
// "Admin::Billing::InvoiceSerializer".
func DenyNamesRule(patterns ...string) (Rule, error) {
	for _, p := range patterns {
		if _, err := path.Match(segments(p), ""); err != nil {
			return nil, fmt.Errorf("privacy: bad name pattern %q: %w", p, err)
		}
	}
	return RuleFunc(func(_ context.Context, t *load.Type) error {
		name := segments(t.Name)
		for _, p := range patterns {
			if ok, _ := path.Match(segments(p), name); ok {
				return Denyf("privacy: %s matches %q", t.Name, p)
			}
		}
		return Skip
	}), nil
}

func segments(name string) string { return strings.ReplaceAll(name, "::", "/") }

// DenyMatchRule denies the types whose name matches re.
func DenyMatchRule(re *regexp.Regexp) Rule {
	return RuleFunc(func(_ context.Context, t *load.Type) error {
		if re.MatchString(t.Name) {
			return Denyf("privacy: %s matches %s", t.Name, re)
		}
		return Skip
	})
}

// DenyModelRule denies the types backed by one of the given models.
func DenyModelRule(models ...string) Rule {
	return RuleFunc(func(_ context.Context, t *load.Type) error {
		if t.Model != "" && slices.Contains(models, t.Model) {
			return Denyf("privacy: model %s is not exposed", t.Model)
		}
		return Skip
	})
}

// RejectRule denies the types for which fn reports true.
func RejectRule(fn func(*load.Type) bool) Rule {
	return RuleFunc(func(_ context.Context, t *load.Type) error {
		if fn != nil && fn(t) {
			return Denyf("privacy: %s is rejected", t.Name)
		}
		return Skip
	})
}

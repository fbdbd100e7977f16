// Rules are evaluated in order until one returns a final decision:
//
//   - Allow: the type is generated and evaluation stops
//   - Deny: the type is skipped and evaluation stops
//   - Skip: evaluation continues with the next rule
//
// If every rule skips, the type is generated. A policy is handed to a
// generator through Reject:
//
//	names, err := privacy.DenyNamesRule("Internal::*")
//	if err != nil {
//		return err
//	}
//	policy := privacy.Policy{
//		privacy.AllowNamespaceRule("Internal::Public"),
//		names,
//		privacy.DenyModelRule("api_tokens"),
//	}
//	g := gen.NewGenerator(conf, gen.WithReject(privacy.Reject(ctx, policy)))
//
// A decision attached with DecisionContext overrides every rule, which
// is handy to generate every type in a one-off pass:
//
//	ctx = privacy.DecisionContext(ctx, privacy.Allow)
package privacy

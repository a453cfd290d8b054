package policy

import (
	"context"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Decision is the verdict of a single rule
type Decision int

const (
	// Skip defers to the next rule
	Skip Decision = iota
	// Allow settles the check in favour of the user
	Allow
	// Deny settles the check against the user
	Deny
)

// String returns the decision name used in logs
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "skip"
	}
}

// allowIf turns a condition into a final decision
func allowIf(cond bool) Decision {
	return lo.Ternary(cond, Allow, Deny)
}

// RuleDefaultDeny names the implicit rule applied when every rule skipped
const RuleDefaultDeny = "default-deny"

// Rule is one named, independently testable object-level rule
type Rule[T any] struct {
	Name string
	Eval func(ctx context.Context, req Request, obj T) (Decision, error)
}

// Outcome records the result of an object-level check and the rule that settled it
type Outcome struct {
	Allowed bool
	Rule    string
}

// Explainer is implemented by permissions that can report which rule decided
type Explainer[T any] interface {
	Explain(ctx context.Context, req Request, obj T) (Outcome, error)
}

// Ruleset evaluates an ordered rule list against a resolved record
type Ruleset[T any] struct {
	resource Resource
	rules    []Rule[T]
	logger   *zap.Logger
}

func newRuleset[T any](resource Resource, logger *zap.Logger, rules ...Rule[T]) *Ruleset[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ruleset[T]{resource: resource, rules: rules, logger: logger}
}

// Rules returns the ordered rule list
func (rs *Ruleset[T]) Rules() []Rule[T] {
	return rs.rules
}

// Rule returns the rule registered under name
func (rs *Ruleset[T]) Rule(name string) (Rule[T], bool) {
	return lo.Find(rs.rules, func(r Rule[T]) bool { return r.Name == name })
}

// Explain evaluates the rules in order. obj must not be nil.
func (rs *Ruleset[T]) Explain(ctx context.Context, req Request, obj T) (Outcome, error) {
	for _, rule := range rs.rules {
		decision, err := rule.Eval(ctx, req, obj)
		if err != nil {
			rs.logger.Debug("policy rule raised",
				zap.String("resource", string(rs.resource)),
				zap.String("rule", rule.Name),
				zap.String("method", req.Method),
				zap.Error(err))
			return Outcome{Rule: rule.Name}, err
		}
		if decision == Skip {
			continue
		}

		rs.logger.Debug("policy rule decided",
			zap.String("resource", string(rs.resource)),
			zap.String("rule", rule.Name),
			zap.String("method", req.Method),
			zap.String("team", req.team()),
			zap.Stringer("decision", decision))
		return Outcome{Allowed: decision == Allow, Rule: rule.Name}, nil
	}
	return Outcome{Rule: RuleDefaultDeny}, nil
}

// HasObjectPermission reports whether the rules allow req on obj
func (rs *Ruleset[T]) HasObjectPermission(ctx context.Context, req Request, obj T) (bool, error) {
	outcome, err := rs.Explain(ctx, req, obj)
	if err != nil {
		return false, err
	}
	return outcome.Allowed, nil
}

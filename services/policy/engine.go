package policy

import (
	"context"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/upb/crm-control-plane/models"
	"go.uber.org/zap"
)

// Resource names a ruleset in the capability matrix
type Resource string

const (
	ResourceManager  Resource = "manager"
	ResourceClient   Resource = "client"
	ResourceContract Resource = "contract"
	ResourceEvent    Resource = "event"
)

// RuleRequestLevel names the outcome of a check rejected before any object rule ran
const RuleRequestLevel = "request-level"

var safeMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions}

// IsSafeMethod reports whether method never mutates state
func IsSafeMethod(method string) bool {
	return lo.Contains(safeMethods, strings.ToUpper(method))
}

// Request is what a permission sees of an inbound request
type Request struct {
	User   *models.User
	Method string
}

// NewRequest builds a Request, normalizing the method
func NewRequest(user *models.User, method string) Request {
	return Request{User: user, Method: strings.ToUpper(method)}
}

// IsSafe reports whether the request method is read-only
func (r Request) IsSafe() bool {
	return IsSafeMethod(r.Method)
}

func (r Request) team() string {
	if r.User == nil {
		return models.TeamUnknown.String()
	}
	return r.User.Team.String()
}

// Permission guards one resource type
type Permission[T any] interface {
	// HasPermission decides from the user and method alone
	HasPermission(ctx context.Context, req Request) (bool, error)
	// HasObjectPermission decides against a resolved record; call only after HasPermission passed
	HasObjectPermission(ctx context.Context, req Request, obj T) (bool, error)
}

// AnyOf allows a request when at least one member allows it at both levels
type AnyOf[T any] struct {
	perms []Permission[T]
}

// Any composes permissions with OR semantics. A member's object-level check only runs
// when its own request-level check passed, and a forbidden-with-reason error stops
// the evaluation.
func Any[T any](perms ...Permission[T]) *AnyOf[T] {
	return &AnyOf[T]{perms: perms}
}

// HasPermission implements Permission
func (a *AnyOf[T]) HasPermission(ctx context.Context, req Request) (bool, error) {
	for _, p := range a.perms {
		ok, err := p.HasPermission(ctx, req)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// HasObjectPermission implements Permission
func (a *AnyOf[T]) HasObjectPermission(ctx context.Context, req Request, obj T) (bool, error) {
	outcome, err := a.Explain(ctx, req, obj)
	if err != nil {
		return false, err
	}
	return outcome.Allowed, nil
}

// Explain implements Explainer. On denial it reports the last member rule evaluated.
func (a *AnyOf[T]) Explain(ctx context.Context, req Request, obj T) (Outcome, error) {
	last := Outcome{Rule: RuleRequestLevel}
	for _, p := range a.perms {
		ok, err := p.HasPermission(ctx, req)
		if err != nil {
			return Outcome{Rule: RuleRequestLevel}, err
		}
		if !ok {
			continue
		}

		outcome, err := ExplainPermission(ctx, p, req, obj)
		if err != nil {
			return outcome, err
		}
		if outcome.Allowed {
			return outcome, nil
		}
		last = outcome
	}
	return last, nil
}

// ExplainPermission runs p's object-level check, reporting the deciding rule when p
// is an Explainer
func ExplainPermission[T any](ctx context.Context, p Permission[T], req Request, obj T) (Outcome, error) {
	if e, ok := p.(Explainer[T]); ok {
		return e.Explain(ctx, req, obj)
	}
	ok, err := p.HasObjectPermission(ctx, req, obj)
	return Outcome{Allowed: ok}, err
}

// Engine holds the permission guarding each CRM resource
type Engine struct {
	Matrix    *Matrix
	Clients   *AnyOf[*models.Client]
	Contracts *AnyOf[*models.Contract]
	Events    *AnyOf[*models.Event]
}

// NewEngine wires the management read-only permission together with the
// per-resource rulesets
func NewEngine(
	matrix *Matrix,
	clientSupport ClientSupportChecker,
	contractSupport ContractSupportChecker,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		Matrix: matrix,
		Clients: Any[*models.Client](
			NewManager[*models.Client](matrix),
			NewClientRuleset(matrix, clientSupport, logger),
		),
		Contracts: Any[*models.Contract](
			NewManager[*models.Contract](matrix),
			NewContractRuleset(matrix, contractSupport, logger),
		),
		Events: Any[*models.Event](
			NewManager[*models.Event](matrix),
			NewEventRuleset(matrix, logger),
		),
	}
}

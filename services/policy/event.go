package policy

import (
	"context"

	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/services"
	"go.uber.org/zap"
)

const (
	RuleContactsReadEvent      = "contacts-read"
	RuleFinishedEventImmutable = "finished-event-immutable"
	RuleSupportEditsAssigned   = "support-edits-assigned"
	RuleSalesEditsOwnedEvent   = "sales-edits-owned"
)

// EventRuleset guards events.
//
// Sales can create events, view those of their own contracts and update them until
// finished. Support can view and update the events assigned to them until finished.
type EventRuleset struct {
	*Ruleset[*models.Event]
	matrix *Matrix
}

// NewEventRuleset creates the event ruleset
func NewEventRuleset(matrix *Matrix, logger *zap.Logger) *EventRuleset {
	r := &EventRuleset{matrix: matrix}
	r.Ruleset = newRuleset(ResourceEvent, logger,
		Rule[*models.Event]{Name: RuleContactsReadEvent, Eval: r.contactsRead},
		Rule[*models.Event]{Name: RuleFinishedEventImmutable, Eval: r.finishedEventImmutable},
		Rule[*models.Event]{Name: RuleSupportEditsAssigned, Eval: r.supportEditsAssigned},
		Rule[*models.Event]{Name: RuleSalesEditsOwnedEvent, Eval: r.salesEditsOwned},
	)
	return r
}

// HasPermission implements Permission: support may only GET and PUT, sales does everything
func (r *EventRuleset) HasPermission(_ context.Context, req Request) (bool, error) {
	return r.matrix.allowsRequest(req, ResourceEvent)
}

func (r *EventRuleset) contactsRead(_ context.Context, req Request, e *models.Event) (Decision, error) {
	if !req.IsSafe() {
		return Skip, nil
	}
	return allowIf(req.User.Is(e.SupportContactID) || req.User.Is(e.SalesContactID())), nil
}

func (r *EventRuleset) finishedEventImmutable(_ context.Context, _ Request, e *models.Event) (Decision, error) {
	if !e.IsFinished() {
		return Skip, nil
	}
	return Deny, services.ErrFinishedEvent
}

func (r *EventRuleset) supportEditsAssigned(_ context.Context, req Request, e *models.Event) (Decision, error) {
	if !req.User.InTeam(models.TeamSupport) {
		return Skip, nil
	}
	return allowIf(req.User.Is(e.SupportContactID)), nil
}

func (r *EventRuleset) salesEditsOwned(_ context.Context, req Request, e *models.Event) (Decision, error) {
	return allowIf(req.User.Is(e.SalesContactID())), nil
}

package policy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/upb/crm-control-plane/models"
	"go.uber.org/zap"
)

const (
	RuleDeleteProspectsOnly          = "delete-prospects-only"
	RuleSupportReadsSupportedClients = "support-reads-supported-clients"
	RuleOwnerOrProspect              = "owner-or-prospect"
)

// ClientRuleset guards clients.
//
// Sales can create clients, view and update any prospect and their own clients,
// and delete prospects. Support can view the clients whose events they run.
type ClientRuleset struct {
	*Ruleset[*models.Client]
	matrix  *Matrix
	support ClientSupportChecker
}

// NewClientRuleset creates the client ruleset
func NewClientRuleset(matrix *Matrix, support ClientSupportChecker, logger *zap.Logger) *ClientRuleset {
	r := &ClientRuleset{matrix: matrix, support: support}
	r.Ruleset = newRuleset(ResourceClient, logger,
		Rule[*models.Client]{Name: RuleDeleteProspectsOnly, Eval: r.deleteProspectsOnly},
		Rule[*models.Client]{Name: RuleSupportReadsSupportedClients, Eval: r.supportReadsSupportedClients},
		Rule[*models.Client]{Name: RuleOwnerOrProspect, Eval: r.ownerOrProspect},
	)
	return r
}

// HasPermission implements Permission: support reads, sales does everything
func (r *ClientRuleset) HasPermission(_ context.Context, req Request) (bool, error) {
	return r.matrix.allowsRequest(req, ResourceClient)
}

func (r *ClientRuleset) deleteProspectsOnly(_ context.Context, req Request, c *models.Client) (Decision, error) {
	if req.Method != http.MethodDelete {
		return Skip, nil
	}
	return allowIf(req.User.InTeam(models.TeamSales) && c.IsProspect()), nil
}

func (r *ClientRuleset) supportReadsSupportedClients(ctx context.Context, req Request, c *models.Client) (Decision, error) {
	if !req.User.InTeam(models.TeamSupport) || !req.IsSafe() {
		return Skip, nil
	}
	supported, err := r.support.IsClientSupportedBy(ctx, c.ID, req.User.ID)
	if err != nil {
		return Deny, fmt.Errorf("failed to check client support membership: %w", err)
	}
	return allowIf(supported), nil
}

// ownerOrProspect lets any qualifying user act on a prospect, which has no committed owner yet
func (r *ClientRuleset) ownerOrProspect(_ context.Context, req Request, c *models.Client) (Decision, error) {
	return allowIf(req.User.Is(c.SalesContactID) || c.IsProspect()), nil
}

package policy

import (
	"context"
	"fmt"
	"net/http"

	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/services"
	"go.uber.org/zap"
)

const (
	RuleSupportReadsSupportedContracts = "support-reads-supported-contracts"
	RuleOwnerReadsContract             = "owner-reads"
	RuleSignedContractImmutable        = "signed-contract-immutable"
	RuleOwnerEditsUnsigned             = "owner-edits-unsigned"
)

// ContractRuleset guards contracts.
//
// Sales can create contracts, view their own and update them until signed.
// Support can view the contracts whose events they run.
type ContractRuleset struct {
	*Ruleset[*models.Contract]
	matrix  *Matrix
	support ContractSupportChecker
}

// NewContractRuleset creates the contract ruleset
func NewContractRuleset(matrix *Matrix, support ContractSupportChecker, logger *zap.Logger) *ContractRuleset {
	r := &ContractRuleset{matrix: matrix, support: support}
	r.Ruleset = newRuleset(ResourceContract, logger,
		Rule[*models.Contract]{Name: RuleSupportReadsSupportedContracts, Eval: r.supportReadsSupportedContracts},
		Rule[*models.Contract]{Name: RuleOwnerReadsContract, Eval: r.ownerReads},
		Rule[*models.Contract]{Name: RuleSignedContractImmutable, Eval: r.signedContractImmutable},
		Rule[*models.Contract]{Name: RuleOwnerEditsUnsigned, Eval: r.ownerEditsUnsigned},
	)
	return r
}

// HasPermission implements Permission: support reads, sales does everything
func (r *ContractRuleset) HasPermission(_ context.Context, req Request) (bool, error) {
	return r.matrix.allowsRequest(req, ResourceContract)
}

func (r *ContractRuleset) supportReadsSupportedContracts(ctx context.Context, req Request, c *models.Contract) (Decision, error) {
	if !req.IsSafe() || !req.User.InTeam(models.TeamSupport) {
		return Skip, nil
	}
	supported, err := r.support.IsContractSupportedBy(ctx, c.ID, req.User.ID)
	if err != nil {
		return Deny, fmt.Errorf("failed to check contract support membership: %w", err)
	}
	return allowIf(supported), nil
}

func (r *ContractRuleset) ownerReads(_ context.Context, req Request, c *models.Contract) (Decision, error) {
	if !req.IsSafe() {
		return Skip, nil
	}
	return allowIf(req.User.Is(c.SalesContactID)), nil
}

func (r *ContractRuleset) signedContractImmutable(_ context.Context, req Request, c *models.Contract) (Decision, error) {
	if req.Method != http.MethodPut || !c.IsSigned() {
		return Skip, nil
	}
	return Deny, services.ErrSignedContract
}

func (r *ContractRuleset) ownerEditsUnsigned(_ context.Context, req Request, c *models.Contract) (Decision, error) {
	return allowIf(req.User.Is(c.SalesContactID) && !c.IsSigned()), nil
}

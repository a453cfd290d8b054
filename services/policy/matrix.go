package policy

import (
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	"github.com/upb/crm-control-plane/models"
)

// MatrixModel is the casbin model of the request-level capability matrix:
// a team may use a method on a resource when a grant's method pattern matches.
const MatrixModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && regexMatch(r.act, p.act)
`

const (
	safeMethodsPattern = "^(GET|HEAD|OPTIONS)$"
	anyMethodPattern   = ".*"
)

// DefaultGrants are the request-level grants of the CRM
var DefaultGrants = [][]string{
	{models.TeamManagement.String(), string(ResourceManager), safeMethodsPattern},

	{models.TeamSupport.String(), string(ResourceClient), safeMethodsPattern},
	{models.TeamSales.String(), string(ResourceClient), anyMethodPattern},

	{models.TeamSupport.String(), string(ResourceContract), safeMethodsPattern},
	{models.TeamSales.String(), string(ResourceContract), anyMethodPattern},

	// support updates the events it runs but never creates or deletes them
	{models.TeamSupport.String(), string(ResourceEvent), "^(GET|PUT)$"},
	{models.TeamSales.String(), string(ResourceEvent), anyMethodPattern},
}

// Matrix is the team x resource x method capability set backing every
// request-level check. It is built once and only read afterwards.
type Matrix struct {
	enforcer *casbin.SyncedEnforcer
}

// NewMatrix builds the matrix from MatrixModel and grants
func NewMatrix(grants [][]string) (*Matrix, error) {
	m, err := model.NewModelFromString(MatrixModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse capability model: %w", err)
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to create capability enforcer: %w", err)
	}
	if len(grants) > 0 {
		if _, err := enforcer.AddPolicies(grants); err != nil {
			return nil, fmt.Errorf("failed to load capability grants: %w", err)
		}
	}
	return &Matrix{enforcer: enforcer}, nil
}

// NewDefaultMatrix builds the matrix holding DefaultGrants
func NewDefaultMatrix() (*Matrix, error) {
	return NewMatrix(DefaultGrants)
}

// NewMatrixFromFiles loads a casbin model and a CSV grant file
func NewMatrixFromFiles(modelPath, policyPath string) (*Matrix, error) {
	enforcer, err := casbin.NewSyncedEnforcer(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load capability model %s: %w", modelPath, err)
	}
	enforcer.SetAdapter(fileadapter.NewAdapter(policyPath))
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load capability grants %s: %w", policyPath, err)
	}
	return &Matrix{enforcer: enforcer}, nil
}

// Allows reports whether team may use method on resource. Unknown teams never match.
func (m *Matrix) Allows(team models.Team, resource Resource, method string) (bool, error) {
	if !team.Valid() {
		return false, nil
	}
	ok, err := m.enforcer.Enforce(team.String(), string(resource), strings.ToUpper(method))
	if err != nil {
		return false, fmt.Errorf("capability check failed: %w", err)
	}
	return ok, nil
}

// allowsRequest is the request-level check shared by every ruleset
func (m *Matrix) allowsRequest(req Request, resource Resource) (bool, error) {
	if req.User == nil {
		return false, nil
	}
	return m.Allows(req.User.Team, resource, req.Method)
}

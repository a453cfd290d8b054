package policy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/crm-control-plane/models"
	"go.uber.org/zap/zaptest"
)

var (
	writeMethods = []string{"POST", "PUT", "PATCH", "DELETE"}
	readMethods  = []string{"GET", "HEAD", "OPTIONS"}
	allMethods   = append(append([]string{}, readMethods...), writeMethods...)
)

type mockSupportChecker struct {
	mock.Mock
}

func (m *mockSupportChecker) IsClientSupportedBy(ctx context.Context, clientID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, clientID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockSupportChecker) IsContractSupportedBy(ctx context.Context, contractID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, contractID, userID)
	return args.Bool(0), args.Error(1)
}

func newTestMatrix(t *testing.T) *Matrix {
	t.Helper()
	matrix, err := NewDefaultMatrix()
	require.NoError(t, err)
	return matrix
}

func newTestEngine(t *testing.T, support *mockSupportChecker) *Engine {
	t.Helper()
	return NewEngine(newTestMatrix(t), support, support, zaptest.NewLogger(t))
}

func newUser(team models.Team) *models.User {
	return models.NewUser(team.String()+"@crm.test", "Test", team.String(), team)
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}

func clientOwnedBy(owner *models.User, signed bool) *models.Client {
	c := models.NewClient("Ada", "Lovelace", "ada@example.com", "Analytical Engines")
	if owner != nil {
		c.SalesContactID = ptr(owner.ID)
	}
	c.Status = signed
	return c
}

func contractOwnedBy(owner *models.User, signed bool) *models.Contract {
	c := models.NewContract(uuid.New(), 1500)
	if owner != nil {
		c.SalesContactID = ptr(owner.ID)
	}
	c.Status = signed
	return c
}

func eventFor(owner, support *models.User, finished bool) *models.Event {
	e := models.NewEvent(contractOwnedBy(owner, true))
	if support != nil {
		e.SupportContactID = ptr(support.ID)
	}
	e.EventStatus = finished
	return e
}

package crm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services"
	"github.com/upb/crm-control-plane/services/policy"
	"go.uber.org/zap"
)

type mockClientRepository struct {
	mock.Mock
}

func (m *mockClientRepository) Create(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClientRepository) List(ctx context.Context, page repositories.Page) ([]*models.Client, error) {
	args := m.Called(ctx, page)
	if c := args.Get(0); c != nil {
		return c.([]*models.Client), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockClientRepository) Update(ctx context.Context, client *models.Client) error {
	return m.Called(ctx, client).Error(0)
}

func (m *mockClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockClientRepository) IsClientSupportedBy(ctx context.Context, clientID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, clientID, userID)
	return args.Bool(0), args.Error(1)
}

type mockContractRepository struct {
	mock.Mock
}

func (m *mockContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	return m.Called(ctx, contract).Error(0)
}

func (m *mockContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*models.Contract), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContractRepository) List(ctx context.Context, page repositories.Page) ([]*models.Contract, error) {
	args := m.Called(ctx, page)
	if c := args.Get(0); c != nil {
		return c.([]*models.Contract), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	return m.Called(ctx, contract).Error(0)
}

func (m *mockContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockContractRepository) IsContractSupportedBy(ctx context.Context, contractID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, contractID, userID)
	return args.Bool(0), args.Error(1)
}

type mockEventRepository struct {
	mock.Mock
}

func (m *mockEventRepository) Create(ctx context.Context, event *models.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	args := m.Called(ctx, id)
	if e := args.Get(0); e != nil {
		return e.(*models.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEventRepository) List(ctx context.Context, page repositories.Page) ([]*models.Event, error) {
	args := m.Called(ctx, page)
	if e := args.Get(0); e != nil {
		return e.([]*models.Event), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockEventRepository) Update(ctx context.Context, event *models.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// userDirectory is an in-memory UserFinder
type userDirectory map[uuid.UUID]*models.User

func (d userDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, services.ErrUserNotFound
}

type mockChangeRecorder struct {
	mock.Mock
}

func (m *mockChangeRecorder) LogRecordChange(action models.AuditAction, user *models.User, resource string, resourceID uuid.UUID, method string, details interface{}) error {
	return m.Called(action, user, resource, resourceID, method, details).Error(0)
}

// inlineTxManager runs transactions without a database
type inlineTxManager struct {
	commits   int
	rollbacks int
}

type inlineTx struct {
	mgr *inlineTxManager
	ctx context.Context
}

func (m *inlineTxManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return &inlineTx{mgr: m, ctx: ctx}, nil
}

func (m *inlineTxManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	tx, _ := m.Begin(ctx)
	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (t *inlineTx) Commit() error            { t.mgr.commits++; return nil }
func (t *inlineTx) Rollback() error          { t.mgr.rollbacks++; return nil }
func (t *inlineTx) Context() context.Context { return t.ctx }

type fixture struct {
	clients   *mockClientRepository
	contracts *mockContractRepository
	events    *mockEventRepository
	changes   *mockChangeRecorder
	txMgr     *inlineTxManager
	users     userDirectory
	services  *Services

	manager *models.User
	sales   *models.User
	sales2  *models.User
	support *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clients:   new(mockClientRepository),
		contracts: new(mockContractRepository),
		events:    new(mockEventRepository),
		changes:   new(mockChangeRecorder),
		txMgr:     &inlineTxManager{},
		manager:   models.NewUser("boss@crm.test", "Bo", "Ss", models.TeamManagement),
		sales:     models.NewUser("sam@crm.test", "Sam", "Seller", models.TeamSales),
		sales2:    models.NewUser("sue@crm.test", "Sue", "Seller", models.TeamSales),
		support:   models.NewUser("pat@crm.test", "Pat", "Helper", models.TeamSupport),
	}
	f.users = userDirectory{}
	for _, u := range []*models.User{f.manager, f.sales, f.sales2, f.support} {
		f.users[u.ID] = u
	}

	matrix, err := policy.NewDefaultMatrix()
	require.NoError(t, err)
	engine := policy.NewEngine(matrix, f.clients, f.contracts, zap.NewNop())

	f.services = &Services{
		Clients:   NewClientService(f.clients, f.users, f.txMgr, engine.Clients, f.changes, zap.NewNop()),
		Contracts: NewContractService(f.contracts, f.clients, f.users, f.txMgr, engine.Contracts, f.changes, zap.NewNop()),
		Events:    NewEventService(f.events, f.contracts, f.users, f.txMgr, engine.Events, f.changes, zap.NewNop()),
	}
	return f
}

func idOf(u *models.User) *uuid.UUID {
	id := u.ID
	return &id
}

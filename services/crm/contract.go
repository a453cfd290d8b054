package crm

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services"
	"github.com/upb/crm-control-plane/services/policy"
	"go.uber.org/zap"
)

// ClientFinder loads the client a contract belongs to
type ClientFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
}

// ContractService manages contracts
type ContractService struct {
	contracts repositories.ContractRepository
	clients   ClientFinder
	contacts  contacts
	txMgr     repositories.TransactionManager
	perm      policy.Permission[*models.Contract]
	recorder  recorder
	logger    *zap.Logger
}

// NewContractService creates a new ContractService
func NewContractService(
	contracts repositories.ContractRepository,
	clients ClientFinder,
	users UserFinder,
	txMgr repositories.TransactionManager,
	perm policy.Permission[*models.Contract],
	changes ChangeRecorder,
	logger *zap.Logger,
) *ContractService {
	return &ContractService{
		contracts: contracts,
		clients:   clients,
		contacts:  contacts{users: users},
		txMgr:     txMgr,
		perm:      perm,
		recorder:  recorder{changes: changes, resource: policy.ResourceContract, logger: logger},
		logger:    logger,
	}
}

// Get loads a contract
func (s *ContractService) Get(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	return s.contracts.GetByID(ctx, id)
}

// List returns the page of contracts user may read
func (s *ContractService) List(ctx context.Context, user *models.User, page repositories.Page) ([]*models.Contract, error) {
	contracts, err := s.contracts.List(ctx, page)
	if err != nil {
		return nil, services.WrapInternal("failed to list contracts", err)
	}
	return visibleTo(ctx, s.perm, user, contracts)
}

// Create stores a new contract for a signed client
func (s *ContractService) Create(ctx context.Context, actor *models.User, in ContractInput) (*models.Contract, error) {
	contract := models.NewContract(in.ClientID, in.Amount)
	in.apply(contract)
	contract.SalesContactID = defaultSalesContact(contract.SalesContactID, actor)

	if err := s.save(ctx, contract, true, s.contracts.Create); err != nil {
		return nil, err
	}

	s.logger.Info("contract created",
		zap.String("contract_id", contract.ID.String()),
		zap.String("client_id", contract.ClientID.String()),
		zap.String("actor_id", actor.ID.String()))
	s.recorder.record(models.AuditActionRecordCreated, actor, contract.ID, http.MethodPost, nil)
	return contract, nil
}

// Replace overwrites every writable field of contract
func (s *ContractService) Replace(ctx context.Context, actor *models.User, contract *models.Contract, in ContractInput) (*models.Contract, error) {
	moved := in.ClientID != contract.ClientID
	in.apply(contract)
	return s.update(ctx, actor, contract, moved, http.MethodPut)
}

// Patch applies a partial update to contract
func (s *ContractService) Patch(ctx context.Context, actor *models.User, contract *models.Contract, p ContractPatch) (*models.Contract, error) {
	moved := p.ClientID != nil && *p.ClientID != contract.ClientID
	p.apply(contract)
	return s.update(ctx, actor, contract, moved, http.MethodPatch)
}

// Delete removes contract together with its events
func (s *ContractService) Delete(ctx context.Context, actor *models.User, contract *models.Contract) error {
	if err := s.contracts.Delete(ctx, contract.ID); err != nil {
		return err
	}
	s.recorder.record(models.AuditActionRecordDeleted, actor, contract.ID, http.MethodDelete, nil)
	return nil
}

func (s *ContractService) update(ctx context.Context, actor *models.User, contract *models.Contract, moved bool, method string) (*models.Contract, error) {
	if err := s.save(ctx, contract, moved, s.contracts.Update); err != nil {
		return nil, err
	}
	s.recorder.record(models.AuditActionRecordUpdated, actor, contract.ID, method, nil)
	return contract, nil
}

// save validates references and writes contract in one transaction. The client is
// only checked when the contract is new or moves to another client.
func (s *ContractService) save(ctx context.Context, contract *models.Contract, checkClient bool, write func(context.Context, *models.Contract) error) error {
	return services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		if checkClient {
			if err := s.requireSignedClient(ctx, contract.ClientID); err != nil {
				return err
			}
		}
		if err := s.contacts.require(ctx, contract.SalesContactID, models.TeamSales, services.ErrSalesContactNotSales); err != nil {
			return err
		}
		return write(ctx, contract)
	})
}

func (s *ContractService) requireSignedClient(ctx context.Context, clientID uuid.UUID) error {
	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if services.IsNotFoundError(err) {
			return services.ErrUnknownReference.WithDetail("client_id", clientID.String())
		}
		return services.WrapInternal("failed to load client", err)
	}
	if !client.Status {
		return services.ErrClientNotSigned.WithDetail("client_id", clientID.String())
	}
	return nil
}

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

// ClientService manages clients
type ClientService struct {
	clients  repositories.ClientRepository
	contacts contacts
	txMgr    repositories.TransactionManager
	perm     policy.Permission[*models.Client]
	recorder recorder
	logger   *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(
	clients repositories.ClientRepository,
	users UserFinder,
	txMgr repositories.TransactionManager,
	perm policy.Permission[*models.Client],
	changes ChangeRecorder,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clients:  clients,
		contacts: contacts{users: users},
		txMgr:    txMgr,
		perm:     perm,
		recorder: recorder{changes: changes, resource: policy.ResourceClient, logger: logger},
		logger:   logger,
	}
}

// Get loads a client
func (s *ClientService) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	return s.clients.GetByID(ctx, id)
}

// List returns the page of clients user may read
func (s *ClientService) List(ctx context.Context, user *models.User, page repositories.Page) ([]*models.Client, error) {
	clients, err := s.clients.List(ctx, page)
	if err != nil {
		return nil, services.WrapInternal("failed to list clients", err)
	}
	return visibleTo(ctx, s.perm, user, clients)
}

// Create stores a new client. A SALES creator becomes the sales contact unless one is given.
func (s *ClientService) Create(ctx context.Context, actor *models.User, in ClientInput) (*models.Client, error) {
	client := models.NewClient(in.FirstName, in.LastName, in.Email, in.CompanyName)
	in.apply(client)
	client.SalesContactID = defaultSalesContact(client.SalesContactID, actor)

	if err := s.save(ctx, client, s.clients.Create); err != nil {
		return nil, err
	}

	s.logger.Info("client created",
		zap.String("client_id", client.ID.String()),
		zap.String("actor_id", actor.ID.String()))
	s.recorder.record(models.AuditActionRecordCreated, actor, client.ID, http.MethodPost, nil)
	return client, nil
}

// Replace overwrites every writable field of client
func (s *ClientService) Replace(ctx context.Context, actor *models.User, client *models.Client, in ClientInput) (*models.Client, error) {
	in.apply(client)
	return s.update(ctx, actor, client, http.MethodPut)
}

// Patch applies a partial update to client
func (s *ClientService) Patch(ctx context.Context, actor *models.User, client *models.Client, p ClientPatch) (*models.Client, error) {
	p.apply(client)
	return s.update(ctx, actor, client, http.MethodPatch)
}

// Delete removes client together with its contracts and events
func (s *ClientService) Delete(ctx context.Context, actor *models.User, client *models.Client) error {
	if err := s.clients.Delete(ctx, client.ID); err != nil {
		return err
	}
	s.recorder.record(models.AuditActionRecordDeleted, actor, client.ID, http.MethodDelete, nil)
	return nil
}

func (s *ClientService) update(ctx context.Context, actor *models.User, client *models.Client, method string) (*models.Client, error) {
	if err := s.save(ctx, client, s.clients.Update); err != nil {
		return nil, err
	}
	s.recorder.record(models.AuditActionRecordUpdated, actor, client.ID, method, nil)
	return client, nil
}

// save validates the sales contact and writes client in one transaction
func (s *ClientService) save(ctx context.Context, client *models.Client, write func(context.Context, *models.Client) error) error {
	return services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		if err := s.contacts.require(ctx, client.SalesContactID, models.TeamSales, services.ErrSalesContactNotSales); err != nil {
			return err
		}
		return write(ctx, client)
	})
}

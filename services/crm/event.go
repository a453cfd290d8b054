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

// ContractFinder loads the contract an event belongs to
type ContractFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
}

// EventService manages events
type EventService struct {
	events    repositories.EventRepository
	contracts ContractFinder
	contacts  contacts
	txMgr     repositories.TransactionManager
	perm      policy.Permission[*models.Event]
	recorder  recorder
	logger    *zap.Logger
}

// NewEventService creates a new EventService
func NewEventService(
	events repositories.EventRepository,
	contracts ContractFinder,
	users UserFinder,
	txMgr repositories.TransactionManager,
	perm policy.Permission[*models.Event],
	changes ChangeRecorder,
	logger *zap.Logger,
) *EventService {
	return &EventService{
		events:    events,
		contracts: contracts,
		contacts:  contacts{users: users},
		txMgr:     txMgr,
		perm:      perm,
		recorder:  recorder{changes: changes, resource: policy.ResourceEvent, logger: logger},
		logger:    logger,
	}
}

// Get loads an event with its contract
func (s *EventService) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.events.GetByID(ctx, id)
}

// List returns the page of events user may read
func (s *EventService) List(ctx context.Context, user *models.User, page repositories.Page) ([]*models.Event, error) {
	events, err := s.events.List(ctx, page)
	if err != nil {
		return nil, services.WrapInternal("failed to list events", err)
	}
	return visibleTo(ctx, s.perm, user, events)
}

// Create stores a new event for a signed contract
func (s *EventService) Create(ctx context.Context, actor *models.User, in EventInput) (*models.Event, error) {
	event := models.NewEvent(&models.Contract{ID: in.ContractID})
	in.apply(event)

	if err := s.save(ctx, event, true, s.events.Create); err != nil {
		return nil, err
	}

	s.logger.Info("event created",
		zap.String("event_id", event.ID.String()),
		zap.String("contract_id", event.ContractID.String()),
		zap.String("actor_id", actor.ID.String()))
	s.recorder.record(models.AuditActionRecordCreated, actor, event.ID, http.MethodPost, nil)
	return event, nil
}

// Replace overwrites every writable field of event
func (s *EventService) Replace(ctx context.Context, actor *models.User, event *models.Event, in EventInput) (*models.Event, error) {
	moved := in.ContractID != event.ContractID
	in.apply(event)
	return s.update(ctx, actor, event, moved, http.MethodPut)
}

// Patch applies a partial update to event
func (s *EventService) Patch(ctx context.Context, actor *models.User, event *models.Event, p EventPatch) (*models.Event, error) {
	moved := p.ContractID != nil && *p.ContractID != event.ContractID
	p.apply(event)
	return s.update(ctx, actor, event, moved, http.MethodPatch)
}

// Delete removes event
func (s *EventService) Delete(ctx context.Context, actor *models.User, event *models.Event) error {
	if err := s.events.Delete(ctx, event.ID); err != nil {
		return err
	}
	s.recorder.record(models.AuditActionRecordDeleted, actor, event.ID, http.MethodDelete, nil)
	return nil
}

func (s *EventService) update(ctx context.Context, actor *models.User, event *models.Event, moved bool, method string) (*models.Event, error) {
	if err := s.save(ctx, event, moved, s.events.Update); err != nil {
		return nil, err
	}
	s.recorder.record(models.AuditActionRecordUpdated, actor, event.ID, method, nil)
	return event, nil
}

// save validates references and writes event in one transaction. The contract is
// only checked, and reattached, when the event is new or moves to another contract.
func (s *EventService) save(ctx context.Context, event *models.Event, checkContract bool, write func(context.Context, *models.Event) error) error {
	return services.WithTransaction(ctx, s.txMgr, func(ctx context.Context, _ repositories.Transaction) error {
		if checkContract {
			contract, err := s.requireSignedContract(ctx, event.ContractID)
			if err != nil {
				return err
			}
			event.Contract = contract
		}
		if err := s.contacts.require(ctx, event.SupportContactID, models.TeamSupport, services.ErrSupportContactNotSupport); err != nil {
			return err
		}
		return write(ctx, event)
	})
}

func (s *EventService) requireSignedContract(ctx context.Context, contractID uuid.UUID) (*models.Contract, error) {
	contract, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		if services.IsNotFoundError(err) {
			return nil, services.ErrUnknownReference.WithDetail("contract_id", contractID.String())
		}
		return nil, services.WrapInternal("failed to load contract", err)
	}
	if !contract.IsSigned() {
		return nil, services.ErrContractNotSigned.WithDetail("contract_id", contractID.String())
	}
	return contract, nil
}

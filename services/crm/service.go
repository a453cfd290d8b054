// Package crm implements the business rules of the CRM records: contact team
// constraints, signed-parent requirements and permission-filtered listings.
package crm

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services"
	"github.com/upb/crm-control-plane/services/policy"
	"go.uber.org/zap"
)

// UserFinder resolves contact references
type UserFinder interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ChangeRecorder records successful writes to the audit trail
type ChangeRecorder interface {
	LogRecordChange(action models.AuditAction, user *models.User, resource string, resourceID uuid.UUID, method string, details interface{}) error
}

// contacts checks that user references point at members of the expected team
type contacts struct {
	users UserFinder
}

func (c contacts) require(ctx context.Context, id *uuid.UUID, team models.Team, wrongTeam *services.DomainError) error {
	if id == nil {
		return nil
	}

	user, err := c.users.GetByID(ctx, *id)
	if err != nil {
		if services.IsNotFoundError(err) {
			return services.ErrUnknownContact.WithDetail("id", id.String())
		}
		return services.WrapInternal("failed to load contact", err)
	}
	if !user.InTeam(team) {
		return wrongTeam.WithDetail("id", id.String())
	}
	return nil
}

// defaultSalesContact assigns actor as sales contact when none was given and actor is in SALES
func defaultSalesContact(id *uuid.UUID, actor *models.User) *uuid.UUID {
	if id != nil || !actor.InTeam(models.TeamSales) {
		return id
	}
	owner := actor.ID
	return &owner
}

// visibleTo keeps the records user may read
func visibleTo[T any](ctx context.Context, perm policy.Permission[T], user *models.User, records []T) ([]T, error) {
	req := policy.NewRequest(user, http.MethodGet)

	var firstErr error
	visible := lo.Filter(records, func(record T, _ int) bool {
		if firstErr != nil {
			return false
		}
		ok, err := perm.HasObjectPermission(ctx, req, record)
		if err != nil {
			firstErr = err
			return false
		}
		return ok
	})
	if firstErr != nil {
		return nil, services.WrapInternal("failed to filter records", firstErr)
	}
	return visible, nil
}

// recorder wraps ChangeRecorder so a full audit buffer never fails a write
type recorder struct {
	changes  ChangeRecorder
	resource policy.Resource
	logger   *zap.Logger
}

func (r recorder) record(action models.AuditAction, actor *models.User, id uuid.UUID, method string, details interface{}) {
	if r.changes == nil {
		return
	}
	if err := r.changes.LogRecordChange(action, actor, string(r.resource), id, method, details); err != nil {
		r.logger.Warn("failed to queue audit event",
			zap.String("resource", string(r.resource)),
			zap.String("id", id.String()),
			zap.Error(err))
	}
}

// Services groups the CRM services
type Services struct {
	Clients   *ClientService
	Contracts *ContractService
	Events    *EventService
}

// NewServices wires the CRM services against repos and the policy engine
func NewServices(repos *repositories.Repositories, txMgr repositories.TransactionManager, engine *policy.Engine, changes ChangeRecorder, logger *zap.Logger) *Services {
	return &Services{
		Clients:   NewClientService(repos.Clients, repos.Users, txMgr, engine.Clients, changes, logger),
		Contracts: NewContractService(repos.Contracts, repos.Clients, repos.Users, txMgr, engine.Contracts, changes, logger),
		Events:    NewEventService(repos.Events, repos.Contracts, repos.Users, txMgr, engine.Events, changes, logger),
	}
}

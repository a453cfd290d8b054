package crm

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services"
)

func signedContract(owner *models.User) *models.Contract {
	c := models.NewContract(uuid.New(), 1000)
	c.SalesContactID = idOf(owner)
	c.Status = true
	return c
}

func TestEventService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("attaches the signed contract", func(t *testing.T) {
		f := newFixture(t)
		contract := signedContract(f.sales)
		f.contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil)
		f.events.On("Create", mock.Anything, mock.AnythingOfType("*models.Event")).Return(nil)
		f.changes.On("LogRecordChange", models.AuditActionRecordCreated, f.sales, "event", mock.Anything, "POST", nil).Return(nil)

		event, err := f.services.Events.Create(ctx, f.sales, EventInput{
			ContractID:       contract.ID,
			SupportContactID: idOf(f.support),
			Attendees:        40,
		})

		require.NoError(t, err)
		assert.Same(t, contract, event.Contract)
		assert.Equal(t, f.sales.ID, *event.SalesContactID())
		assert.Equal(t, f.support.ID, *event.SupportContactID)
		assert.False(t, event.IsFinished())
	})

	t.Run("unsigned contract is rejected", func(t *testing.T) {
		f := newFixture(t)
		contract := models.NewContract(uuid.New(), 1)
		f.contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil)

		_, err := f.services.Events.Create(ctx, f.sales, EventInput{ContractID: contract.ID})

		assert.ErrorIs(t, err, services.ErrContractNotSigned)
		f.events.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("support contact outside SUPPORT is rejected", func(t *testing.T) {
		f := newFixture(t)
		contract := signedContract(f.sales)
		f.contracts.On("GetByID", mock.Anything, contract.ID).Return(contract, nil)

		_, err := f.services.Events.Create(ctx, f.sales, EventInput{ContractID: contract.ID, SupportContactID: idOf(f.sales2)})

		assert.ErrorIs(t, err, services.ErrSupportContactNotSupport)
	})

	t.Run("missing contract is a validation error", func(t *testing.T) {
		f := newFixture(t)
		id := uuid.New()
		f.contracts.On("GetByID", mock.Anything, id).Return(nil, services.ErrContractNotFound)

		_, err := f.services.Events.Create(ctx, f.sales, EventInput{ContractID: id})

		assert.ErrorIs(t, err, services.ErrUnknownReference)
	})
}

func TestEventService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("support finishes its event", func(t *testing.T) {
		f := newFixture(t)
		event := models.NewEvent(signedContract(f.sales))
		event.SupportContactID = idOf(f.support)
		f.events.On("Update", mock.Anything, event).Return(nil)
		f.changes.On("LogRecordChange", models.AuditActionRecordUpdated, f.support, "event", event.ID, "PUT", nil).Return(nil)

		updated, err := f.services.Events.Replace(ctx, f.support, event, EventInput{
			ContractID:       event.ContractID,
			SupportContactID: idOf(f.support),
			EventStatus:      true,
			Attendees:        12,
			Notes:            "done",
		})

		require.NoError(t, err)
		assert.True(t, updated.IsFinished())
		assert.Equal(t, "done", updated.Notes)
		f.contracts.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("moving to another contract reattaches it", func(t *testing.T) {
		f := newFixture(t)
		event := models.NewEvent(signedContract(f.sales))
		target := signedContract(f.sales2)
		f.contracts.On("GetByID", mock.Anything, target.ID).Return(target, nil)
		f.events.On("Update", mock.Anything, mock.MatchedBy(func(e *models.Event) bool {
			return e.ContractID == target.ID
		})).Return(nil)
		f.changes.On("LogRecordChange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		updated, err := f.services.Events.Patch(ctx, f.sales, event, EventPatch{ContractID: &target.ID})

		require.NoError(t, err)
		assert.Same(t, target, updated.Contract)
		assert.Equal(t, f.sales2.ID, *updated.SalesContactID())
		f.events.AssertExpectations(t)
	})
}

func TestEventService_List(t *testing.T) {
	f := newFixture(t)
	page := repositories.Page{Limit: 10}

	assigned := models.NewEvent(signedContract(f.sales))
	assigned.SupportContactID = idOf(f.support)
	other := models.NewEvent(signedContract(f.sales))

	f.events.On("List", mock.Anything, page).Return([]*models.Event{assigned, other}, nil)

	visible, err := f.services.Events.List(context.Background(), f.support, page)

	require.NoError(t, err)
	assert.Equal(t, []*models.Event{assigned}, visible)
}

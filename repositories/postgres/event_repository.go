package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/upb/crm-control-plane/models"
	"github.com/upb/crm-control-plane/repositories"
	"github.com/upb/crm-control-plane/services"
	"go.uber.org/zap"
)

// eventSelect loads an event joined with its parent contract so the transitive
// sales contact is always available
const eventSelect = `
	SELECT e.id, e.contract_id, e.support_contact_id, e.event_status, e.attendees,
	       e.event_date, e.notes, e.created_at, e.updated_at,
	       c.id, c.client_id, c.sales_contact_id, c.status, c.amount, c.payment_due,
	       c.created_at, c.updated_at
	FROM events e
	JOIN contracts c ON c.id = e.contract_id
`

// EventRepository implements repositories.EventRepository
type EventRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB, logger *zap.Logger) repositories.EventRepository {
	return &EventRepository{db: db, logger: logger}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (id, contract_id, support_contact_id, event_status, attendees,
		                    event_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		event.ID,
		event.ContractID,
		event.SupportContactID,
		event.EventStatus,
		event.Attendees,
		event.EventDate,
		event.Notes,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return translate(err, "create event", services.ErrEventNotFound)
	}

	r.logger.Debug("event created",
		zap.String("id", event.ID.String()),
		zap.String("contract_id", event.ContractID.String()))
	return nil
}

// GetByID retrieves an event and its contract
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	query := eventSelect + ` WHERE e.id = $1`

	event, err := scanEvent(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get event", services.ErrEventNotFound)
	}
	return event, nil
}

// List retrieves events with their contracts, soonest first
func (r *EventRepository) List(ctx context.Context, page repositories.Page) ([]*models.Event, error) {
	query := eventSelect + `
		ORDER BY e.event_date ASC NULLS LAST, e.created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}

	return events, nil
}

// Update updates an event. The parent contract is never changed.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET contract_id = $2,
		    support_contact_id = $3,
		    event_status = $4,
		    attendees = $5,
		    event_date = $6,
		    notes = $7,
		    updated_at = $8
		WHERE id = $1
	`

	event.UpdatedAt = time.Now()
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		event.ID,
		event.ContractID,
		event.SupportContactID,
		event.EventStatus,
		event.Attendees,
		event.EventDate,
		event.Notes,
		event.UpdatedAt,
	)
	if err != nil {
		return translate(err, "update event", services.ErrEventNotFound)
	}
	if err := checkAffected(result, services.ErrEventNotFound); err != nil {
		return err
	}

	r.logger.Debug("event updated", zap.String("id", event.ID.String()))
	return nil
}

// Delete deletes an event
func (r *EventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if err := checkAffected(result, services.ErrEventNotFound); err != nil {
		return err
	}

	r.logger.Debug("event deleted", zap.String("id", id.String()))
	return nil
}

func scanEvent(row rowScanner) (*models.Event, error) {
	event := &models.Event{Contract: &models.Contract{}}
	c := event.Contract
	err := row.Scan(
		&event.ID,
		&event.ContractID,
		&event.SupportContactID,
		&event.EventStatus,
		&event.Attendees,
		&event.EventDate,
		&event.Notes,
		&event.CreatedAt,
		&event.UpdatedAt,
		&c.ID,
		&c.ClientID,
		&c.SalesContactID,
		&c.Status,
		&c.Amount,
		&c.PaymentDue,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Event belongs to exactly one Contract. The contract's sales contact owns the event;
// SupportContactID is the support staff member assigned to run it.
type Event struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	ContractID       uuid.UUID  `json:"contract_id" db:"contract_id"`
	Contract         *Contract  `json:"-"`
	SupportContactID *uuid.UUID `json:"support_contact_id,omitempty" db:"support_contact_id"`
	EventStatus      bool       `json:"event_status" db:"event_status"`
	Attendees        int        `json:"attendees" db:"attendees"`
	EventDate        *time.Time `json:"event_date,omitempty" db:"event_date"`
	Notes            string     `json:"notes" db:"notes"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Event model
func (Event) TableName() string {
	return "events"
}

// NewEvent creates a new unfinished event attached to contract
func NewEvent(contract *Contract) *Event {
	now := time.Now()
	return &Event{
		ID:         uuid.New(),
		ContractID: contract.ID,
		Contract:   contract,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsFinished reports whether the event is over
func (e *Event) IsFinished() bool {
	return e.EventStatus
}

// SalesContactID returns the transitive owner through the parent contract
func (e *Event) SalesContactID() *uuid.UUID {
	if e.Contract == nil {
		return nil
	}
	return e.Contract.SalesContactID
}

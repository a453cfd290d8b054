package models

import (
	"time"

	"github.com/google/uuid"
)

// Contract belongs to exactly one Client. Status true means signed.
type Contract struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	ClientID       uuid.UUID  `json:"client_id" db:"client_id"`
	SalesContactID *uuid.UUID `json:"sales_contact_id,omitempty" db:"sales_contact_id"`
	Status         bool       `json:"status" db:"status"`
	Amount         float64    `json:"amount" db:"amount"`
	PaymentDue     *time.Time `json:"payment_due,omitempty" db:"payment_due"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Contract model
func (Contract) TableName() string {
	return "contracts"
}

// NewContract creates a new unsigned contract for a client
func NewContract(clientID uuid.UUID, amount float64) *Contract {
	now := time.Now()
	return &Contract{
		ID:        uuid.New(),
		ClientID:  clientID,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsSigned reports whether the contract has been signed
func (c *Contract) IsSigned() bool {
	return c.Status
}

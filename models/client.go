package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a prospect (Status false) or a signed customer (Status true)
type Client struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	Email          string     `json:"email" db:"email"`
	Phone          string     `json:"phone" db:"phone"`
	Mobile         string     `json:"mobile" db:"mobile"`
	CompanyName    string     `json:"company_name" db:"company_name"`
	Status         bool       `json:"status" db:"status"`
	SalesContactID *uuid.UUID `json:"sales_contact_id,omitempty" db:"sales_contact_id"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}

// NewClient creates a new prospect
func NewClient(firstName, lastName, email, companyName string) *Client {
	now := time.Now()
	return &Client{
		ID:          uuid.New(),
		FirstName:   firstName,
		LastName:    lastName,
		Email:       email,
		CompanyName: companyName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsProspect reports whether the client has not signed yet
func (c *Client) IsProspect() bool {
	return !c.Status
}

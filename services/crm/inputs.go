package crm

import (
	"time"

	"github.com/google/uuid"
	"github.com/upb/crm-control-plane/models"
)

// ClientInput is the full representation accepted on create and replace
type ClientInput struct {
	FirstName      string     `json:"first_name" validate:"required,max=25"`
	LastName       string     `json:"last_name" validate:"required,max=25"`
	Email          string     `json:"email" validate:"required,email,max=100"`
	Phone          string     `json:"phone" validate:"omitempty,max=20"`
	Mobile         string     `json:"mobile" validate:"omitempty,max=20"`
	CompanyName    string     `json:"company_name" validate:"required,max=250"`
	Status         bool       `json:"status"`
	SalesContactID *uuid.UUID `json:"sales_contact_id"`
}

// ClientPatch carries the fields of a partial update. Nil fields are left alone.
type ClientPatch struct {
	FirstName      *string    `json:"first_name" validate:"omitempty,min=1,max=25"`
	LastName       *string    `json:"last_name" validate:"omitempty,min=1,max=25"`
	Email          *string    `json:"email" validate:"omitempty,email,max=100"`
	Phone          *string    `json:"phone" validate:"omitempty,max=20"`
	Mobile         *string    `json:"mobile" validate:"omitempty,max=20"`
	CompanyName    *string    `json:"company_name" validate:"omitempty,min=1,max=250"`
	Status         *bool      `json:"status"`
	SalesContactID *uuid.UUID `json:"sales_contact_id"`
}

func (in ClientInput) apply(c *models.Client) {
	c.FirstName = in.FirstName
	c.LastName = in.LastName
	c.Email = in.Email
	c.Phone = in.Phone
	c.Mobile = in.Mobile
	c.CompanyName = in.CompanyName
	c.Status = in.Status
	c.SalesContactID = in.SalesContactID
}

func (p ClientPatch) apply(c *models.Client) {
	setIf(&c.FirstName, p.FirstName)
	setIf(&c.LastName, p.LastName)
	setIf(&c.Email, p.Email)
	setIf(&c.Phone, p.Phone)
	setIf(&c.Mobile, p.Mobile)
	setIf(&c.CompanyName, p.CompanyName)
	setIf(&c.Status, p.Status)
	if p.SalesContactID != nil {
		c.SalesContactID = p.SalesContactID
	}
}

// ContractInput is the full representation accepted on create and replace
type ContractInput struct {
	ClientID       uuid.UUID  `json:"client_id" validate:"required"`
	SalesContactID *uuid.UUID `json:"sales_contact_id"`
	Status         bool       `json:"status"`
	Amount         float64    `json:"amount" validate:"gte=0"`
	PaymentDue     *time.Time `json:"payment_due"`
}

// ContractPatch carries the fields of a partial update
type ContractPatch struct {
	ClientID       *uuid.UUID `json:"client_id"`
	SalesContactID *uuid.UUID `json:"sales_contact_id"`
	Status         *bool      `json:"status"`
	Amount         *float64   `json:"amount" validate:"omitempty,gte=0"`
	PaymentDue     *time.Time `json:"payment_due"`
}

func (in ContractInput) apply(c *models.Contract) {
	c.ClientID = in.ClientID
	c.SalesContactID = in.SalesContactID
	c.Status = in.Status
	c.Amount = in.Amount
	c.PaymentDue = in.PaymentDue
}

func (p ContractPatch) apply(c *models.Contract) {
	setIf(&c.ClientID, p.ClientID)
	setIf(&c.Status, p.Status)
	setIf(&c.Amount, p.Amount)
	if p.SalesContactID != nil {
		c.SalesContactID = p.SalesContactID
	}
	if p.PaymentDue != nil {
		c.PaymentDue = p.PaymentDue
	}
}

// EventInput is the full representation accepted on create and replace
type EventInput struct {
	ContractID       uuid.UUID  `json:"contract_id" validate:"required"`
	SupportContactID *uuid.UUID `json:"support_contact_id"`
	EventStatus      bool       `json:"event_status"`
	Attendees        int        `json:"attendees" validate:"gte=0"`
	EventDate        *time.Time `json:"event_date"`
	Notes            string     `json:"notes" validate:"max=2000"`
}

// EventPatch carries the fields of a partial update
type EventPatch struct {
	ContractID       *uuid.UUID `json:"contract_id"`
	SupportContactID *uuid.UUID `json:"support_contact_id"`
	EventStatus      *bool      `json:"event_status"`
	Attendees        *int       `json:"attendees" validate:"omitempty,gte=0"`
	EventDate        *time.Time `json:"event_date"`
	Notes            *string    `json:"notes" validate:"omitempty,max=2000"`
}

func (in EventInput) apply(e *models.Event) {
	e.ContractID = in.ContractID
	e.SupportContactID = in.SupportContactID
	e.EventStatus = in.EventStatus
	e.Attendees = in.Attendees
	e.EventDate = in.EventDate
	e.Notes = in.Notes
}

func (p EventPatch) apply(e *models.Event) {
	setIf(&e.ContractID, p.ContractID)
	setIf(&e.EventStatus, p.EventStatus)
	setIf(&e.Attendees, p.Attendees)
	setIf(&e.Notes, p.Notes)
	if p.SupportContactID != nil {
		e.SupportContactID = p.SupportContactID
	}
	if p.EventDate != nil {
		e.EventDate = p.EventDate
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

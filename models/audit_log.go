package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionPermissionDenied       AuditAction = "permission_denied"
	AuditActionObjectPermissionDenied AuditAction = "object_permission_denied"
	AuditActionForbiddenWithReason    AuditAction = "forbidden_with_reason"
	AuditActionRecordCreated          AuditAction = "record_created"
	AuditActionRecordUpdated          AuditAction = "record_updated"
	AuditActionRecordDeleted          AuditAction = "record_deleted"
)

// Valid reports whether a is a known action
func (a AuditAction) Valid() bool {
	switch a {
	case AuditActionPermissionDenied, AuditActionObjectPermissionDenied, AuditActionForbiddenWithReason,
		AuditActionRecordCreated, AuditActionRecordUpdated, AuditActionRecordDeleted:
		return true
	}
	return false
}

// AuditLog represents an audit trail entry
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	UserID       *uuid.UUID      `json:"user_id,omitempty" db:"user_id"`
	Team         string          `json:"team" db:"team"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // client, contract, event
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Method       string          `json:"method" db:"method"`
	Rule         string          `json:"rule,omitempty" db:"rule"`
	Reason       string          `json:"reason,omitempty" db:"reason"`
	Details      json.RawMessage `json:"details,omitempty" db:"details"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	UserAgent    string          `json:"user_agent" db:"user_agent"`
	RequestID    string          `json:"request_id" db:"request_id"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(action AuditAction, resourceType, method string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		Action:       action,
		ResourceType: resourceType,
		Method:       method,
		Timestamp:    time.Now(),
	}
}

// WithUser sets the acting user
func (a *AuditLog) WithUser(user *User) *AuditLog {
	if user == nil {
		return a
	}
	id := user.ID
	a.UserID = &id
	a.Team = user.Team.String()
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDecision records which rule decided and why
func (a *AuditLog) WithDecision(rule, reason string) *AuditLog {
	a.Rule = rule
	a.Reason = reason
	return a
}

// WithDetails sets the details
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress, userAgent string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	a.UserAgent = userAgent
	return a
}

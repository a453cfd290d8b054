package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/upb/crm-control-plane/models"
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction
	// Automatically commits if function succeeds, rolls back on error
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Context returns the transaction context
	Context() context.Context
}

// Page bounds a list query
type Page struct {
	Limit  int
	Offset int
}

// UserRepository handles user data operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// ClientRepository handles client data operations
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error)
	List(ctx context.Context, page Page) ([]*models.Client, error)
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id uuid.UUID) error

	// IsClientSupportedBy reports whether userID is the support contact of an
	// event on one of the client's contracts
	IsClientSupportedBy(ctx context.Context, clientID, userID uuid.UUID) (bool, error)
}

// ContractRepository handles contract data operations
type ContractRepository interface {
	Create(ctx context.Context, contract *models.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error)
	List(ctx context.Context, page Page) ([]*models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	Delete(ctx context.Context, id uuid.UUID) error

	// IsContractSupportedBy reports whether userID is the support contact of
	// one of the contract's events
	IsContractSupportedBy(ctx context.Context, contractID, userID uuid.UUID) (bool, error)
}

// EventRepository handles event data operations. Loaded events always carry their contract.
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context, page Page) ([]*models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditRepository handles audit log data operations
type AuditRepository interface {
	// Insert inserts a new audit log entry
	Insert(ctx context.Context, log *models.AuditLog) error

	// List retrieves audit logs, newest first
	List(ctx context.Context, filter AuditFilter, page Page) ([]*models.AuditLog, error)
}

// AuditFilter narrows an audit log listing. Zero fields match everything.
type AuditFilter struct {
	UserID       *uuid.UUID
	Action       models.AuditAction
	ResourceType string
}

// Repositories aggregates all repository interfaces
type Repositories struct {
	Users     UserRepository
	Clients   ClientRepository
	Contracts ContractRepository
	Events    EventRepository
	AuditLogs AuditRepository
}

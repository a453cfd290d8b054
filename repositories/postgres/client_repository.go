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

const clientColumns = `id, first_name, last_name, email, phone, mobile, company_name,
	status, sales_contact_id, created_at, updated_at`

// ClientRepository implements repositories.ClientRepository
type ClientRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *DB, logger *zap.Logger) repositories.ClientRepository {
	return &ClientRepository{db: db, logger: logger}
}

// Create creates a new client
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		client.ID,
		client.FirstName,
		client.LastName,
		client.Email,
		client.Phone,
		client.Mobile,
		client.CompanyName,
		client.Status,
		client.SalesContactID,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		return translate(err, "create client", services.ErrClientNotFound)
	}

	r.logger.Debug("client created", zap.String("id", client.ID.String()))
	return nil
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`

	client, err := scanClient(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get client", services.ErrClientNotFound)
	}
	return client, nil
}

// List retrieves clients, newest first
func (r *ClientRepository) List(ctx context.Context, page repositories.Page) ([]*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating client rows: %w", err)
	}

	return clients, nil
}

// Update updates a client
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients
		SET first_name = $2,
		    last_name = $3,
		    email = $4,
		    phone = $5,
		    mobile = $6,
		    company_name = $7,
		    status = $8,
		    sales_contact_id = $9,
		    updated_at = $10
		WHERE id = $1
	`

	client.UpdatedAt = time.Now()
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		client.ID,
		client.FirstName,
		client.LastName,
		client.Email,
		client.Phone,
		client.Mobile,
		client.CompanyName,
		client.Status,
		client.SalesContactID,
		client.UpdatedAt,
	)
	if err != nil {
		return translate(err, "update client", services.ErrClientNotFound)
	}
	if err := checkAffected(result, services.ErrClientNotFound); err != nil {
		return err
	}

	r.logger.Debug("client updated", zap.String("id", client.ID.String()))
	return nil
}

// Delete deletes a client together with its contracts and events
func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if err := checkAffected(result, services.ErrClientNotFound); err != nil {
		return err
	}

	r.logger.Debug("client deleted", zap.String("id", id.String()))
	return nil
}

// IsClientSupportedBy walks client -> contract -> event in a single query
func (r *ClientRepository) IsClientSupportedBy(ctx context.Context, clientID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM contracts c
			JOIN events e ON e.contract_id = c.id
			WHERE c.client_id = $1 AND e.support_contact_id = $2
		)
	`

	var supported bool
	if err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, clientID, userID).Scan(&supported); err != nil {
		return false, fmt.Errorf("failed to check client support: %w", err)
	}
	return supported, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	client := &models.Client{}
	err := row.Scan(
		&client.ID,
		&client.FirstName,
		&client.LastName,
		&client.Email,
		&client.Phone,
		&client.Mobile,
		&client.CompanyName,
		&client.Status,
		&client.SalesContactID,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

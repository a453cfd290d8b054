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

const contractColumns = `id, client_id, sales_contact_id, status, amount, payment_due, created_at, updated_at`

// ContractRepository implements repositories.ContractRepository
type ContractRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *DB, logger *zap.Logger) repositories.ContractRepository {
	return &ContractRepository{db: db, logger: logger}
}

// Create creates a new contract
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contracts (` + contractColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		contract.ID,
		contract.ClientID,
		contract.SalesContactID,
		contract.Status,
		contract.Amount,
		contract.PaymentDue,
		contract.CreatedAt,
		contract.UpdatedAt,
	)
	if err != nil {
		return translate(err, "create contract", services.ErrContractNotFound)
	}

	r.logger.Debug("contract created",
		zap.String("id", contract.ID.String()),
		zap.String("client_id", contract.ClientID.String()))
	return nil
}

// GetByID retrieves a contract by ID
func (r *ContractRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Contract, error) {
	query := `SELECT ` + contractColumns + ` FROM contracts WHERE id = $1`

	contract, err := scanContract(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate(err, "get contract", services.ErrContractNotFound)
	}
	return contract, nil
}

// List retrieves contracts, newest first
func (r *ContractRepository) List(ctx context.Context, page repositories.Page) ([]*models.Contract, error) {
	query := `
		SELECT ` + contractColumns + `
		FROM contracts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []*models.Contract
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract: %w", err)
		}
		contracts = append(contracts, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract rows: %w", err)
	}

	return contracts, nil
}

// Update updates a contract
func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	query := `
		UPDATE contracts
		SET client_id = $2,
		    sales_contact_id = $3,
		    status = $4,
		    amount = $5,
		    payment_due = $6,
		    updated_at = $7
		WHERE id = $1
	`

	contract.UpdatedAt = time.Now()
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		contract.ID,
		contract.ClientID,
		contract.SalesContactID,
		contract.Status,
		contract.Amount,
		contract.PaymentDue,
		contract.UpdatedAt,
	)
	if err != nil {
		return translate(err, "update contract", services.ErrContractNotFound)
	}
	if err := checkAffected(result, services.ErrContractNotFound); err != nil {
		return err
	}

	r.logger.Debug("contract updated", zap.String("id", contract.ID.String()))
	return nil
}

// Delete deletes a contract together with its events
func (r *ContractRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := GetExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM contracts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	if err := checkAffected(result, services.ErrContractNotFound); err != nil {
		return err
	}

	r.logger.Debug("contract deleted", zap.String("id", id.String()))
	return nil
}

// IsContractSupportedBy reports whether one of the contract's events is run by userID
func (r *ContractRepository) IsContractSupportedBy(ctx context.Context, contractID, userID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM events
			WHERE contract_id = $1 AND support_contact_id = $2
		)
	`

	var supported bool
	if err := GetExecutor(ctx, r.db).QueryRowContext(ctx, query, contractID, userID).Scan(&supported); err != nil {
		return false, fmt.Errorf("failed to check contract support: %w", err)
	}
	return supported, nil
}

func scanContract(row rowScanner) (*models.Contract, error) {
	contract := &models.Contract{}
	err := row.Scan(
		&contract.ID,
		&contract.ClientID,
		&contract.SalesContactID,
		&contract.Status,
		&contract.Amount,
		&contract.PaymentDue,
		&contract.CreatedAt,
		&contract.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return contract, nil
}

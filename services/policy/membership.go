package policy

import (
	"context"

	"github.com/google/uuid"
)

// ClientSupportChecker answers whether a client is reachable
// Client -> Contract -> Event with the event supported by userID
type ClientSupportChecker interface {
	IsClientSupportedBy(ctx context.Context, clientID, userID uuid.UUID) (bool, error)
}

// ContractSupportChecker answers whether one of the contract's events is supported by userID
type ContractSupportChecker interface {
	IsContractSupportedBy(ctx context.Context, contractID, userID uuid.UUID) (bool, error)
}

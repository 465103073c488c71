package domain

import (
	"context"

	"github.com/draftea/nft-marketplace/shared/models"
)

// Account is the marketplace profile behind a wallet
type Account struct {
	ID         models.ID         `json:"id" bson:"_id"`
	Wallet     string            `json:"wallet" bson:"wallet"`
	Timestamps models.Timestamps `json:"timestamps" bson:"timestamps"`
}

// NewAccount creates an account for wallet
func NewAccount(wallet string) *Account {
	return &Account{
		ID:         models.GenerateUUID(),
		Wallet:     wallet,
		Timestamps: models.NewTimestamps(),
	}
}

// AccountRepository stores accounts. FindByWallet returns nil, nil when absent.
type AccountRepository interface {
	FindByWallet(ctx context.Context, wallet string) (*Account, error)
	Create(ctx context.Context, account *Account) error
	DeleteByID(ctx context.Context, id models.ID) error
}

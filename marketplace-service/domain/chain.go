package domain

import (
	"context"
)

// ChainAsset is the on-chain account backing a mint
type ChainAsset struct {
	Mint       string `json:"mint"`
	Exists     bool   `json:"exists"`
	Owner      string `json:"owner,omitempty"`
	Lamports   uint64 `json:"lamports"`
	Executable bool   `json:"executable"`
	RentEpoch  uint64 `json:"rent_epoch"`
	Space      uint64 `json:"space"`
	Slot       uint64 `json:"slot"`
}

// ChainClient reads chain state
type ChainClient interface {
	GetAsset(ctx context.Context, mint string) (*ChainAsset, error)
}

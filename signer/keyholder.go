package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// KeyHolder is the external capability that owns the private key, such as a
// wallet. The signer only calls out to it; it never sees key material.
type KeyHolder interface {
	// Accounts requests access to the holder's accounts. The first one signs.
	Accounts(ctx context.Context) ([]common.Address, error)
	// SignTypedData signs the EIP-712 payload as account and returns r ‖ s ‖ v.
	// It may block until a user approves, and should honour ctx.
	SignTypedData(ctx context.Context, account common.Address, data apitypes.TypedData) ([]byte, error)
}

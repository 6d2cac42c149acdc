package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
)

// LocalKeyHolder signs with an in-process private key.
//
// Intended for development networks and tests. Production deployments should
// use a wallet (RPCKeyHolder) or a remote signing service (RemoteKeyHolder).
type LocalKeyHolder struct {
	priv *ecdsa.PrivateKey
}

// NewLocalKeyHolder creates a key holder from a hex private key, with or without 0x.
func NewLocalKeyHolder(privHex string) (*LocalKeyHolder, error) {
	key := strings.TrimPrefix(strings.TrimSpace(privHex), "0x")
	if len(key) == 0 || len(key)%2 != 0 {
		return nil, fmt.Errorf("invalid private key: empty or odd length")
	}
	priv, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return &LocalKeyHolder{priv: priv}, nil
}

// Address returns the address of the key.
func (k *LocalKeyHolder) Address() common.Address {
	return crypto.PubkeyToAddress(k.priv.PublicKey)
}

// Accounts returns the single local account.
func (k *LocalKeyHolder) Accounts(_ context.Context) ([]common.Address, error) {
	return []common.Address{k.Address()}, nil
}

// SignTypedData hashes the payload and signs the digest. The recovery id is
// returned raw (0 or 1), as crypto.Sign produces it.
func (k *LocalKeyHolder) SignTypedData(ctx context.Context, account common.Address, data apitypes.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if account != k.Address() {
		return nil, fmt.Errorf("%w: unknown account %s", ErrNoKeyHolder, account.Hex())
	}

	hashes, err := typeddata.HashTypedData(data)
	if err != nil {
		return nil, err
	}

	signature, err := crypto.Sign(hashes.Digest.Bytes(), k.priv)
	if err != nil {
		return nil, fmt.Errorf("failed to sign payload: %w", err)
	}
	return signature, nil
}

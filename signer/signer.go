// Package signer obtains EIP-712 signatures over attestation claims and
// decomposes them into the r, s, v components a verifying contract expects.
//
// The private key never lives in the Signer. It calls out to a KeyHolder:
//   - RPCKeyHolder for JSON-RPC wallets (eth_signTypedData_v4)
//   - RemoteKeyHolder for an HTTP signing service
//   - LocalKeyHolder for development keys and tests
//
// Signing is all-or-nothing: Sign returns a complete Attestation or a
// *SigningError, never partial hashes or signature components.
package signer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/healthcare-ms/go-attest-sdk/claim"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
)

// Attestation is a signed claim ready for on-chain submission.
type Attestation struct {
	Schema  string         `json:"schema"`
	ChainID int64          `json:"chainId"`
	Claim   *claim.Claim   `json:"claim"`
	Signer  common.Address `json:"signer"`
	typeddata.Hashes
	Signature    Signature     `json:"signature"`
	RawSignature hexutil.Bytes `json:"rawSignature"`
}

// Signer signs claims under one domain and schema registry.
type Signer struct {
	domain   typeddata.Domain
	registry *typeddata.Registry
	holder   KeyHolder
	logger   *slog.Logger
}

// Option configures a Signer.
type Option func(*Signer)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Signer) { s.logger = l }
}

// New creates a Signer. holder may be nil, in which case every Sign call
// fails with KindNoKeyHolder. A nil registry selects the default one.
func New(domain typeddata.Domain, registry *typeddata.Registry, holder KeyHolder, opts ...Option) *Signer {
	if registry == nil {
		registry = typeddata.DefaultRegistry()
	}
	s := &Signer{
		domain:   domain,
		registry: registry,
		holder:   holder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Domain returns the signing domain.
func (s *Signer) Domain() typeddata.Domain { return s.domain }

// Hash computes the EIP-712 hashes of c without contacting the key holder.
func (s *Signer) Hash(c *claim.Claim) (typeddata.Hashes, error) {
	return s.registry.Hash(s.domain, c.Schema(), c.Message())
}

// Sign hashes the claim, asks the key holder for a signature over it and
// splits the result. The signature must recover to the signing account.
func (s *Signer) Sign(ctx context.Context, c *claim.Claim) (*Attestation, error) {
	if c == nil {
		return nil, errors.New("claim is required")
	}

	td, err := s.registry.TypedData(s.domain, c.Schema(), c.Message())
	if err != nil {
		return nil, fmt.Errorf("failed to build typed data: %w", err)
	}
	hashes, err := typeddata.HashTypedData(td)
	if err != nil {
		return nil, fmt.Errorf("failed to hash claim: %w", err)
	}

	if s.holder == nil {
		return nil, &SigningError{Kind: KindNoKeyHolder, Err: ErrNoKeyHolder}
	}

	accounts, err := s.holder.Accounts(ctx)
	if err != nil {
		return nil, classify(err)
	}
	if len(accounts) == 0 {
		return nil, &SigningError{Kind: KindNoKeyHolder, Err: fmt.Errorf("%w: key holder exposed no accounts", ErrNoKeyHolder)}
	}
	account := accounts[0]

	raw, err := s.holder.SignTypedData(ctx, account, td)
	if err != nil {
		s.logger.WarnContext(ctx, "key holder did not sign", "schema", c.Schema(), "account", account.Hex(), "error", err)
		return nil, classify(err)
	}

	sig, err := SplitSignature(raw)
	if err != nil {
		return nil, classify(err)
	}
	if err := sig.Validate(); err != nil {
		return nil, classify(err)
	}
	recovered, err := sig.Recover(hashes.Digest)
	if err != nil {
		return nil, classify(err)
	}
	if recovered != account {
		return nil, &SigningError{
			Kind: KindMalformedSignature,
			Err:  fmt.Errorf("%w: recovered %s, expected %s", ErrMalformedSignature, recovered.Hex(), account.Hex()),
		}
	}

	s.logger.InfoContext(ctx, "typed data signed",
		"schema", c.Schema(),
		"signer", account.Hex(),
		"structHash", hashes.StructHash.Hex(),
		"digest", hashes.Digest.Hex(),
		"r", hexutil.Encode(sig.R[:]),
		"s", hexutil.Encode(sig.S[:]),
		"v", sig.V,
	)

	return &Attestation{
		Schema:       c.Schema(),
		ChainID:      s.domain.ChainID,
		Claim:        c,
		Signer:       account,
		Hashes:       hashes,
		Signature:    sig,
		RawSignature: sig.Bytes(),
	}, nil
}

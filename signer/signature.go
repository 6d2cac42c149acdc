package signer

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is the size of an r ‖ s ‖ v signature.
const SignatureLength = 65

// Signature is a secp256k1 signature split into its components.
// V is always canonical (27 or 28).
type Signature struct {
	R [32]byte
	S [32]byte
	V uint8
}

// SplitSignature parses r ‖ s ‖ v. A recovery id of 0 or 1 is normalized to
// 27 or 28 because crypto.Sign and some wallets return the raw id.
func SplitSignature(sig []byte) (Signature, error) {
	if len(sig) != SignatureLength {
		return Signature{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedSignature, SignatureLength, len(sig))
	}

	v := sig[64]
	switch v {
	case 0, 1:
		v += 27
	case 27, 28:
	default:
		return Signature{}, fmt.Errorf("%w: invalid recovery id %d", ErrMalformedSignature, sig[64])
	}

	var out Signature
	copy(out.R[:], sig[:32])
	copy(out.S[:], sig[32:64])
	out.V = v
	return out, nil
}

// Bytes joins the components back with the canonical 27/28 recovery id.
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, SignatureLength)
	out = append(out, s.R[:]...)
	out = append(out, s.S[:]...)
	return append(out, s.V)
}

// RecoveryBytes joins the components with the raw 0/1 recovery id expected by
// crypto.Ecrecover and crypto.SigToPub.
func (s Signature) RecoveryBytes() []byte {
	out := s.Bytes()
	out[64] -= 27
	return out
}

// Validate rejects out-of-range and high-s signature values.
func (s Signature) Validate() error {
	r := new(big.Int).SetBytes(s.R[:])
	sv := new(big.Int).SetBytes(s.S[:])
	if !crypto.ValidateSignatureValues(s.V-27, r, sv, true) {
		return fmt.Errorf("%w: r/s out of range", ErrMalformedSignature)
	}
	return nil
}

// Recover returns the address that produced the signature over digest.
func (s Signature) Recover(digest common.Hash) (common.Address, error) {
	pub, err := crypto.SigToPub(digest.Bytes(), s.RecoveryBytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// MarshalJSON encodes r and s as 0x-hex and v as a number.
func (s Signature) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		R string `json:"r"`
		S string `json:"s"`
		V uint8  `json:"v"`
	}{
		R: hexutil.Encode(s.R[:]),
		S: hexutil.Encode(s.S[:]),
		V: s.V,
	})
}

package typeddata

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ErrUnknownSchema is returned when a schema name is not in the registry.
var ErrUnknownSchema = errors.New("unknown schema")

// digestPrefix is the EIP-191 version byte pair for structured data.
var digestPrefix = []byte{0x19, 0x01}

// Hashes holds the intermediate and final EIP-712 hashes of one message.
type Hashes struct {
	// DomainSeparator is hashStruct(EIP712Domain).
	DomainSeparator common.Hash `json:"domainSeparator"`
	// StructHash is hashStruct(message) under its schema.
	StructHash common.Hash `json:"structHash"`
	// Digest is keccak256(0x1901 ‖ DomainSeparator ‖ StructHash), the value actually signed.
	Digest common.Hash `json:"digest"`
}

// TypedData assembles the EIP-712 payload for a message of the named schema.
//
// Only the primary schema and the domain type are included in the type set,
// which is what wallets expect for eth_signTypedData_v4.
func (r *Registry) TypedData(domain Domain, schemaName string, message map[string]any) (apitypes.TypedData, error) {
	schema, ok := r.Lookup(schemaName)
	if !ok {
		return apitypes.TypedData{}, fmt.Errorf("%w: %s", ErrUnknownSchema, schemaName)
	}

	msg := make(apitypes.TypedDataMessage, len(message))
	for k, v := range message {
		msg[k] = v
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			DomainType: Schema{Name: DomainType, Fields: domainFields}.apiTypes(),
			schemaName: schema.apiTypes(),
		},
		PrimaryType: schemaName,
		Domain:      domain.TypedDataDomain(),
		Message:     msg,
	}, nil
}

// Hash computes the EIP-712 hashes of a message of the named schema.
func (r *Registry) Hash(domain Domain, schemaName string, message map[string]any) (Hashes, error) {
	td, err := r.TypedData(domain, schemaName, message)
	if err != nil {
		return Hashes{}, err
	}
	return HashTypedData(td)
}

// HashTypedData computes the domain separator, struct hash and signing digest.
func HashTypedData(td apitypes.TypedData) (Hashes, error) {
	domainSeparator, err := td.HashStruct(DomainType, td.Domain.Map())
	if err != nil {
		return Hashes{}, fmt.Errorf("failed to hash domain: %w", err)
	}

	structHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return Hashes{}, fmt.Errorf("failed to hash %s: %w", td.PrimaryType, err)
	}

	return Hashes{
		DomainSeparator: common.BytesToHash(domainSeparator),
		StructHash:      common.BytesToHash(structHash),
		Digest:          crypto.Keccak256Hash(digestPrefix, domainSeparator, structHash),
	}, nil
}

// EncodeType returns the canonical EIP-712 type string of a schema,
// e.g. "PatientDataUpdate(address patient,bytes32 metadataHash)".
func (r *Registry) EncodeType(schemaName string) (string, error) {
	schema, ok := r.Lookup(schemaName)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSchema, schemaName)
	}

	td := apitypes.TypedData{Types: apitypes.Types{schemaName: schema.apiTypes()}}
	return string(td.EncodeType(schemaName)), nil
}

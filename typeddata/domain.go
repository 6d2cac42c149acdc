// Package typeddata computes EIP-712 structured-data hashes for the attestation
// claims signed off-chain and verified by the healthcare management contract.
//
// The package holds the two pieces of process-wide configuration the signing
// workflow depends on:
//   - Domain: the EIP-712 domain descriptor (name, version, chain ID, verifying contract)
//   - Registry: the fixed set of claim schemas and their ordered fields
//
// Both are immutable once built and safe to share between goroutines.
package typeddata

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Default domain values. They must match the verifying contract exactly,
// otherwise signatures are valid but meaningless on-chain.
const (
	DefaultDomainName        = "HealthcareManagementSystem"
	DefaultDomainVersion     = "1"
	DefaultChainID           = int64(31337)
	DefaultVerifyingContract = "0x5f5f4A35A3d1aefA3E0f9d5F703496f51686C297"
)

// DomainType is the EIP-712 type name of the domain descriptor.
const DomainType = "EIP712Domain"

var domainFields = []Field{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// Domain is the EIP-712 domain descriptor.
type Domain struct {
	Name              string
	Version           string
	ChainID           int64
	VerifyingContract common.Address
}

// DefaultDomain returns the local development domain.
func DefaultDomain() Domain {
	return Domain{
		Name:              DefaultDomainName,
		Version:           DefaultDomainVersion,
		ChainID:           DefaultChainID,
		VerifyingContract: common.HexToAddress(DefaultVerifyingContract),
	}
}

// NewDomain validates the inputs and builds a Domain.
func NewDomain(name, version string, chainID int64, verifyingContract string) (Domain, error) {
	if strings.TrimSpace(name) == "" {
		return Domain{}, fmt.Errorf("domain name is required")
	}
	if strings.TrimSpace(version) == "" {
		return Domain{}, fmt.Errorf("domain version is required")
	}
	if chainID <= 0 {
		return Domain{}, fmt.Errorf("invalid chain id: %d", chainID)
	}
	if !common.IsHexAddress(verifyingContract) {
		return Domain{}, fmt.Errorf("invalid verifying contract address: %s", verifyingContract)
	}

	return Domain{
		Name:              name,
		Version:           version,
		ChainID:           chainID,
		VerifyingContract: common.HexToAddress(verifyingContract),
	}, nil
}

// WithChainID returns a copy of the domain bound to another chain.
func (d Domain) WithChainID(chainID int64) Domain {
	d.ChainID = chainID
	return d
}

// TypedDataDomain converts the domain to go-ethereum's representation.
func (d Domain) TypedDataDomain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(big.NewInt(d.ChainID)),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

func (d Domain) String() string {
	return fmt.Sprintf("%s v%s (chain %d, contract %s)", d.Name, d.Version, d.ChainID, d.VerifyingContract.Hex())
}

// Package claim builds the typed claim records that get signed off-chain.
//
// A claim binds a patient (and, for feedback, a hospital) to content that was
// previously published to IPFS. PatientDataUpdate commits to the keccak256 hash
// of the content identifier, FeedbackSubmission embeds the identifier string
// itself; the two schemas differ on purpose and the builder keeps them apart.
package claim

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
)

// Input keys understood by the builder.
const (
	InputPatient   = "patient"
	InputHospital  = "hospital"
	InputContentID = "contentId"
)

// Inputs are the raw, textual values a claim is derived from.
type Inputs map[string]string

// Claim is an immutable record conforming to exactly one schema.
type Claim struct {
	schema    typeddata.Schema
	values    map[string]any
	contentID string
}

// Schema returns the name of the schema the claim conforms to.
func (c *Claim) Schema() string { return c.schema.Name }

// ContentID returns the content identifier the claim was derived from.
func (c *Claim) ContentID() string { return c.contentID }

// Value returns one field value.
func (c *Claim) Value(name string) (any, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Message returns a copy of the field values, keyed by field name.
func (c *Claim) Message() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the claim with its schema name.
func (c *Claim) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Schema    string         `json:"schema"`
		ContentID string         `json:"contentId,omitempty"`
		Values    map[string]any `json:"values"`
	}{
		Schema:    c.schema.Name,
		ContentID: c.contentID,
		Values:    c.values,
	})
}

type deriveFunc func(in Inputs) map[string]any

// derivations maps each supported schema to the rule turning inputs into field values.
var derivations = map[string]deriveFunc{
	typeddata.PatientDataUpdate: func(in Inputs) map[string]any {
		return map[string]any{
			"patient":      checksum(in[InputPatient]),
			"metadataHash": MetadataHash(in[InputContentID]).Hex(),
		}
	},
	typeddata.FeedbackSubmission: func(in Inputs) map[string]any {
		return map[string]any{
			"hospital": checksum(in[InputHospital]),
			"patient":  checksum(in[InputPatient]),
			"feedback": in[InputContentID],
		}
	},
}

// MetadataHash is keccak256 over the UTF-8 bytes of a content identifier.
func MetadataHash(contentID string) common.Hash {
	return crypto.Keccak256Hash([]byte(contentID))
}

func checksum(addr string) string {
	return common.HexToAddress(addr).Hex()
}

// Builder constructs claims against a fixed schema registry.
type Builder struct {
	registry *typeddata.Registry
}

// NewBuilder creates a Builder. A nil registry selects the default one.
func NewBuilder(registry *typeddata.Registry) *Builder {
	if registry == nil {
		registry = typeddata.DefaultRegistry()
	}
	return &Builder{registry: registry}
}

// Registry returns the registry the builder validates against.
func (b *Builder) Registry() *typeddata.Registry { return b.registry }

// Build validates inputs and derives a claim for the named schema.
//
// Errors are always *ValidationError.
func (b *Builder) Build(schemaName string, inputs Inputs) (*Claim, error) {
	schema, ok := b.registry.Lookup(schemaName)
	if !ok {
		return nil, unknownSchema(schemaName)
	}
	derive, ok := derivations[schemaName]
	if !ok {
		return nil, unknownSchema(schemaName)
	}

	if err := validateInputs(schemaName, inputs); err != nil {
		return nil, err
	}

	values := derive(inputs)
	if len(values) != len(schema.Fields) {
		return nil, typeMismatch(schemaName, "", fmt.Errorf("derived %d values for %d fields", len(values), len(schema.Fields)))
	}
	for _, field := range schema.Fields {
		v, ok := values[field.Name]
		if !ok {
			return nil, missingField(schemaName, field.Name)
		}
		if err := checkValue(field, v); err != nil {
			return nil, typeMismatch(schemaName, field.Name, err)
		}
	}

	return &Claim{
		schema:    schema,
		values:    values,
		contentID: inputs[InputContentID],
	}, nil
}

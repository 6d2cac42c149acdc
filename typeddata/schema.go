package typeddata

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Schema names of the claims accepted by the verifying contract.
const (
	PatientDataUpdate  = "PatientDataUpdate"
	FeedbackSubmission = "FeedbackSubmission"
)

// Primitive field types supported in claim schemas.
const (
	TypeAddress = "address"
	TypeBytes32 = "bytes32"
	TypeString  = "string"
	TypeBytes   = "bytes"
	TypeBool    = "bool"
	TypeUint256 = "uint256"
)

var supportedTypes = map[string]bool{
	TypeAddress: true,
	TypeBytes32: true,
	TypeString:  true,
	TypeBytes:   true,
	TypeBool:    true,
	TypeUint256: true,
}

// Field is a single named, typed member of a schema.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Schema is an ordered list of fields under a type name.
//
// Field order is part of the type hash; reordering fields produces a
// different schema as far as any verifier is concerned.
type Schema struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Field returns the declared field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s Schema) validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema name is required")
	}
	if s.Name == DomainType {
		return fmt.Errorf("schema name %s is reserved", DomainType)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s has no fields", s.Name)
	}

	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema %s: field name is required", s.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("schema %s: duplicate field %s", s.Name, f.Name)
		}
		if !supportedTypes[f.Type] {
			return fmt.Errorf("schema %s: field %s has unsupported type %q", s.Name, f.Name, f.Type)
		}
		seen[f.Name] = true
	}
	return nil
}

func (s Schema) clone() Schema {
	fields := make([]Field, len(s.Fields))
	copy(fields, s.Fields)
	return Schema{Name: s.Name, Fields: fields}
}

func (s Schema) apiTypes() []apitypes.Type {
	out := make([]apitypes.Type, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = apitypes.Type{Name: f.Name, Type: f.Type}
	}
	return out
}

// Registry is an immutable set of schemas keyed by name.
type Registry struct {
	schemas map[string]Schema
}

// NewRegistry validates the schemas and builds a registry from them.
func NewRegistry(schemas ...Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]Schema, len(schemas))}
	for _, s := range schemas {
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, exists := r.schemas[s.Name]; exists {
			return nil, fmt.Errorf("duplicate schema %s", s.Name)
		}
		r.schemas[s.Name] = s.clone()
	}
	return r, nil
}

// DefaultRegistry returns the two claim schemas understood by the contract.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Schema{
			Name: PatientDataUpdate,
			Fields: []Field{
				{Name: "patient", Type: TypeAddress},
				{Name: "metadataHash", Type: TypeBytes32},
			},
		},
		Schema{
			Name: FeedbackSubmission,
			Fields: []Field{
				{Name: "hospital", Type: TypeAddress},
				{Name: "patient", Type: TypeAddress},
				{Name: "feedback", Type: TypeString},
			},
		},
	)
	if err != nil {
		panic(fmt.Sprintf("typeddata: invalid default registry: %v", err))
	}
	return r
}

// Lookup returns a copy of the named schema.
func (r *Registry) Lookup(name string) (Schema, bool) {
	s, ok := r.schemas[name]
	if !ok {
		return Schema{}, false
	}
	return s.clone(), true
}

// Names returns the registered schema names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

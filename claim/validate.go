package claim

import (
	"embed"
	"fmt"
	"sort"
	"sync"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/healthcare-ms/go-attest-sdk/typeddata"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var inputSchemaFS embed.FS

var (
	inputSchemas    map[string]*gojsonschema.Schema
	loadSchemasOnce sync.Once
	errLoadSchemas  error
)

// loadInputSchemas compiles the embedded input schemas exactly once.
func loadInputSchemas() (map[string]*gojsonschema.Schema, error) {
	loadSchemasOnce.Do(func() {
		entries, err := inputSchemaFS.ReadDir("schemas")
		if err != nil {
			errLoadSchemas = fmt.Errorf("failed to read input schemas: %w", err)
			return
		}

		compiled := make(map[string]*gojsonschema.Schema, len(entries))
		for _, entry := range entries {
			raw, err := inputSchemaFS.ReadFile("schemas/" + entry.Name())
			if err != nil {
				errLoadSchemas = fmt.Errorf("failed to read %s: %w", entry.Name(), err)
				return
			}
			schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
			if err != nil {
				errLoadSchemas = fmt.Errorf("failed to compile %s: %w", entry.Name(), err)
				return
			}
			name := entry.Name()[:len(entry.Name())-len(".json")]
			compiled[name] = schema
		}
		inputSchemas = compiled
	})
	return inputSchemas, errLoadSchemas
}

// validateInputs checks the raw form inputs against the embedded JSON Schema
// of the claim kind and turns the first violation into a ValidationError.
// Absence wins over shape so an empty field is reported as missing.
func validateInputs(schemaName string, inputs Inputs) error {
	schemas, err := loadInputSchemas()
	if err != nil {
		return err
	}
	schema, ok := schemas[schemaName]
	if !ok {
		return unknownSchema(schemaName)
	}

	doc := make(map[string]interface{}, len(inputs))
	for k, v := range inputs {
		doc[k] = v
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("failed to validate %s inputs: %w", schemaName, err)
	}
	if result.Valid() {
		return nil
	}

	var missing, mismatched []string
	reasons := make(map[string]string)
	for _, re := range result.Errors() {
		field := resultField(re)
		switch re.Type() {
		case "required", "string_gte":
			missing = append(missing, field)
		default:
			mismatched = append(mismatched, field)
			if _, seen := reasons[field]; !seen {
				reasons[field] = re.Description()
			}
		}
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return missingField(schemaName, missing[0])
	}
	sort.Strings(mismatched)
	return typeMismatch(schemaName, mismatched[0], fmt.Errorf("%s", reasons[mismatched[0]]))
}

func resultField(re gojsonschema.ResultError) string {
	if prop, ok := re.Details()["property"].(string); ok && prop != "" {
		return prop
	}
	return re.Field()
}

// checkValue verifies a derived claim value against its declared primitive type.
func checkValue(field typeddata.Field, value any) error {
	switch field.Type {
	case typeddata.TypeAddress:
		s, ok := value.(string)
		if !ok || !common.IsHexAddress(s) {
			return fmt.Errorf("expected 20-byte hex address, got %v", value)
		}
	case typeddata.TypeBytes32:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected 0x-prefixed 32-byte hex, got %T", value)
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return fmt.Errorf("invalid bytes32: %w", err)
		}
		if len(b) != 32 {
			return fmt.Errorf("bytes32 must be 32 bytes, got %d", len(b))
		}
	case typeddata.TypeString:
		s, ok := value.(string)
		if !ok || !utf8.ValidString(s) {
			return fmt.Errorf("expected UTF-8 string, got %v", value)
		}
	default:
		return fmt.Errorf("unsupported field type %s", field.Type)
	}
	return nil
}

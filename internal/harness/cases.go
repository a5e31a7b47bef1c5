// internal/harness/cases.go
package harness

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/OmarKhaled0K/PaLM-Tasks/internal/evaluator"
)

//go:embed schema.json
var caseSchema []byte

// LoadCases reads a JSON (or .yaml/.yml) array of test cases, validates it
// against the embedded schema and decodes it.
func LoadCases(path string) ([]evaluator.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test cases %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parse test cases %s: %w", path, err)
		}
	}

	return ParseCases(data)
}

// ParseCases validates and decodes a JSON array of test cases.
func ParseCases(data []byte) ([]evaluator.TestCase, error) {
	if err := ValidateCases(data); err != nil {
		return nil, err
	}
	var cases []evaluator.TestCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("decode test cases: %w", err)
	}
	return cases, nil
}

// ValidateCases checks data against the test case schema and reports every
// violation at once.
func ValidateCases(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(caseSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("validate test cases: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var merr *multierror.Error
	for _, desc := range result.Errors() {
		merr = multierror.Append(merr, fmt.Errorf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("invalid test cases: %w", merr.ErrorOrNil())
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = []any{}
	}
	return json.Marshal(doc)
}

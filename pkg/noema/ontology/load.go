package ontology

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadOntology reads an ontology document from a JSON or YAML file, chosen
// by extension (.json vs .yaml/.yml).
func LoadOntology(path string) (*Ontology, error) {
	var ont Ontology
	if err := loadDocument(path, &ont); err != nil {
		return nil, fmt.Errorf("load ontology: %w", err)
	}
	if err := ont.Validate(); err != nil {
		return nil, err
	}
	return &ont, nil
}

// LoadConstraints reads a constraint document from a JSON or YAML file.
func LoadConstraints(path string) (*Constraints, error) {
	var cons Constraints
	if err := loadDocument(path, &cons); err != nil {
		return nil, fmt.Errorf("load constraints: %w", err)
	}
	if err := cons.Validate(); err != nil {
		return nil, err
	}
	return &cons, nil
}

func loadDocument(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, out)
	default:
		return json.Unmarshal(data, out)
	}
}

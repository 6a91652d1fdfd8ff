// Package ontology defines the input records the reasoning and validation
// pipeline consumes. Documents arrive already parsed (the OWL XML parser is
// an upstream collaborator); this package only decodes the JSON/YAML shape
// and checks its top-level structure.
package ontology

import (
	"fmt"

	"github.com/cognicore/noema/pkg/noema/internalerr"
)

// EightfoldMapping tags an ontology element with the reasoning stage it
// belongs to.
type EightfoldMapping struct {
	Stage string `json:"stage" yaml:"stage"`
}

// Class is a class declaration, optionally carrying instance data under
// Values for validation.
type Class struct {
	URI           string            `json:"uri" yaml:"uri"`
	Label         string            `json:"label" yaml:"label"`
	Properties    []string          `json:"properties" yaml:"properties"`
	ParentClasses []string          `json:"parent_classes" yaml:"parent_classes"`
	Eightfold     *EightfoldMapping `json:"eightfold_mapping,omitempty" yaml:"eightfold_mapping,omitempty"`
	Values        map[string]any    `json:"values,omitempty" yaml:"values,omitempty"`
}

// Property is a property declaration.
type Property struct {
	URI             string   `json:"uri" yaml:"uri"`
	Label           string   `json:"label" yaml:"label"`
	Type            string   `json:"type" yaml:"type"`
	Domain          string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Range           string   `json:"range,omitempty" yaml:"range,omitempty"`
	Characteristics []string `json:"characteristics,omitempty" yaml:"characteristics,omitempty"`
}

// Rule is a declarative inference rule shipped with the ontology.
type Rule struct {
	ID             string   `json:"id" yaml:"id"`
	Type           string   `json:"type" yaml:"type"`
	Antecedent     []string `json:"antecedent" yaml:"antecedent"`
	Consequent     string   `json:"consequent" yaml:"consequent"`
	Confidence     *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	EightfoldStage string   `json:"eightfold_stage,omitempty" yaml:"eightfold_stage,omitempty"`
}

// Ontology is the parsed ontology document.
type Ontology struct {
	Classes    []Class    `json:"classes" yaml:"classes"`
	Properties []Property `json:"properties" yaml:"properties"`
	Rules      []Rule     `json:"rules" yaml:"rules"`
}

// PropertyConstraint holds the per-path constraint keys of a shape.
// Pointer fields distinguish "absent" from zero.
type PropertyConstraint struct {
	Path         string   `json:"path" yaml:"path"`
	MinCount     *int     `json:"minCount,omitempty" yaml:"minCount,omitempty"`
	MaxCount     *int     `json:"maxCount,omitempty" yaml:"maxCount,omitempty"`
	Datatype     string   `json:"datatype,omitempty" yaml:"datatype,omitempty"`
	Pattern      string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Flags        string   `json:"flags,omitempty" yaml:"flags,omitempty"`
	MinInclusive *float64 `json:"minInclusive,omitempty" yaml:"minInclusive,omitempty"`
	MaxInclusive *float64 `json:"maxInclusive,omitempty" yaml:"maxInclusive,omitempty"`
	MinExclusive *float64 `json:"minExclusive,omitempty" yaml:"minExclusive,omitempty"`
	MaxExclusive *float64 `json:"maxExclusive,omitempty" yaml:"maxExclusive,omitempty"`
	NodeKind     string   `json:"nodeKind,omitempty" yaml:"nodeKind,omitempty"`
}

// NodeConstraint holds the shape-level constraint keys.
type NodeConstraint struct {
	Closed            *bool    `json:"closed,omitempty" yaml:"closed,omitempty"`
	IgnoredProperties []string `json:"ignoredProperties,omitempty" yaml:"ignoredProperties,omitempty"`
	NodeKind          string   `json:"nodeKind,omitempty" yaml:"nodeKind,omitempty"`
}

// ShapeBody groups a shape's property and node constraints.
type ShapeBody struct {
	Properties []PropertyConstraint `json:"properties" yaml:"properties"`
	Node       *NodeConstraint      `json:"node,omitempty" yaml:"node,omitempty"`
}

// Shape is one SHACL-derived shape targeting a class.
type Shape struct {
	Target      string    `json:"target" yaml:"target"`
	Constraints ShapeBody `json:"constraints" yaml:"constraints"`
}

// ConstraintRule is a standalone property/domain/range rule.
type ConstraintRule struct {
	Property string `json:"property" yaml:"property"`
	Domain   string `json:"domain" yaml:"domain"`
	Range    string `json:"range,omitempty" yaml:"range,omitempty"`
}

// Constraints is the parsed constraint document.
type Constraints struct {
	Shapes []Shape          `json:"shapes" yaml:"shapes"`
	Rules  []ConstraintRule `json:"rules" yaml:"rules"`
}

// Validate checks the structural invariants an ontology document must hold
// before reasoning can start.
func (o *Ontology) Validate() error {
	if o == nil {
		return fmt.Errorf("%w: ontology document is nil", internalerr.ErrConfiguration)
	}
	if o.Classes == nil && o.Properties == nil && o.Rules == nil {
		return fmt.Errorf("%w: ontology document has none of classes/properties/rules", internalerr.ErrConfiguration)
	}
	for i, c := range o.Classes {
		if c.URI == "" {
			return fmt.Errorf("%w: class %d has no uri", internalerr.ErrConfiguration, i)
		}
	}
	for i, p := range o.Properties {
		if p.URI == "" {
			return fmt.Errorf("%w: property %d has no uri", internalerr.ErrConfiguration, i)
		}
	}
	for i, r := range o.Rules {
		if r.Consequent == "" {
			return fmt.Errorf("%w: rule %d (%s) has no consequent", internalerr.ErrConfiguration, i, r.ID)
		}
		if r.Confidence != nil && (*r.Confidence < 0 || *r.Confidence > 1) {
			return fmt.Errorf("%w: rule %d (%s) confidence outside [0,1]", internalerr.ErrConfiguration, i, r.ID)
		}
	}
	return nil
}

// Validate checks the structural invariants a constraint document must hold.
func (c *Constraints) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: constraint document is nil", internalerr.ErrConfiguration)
	}
	for i, s := range c.Shapes {
		if s.Target == "" {
			return fmt.Errorf("%w: shape %d has no target", internalerr.ErrConfiguration, i)
		}
		for j, p := range s.Constraints.Properties {
			if p.Path == "" {
				return fmt.Errorf("%w: shape %d property constraint %d has no path", internalerr.ErrConfiguration, i, j)
			}
		}
	}
	for i, r := range c.Rules {
		if r.Property == "" || r.Domain == "" {
			return fmt.Errorf("%w: constraint rule %d needs property and domain", internalerr.ErrConfiguration, i)
		}
	}
	return nil
}

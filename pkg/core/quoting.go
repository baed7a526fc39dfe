package core

// Relation component names used as quoting policy keys.
const (
	ComponentDatabase   = "database"
	ComponentSchema     = "schema"
	ComponentIdentifier = "identifier"
)

// ComponentNames lists the relation components in rendering order.
var ComponentNames = []string{ComponentDatabase, ComponentSchema, ComponentIdentifier}

// QuotePolicy is a fully-resolved quoting policy: one boolean per
// relation component. Adapters supply their default policy; projects
// override it component-by-component.
type QuotePolicy struct {
	Database   bool `json:"database" koanf:"database"`
	Schema     bool `json:"schema" koanf:"schema"`
	Identifier bool `json:"identifier" koanf:"identifier"`
}

// ReplaceDict returns a copy of the policy with the boolean overrides
// applied. Keys other than the component names are ignored.
func (q QuotePolicy) ReplaceDict(overrides map[string]bool) QuotePolicy {
	out := q
	if v, ok := overrides[ComponentDatabase]; ok {
		out.Database = v
	}
	if v, ok := overrides[ComponentSchema]; ok {
		out.Schema = v
	}
	if v, ok := overrides[ComponentIdentifier]; ok {
		out.Identifier = v
	}
	return out
}

// ToMap serializes the policy into the canonical quoting dict shape.
func (q QuotePolicy) ToMap() map[string]bool {
	return map[string]bool{
		ComponentDatabase:   q.Database,
		ComponentSchema:     q.Schema,
		ComponentIdentifier: q.Identifier,
	}
}

// Quoting is the partially-specified policy attached to sources and
// source tables: nil means "inherit".
type Quoting struct {
	Database   *bool `json:"database,omitempty" yaml:"database,omitempty"`
	Schema     *bool `json:"schema,omitempty" yaml:"schema,omitempty"`
	Identifier *bool `json:"identifier,omitempty" yaml:"identifier,omitempty"`
	Column     *bool `json:"column,omitempty" yaml:"column,omitempty"`
}

// Equal compares two partial quoting specs field by field.
func (q Quoting) Equal(other Quoting) bool {
	return eqBoolPtr(q.Database, other.Database) &&
		eqBoolPtr(q.Schema, other.Schema) &&
		eqBoolPtr(q.Identifier, other.Identifier) &&
		eqBoolPtr(q.Column, other.Column)
}

func eqBoolPtr(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

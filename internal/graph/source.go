package graph

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// FreshnessTime is a count of periods used in freshness thresholds.
type FreshnessTime struct {
	Count  int    `json:"count"`
	Period string `json:"period"`
}

// FreshnessThreshold declares when a source's data is considered
// stale.
type FreshnessThreshold struct {
	WarnAfter  *FreshnessTime `json:"warn_after,omitempty" yaml:"warn_after"`
	ErrorAfter *FreshnessTime `json:"error_after,omitempty" yaml:"error_after"`
	Filter     *string        `json:"filter,omitempty" yaml:"filter"`
}

// ExternalTable describes a source backed by external files rather
// than a warehouse-native table.
type ExternalTable struct {
	Location      *string        `json:"location,omitempty" yaml:"location"`
	FileFormat    *string        `json:"file_format,omitempty" yaml:"file_format"`
	RowFormat     *string        `json:"row_format,omitempty" yaml:"row_format"`
	TblProperties *string        `json:"tbl_properties,omitempty" yaml:"tbl_properties"`
	Partitions    []string       `json:"partitions,omitempty" yaml:"partitions"`
	Extra         map[string]any `json:"-" yaml:",inline"`
}

// SourceDefinition represents an external table that already exists in
// the warehouse: config, quoting, freshness and external metadata, but
// no executable body.
type SourceDefinition struct {
	NodeIdentity
	RelationMeta
	FQN               []string              `json:"fqn"`
	SourceName        string                `json:"source_name"`
	SourceDescription string                `json:"source_description"`
	Loader            string                `json:"loader"`
	Identifier        string                `json:"identifier"`
	Quoting           core.Quoting          `json:"quoting"`
	LoadedAtField     *string               `json:"loaded_at_field,omitempty"`
	Freshness         *FreshnessThreshold   `json:"freshness,omitempty"`
	External          *ExternalTable        `json:"external,omitempty"`
	Description       string                `json:"description,omitempty"`
	Columns           map[string]ColumnInfo `json:"columns,omitempty"`
	Meta              map[string]any        `json:"meta,omitempty"`
	SourceMeta        map[string]any        `json:"source_meta,omitempty"`
	Tags              []string              `json:"tags,omitempty"`
	Config            SourceConfig          `json:"config"`
	PatchPath         *string               `json:"patch_path,omitempty"`
	UnrenderedConfig  map[string]any        `json:"unrendered_config,omitempty"`
	RelationName      *string               `json:"relation_name,omitempty"`
	CreatedAt         time.Time             `json:"created_at"`
}

// SearchName is how selectors address a source table.
func (s *SourceDefinition) SearchName() string {
	return fmt.Sprintf("%s.%s", s.SourceName, s.Name)
}

// FullSourceName flattens the source/table pair into one identifier.
func (s *SourceDefinition) FullSourceName() string {
	return fmt.Sprintf("%s_%s", s.SourceName, s.Name)
}

// HasFreshness reports whether freshness checking applies.
func (s *SourceDefinition) HasFreshness() bool {
	return s.Freshness != nil && s.LoadedAtField != nil
}

// DependsOnNodes is empty: sources are external, nothing upstream.
func (s *SourceDefinition) DependsOnNodes() []string { return nil }

func (s *SourceDefinition) SameDatabaseRepresentation(old *SourceDefinition) bool {
	return s.Database == old.Database &&
		s.Schema == old.Schema &&
		s.Identifier == old.Identifier
}

func (s *SourceDefinition) SameQuoting(old *SourceDefinition) bool {
	return s.Quoting.Equal(old.Quoting)
}

func (s *SourceDefinition) SameFreshness(old *SourceDefinition) bool {
	return deepEqualAny(s.Freshness, old.Freshness) &&
		eqStrPtr(s.LoadedAtField, old.LoadedAtField)
}

func (s *SourceDefinition) SameExternal(old *SourceDefinition) bool {
	return deepEqualAny(s.External, old.External)
}

func (s *SourceDefinition) SameConfig(old *SourceDefinition) bool {
	return SameConfigContents(s.UnrenderedConfig, old.UnrenderedConfig)
}

// SameContents reports whether nothing downstream needs to know the
// source changed. A newly-appearing source (old == nil) is not a
// change event. Tag and meta edits are not changes either; relation
// naming, fqn, config, quoting, freshness and external metadata are.
func (s *SourceDefinition) SameContents(old *SourceDefinition) bool {
	if old == nil {
		return true
	}
	return s.SameDatabaseRepresentation(old) &&
		SameFQN(s.FQN, old.FQN) &&
		s.SameConfig(old) &&
		s.SameQuoting(old) &&
		s.SameFreshness(old) &&
		s.SameExternal(old)
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

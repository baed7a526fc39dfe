package graph

import "reflect"

// Hook is a SQL statement run before or after materializing a
// resource.
type Hook struct {
	SQL         string `json:"sql" mapstructure:"sql"`
	Transaction bool   `json:"transaction" mapstructure:"transaction"`
	Index       *int   `json:"index,omitempty" mapstructure:"index"`
}

// NodeConfig is the resolved configuration of an executable node,
// merged from project-level config trees and resource-level
// overrides. The unrendered counterpart lives on the node as a plain
// map; change detection compares that, not this.
type NodeConfig struct {
	Enabled      bool              `json:"enabled" mapstructure:"enabled"`
	Alias        *string           `json:"alias,omitempty" mapstructure:"alias"`
	Schema       *string           `json:"schema,omitempty" mapstructure:"schema"`
	Database     *string           `json:"database,omitempty" mapstructure:"database"`
	Tags         []string          `json:"tags,omitempty" mapstructure:"tags"`
	Meta         map[string]any    `json:"meta,omitempty" mapstructure:"meta"`
	Materialized string            `json:"materialized" mapstructure:"materialized"`
	PersistDocs  map[string]bool   `json:"persist_docs,omitempty" mapstructure:"persist_docs"`
	PreHook      []Hook            `json:"pre-hook,omitempty" mapstructure:"pre_hook"`
	PostHook     []Hook            `json:"post-hook,omitempty" mapstructure:"post_hook"`
	ColumnTypes  map[string]string `json:"column_types,omitempty" mapstructure:"column_types"`
	FullRefresh  *bool             `json:"full_refresh,omitempty" mapstructure:"full_refresh"`
	Grants       map[string]any    `json:"grants,omitempty" mapstructure:"grants"`
}

// DefaultNodeConfig returns the configuration applied to a node with
// no explicit settings.
func DefaultNodeConfig() NodeConfig {
	return NodeConfig{Enabled: true, Materialized: "view"}
}

// PersistRelationDocs reports whether relation descriptions are
// written to the warehouse, which makes them part of change detection.
func (c NodeConfig) PersistRelationDocs() bool { return c.PersistDocs["relation"] }

// PersistColumnDocs reports whether column descriptions are persisted.
func (c NodeConfig) PersistColumnDocs() bool { return c.PersistDocs["columns"] }

// SeedConfig extends NodeConfig with seed-specific settings.
type SeedConfig struct {
	NodeConfig   `mapstructure:",squash"`
	QuoteColumns *bool  `json:"quote_columns,omitempty" mapstructure:"quote_columns"`
	Delimiter    string `json:"delimiter,omitempty" mapstructure:"delimiter"`
}

// DefaultSeedConfig returns the default seed configuration.
func DefaultSeedConfig() SeedConfig {
	return SeedConfig{NodeConfig: NodeConfig{Enabled: true, Materialized: "seed"}}
}

// TestConfig is the configuration of singular and generic tests.
type TestConfig struct {
	Enabled       bool           `json:"enabled" mapstructure:"enabled"`
	Alias         *string        `json:"alias,omitempty" mapstructure:"alias"`
	Schema        *string        `json:"schema,omitempty" mapstructure:"schema"`
	Database      *string        `json:"database,omitempty" mapstructure:"database"`
	Tags          []string       `json:"tags,omitempty" mapstructure:"tags"`
	Meta          map[string]any `json:"meta,omitempty" mapstructure:"meta"`
	Materialized  string         `json:"materialized" mapstructure:"materialized"`
	Severity      string         `json:"severity" mapstructure:"severity"`
	StoreFailures *bool          `json:"store_failures,omitempty" mapstructure:"store_failures"`
	Where         *string        `json:"where,omitempty" mapstructure:"where"`
	Limit         *int           `json:"limit,omitempty" mapstructure:"limit"`
	FailCalc      string         `json:"fail_calc" mapstructure:"fail_calc"`
	WarnIf        string         `json:"warn_if" mapstructure:"warn_if"`
	ErrorIf       string         `json:"error_if" mapstructure:"error_if"`
}

// DefaultTestConfig returns the default test configuration.
func DefaultTestConfig() TestConfig {
	return TestConfig{
		Enabled:      true,
		Materialized: "test",
		Severity:     "ERROR",
		FailCalc:     "count(*)",
		WarnIf:       "!= 0",
		ErrorIf:      "!= 0",
	}
}

// SnapshotConfig extends NodeConfig with snapshot strategy settings.
type SnapshotConfig struct {
	NodeConfig     `mapstructure:",squash"`
	Strategy       *string  `json:"strategy,omitempty" mapstructure:"strategy"`
	UniqueKey      *string  `json:"unique_key,omitempty" mapstructure:"unique_key"`
	TargetSchema   *string  `json:"target_schema,omitempty" mapstructure:"target_schema"`
	TargetDatabase *string  `json:"target_database,omitempty" mapstructure:"target_database"`
	UpdatedAt      *string  `json:"updated_at,omitempty" mapstructure:"updated_at"`
	CheckCols      []string `json:"check_cols,omitempty" mapstructure:"check_cols"`
}

// SourceConfig, ExposureConfig and MetricConfig carry only the enabled
// switch today; they stay distinct types so enabling more settings is
// not a wire-format change.
type SourceConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

type ExposureConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

type MetricConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// SameConfigContents compares the configuration *as the user wrote
// it*: two unrendered config maps are equal iff every key present in
// either carries a deeply-equal value. Comparing unrendered values
// means variable-driven settings that happen to render identically do
// not falsely report "changed", and target-driven renders alone do
// not report "unchanged config" as changed.
func SameConfigContents(unrendered, oldUnrendered map[string]any) bool {
	for key, value := range unrendered {
		if !reflect.DeepEqual(value, oldUnrendered[key]) {
			return false
		}
	}
	for key, value := range oldUnrendered {
		if _, ok := unrendered[key]; !ok && value != nil {
			return false
		}
	}
	return true
}

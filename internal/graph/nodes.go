package graph

import (
	"reflect"
	"time"

	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// ParsedNodeCommon holds everything a parsed node carries besides its
// typed config: identity, relation naming, content checksum,
// documentation, and the unrendered configuration used for change
// detection. Embedded by value in every parsed node kind.
type ParsedNodeCommon struct {
	NodeIdentity
	RelationMeta
	FQN              []string              `json:"fqn"`
	Alias            string                `json:"alias"`
	Checksum         core.FileHash         `json:"checksum"`
	Tags             []string              `json:"tags,omitempty"`
	Description      string                `json:"description,omitempty"`
	Columns          map[string]ColumnInfo `json:"columns,omitempty"`
	Meta             map[string]any        `json:"meta,omitempty"`
	Docs             Docs                  `json:"docs"`
	PatchPath        *string               `json:"patch_path,omitempty"`
	BuildPath        *string               `json:"build_path,omitempty"`
	Deferred         bool                  `json:"deferred"`
	UnrenderedConfig map[string]any        `json:"unrendered_config,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	RelationName     *string               `json:"relation_name,omitempty"`
	RawCode          string                `json:"raw_code"`
}

// Identifier is the name the node's relation is created with.
func (p *ParsedNodeCommon) Identifier() string { return p.Alias }

// SameFQN reports whether both versions sit at the same place in the
// package hierarchy.
func (p *ParsedNodeCommon) SameFQN(old *ParsedNodeCommon) bool {
	return SameFQN(p.FQN, old.FQN)
}

// SameBody reports raw source-text equality.
func (p *ParsedNodeCommon) SameBody(old *ParsedNodeCommon) bool {
	return p.RawCode == old.RawCode
}

// SameConfig compares the configuration as written, via the
// unrendered config maps.
func (p *ParsedNodeCommon) SameConfig(old *ParsedNodeCommon) bool {
	return SameConfigContents(p.UnrenderedConfig, old.UnrenderedConfig)
}

// SameDatabaseRepresentation compares the configured (unrendered)
// database/schema/alias, so a target switch alone does not read as a
// content change.
func (p *ParsedNodeCommon) SameDatabaseRepresentation(old *ParsedNodeCommon) bool {
	for _, key := range []string{"database", "schema", "alias"} {
		if !deepEqualAny(p.UnrenderedConfig[key], old.UnrenderedConfig[key]) {
			return false
		}
	}
	return true
}

// SamePersistedDescription compares descriptions only where the
// persist-docs settings make them part of the warehouse state. The
// config comparison covers differing persist settings, so only the
// matching-settings case matters here.
func (p *ParsedNodeCommon) SamePersistedDescription(old *ParsedNodeCommon, persistRelation, persistColumns bool) bool {
	if persistRelation && p.Description != old.Description {
		return false
	}
	if persistColumns {
		if len(p.Columns) != len(old.Columns) {
			return false
		}
		for name, col := range p.Columns {
			if oldCol, ok := old.Columns[name]; !ok || col.Description != oldCol.Description {
				return false
			}
		}
	}
	return true
}

// NodePatch is the slice of a schema file that applies to one node.
type NodePatch struct {
	Name        string
	Description string
	Columns     map[string]ColumnInfo
	FileID      string
}

// Patch applies a schema-file patch. Only description, columns and
// patch path are replaced; CreatedAt is bumped so documentation
// processing reruns downstream even when the body is unchanged.
func (p *ParsedNodeCommon) Patch(patch NodePatch) {
	p.PatchPath = &patch.FileID
	p.CreatedAt = nowTimestamp()
	p.Description = patch.Description
	p.Columns = patch.Columns
}

// sameExecutableContents is the shared comparator for executable
// nodes: body, config, persisted docs, fqn and database
// representation must all match. It never mutates either side.
func sameExecutableContents(p, old *ParsedNodeCommon, persistRelation, persistColumns bool) bool {
	if old == nil {
		return false
	}
	return p.SameBody(old) &&
		p.SameConfig(old) &&
		p.SamePersistedDescription(old, persistRelation, persistColumns) &&
		p.SameFQN(old) &&
		p.SameDatabaseRepresentation(old)
}

// InjectedCTE is a common-table-expression injected into a dependent
// node's compiled SQL to inline an ephemeral model.
type InjectedCTE struct {
	ID  string `json:"id"`
	SQL string `json:"sql"`
}

// CompiledCommon holds the compilation products of SQL-bearing nodes:
// captured dependency calls, resolved edges, and compiled code.
type CompiledCommon struct {
	Language          string        `json:"language"`
	Refs              [][]string    `json:"refs"`
	Sources           [][]string    `json:"sources"`
	Metrics           [][]string    `json:"metrics"`
	DependsOn         DependsOn     `json:"depends_on"`
	CompiledPath      *string       `json:"compiled_path,omitempty"`
	Compiled          bool          `json:"compiled"`
	CompiledCode      *string       `json:"compiled_code,omitempty"`
	ExtraCTEsInjected bool          `json:"extra_ctes_injected"`
	ExtraCTEs         []InjectedCTE `json:"extra_ctes"`
}

// SetCTE records an injected CTE, replacing in place when the id is
// already present so repeated compilation stays idempotent.
func (c *CompiledCommon) SetCTE(cteID, sql string) {
	for i := range c.ExtraCTEs {
		if c.ExtraCTEs[i].ID == cteID {
			c.ExtraCTEs[i].SQL = sql
			return
		}
	}
	c.ExtraCTEs = append(c.ExtraCTEs, InjectedCTE{ID: cteID, SQL: sql})
}

// DependsOnNodes returns the resolved node edges.
func (c *CompiledCommon) DependsOnNodes() []string { return c.DependsOn.Nodes }

// DependsOnMacros returns the resolved macro edges.
func (c *CompiledCommon) DependsOnMacros() []string { return c.DependsOn.Macros }

// ModelNode is a SQL (or Python) transformation unit.
type ModelNode struct {
	ParsedNodeCommon
	CompiledCommon
	Config NodeConfig `json:"config"`
}

// Empty reports whether the node has no meaningful body.
func (n *ModelNode) Empty() bool { return isBlank(n.RawCode) }

// IsEphemeral reports whether the model is inlined via CTE injection
// instead of materialized.
func (n *ModelNode) IsEphemeral() bool { return n.Config.Materialized == "ephemeral" }

// SameContents reports whether old is semantically identical for the
// purpose of skipping recompilation. A brand-new node (old == nil) is
// always a change.
func (n *ModelNode) SameContents(old *ModelNode) bool {
	if old == nil {
		return false
	}
	return sameExecutableContents(&n.ParsedNodeCommon, &old.ParsedNodeCommon,
		n.Config.PersistRelationDocs(), n.Config.PersistColumnDocs())
}

// AnalysisNode is a compiled-but-never-materialized SQL file.
type AnalysisNode struct {
	ParsedNodeCommon
	CompiledCommon
	Config NodeConfig `json:"config"`
}

func (n *AnalysisNode) SameContents(old *AnalysisNode) bool {
	if old == nil {
		return false
	}
	return sameExecutableContents(&n.ParsedNodeCommon, &old.ParsedNodeCommon,
		n.Config.PersistRelationDocs(), n.Config.PersistColumnDocs())
}

// HookNode is an on-run-start / on-run-end operation.
type HookNode struct {
	ParsedNodeCommon
	CompiledCommon
	Config NodeConfig `json:"config"`
	Index  *int       `json:"index,omitempty"`
}

func (n *HookNode) SameContents(old *HookNode) bool {
	if old == nil {
		return false
	}
	return sameExecutableContents(&n.ParsedNodeCommon, &old.ParsedNodeCommon,
		n.Config.PersistRelationDocs(), n.Config.PersistColumnDocs())
}

// SQLNode is an ad-hoc SQL operation submitted outside the project
// tree.
type SQLNode struct {
	ParsedNodeCommon
	CompiledCommon
	Config NodeConfig `json:"config"`
}

func (n *SQLNode) SameContents(old *SQLNode) bool {
	if old == nil {
		return false
	}
	return sameExecutableContents(&n.ParsedNodeCommon, &old.ParsedNodeCommon,
		n.Config.PersistRelationDocs(), n.Config.PersistColumnDocs())
}

// SingularTestNode is a hand-written data test: one SQL file whose
// rows are failures.
type SingularTestNode struct {
	ParsedNodeCommon
	CompiledCommon
	Config TestConfig `json:"config"`
}

func (n *SingularTestNode) SameContents(old *SingularTestNode) bool {
	if old == nil {
		return false
	}
	return sameExecutableContents(&n.ParsedNodeCommon, &old.ParsedNodeCommon, false, false)
}

// TestMetadata identifies the generic test definition an instance was
// templated from, plus the arguments it was instantiated with.
type TestMetadata struct {
	Name      string         `json:"name"`
	Kwargs    map[string]any `json:"kwargs,omitempty"`
	Namespace *string        `json:"namespace,omitempty"`
}

// GenericTestNode is an instance of a reusable test definition
// (unique, not_null, ...). Its body is templated, not authored, so
// content equality covers config and fqn only.
type GenericTestNode struct {
	ParsedNodeCommon
	CompiledCommon
	Config       TestConfig   `json:"config"`
	TestMetadata TestMetadata `json:"test_metadata"`
	ColumnName   *string      `json:"column_name,omitempty"`
	FileKeyName  *string      `json:"file_key_name,omitempty"`
}

func (n *GenericTestNode) SameContents(old *GenericTestNode) bool {
	if old == nil {
		return false
	}
	return n.SameConfig(&old.ParsedNodeCommon) && n.SameFQN(&old.ParsedNodeCommon)
}

// SnapshotNode captures slowly-changing source data.
type SnapshotNode struct {
	ParsedNodeCommon
	CompiledCommon
	Config SnapshotConfig `json:"config"`
}

func (n *SnapshotNode) SameContents(old *SnapshotNode) bool {
	if old == nil {
		return false
	}
	return sameExecutableContents(&n.ParsedNodeCommon, &old.ParsedNodeCommon,
		n.Config.PersistRelationDocs(), n.Config.PersistColumnDocs())
}

func isBlank(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

func deepEqualAny(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

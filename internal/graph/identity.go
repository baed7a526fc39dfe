// Package graph defines the typed resources of a sqlplan project
// manifest: their identity, their dependency edges, and the
// content-equality comparators that drive incremental reparsing and
// state comparison.
//
// Node kinds form a closed set (see core.ResourceType). Capabilities
// are composed by embedding small structs by value rather than through
// inheritance: NodeIdentity for identity, RelationMeta for relation
// naming, ParsedNodeCommon for parse products, CompiledCommon for
// compilation products.
package graph

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// NodeIdentity carries the fields every resource has: its unique key,
// its name, and where it came from. Embedded by value in every node
// kind.
type NodeIdentity struct {
	Name             string            `json:"name"`
	ResourceType     core.ResourceType `json:"resource_type"`
	PackageName      string            `json:"package_name"`
	Path             string            `json:"path"`
	OriginalFilePath string            `json:"original_file_path"`
	UniqueID         string            `json:"unique_id"`
}

// Ident exposes the identity through the Resource interface.
func (n *NodeIdentity) Ident() *NodeIdentity { return n }

// FileID groups resources originating from the same source file, for
// partial-reparse invalidation.
func (n *NodeIdentity) FileID() string {
	return fmt.Sprintf("%s://%s", n.PackageName, n.OriginalFilePath)
}

// SearchName is the name resources are looked up by in selectors.
// Sources override this with "source_name.table_name".
func (n *NodeIdentity) SearchName() string { return n.Name }

// Resource is the closed union of everything that can live in a
// manifest. Consumers that need kind-specific behavior type-switch
// over the concrete node types and must handle every member.
type Resource interface {
	Ident() *NodeIdentity
}

// RelationMeta names the database object a resource maps to. Database
// may be empty for adapters without a database component.
type RelationMeta struct {
	Database string `json:"database,omitempty"`
	Schema   string `json:"schema"`
}

// SameFQN reports element-wise equality of two fully-qualified names.
func SameFQN(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ColumnInfo is the documented shape of a single column, shared by all
// nodes and source definitions.
type ColumnInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Meta        map[string]any `json:"meta,omitempty"`
	DataType    *string        `json:"data_type,omitempty"`
	Quote       *bool          `json:"quote,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
}

// Docs controls whether a resource appears in generated documentation.
type Docs struct {
	Show      bool    `json:"show"`
	NodeColor *string `json:"node_color,omitempty"`
}

// DefaultDocs is the zero-config docs setting.
func DefaultDocs() Docs { return Docs{Show: true} }

func nowTimestamp() time.Time { return time.Now().UTC() }

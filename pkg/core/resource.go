// Package core provides the shared primitives of the sqlplan build
// graph: resource kinds, content checksums, and quoting policies.
// These types carry no behavior beyond identity so that every other
// package (graph, config, loader, artifacts) can depend on them
// without cycles.
package core

// ResourceType identifies the kind of a manifest resource. The set is
// closed: consumers switch exhaustively over KnownResourceTypes and
// treat anything else as a decode error.
type ResourceType string

const (
	ResourceModel        ResourceType = "model"
	ResourceAnalysis     ResourceType = "analysis"
	ResourceTest         ResourceType = "test"
	ResourceSnapshot     ResourceType = "snapshot"
	ResourceOperation    ResourceType = "operation"
	ResourceSeed         ResourceType = "seed"
	ResourceRPC          ResourceType = "rpc"
	ResourceSQLOperation ResourceType = "sql_operation"
	ResourceDoc          ResourceType = "doc"
	ResourceSource       ResourceType = "source"
	ResourceMacro        ResourceType = "macro"
	ResourceExposure     ResourceType = "exposure"
	ResourceMetric       ResourceType = "metric"
)

// KnownResourceTypes lists every valid resource type, in declaration
// order. Used for validation and for exhaustive iteration in tests.
var KnownResourceTypes = []ResourceType{
	ResourceModel,
	ResourceAnalysis,
	ResourceTest,
	ResourceSnapshot,
	ResourceOperation,
	ResourceSeed,
	ResourceRPC,
	ResourceSQLOperation,
	ResourceDoc,
	ResourceSource,
	ResourceMacro,
	ResourceExposure,
	ResourceMetric,
}

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	for _, known := range KnownResourceTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Refable reports whether resources of this type can be the target of
// a ref() call (i.e. map to a relation owned by the project).
func (t ResourceType) Refable() bool {
	switch t {
	case ResourceModel, ResourceSeed, ResourceSnapshot:
		return true
	default:
		return false
	}
}

func (t ResourceType) String() string {
	return string(t)
}

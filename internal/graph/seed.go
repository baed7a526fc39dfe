package graph

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlplan/internal/events"
)

// SeedNode is a CSV file loaded as a table. Seeds are roots of the
// DAG: they carry macro dependencies only and may never reference
// other resources, not even through their hooks.
type SeedNode struct {
	ParsedNodeCommon
	Config SeedConfig `json:"config"`
	// RootPath locates the seed contents for deferred loading; seed
	// data is not read at parse time.
	RootPath  *string        `json:"root_path,omitempty"`
	DependsOn MacroDependsOn `json:"depends_on"`
}

// Empty is always false: a seed with an empty file is still a table.
func (s *SeedNode) Empty() bool { return false }

// Language is fixed; seeds have no executable body.
func (s *SeedNode) Language() string { return "sql" }

// DependsOnNodes is always empty; seeds cannot depend on nodes.
func (s *SeedNode) DependsOnNodes() []string { return nil }

// DependsOnMacros returns the hook-captured macro edges.
func (s *SeedNode) DependsOnMacros() []string { return s.DependsOn.Macros }

// SameSeeds implements seed change detection over checksums. Content
// hashes compare exactly. A path-sentinel checksum cannot prove
// byte-level sameness, so every path-sentinel comparison emits a
// warning describing how much can actually be concluded, and the raw
// checksum equality is returned as a conservative best effort.
func (s *SeedNode) SameSeeds(other *SeedNode, sink events.Sink) bool {
	result := s.Checksum.Equal(other.Checksum)

	if s.Checksum.IsPathHash() {
		switch {
		case !other.Checksum.IsPathHash():
			sink.Emit(events.SeedIncreased{PackageName: s.PackageName, SeedName: s.Name})
		case result:
			sink.Emit(events.SeedExceedsLimitSamePath{PackageName: s.PackageName, SeedName: s.Name})
		default:
			sink.Emit(events.SeedExceedsLimitAndPathChanged{PackageName: s.PackageName, SeedName: s.Name})
		}
	} else if other.Checksum.IsPathHash() {
		sink.Emit(events.SeedExceedsLimitChecksumChanged{
			PackageName:  s.PackageName,
			SeedName:     s.Name,
			ChecksumName: other.Checksum.Name,
		})
	}

	return result
}

// SameContents is the executable-node comparator with the body check
// replaced by the checksum policy.
func (s *SeedNode) SameContents(old *SeedNode, sink events.Sink) bool {
	if old == nil {
		return false
	}
	return s.SameSeeds(old, sink) &&
		s.SameConfig(&old.ParsedNodeCommon) &&
		s.SamePersistedDescription(&old.ParsedNodeCommon,
			s.Config.PersistRelationDocs(), s.Config.PersistColumnDocs()) &&
		s.SameFQN(&old.ParsedNodeCommon) &&
		s.SameDatabaseRepresentation(&old.ParsedNodeCommon)
}

// Refs rejects any attempt to record a node dependency on a seed.
// Dependency capture only reads this when a hook (directly or through
// a macro) called ref/source/metric, so the error enumerates the
// hooks that must be at fault.
func (s *SeedNode) Refs() ([][]string, error) {
	return nil, s.implicitDependencyError()
}

// Sources rejects source captures the same way Refs does.
func (s *SeedNode) Sources() ([][]string, error) {
	return nil, s.implicitDependencyError()
}

// Metrics rejects metric captures the same way Refs does.
func (s *SeedNode) Metrics() ([][]string, error) {
	return nil, s.implicitDependencyError()
}

func (s *SeedNode) implicitDependencyError() error {
	hooks := make([]string, 0, len(s.Config.PreHook)+len(s.Config.PostHook))
	for _, hook := range s.Config.PreHook {
		hooks = append(hooks, fmt.Sprintf("- pre_hook: %q", hook.SQL))
	}
	for _, hook := range s.Config.PostHook {
		hooks = append(hooks, fmt.Sprintf("- post_hook: %q", hook.SQL))
	}
	return &ImplicitDependencyError{UniqueID: s.UniqueID, Hooks: hooks}
}

// ImplicitDependencyError is the fatal parse error raised when a
// seed's hooks reference other resources.
type ImplicitDependencyError struct {
	UniqueID string
	Hooks    []string
}

func (e *ImplicitDependencyError) Error() string {
	return fmt.Sprintf(
		"Seeds cannot depend on other nodes: a pre- or post-hook on %s calls 'ref', 'source', or 'metric', directly or via other macros.\nHooks defined on this seed:\n%s",
		e.UniqueID, strings.Join(e.Hooks, "\n"),
	)
}

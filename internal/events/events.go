// Package events defines the structured events raised by the
// configuration and graph layers, and the warn-or-error policy that
// decides whether a warning-class event is logged or escalated.
//
// Core code only classifies an event; the Handler (built from the
// invocation's --warn-error switch) makes the final log-or-fail call.
package events

import (
	"fmt"
	"sort"
	"strings"
)

// Level classifies an event. Warning-class events may be escalated to
// errors by the handler; error-class events always are.
type Level string

const (
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is a structured, typed occurrence worth reporting.
type Event interface {
	// Name is the stable event identifier (e.g. "SeedIncreased").
	Name() string
	// Level classifies the event; the final disposition is the sink's.
	Level() Level
	// Message renders the human-readable description.
	Message() string
}

// Sink receives events. Implementations decide whether to log,
// collect, or escalate them.
type Sink interface {
	Emit(e Event)
}

// SeedIncreased fires when a seed grew past the size limit since the
// previous manifest: its checksum switched from content to path and
// sameness can no longer be proven.
type SeedIncreased struct {
	PackageName string
	SeedName    string
}

func (SeedIncreased) Name() string { return "SeedIncreased" }
func (SeedIncreased) Level() Level { return LevelWarn }
func (e SeedIncreased) Message() string {
	return fmt.Sprintf(
		"Found a seed (%s.%s) >1MB in size. The previous state comparison is not possible",
		e.PackageName, e.SeedName,
	)
}

// SeedExceedsLimitSamePath fires when both versions of an oversized
// seed carry the same path sentinel: contents may still differ.
type SeedExceedsLimitSamePath struct {
	PackageName string
	SeedName    string
}

func (SeedExceedsLimitSamePath) Name() string { return "SeedExceedsLimitSamePath" }
func (SeedExceedsLimitSamePath) Level() Level { return LevelWarn }
func (e SeedExceedsLimitSamePath) Message() string {
	return fmt.Sprintf(
		"Found a seed (%s.%s) >1MB in size at the same path, sqlplan cannot tell if it has changed: assuming they are the same",
		e.PackageName, e.SeedName,
	)
}

// SeedExceedsLimitAndPathChanged fires when an oversized seed moved:
// it is treated as changed.
type SeedExceedsLimitAndPathChanged struct {
	PackageName string
	SeedName    string
}

func (SeedExceedsLimitAndPathChanged) Name() string { return "SeedExceedsLimitAndPathChanged" }
func (SeedExceedsLimitAndPathChanged) Level() Level { return LevelWarn }
func (e SeedExceedsLimitAndPathChanged) Message() string {
	return fmt.Sprintf(
		"Found a seed (%s.%s) >1MB in size. The previous file was in a different location, assuming it has changed",
		e.PackageName, e.SeedName,
	)
}

// SeedExceedsLimitChecksumChanged fires when an oversized seed is
// compared against a prior version with a different checksum type.
type SeedExceedsLimitChecksumChanged struct {
	PackageName  string
	SeedName     string
	ChecksumName string
}

func (SeedExceedsLimitChecksumChanged) Name() string { return "SeedExceedsLimitChecksumChanged" }
func (SeedExceedsLimitChecksumChanged) Level() Level { return LevelWarn }
func (e SeedExceedsLimitChecksumChanged) Message() string {
	return fmt.Sprintf(
		"Found a seed (%s.%s) >1MB in size. The previous file had a checksum type of %s, so it has changed",
		e.PackageName, e.SeedName, e.ChecksumName,
	)
}

// UnusedResourceConfigPath fires when declared resource config paths
// match no resource fqn.
type UnusedResourceConfigPath struct {
	UnusedConfigPaths []string
}

func (UnusedResourceConfigPath) Name() string { return "UnusedResourceConfigPath" }
func (UnusedResourceConfigPath) Level() Level { return LevelWarn }
func (e UnusedResourceConfigPath) Message() string {
	paths := append([]string(nil), e.UnusedConfigPaths...)
	sort.Strings(paths)
	return fmt.Sprintf(
		"Configuration paths exist in your sqlplan.yml file which do not apply to any resources.\nThere are %d unused configuration paths:\n- %s",
		len(paths), strings.Join(paths, "\n- "),
	)
}

// InvalidProject fires when a dependency package cannot be loaded.
type InvalidProject struct {
	Path   string
	Reason string
}

func (InvalidProject) Name() string { return "InvalidProject" }
func (InvalidProject) Level() Level { return LevelError }
func (e InvalidProject) Message() string {
	return fmt.Sprintf("Failed to read package at %s: %s", e.Path, e.Reason)
}

// Package adapter maintains the registry of database adapter metadata
// used during configuration resolution: default quoting policies,
// credential field aliases, and built-in package include paths.
//
// There is deliberately no connection handling here. Resolving a
// RuntimeConfig only needs to know how an adapter names and quotes
// things, never how to reach a warehouse.
package adapter

import (
	"fmt"
	"sort"
	"sync"

	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// Info describes one registered adapter type.
type Info struct {
	// Type is the adapter name as written in profiles.yml (e.g. "duckdb").
	Type string
	// DefaultQuotePolicy seeds the quoting resolution; projects
	// override it component-by-component.
	DefaultQuotePolicy core.QuotePolicy
	// CredentialAliases maps legacy credential/quoting keys to their
	// canonical names (e.g. postgres "dbname" -> "database").
	CredentialAliases map[string]string
	// IncludePaths are directories of built-in packages shipped with
	// the adapter, loaded ahead of installed dependencies.
	IncludePaths []string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Info)
)

// Register adds adapter metadata to the registry. Called by adapter
// packages in their init() functions.
func Register(info Info) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[info.Type] = info
}

// Get retrieves adapter metadata by type name.
func Get(name string) (Info, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	info, ok := registry[name]
	return info, ok
}

// Lookup is Get with an UnknownAdapterError for the missing case.
func Lookup(name string) (Info, error) {
	if name == "" {
		return Info{}, fmt.Errorf("adapter type not specified")
	}
	info, ok := Get(name)
	if !ok {
		return Info{}, &UnknownAdapterError{Type: name, Available: ListAdapters()}
	}
	return info, nil
}

// ListAdapters returns all registered adapter names (sorted).
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IncludePaths returns the built-in package directories for an adapter
// type. Unknown types get no built-ins rather than an error: the
// missing adapter surfaces earlier, at credential validation.
func IncludePaths(name string) []string {
	info, ok := Get(name)
	if !ok {
		return nil
	}
	return append([]string(nil), info.IncludePaths...)
}

// TranslateAliases rewrites the keys of src through the adapter's
// credential alias table. Unaliased keys pass through unchanged.
func (i Info) TranslateAliases(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for key, value := range src {
		if canonical, ok := i.CredentialAliases[key]; ok {
			key = canonical
		}
		out[key] = value
	}
	return out
}

// UnknownAdapterError is returned when an unregistered adapter type is
// requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter type %q\nAvailable adapters: %v\nHint: Check your target type in profiles.yml", e.Type, e.Available)
}

package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// InvocationArgs carries the per-invocation settings that influence
// configuration resolution. It is built once by the CLI and passed by
// value; nothing reads flag state globally.
type InvocationArgs struct {
	// ProjectDir is the project root; empty means the working
	// directory.
	ProjectDir string
	// ProfilesDir is where profiles.yml lives.
	ProfilesDir string
	// Profile overrides the project's profile name.
	Profile string
	// Target overrides the profile's default target.
	Target string
	// Vars is a YAML mapping of variable overrides, as written on the
	// command line.
	Vars string
	// Threads overrides the target's thread count when set.
	Threads *int
	// WarnErrorAsErrors escalates warning-class events to errors.
	WarnErrorAsErrors bool
	// TargetPath overrides where artifacts are written.
	TargetPath string
}

// VarsError reports a --vars value that is not a YAML mapping.
type VarsError struct {
	Raw    string
	Reason string
}

func (e *VarsError) Error() string {
	return fmt.Sprintf("the --vars argument must be a YAML dictionary, got %q: %s", e.Raw, e.Reason)
}

// ParseCliVars decodes the --vars argument. An empty string is an
// empty mapping.
func ParseCliVars(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var vars map[string]any
	if err := yaml.Unmarshal([]byte(raw), &vars); err != nil {
		return nil, &VarsError{Raw: raw, Reason: err.Error()}
	}
	if vars == nil {
		vars = map[string]any{}
	}
	return vars, nil
}

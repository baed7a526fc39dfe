package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/leapstack-labs/sqlplan/pkg/adapter"
	"gopkg.in/yaml.v3"
)

// ProfilesFileName is the connection profiles file.
const ProfilesFileName = "profiles.yml"

// DefaultThreads is used when neither the target nor the invocation
// sets a thread count.
const DefaultThreads = 4

// ProfileError reports a missing or invalid profile.
type ProfileError struct {
	Message string
	Err     error
}

func (e *ProfileError) Error() string { return e.Message }

func (e *ProfileError) Unwrap() error { return e.Err }

// Credentials is the adapter-typed target section of a profile, with
// the adapter's credential aliases already canonicalized.
type Credentials struct {
	Type   string
	Fields map[string]any
}

// TranslateAliases canonicalizes keys through the adapter's alias
// table. Unknown adapter types pass the map through unchanged.
func (c Credentials) TranslateAliases(src map[string]any) map[string]any {
	info, ok := adapter.Get(c.Type)
	if !ok {
		out := make(map[string]any, len(src))
		for key, value := range src {
			out[key] = value
		}
		return out
	}
	return info.TranslateAliases(src)
}

// ConnectionInfo returns the credential fields with secret-looking
// keys masked, for display.
func (c Credentials) ConnectionInfo() map[string]any {
	out := make(map[string]any, len(c.Fields))
	for key, value := range c.Fields {
		switch key {
		case "password", "pass", "token", "private_key", "keyfile_json":
			out[key] = "********"
		default:
			out[key] = value
		}
	}
	return out
}

// Profile is one rendered profile entry with a single selected target.
type Profile struct {
	ProfileName    string
	TargetName     string
	Threads        int
	Credentials    Credentials
	ProfileEnvVars map[string]string
}

// LoadProfile reads profiles.yml from dir and selects a target.
// Selection order: args target, then the profile's default target.
func LoadProfile(dir, profileName string, args InvocationArgs) (*Profile, error) {
	path := filepath.Join(dir, ProfilesFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ProfileError{Message: fmt.Sprintf("could not read %s", path), Err: err}
	}

	envVars := map[string]string{}
	rendered, err := expandEnvVars(raw, envVars)
	if err != nil {
		return nil, &ProfileError{Message: "rendering profiles file", Err: err}
	}

	var profiles map[string]rawProfile
	if err := yaml.Unmarshal(rendered, &profiles); err != nil {
		return nil, &ProfileError{Message: fmt.Sprintf("invalid profiles file: %s", err), Err: err}
	}

	entry, ok := profiles[profileName]
	if !ok {
		names := make([]string, 0, len(profiles))
		for name := range profiles {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, &ProfileError{
			Message: fmt.Sprintf("profile %q not found in %s; defined profiles: %v", profileName, path, names),
		}
	}

	targetName := entry.Target
	if args.Target != "" {
		targetName = args.Target
	}
	if targetName == "" {
		return nil, &ProfileError{Message: fmt.Sprintf("profile %q does not declare a default target and none was given", profileName)}
	}

	output, ok := entry.Outputs[targetName]
	if !ok {
		targets := make([]string, 0, len(entry.Outputs))
		for name := range entry.Outputs {
			targets = append(targets, name)
		}
		sort.Strings(targets)
		return nil, &ProfileError{
			Message: fmt.Sprintf("target %q not found in profile %q; defined targets: %v", targetName, profileName, targets),
		}
	}

	creds, threads, err := buildCredentials(output)
	if err != nil {
		return nil, err
	}
	if args.Threads != nil {
		threads = *args.Threads
	}

	return &Profile{
		ProfileName:    profileName,
		TargetName:     targetName,
		Threads:        threads,
		Credentials:    creds,
		ProfileEnvVars: envVars,
	}, nil
}

type rawProfile struct {
	Target  string                    `yaml:"target"`
	Outputs map[string]map[string]any `yaml:"outputs"`
}

func buildCredentials(output map[string]any) (Credentials, int, error) {
	typeName, _ := output["type"].(string)
	info, err := adapter.Lookup(typeName)
	if err != nil {
		return Credentials{}, 0, &ProfileError{Message: err.Error(), Err: err}
	}

	threads := DefaultThreads
	fields := make(map[string]any, len(output))
	for key, value := range output {
		switch key {
		case "type":
		case "threads":
			if n, ok := value.(int); ok && n > 0 {
				threads = n
			}
		default:
			fields[key] = value
		}
	}
	return Credentials{Type: info.Type, Fields: info.TranslateAliases(fields)}, threads, nil
}

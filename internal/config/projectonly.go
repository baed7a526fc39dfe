package config

import "fmt"

// DisallowedAttributeError reports an attempt to use profile-dependent
// behavior from a configuration resolved without a profile.
type DisallowedAttributeError struct {
	Attribute string
}

func (e *DisallowedAttributeError) Error() string {
	return fmt.Sprintf(
		"'%s' is not allowed in a configuration resolved without a profile; resolve with a profile to use it",
		e.Attribute,
	)
}

// ProjectOnlyConfig is the configuration used by commands that operate
// on the project alone (listing, dependency installation). It has no
// profile fields at all, so profile-dependent code paths cannot be
// reached by accident at compile time; the accessor methods exist for
// the few dynamic callers and always fail.
type ProjectOnlyConfig struct {
	Project Project
	CliVars map[string]any
}

// ProjectOnlyFromArgs resolves a project-only configuration: project
// file and cli vars, no profile lookup.
func ProjectOnlyFromArgs(args InvocationArgs) (*ProjectOnlyConfig, error) {
	root := args.ProjectDir
	if root == "" {
		root = "."
	}
	project, err := LoadProject(root)
	if err != nil {
		return nil, err
	}
	cliVars, err := ParseCliVars(args.Vars)
	if err != nil {
		return nil, err
	}
	return &ProjectOnlyConfig{Project: *project, CliVars: cliVars}, nil
}

// Credentials always fails: there is no profile.
func (c *ProjectOnlyConfig) Credentials() (Credentials, error) {
	return Credentials{}, &DisallowedAttributeError{Attribute: "credentials"}
}

// Threads always fails: there is no profile.
func (c *ProjectOnlyConfig) Threads() (int, error) {
	return 0, &DisallowedAttributeError{Attribute: "threads"}
}

// TargetName always fails: there is no profile.
func (c *ProjectOnlyConfig) TargetName() (string, error) {
	return "", &DisallowedAttributeError{Attribute: "target_name"}
}

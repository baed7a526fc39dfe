package config

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/leapstack-labs/sqlplan/internal/events"
	"github.com/leapstack-labs/sqlplan/pkg/adapter"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// ConfigContractError reports a resolved configuration that fails its
// contract check.
type ConfigContractError struct {
	Reason string
}

func (e *ConfigContractError) Error() string {
	return fmt.Sprintf("configuration is not valid: %s", e.Reason)
}

// UninstalledPackagesError reports fewer installed packages than
// packages.yml declares.
type UninstalledPackagesError struct {
	Specified int
	Installed int
	Path      string
}

func (e *UninstalledPackagesError) Error() string {
	return fmt.Sprintf(
		"found %d package(s) specified in packages.yml, but only %d package(s) installed in %s. Run the package installer to install the missing packages.",
		e.Specified, e.Installed, e.Path,
	)
}

// DuplicatePackageNameError reports two loaded packages sharing a
// project name.
type DuplicatePackageNameError struct {
	ProjectName string
}

func (e *DuplicatePackageNameError) Error() string {
	return fmt.Sprintf(
		"found more than one package with the name %q included in this project. Package names must be unique in a project.",
		e.ProjectName,
	)
}

// ProjectMetadata identifies a project in artifact metadata without
// exposing its name.
type ProjectMetadata struct {
	ProjectID   string `json:"project_id"`
	AdapterType string `json:"adapter_type"`
}

// RuntimeConfig is the fully resolved configuration: project, profile,
// invocation arguments, parsed cli vars and the resolved quoting
// policy. Dependency packages load lazily through LoadDependencies.
type RuntimeConfig struct {
	Project Project
	Profile Profile
	Args    InvocationArgs
	CliVars map[string]any
	Quoting core.QuotePolicy

	dependencies map[string]*RuntimeConfig
}

// FromParts builds and validates a RuntimeConfig from its resolved
// components. The quoting policy starts from the adapter default and
// is overridden component-by-component by boolean entries of the
// project's quoting section, with credential aliases canonicalized
// first. Non-boolean entries are ignored.
func FromParts(project *Project, profile *Profile, args InvocationArgs) (*RuntimeConfig, error) {
	info, err := adapter.Lookup(profile.Credentials.Type)
	if err != nil {
		return nil, err
	}

	translated := profile.Credentials.TranslateAliases(project.Quoting)
	overrides := map[string]bool{}
	for _, component := range core.ComponentNames {
		if value, ok := translated[component]; ok {
			if b, ok := value.(bool); ok {
				overrides[component] = b
			}
		}
	}
	quoting := info.DefaultQuotePolicy.ReplaceDict(overrides)

	cliVars, err := ParseCliVars(args.Vars)
	if err != nil {
		return nil, err
	}

	cfg := &RuntimeConfig{
		Project: *project,
		Profile: *profile,
		Args:    args,
		CliVars: cliVars,
		Quoting: quoting,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromArgs resolves the project in args.ProjectDir (or the working
// directory) together with its profile.
func FromArgs(args InvocationArgs) (*RuntimeConfig, error) {
	root := args.ProjectDir
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}

	project, err := LoadProject(root)
	if err != nil {
		return nil, err
	}

	profileName := project.ProfileName
	if args.Profile != "" {
		profileName = args.Profile
	}
	if profileName == "" {
		return nil, &ProjectError{
			Message: "the project does not name a profile and none was given; set 'profile' in " + ProjectFileName,
			Path:    root,
		}
	}

	profilesDir := args.ProfilesDir
	if profilesDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		profilesDir = filepath.Join(home, ".sqlplan")
	}

	profile, err := LoadProfile(profilesDir, profileName, args)
	if err != nil {
		return nil, err
	}
	return FromParts(project, profile, args)
}

// Serialize flattens the configuration into the canonical map form
// checked by Validate. Invocation args are not serialized.
func (c *RuntimeConfig) Serialize() map[string]any {
	result := map[string]any{
		"name":                  c.Project.Name,
		"version":               c.Project.Version,
		"config-version":        c.Project.ConfigVersion,
		"project-root":          c.Project.ProjectRoot,
		"model-paths":           c.Project.ModelPaths,
		"macro-paths":           c.Project.MacroPaths,
		"seed-paths":            c.Project.SeedPaths,
		"test-paths":            c.Project.TestPaths,
		"analysis-paths":        c.Project.AnalysisPaths,
		"docs-paths":            c.Project.DocsPaths,
		"asset-paths":           c.Project.AssetPaths,
		"snapshot-paths":        c.Project.SnapshotPaths,
		"target-path":           c.Project.TargetPath,
		"log-path":              c.Project.LogPath,
		"packages-install-path": c.Project.PackagesInstallPath,
		"clean-targets":         c.Project.CleanTargets,
		"on-run-start":          c.Project.OnRunStart,
		"on-run-end":            c.Project.OnRunEnd,
		"models":                c.Project.Models,
		"seeds":                 c.Project.Seeds,
		"snapshots":             c.Project.Snapshots,
		"sources":               c.Project.Sources,
		"tests":                 c.Project.Tests,
		"metrics":               c.Project.Metrics,
		"exposures":             c.Project.Exposures,
		"vars":                  c.Project.Vars,
		"quoting":               c.Quoting.ToMap(),
		"query-comment":         c.Project.QueryComment,
		"profile":               c.Profile.ProfileName,
		"target":                c.Profile.TargetName,
		"threads":               c.Profile.Threads,
		"credentials":           c.Profile.Credentials.ConnectionInfo(),
		"cli_vars":              c.CliVars,
	}
	return result
}

// Validate checks the resolved configuration against its contract.
func (c *RuntimeConfig) Validate() error {
	if c.Project.Name == "" {
		return &ConfigContractError{Reason: "project name is missing"}
	}
	if c.Project.ConfigVersion != SupportedConfigVersion {
		return &ConfigContractError{Reason: fmt.Sprintf("config-version must be %d", SupportedConfigVersion)}
	}
	if c.Profile.ProfileName == "" {
		return &ConfigContractError{Reason: "profile name is missing"}
	}
	if c.Profile.TargetName == "" {
		return &ConfigContractError{Reason: "target name is missing"}
	}
	if c.Profile.Threads < 1 {
		return &ConfigContractError{Reason: "threads must be at least 1"}
	}
	if _, ok := adapter.Get(c.Profile.Credentials.Type); !ok {
		return &ConfigContractError{Reason: fmt.Sprintf("unknown adapter type %q", c.Profile.Credentials.Type)}
	}
	for key := range c.Project.Quoting {
		if !isQuotingKey(key, c.Profile.Credentials) {
			return &ConfigContractError{Reason: fmt.Sprintf("unknown quoting component %q", key)}
		}
	}
	return nil
}

func isQuotingKey(key string, creds Credentials) bool {
	canonical := key
	if translated := creds.TranslateAliases(map[string]any{key: true}); len(translated) == 1 {
		for k := range translated {
			canonical = k
		}
	}
	if canonical == "column" {
		return true
	}
	for _, component := range core.ComponentNames {
		if canonical == component {
			return true
		}
	}
	return false
}

// GetMetadata returns the project identity written into artifacts.
// The project id is a hash so artifact consumers never see raw
// project names.
func (c *RuntimeConfig) GetMetadata() ProjectMetadata {
	sum := md5.Sum([]byte(c.Project.Name))
	return ProjectMetadata{
		ProjectID:   hex.EncodeToString(sum[:]),
		AdapterType: c.Profile.Credentials.Type,
	}
}

// MergedVars returns the project vars with cli vars layered on top.
func (c *RuntimeConfig) MergedVars() (map[string]any, error) {
	merged := map[string]any{}
	if err := mergo.Merge(&merged, c.Project.Vars, mergo.WithOverride); err != nil {
		return nil, err
	}
	if err := mergo.Merge(&merged, c.CliVars, mergo.WithOverride); err != nil {
		return nil, err
	}
	return merged, nil
}

// GetResourceConfigPaths returns, per resource type, the fqn-like
// paths configured in the project's config trees. A path ends where a
// "+"-prefixed key or a non-mapping value appears.
func (c *RuntimeConfig) GetResourceConfigPaths() map[string][][]string {
	return map[string][][]string{
		"models":    configPaths(c.Project.Models),
		"seeds":     configPaths(c.Project.Seeds),
		"snapshots": configPaths(c.Project.Snapshots),
		"sources":   configPaths(c.Project.Sources),
		"tests":     configPaths(c.Project.Tests),
		"metrics":   configPaths(c.Project.Metrics),
		"exposures": configPaths(c.Project.Exposures),
	}
}

func configPaths(tree map[string]any) [][]string {
	seen := map[string]bool{}
	var paths [][]string

	var walk func(node map[string]any, path []string)
	walk = func(node map[string]any, path []string) {
		for key, value := range node {
			child, isMap := value.(map[string]any)
			if isMap && !strings.HasPrefix(key, "+") {
				walk(child, append(append([]string(nil), path...), key))
			} else {
				joined := strings.Join(path, ".")
				if !seen[joined] {
					seen[joined] = true
					paths = append(paths, append([]string(nil), path...))
				}
			}
		}
	}
	walk(tree, nil)

	sort.Slice(paths, func(i, j int) bool {
		return strings.Join(paths[i], ".") < strings.Join(paths[j], ".")
	})
	return paths
}

// WarnForUnusedResourceConfigPaths emits a warning listing every
// configured path that matches no resource fqn. A path is used when it
// is a prefix of any fqn of its resource type, or of any disabled fqn.
func (c *RuntimeConfig) WarnForUnusedResourceConfigPaths(
	resourceFqns map[string][][]string,
	disabled [][]string,
	sink events.Sink,
) {
	var unused []string
	for resourceType, paths := range c.GetResourceConfigPaths() {
		fqns := append(append([][]string(nil), resourceFqns[resourceType]...), disabled...)
		for _, path := range paths {
			if !configPathUsed(path, fqns) {
				unused = append(unused, strings.Join(append([]string{resourceType}, path...), "."))
			}
		}
	}
	if len(unused) == 0 {
		return
	}
	sort.Strings(unused)
	sink.Emit(events.UnusedResourceConfigPath{UnusedConfigPaths: unused})
}

func configPathUsed(path []string, fqns [][]string) bool {
	for _, fqn := range fqns {
		if len(fqn) < len(path) {
			continue
		}
		match := true
		for i := range path {
			if fqn[i] != path[i] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// Package config resolves project and profile files into the runtime
// configuration every other layer consumes: paths, per-resource config
// trees, quoting policy, variables, and installed dependency packages.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"gopkg.in/yaml.v3"
)

// ProjectFileName is the project definition file.
const ProjectFileName = "sqlplan.yml"

// PackagesFileName declares the project's package dependencies.
const PackagesFileName = "packages.yml"

// DefaultPackagesInstallPath is where installed packages live relative
// to the project root.
const DefaultPackagesInstallPath = "sqlplan_packages"

// SupportedConfigVersion is the only accepted config-version value.
const SupportedConfigVersion = 2

var projectNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ProjectError reports an invalid or unreadable project definition.
type ProjectError struct {
	Message    string
	Path       string
	ResultType string
	Err        error
}

func (e *ProjectError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %s", e.Message, e.Path)
	}
	return e.Message
}

func (e *ProjectError) Unwrap() error { return e.Err }

// DispatchConfig routes macro namespace lookups through an explicit
// package search order.
type DispatchConfig struct {
	MacroNamespace string   `koanf:"macro_namespace" yaml:"macro_namespace"`
	SearchOrder    []string `koanf:"search_order" yaml:"search_order"`
}

// QueryComment controls the comment prepended or appended to issued
// queries.
type QueryComment struct {
	Comment string `koanf:"comment" yaml:"comment"`
	Append  bool   `koanf:"append" yaml:"append"`
}

// PackageSpec is one entry of packages.yml. Exactly one of Package,
// Local or Git is set.
type PackageSpec struct {
	Package  string `koanf:"package" yaml:"package,omitempty"`
	Version  string `koanf:"version" yaml:"version,omitempty"`
	Local    string `koanf:"local" yaml:"local,omitempty"`
	Git      string `koanf:"git" yaml:"git,omitempty"`
	Revision string `koanf:"revision" yaml:"revision,omitempty"`
}

// Project is the parsed, env-rendered sqlplan.yml plus the adjacent
// packages.yml. Unrendered preserves the file as written for change
// detection; ProjectEnvVars records every environment variable the
// render pass observed.
type Project struct {
	Name          string `koanf:"name"`
	Version       string `koanf:"version"`
	ConfigVersion int    `koanf:"config-version"`
	ProfileName   string `koanf:"profile"`
	ProjectRoot   string `koanf:"-"`

	ModelPaths          []string `koanf:"model-paths"`
	MacroPaths          []string `koanf:"macro-paths"`
	SeedPaths           []string `koanf:"seed-paths"`
	TestPaths           []string `koanf:"test-paths"`
	AnalysisPaths       []string `koanf:"analysis-paths"`
	DocsPaths           []string `koanf:"docs-paths"`
	AssetPaths          []string `koanf:"asset-paths"`
	SnapshotPaths       []string `koanf:"snapshot-paths"`
	TargetPath          string   `koanf:"target-path"`
	LogPath             string   `koanf:"log-path"`
	PackagesInstallPath string   `koanf:"packages-install-path"`
	CleanTargets        []string `koanf:"clean-targets"`

	OnRunStart []string         `koanf:"on-run-start"`
	OnRunEnd   []string         `koanf:"on-run-end"`
	Dispatch   []DispatchConfig `koanf:"dispatch"`

	Models    map[string]any `koanf:"models"`
	Seeds     map[string]any `koanf:"seeds"`
	Snapshots map[string]any `koanf:"snapshots"`
	Sources   map[string]any `koanf:"sources"`
	Tests     map[string]any `koanf:"tests"`
	Metrics   map[string]any `koanf:"metrics"`
	Exposures map[string]any `koanf:"exposures"`

	Vars         map[string]any `koanf:"vars"`
	Quoting      map[string]any `koanf:"quoting"`
	QueryComment QueryComment   `koanf:"query-comment"`
	Selectors    map[string]any `koanf:"selectors"`

	Packages []PackageSpec `koanf:"-"`

	Unrendered     map[string]any    `koanf:"-"`
	ProjectEnvVars map[string]string `koanf:"-"`
}

// LoadProject reads, renders and validates the project definition at
// root.
func LoadProject(root string) (*Project, error) {
	path := filepath.Join(root, ProjectFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ProjectError{Message: "no project definition found", Path: path, Err: err}
	}

	unrendered, err := kyaml.Parser().Unmarshal(raw)
	if err != nil {
		return nil, &ProjectError{Message: fmt.Sprintf("invalid project definition: %s", err), Path: path, Err: err}
	}

	envVars := map[string]string{}
	rendered, err := expandEnvVars(raw, envVars)
	if err != nil {
		return nil, &ProjectError{Message: "rendering project definition", Path: path, Err: err}
	}

	fields, err := kyaml.Parser().Unmarshal(rendered)
	if err != nil {
		return nil, &ProjectError{Message: fmt.Sprintf("invalid project definition: %s", err), Path: path, Err: err}
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(fields, "."), nil); err != nil {
		return nil, &ProjectError{Message: "loading project definition", Path: path, Err: err}
	}

	project := defaultProject()
	if err := k.Unmarshal("", project); err != nil {
		return nil, &ProjectError{Message: fmt.Sprintf("invalid project definition: %s", err), Path: path, Err: err}
	}
	project.ProjectRoot = root
	project.Unrendered = unrendered
	project.ProjectEnvVars = envVars

	if err := project.validate(path); err != nil {
		return nil, err
	}

	packages, err := loadPackages(root, envVars)
	if err != nil {
		return nil, err
	}
	project.Packages = packages
	return project, nil
}

func defaultProject() *Project {
	return &Project{
		ModelPaths:          []string{"models"},
		MacroPaths:          []string{"macros"},
		SeedPaths:           []string{"seeds"},
		TestPaths:           []string{"tests"},
		AnalysisPaths:       []string{"analyses"},
		DocsPaths:           []string{"models"},
		SnapshotPaths:       []string{"snapshots"},
		TargetPath:          "target",
		LogPath:             "logs",
		PackagesInstallPath: DefaultPackagesInstallPath,
		CleanTargets:        []string{"target"},
		Models:              map[string]any{},
		Seeds:               map[string]any{},
		Snapshots:           map[string]any{},
		Sources:             map[string]any{},
		Tests:               map[string]any{},
		Metrics:             map[string]any{},
		Exposures:           map[string]any{},
		Vars:                map[string]any{},
		Quoting:             map[string]any{},
	}
}

func (p *Project) validate(path string) error {
	if p.Name == "" {
		return &ProjectError{Message: "project name is required", Path: path}
	}
	if !projectNameRe.MatchString(p.Name) {
		return &ProjectError{
			Message: fmt.Sprintf("project name %q can only contain letters, digits and underscores, and must not start with a digit", p.Name),
			Path:    path,
		}
	}
	if p.ConfigVersion != SupportedConfigVersion {
		return &ProjectError{
			Message: fmt.Sprintf("config-version %d is not supported, expected %d", p.ConfigVersion, SupportedConfigVersion),
			Path:    path,
		}
	}
	return nil
}

func loadPackages(root string, envVars map[string]string) ([]PackageSpec, error) {
	path := filepath.Join(root, PackagesFileName)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ProjectError{Message: "reading packages file", Path: path, Err: err}
	}

	rendered, err := expandEnvVars(raw, envVars)
	if err != nil {
		return nil, &ProjectError{Message: "rendering packages file", Path: path, Err: err}
	}

	var spec struct {
		Packages []PackageSpec `yaml:"packages"`
	}
	if err := yaml.Unmarshal(rendered, &spec); err != nil {
		return nil, &ProjectError{Message: fmt.Sprintf("invalid packages file: %s", err), Path: path, Err: err}
	}
	return spec.Packages, nil
}

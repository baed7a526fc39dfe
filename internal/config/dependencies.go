package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlplan/pkg/adapter"
)

// LoadDependencies resolves every dependency package into its own
// RuntimeConfig, keyed by project name and including this project
// itself. The result is cached on the instance; ClearDependencies
// drops the cache.
//
// Adapter built-in packages load first. With baseOnly the installed
// packages are skipped, which test setups use to get built-in macros
// without a full install.
func (c *RuntimeConfig) LoadDependencies(baseOnly bool) (map[string]*RuntimeConfig, error) {
	if c.dependencies != nil {
		return c.dependencies, nil
	}

	all := map[string]*RuntimeConfig{c.Project.Name: c}
	paths := adapter.IncludePaths(c.Profile.Credentials.Type)

	if !baseOnly {
		installed, err := c.projectDirectories()
		if err != nil {
			return nil, err
		}
		if len(c.Project.Packages) > len(installed) {
			return nil, &UninstalledPackagesError{
				Specified: len(c.Project.Packages),
				Installed: len(installed),
				Path:      c.Project.PackagesInstallPath,
			}
		}
		paths = append(paths, installed...)
	}

	for _, path := range paths {
		child, err := c.NewProject(path)
		if err != nil {
			return nil, &ProjectError{
				Message:    fmt.Sprintf("failed to read package: %s", err),
				Path:       path,
				ResultType: "invalid_project",
				Err:        err,
			}
		}
		if _, exists := all[child.Project.Name]; exists {
			return nil, &DuplicatePackageNameError{ProjectName: child.Project.Name}
		}
		all[child.Project.Name] = child
	}

	c.dependencies = all
	return all, nil
}

// ClearDependencies drops the dependency cache so the next
// LoadDependencies re-reads from disk.
func (c *RuntimeConfig) ClearDependencies() {
	c.dependencies = nil
}

// NewProject loads the project at root as a dependency of this one:
// same profile, same invocation args, no cli vars of its own, and the
// parent's quoting forced over whatever the child declares.
func (c *RuntimeConfig) NewProject(root string) (*RuntimeConfig, error) {
	project, err := LoadProject(root)
	if err != nil {
		return nil, err
	}

	profile := c.Profile
	args := c.Args
	args.Vars = ""

	child, err := FromParts(project, &profile, args)
	if err != nil {
		return nil, err
	}
	child.Quoting = c.Quoting
	return child, nil
}

// projectDirectories lists the installed package roots: directories
// under the install path whose names do not start with "__".
func (c *RuntimeConfig) projectDirectories() ([]string, error) {
	root := filepath.Join(c.Project.ProjectRoot, c.Project.PackagesInstallPath)
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading package install path: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), "__") {
			dirs = append(dirs, filepath.Join(root, entry.Name()))
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

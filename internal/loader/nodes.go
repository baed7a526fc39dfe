package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlplan/internal/graph"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

func (l *Loader) loadSQLNodes(manifest *graph.Manifest, paths []string, resourceType core.ResourceType) error {
	for _, dir := range paths {
		root := filepath.Join(l.cfg.Project.ProjectRoot, dir)
		err := walkSuffix(root, ".sql", func(path string) error {
			return l.parseSQLFile(manifest, root, dir, path, resourceType)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) parseSQLFile(manifest *graph.Manifest, root, dir, path string, resourceType core.ResourceType) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), ".sql")
	fqn := l.buildFQN(rel, name)

	raw, body, err := extractFrontmatter(filepath.Join(dir, rel), string(contents))
	if err != nil {
		return err
	}

	unrendered := mergeConfigs(l.treeConfigFor(resourceType, fqn), raw)
	common := l.parsedCommon(resourceType, name, rel, filepath.Join(dir, rel), fqn,
		core.FileHashFromContents(contents), unrendered, string(body))
	compiled := graph.CompiledCommon{
		Language: "sql",
		Refs:     extractRefs(body),
		Sources:  extractSources(body),
		Metrics:  extractMetrics(body),
	}

	node, err := buildNode(resourceType, common, compiled, unrendered)
	if err != nil {
		return &FrontmatterParseError{File: filepath.Join(dir, rel), Message: err.Error()}
	}

	if !enabledIn(unrendered) {
		manifest.AddDisabled(node)
		return nil
	}
	return manifest.AddNode(node)
}

func buildNode(resourceType core.ResourceType, common graph.ParsedNodeCommon, compiled graph.CompiledCommon, unrendered map[string]any) (graph.Resource, error) {
	switch resourceType {
	case core.ResourceModel:
		cfg := graph.DefaultNodeConfig()
		if err := decodeConfig(unrendered, &cfg); err != nil {
			return nil, err
		}
		applyConfigNaming(&common, cfg)
		return &graph.ModelNode{ParsedNodeCommon: common, CompiledCommon: compiled, Config: cfg}, nil
	case core.ResourceAnalysis:
		cfg := graph.DefaultNodeConfig()
		if err := decodeConfig(unrendered, &cfg); err != nil {
			return nil, err
		}
		applyConfigNaming(&common, cfg)
		return &graph.AnalysisNode{ParsedNodeCommon: common, CompiledCommon: compiled, Config: cfg}, nil
	case core.ResourceSnapshot:
		cfg := graph.SnapshotConfig{NodeConfig: graph.DefaultNodeConfig()}
		cfg.Materialized = "snapshot"
		if err := decodeConfig(unrendered, &cfg); err != nil {
			return nil, err
		}
		applyConfigNaming(&common, cfg.NodeConfig)
		return &graph.SnapshotNode{ParsedNodeCommon: common, CompiledCommon: compiled, Config: cfg}, nil
	case core.ResourceTest:
		cfg := graph.DefaultTestConfig()
		if err := decodeConfig(unrendered, &cfg); err != nil {
			return nil, err
		}
		return &graph.SingularTestNode{ParsedNodeCommon: common, CompiledCommon: compiled, Config: cfg}, nil
	default:
		return nil, fmt.Errorf("resource type %s cannot be loaded from a SQL file", resourceType)
	}
}

func applyConfigNaming(common *graph.ParsedNodeCommon, cfg graph.NodeConfig) {
	if cfg.Alias != nil && *cfg.Alias != "" {
		common.Alias = *cfg.Alias
	}
	if cfg.Schema != nil && *cfg.Schema != "" {
		common.Schema = *cfg.Schema
	}
	if cfg.Database != nil && *cfg.Database != "" {
		common.Database = *cfg.Database
	}
	common.Tags = cfg.Tags
	common.Meta = cfg.Meta
}

func (l *Loader) loadSeeds(manifest *graph.Manifest) error {
	for _, dir := range l.cfg.Project.SeedPaths {
		root := filepath.Join(l.cfg.Project.ProjectRoot, dir)
		err := walkSuffix(root, ".csv", func(path string) error {
			return l.parseSeedFile(manifest, root, dir, path)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (l *Loader) parseSeedFile(manifest *graph.Manifest, root, dir, path string) error {
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), ".csv")
	fqn := l.buildFQN(rel, name)

	unrendered := l.treeConfigFor(core.ResourceSeed, fqn)
	cfg := graph.DefaultSeedConfig()
	if err := decodeConfig(unrendered, &cfg); err != nil {
		return &FrontmatterParseError{File: filepath.Join(dir, rel), Message: err.Error()}
	}

	common := l.parsedCommon(core.ResourceSeed, name, rel, filepath.Join(dir, rel), fqn,
		core.SeedHash(filepath.Join(dir, rel), contents), unrendered, "")
	applyConfigNaming(&common, cfg.NodeConfig)

	rootPath := l.cfg.Project.ProjectRoot
	seed := &graph.SeedNode{ParsedNodeCommon: common, Config: cfg, RootPath: &rootPath}

	for _, hook := range append(append([]graph.Hook(nil), cfg.PreHook...), cfg.PostHook...) {
		if callsDependencyFn(hook.SQL) {
			_, err := seed.Refs()
			return err
		}
	}

	if !cfg.Enabled || !enabledIn(unrendered) {
		manifest.AddDisabled(seed)
		return nil
	}
	return manifest.AddNode(seed)
}

var macroRe = regexp.MustCompile(`(?s)\{%-?\s*macro\s+([a-zA-Z0-9_]+)\s*\(.*?\{%-?\s*endmacro\s*-?%\}`)

func (l *Loader) loadMacros(manifest *graph.Manifest) error {
	for _, dir := range l.cfg.Project.MacroPaths {
		root := filepath.Join(l.cfg.Project.ProjectRoot, dir)
		err := walkSuffix(root, ".sql", func(path string) error {
			contents, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			for _, m := range macroRe.FindAllStringSubmatch(string(contents), -1) {
				macro := &graph.Macro{
					NodeIdentity: graph.NodeIdentity{
						Name:             m[1],
						ResourceType:     core.ResourceMacro,
						PackageName:      l.cfg.Project.Name,
						Path:             rel,
						OriginalFilePath: filepath.Join(dir, rel),
						UniqueID:         fmt.Sprintf("macro.%s.%s", l.cfg.Project.Name, m[1]),
					},
					MacroSQL:  m[0],
					Docs:      graph.DefaultDocs(),
					CreatedAt: time.Now().UTC(),
				}
				if err := manifest.AddMacro(macro); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

var docsRe = regexp.MustCompile(`(?s)\{%-?\s*docs\s+([a-zA-Z0-9_]+)\s*-?%\}(.*?)\{%-?\s*enddocs\s*-?%\}`)

func (l *Loader) loadDocs(manifest *graph.Manifest) error {
	for _, dir := range l.cfg.Project.DocsPaths {
		root := filepath.Join(l.cfg.Project.ProjectRoot, dir)
		err := walkSuffix(root, ".md", func(path string) error {
			contents, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			for _, m := range docsRe.FindAllStringSubmatch(string(contents), -1) {
				doc := &graph.Documentation{
					NodeIdentity: graph.NodeIdentity{
						Name:             m[1],
						ResourceType:     core.ResourceDoc,
						PackageName:      l.cfg.Project.Name,
						Path:             rel,
						OriginalFilePath: filepath.Join(dir, rel),
						UniqueID:         fmt.Sprintf("doc.%s.%s", l.cfg.Project.Name, m[1]),
					},
					BlockContents: strings.TrimSpace(m[2]),
				}
				if err := manifest.AddDoc(doc); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// parsedCommon assembles the fields shared by every file-backed node.
func (l *Loader) parsedCommon(resourceType core.ResourceType, name, rel, origPath string, fqn []string, checksum core.FileHash, unrendered map[string]any, rawCode string) graph.ParsedNodeCommon {
	schema, _ := l.cfg.Profile.Credentials.Fields["schema"].(string)
	database, _ := l.cfg.Profile.Credentials.Fields["database"].(string)
	return graph.ParsedNodeCommon{
		NodeIdentity: graph.NodeIdentity{
			Name:             name,
			ResourceType:     resourceType,
			PackageName:      l.cfg.Project.Name,
			Path:             rel,
			OriginalFilePath: origPath,
			UniqueID:         fmt.Sprintf("%s.%s.%s", resourceType, l.cfg.Project.Name, name),
		},
		RelationMeta:     graph.RelationMeta{Database: database, Schema: schema},
		FQN:              fqn,
		Alias:            name,
		Checksum:         checksum,
		Docs:             graph.DefaultDocs(),
		UnrenderedConfig: unrendered,
		CreatedAt:        time.Now().UTC(),
		RawCode:          rawCode,
	}
}

// buildFQN derives the fully-qualified name from the package, the
// subdirectories under the resource path, and the resource name.
func (l *Loader) buildFQN(rel, name string) []string {
	fqn := []string{l.cfg.Project.Name}
	if subdir := filepath.Dir(rel); subdir != "." {
		fqn = append(fqn, strings.Split(filepath.ToSlash(subdir), "/")...)
	}
	return append(fqn, name)
}

// treeConfigFor resolves the project config tree for a resource's fqn:
// "+"-prefixed keys apply at each level, deeper levels override
// shallower ones.
func (l *Loader) treeConfigFor(resourceType core.ResourceType, fqn []string) map[string]any {
	var tree map[string]any
	switch resourceType {
	case core.ResourceSeed:
		tree = l.cfg.Project.Seeds
	case core.ResourceSnapshot:
		tree = l.cfg.Project.Snapshots
	case core.ResourceTest:
		tree = l.cfg.Project.Tests
	default:
		tree = l.cfg.Project.Models
	}
	return resolveTree(tree, fqn)
}

func resolveTree(tree map[string]any, fqn []string) map[string]any {
	resolved := map[string]any{}
	level := tree
	for {
		for key, value := range level {
			if strings.HasPrefix(key, "+") {
				resolved[strings.TrimPrefix(key, "+")] = value
			} else if _, isMap := value.(map[string]any); !isMap {
				resolved[key] = value
			}
		}
		if len(fqn) == 0 {
			break
		}
		next, ok := level[fqn[0]].(map[string]any)
		fqn = fqn[1:]
		if !ok {
			break
		}
		level = next
	}
	return resolved
}

// mergeConfigs overlays resource-level config over the project tree
// config. The resource file always wins.
func mergeConfigs(tree, resource map[string]any) map[string]any {
	merged := make(map[string]any, len(tree)+len(resource))
	for key, value := range tree {
		merged[key] = value
	}
	for key, value := range resource {
		merged[key] = value
	}
	return merged
}

func enabledIn(unrendered map[string]any) bool {
	if value, ok := unrendered["enabled"]; ok {
		if enabled, ok := value.(bool); ok {
			return enabled
		}
	}
	return true
}

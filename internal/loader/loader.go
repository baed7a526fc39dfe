// Package loader discovers project files and assembles the manifest:
// SQL nodes with frontmatter configs, seeds, macros, docs blocks and
// property-file patches, then links dependency calls into graph edges.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sqlplan/internal/config"
	"github.com/leapstack-labs/sqlplan/internal/dag"
	"github.com/leapstack-labs/sqlplan/internal/events"
	"github.com/leapstack-labs/sqlplan/internal/graph"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// Loader parses one project's files into manifest resources.
type Loader struct {
	cfg  *config.RuntimeConfig
	sink events.Sink
}

// New returns a loader for one resolved project.
func New(cfg *config.RuntimeConfig, sink events.Sink) *Loader {
	return &Loader{cfg: cfg, sink: sink}
}

// DependencyNotFoundError reports a ref/source/metric call naming a
// resource that does not exist.
type DependencyNotFoundError struct {
	NodeID string
	Target string
	Kind   string
}

func (e *DependencyNotFoundError) Error() string {
	return fmt.Sprintf("%s depends on a %s named %q which was not found", e.NodeID, e.Kind, e.Target)
}

// LoadAll parses the root project and every dependency package into
// one manifest, then links and builds the DAG.
func LoadAll(cfg *config.RuntimeConfig, sink events.Sink) (*graph.Manifest, *dag.Graph, error) {
	deps, err := cfg.LoadDependencies(false)
	if err != nil {
		return nil, nil, err
	}

	manifest := graph.NewManifest()
	for _, depCfg := range deps {
		if err := New(depCfg, sink).LoadInto(manifest); err != nil {
			return nil, nil, err
		}
	}
	g, err := Link(manifest)
	if err != nil {
		return nil, nil, err
	}
	return manifest, g, nil
}

// Load parses this project alone and links the result.
func (l *Loader) Load() (*graph.Manifest, *dag.Graph, error) {
	manifest := graph.NewManifest()
	if err := l.LoadInto(manifest); err != nil {
		return nil, nil, err
	}
	g, err := Link(manifest)
	if err != nil {
		return nil, nil, err
	}
	return manifest, g, nil
}

// LoadInto parses this project's files into an existing manifest
// without linking, so several packages can share one manifest.
func (l *Loader) LoadInto(manifest *graph.Manifest) error {
	if err := l.loadSQLNodes(manifest, l.cfg.Project.ModelPaths, core.ResourceModel); err != nil {
		return err
	}
	if err := l.loadSQLNodes(manifest, l.cfg.Project.AnalysisPaths, core.ResourceAnalysis); err != nil {
		return err
	}
	if err := l.loadSQLNodes(manifest, l.cfg.Project.SnapshotPaths, core.ResourceSnapshot); err != nil {
		return err
	}
	if err := l.loadSQLNodes(manifest, l.cfg.Project.TestPaths, core.ResourceTest); err != nil {
		return err
	}
	if err := l.loadSeeds(manifest); err != nil {
		return err
	}
	if err := l.loadMacros(manifest); err != nil {
		return err
	}
	if err := l.loadDocs(manifest); err != nil {
		return err
	}
	if err := l.loadProperties(manifest); err != nil {
		return err
	}
	return nil
}

// Link resolves every captured dependency call into node edges and
// builds the DAG, failing on unknown targets and cycles.
func Link(manifest *graph.Manifest) (*dag.Graph, error) {
	idx := buildIndex(manifest)

	for _, node := range manifest.Nodes {
		if err := linkNode(node, idx); err != nil {
			return nil, err
		}
	}
	for _, exp := range manifest.Exposures {
		if err := linkDependsOn(exp.Ident().UniqueID, exp.Refs, exp.Sources, exp.Metrics, &exp.DependsOn, idx); err != nil {
			return nil, err
		}
	}
	for _, metric := range manifest.Metrics {
		if err := linkDependsOn(metric.Ident().UniqueID, metric.Refs, metric.Sources, metric.Metrics, &metric.DependsOn, idx); err != nil {
			return nil, err
		}
	}

	g := dag.NewGraph()
	for _, node := range manifest.Nodes {
		g.AddResource(node)
	}
	for _, src := range manifest.Sources {
		g.AddResource(src)
	}
	for _, exp := range manifest.Exposures {
		g.AddResource(exp)
	}
	for _, metric := range manifest.Metrics {
		g.AddResource(metric)
	}

	addEdges := func(dependentID string, dependencyIDs []string) error {
		for _, depID := range dependencyIDs {
			if err := g.AddEdge(depID, dependentID); err != nil {
				return err
			}
		}
		return nil
	}
	for id, node := range manifest.Nodes {
		if deps, ok := node.(interface{ DependsOnNodes() []string }); ok {
			if err := addEdges(id, deps.DependsOnNodes()); err != nil {
				return nil, err
			}
		}
	}
	for id, exp := range manifest.Exposures {
		if err := addEdges(id, exp.DependsOnNodes()); err != nil {
			return nil, err
		}
	}
	for id, metric := range manifest.Metrics {
		if err := addEdges(id, metric.DependsOnNodes()); err != nil {
			return nil, err
		}
	}

	if hasCycle, path := g.HasCycle(); hasCycle {
		return nil, &dag.CycleError{Path: path}
	}
	return g, nil
}

// index resolves dependency call targets to unique_ids.
type index struct {
	// refables maps package -> name -> unique_id for refable nodes.
	refables map[string]map[string]string
	// sources maps "source_name.table_name" -> unique_id.
	sources map[string]string
	// metrics maps metric name -> unique_id.
	metrics map[string]string
}

func buildIndex(manifest *graph.Manifest) *index {
	idx := &index{
		refables: map[string]map[string]string{},
		sources:  map[string]string{},
		metrics:  map[string]string{},
	}
	for id, node := range manifest.Nodes {
		ident := node.Ident()
		if !ident.ResourceType.Refable() {
			continue
		}
		pkg := idx.refables[ident.PackageName]
		if pkg == nil {
			pkg = map[string]string{}
			idx.refables[ident.PackageName] = pkg
		}
		pkg[ident.Name] = id
	}
	for id, src := range manifest.Sources {
		idx.sources[src.SearchName()] = id
	}
	for id, metric := range manifest.Metrics {
		idx.metrics[metric.Name] = id
	}
	return idx
}

func (idx *index) resolveRef(fromPackage string, ref []string) (string, bool) {
	if len(ref) == 2 {
		id, ok := idx.refables[ref[0]][ref[1]]
		return id, ok
	}
	if id, ok := idx.refables[fromPackage][ref[0]]; ok {
		return id, true
	}
	for _, pkg := range idx.refables {
		if id, ok := pkg[ref[0]]; ok {
			return id, true
		}
	}
	return "", false
}

func linkNode(node graph.Resource, idx *index) error {
	switch n := node.(type) {
	case *graph.ModelNode:
		return linkDependsOn(n.UniqueID, n.Refs, n.Sources, n.Metrics, &n.DependsOn, idx)
	case *graph.AnalysisNode:
		return linkDependsOn(n.UniqueID, n.Refs, n.Sources, n.Metrics, &n.DependsOn, idx)
	case *graph.SnapshotNode:
		return linkDependsOn(n.UniqueID, n.Refs, n.Sources, n.Metrics, &n.DependsOn, idx)
	case *graph.SingularTestNode:
		return linkDependsOn(n.UniqueID, n.Refs, n.Sources, n.Metrics, &n.DependsOn, idx)
	case *graph.GenericTestNode:
		return linkDependsOn(n.UniqueID, n.Refs, n.Sources, n.Metrics, &n.DependsOn, idx)
	case *graph.HookNode:
		return linkDependsOn(n.UniqueID, n.Refs, n.Sources, n.Metrics, &n.DependsOn, idx)
	case *graph.SQLNode:
		return linkDependsOn(n.UniqueID, n.Refs, n.Sources, n.Metrics, &n.DependsOn, idx)
	case *graph.SeedNode:
		// Seeds carry no node edges; hook violations were rejected at
		// parse time.
		return nil
	default:
		return nil
	}
}

func linkDependsOn(nodeID string, refs, sources, metrics [][]string, dependsOn *graph.DependsOn, idx *index) error {
	fromPackage := packageOf(nodeID)
	for _, ref := range refs {
		id, ok := idx.resolveRef(fromPackage, ref)
		if !ok {
			return &DependencyNotFoundError{NodeID: nodeID, Target: strings.Join(ref, "."), Kind: "node"}
		}
		dependsOn.AddNode(id)
	}
	for _, src := range sources {
		key := src[0] + "." + src[1]
		id, ok := idx.sources[key]
		if !ok {
			return &DependencyNotFoundError{NodeID: nodeID, Target: key, Kind: "source"}
		}
		dependsOn.AddNode(id)
	}
	for _, metric := range metrics {
		id, ok := idx.metrics[metric[0]]
		if !ok {
			return &DependencyNotFoundError{NodeID: nodeID, Target: metric[0], Kind: "metric"}
		}
		dependsOn.AddNode(id)
	}
	return nil
}

func packageOf(uniqueID string) string {
	parts := strings.Split(uniqueID, ".")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

// walkSuffix visits every file under root with the given suffix.
// Missing roots are skipped silently; projects rarely use every path
// kind.
func walkSuffix(root, suffix string, fn func(path string) error) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || !strings.HasSuffix(path, suffix) {
			return nil
		}
		return fn(path)
	})
}

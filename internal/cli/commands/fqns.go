package commands

import (
	"github.com/leapstack-labs/sqlplan/internal/graph"
	"github.com/leapstack-labs/sqlplan/pkg/core"
)

// configTreeKeys maps resource types to the project config tree they
// are configured under.
var configTreeKeys = map[core.ResourceType]string{
	core.ResourceModel:    "models",
	core.ResourceAnalysis: "analyses",
	core.ResourceSeed:     "seeds",
	core.ResourceSnapshot: "snapshots",
	core.ResourceTest:     "tests",
	core.ResourceSource:   "sources",
	core.ResourceMetric:   "metrics",
	core.ResourceExposure: "exposures",
}

// resourceFqnsByType groups the fqns of enabled resources by config
// tree key, the shape unused-config-path checking consumes.
func resourceFqnsByType(manifest *graph.Manifest) map[string][][]string {
	out := map[string][][]string{}
	add := func(res graph.Resource) {
		key, ok := configTreeKeys[res.Ident().ResourceType]
		if !ok {
			return
		}
		if fqn := fqnOf(res); fqn != nil {
			out[key] = append(out[key], fqn)
		}
	}
	for _, node := range manifest.Nodes {
		add(node)
	}
	for _, src := range manifest.Sources {
		add(src)
	}
	for _, exp := range manifest.Exposures {
		add(exp)
	}
	for _, metric := range manifest.Metrics {
		add(metric)
	}
	return out
}

// disabledFqns collects the fqns of every disabled resource; disabled
// resources still count as users of their config paths.
func disabledFqns(manifest *graph.Manifest) [][]string {
	var out [][]string
	for _, versions := range manifest.Disabled {
		for _, res := range versions {
			if fqn := fqnOf(res); fqn != nil {
				out = append(out, fqn)
			}
		}
	}
	return out
}

func fqnOf(res graph.Resource) []string {
	switch r := res.(type) {
	case *graph.ModelNode:
		return r.FQN
	case *graph.AnalysisNode:
		return r.FQN
	case *graph.HookNode:
		return r.FQN
	case *graph.SQLNode:
		return r.FQN
	case *graph.SingularTestNode:
		return r.FQN
	case *graph.GenericTestNode:
		return r.FQN
	case *graph.SnapshotNode:
		return r.FQN
	case *graph.SeedNode:
		return r.FQN
	case *graph.SourceDefinition:
		return r.FQN
	case *graph.Exposure:
		return r.FQN
	case *graph.Metric:
		return r.FQN
	default:
		return nil
	}
}

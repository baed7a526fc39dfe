package artifacts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v7Manifest(t *testing.T) map[string]any {
	t.Helper()
	raw := `{
		"metadata": {"dbt_schema_version": "https://schemas.getdbt.com/dbt/manifest/v7.json"},
		"nodes": {
			"model.analytics.orders": {
				"resource_type": "model",
				"unique_id": "model.analytics.orders",
				"raw_sql": "select 1",
				"compiled_sql": "select 1",
				"root_path": "/projects/analytics"
			},
			"seed.analytics.countries": {
				"resource_type": "seed",
				"unique_id": "seed.analytics.countries",
				"raw_sql": "",
				"root_path": "/projects/analytics",
				"refs": [], "sources": [], "metrics": [],
				"compiled": false, "compiled_path": null,
				"extra_ctes_injected": false, "extra_ctes": [],
				"relation_name": "warehouse.main.countries",
				"depends_on": {"macros": [], "nodes": ["model.analytics.orders"]}
			}
		},
		"disabled": {
			"model.analytics.retired": [{
				"resource_type": "model",
				"unique_id": "model.analytics.retired",
				"raw_sql": "select 2",
				"root_path": "/projects/analytics"
			}]
		},
		"metrics": {
			"metric.analytics.order_count": {
				"name": "order_count",
				"sql": "order_id",
				"type": "expression",
				"root_path": "/projects/analytics"
			}
		},
		"exposures": {"exposure.analytics.kpis": {"root_path": "/projects/analytics"}},
		"sources": {"source.analytics.shop.raw": {"root_path": "/projects/analytics"}},
		"macros": {"macro.analytics.helper": {"root_path": "/projects/analytics"}},
		"docs": {"doc.analytics.orders_doc": {"root_path": "/projects/analytics"}}
	}`
	var manifest map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &manifest))
	return manifest
}

func TestUpgradeManifest_RenamesSQLAttrs(t *testing.T) {
	upgraded, err := UpgradeManifest(v7Manifest(t))
	require.NoError(t, err)

	model := upgraded["nodes"].(map[string]any)["model.analytics.orders"].(map[string]any)
	assert.Equal(t, "select 1", model["raw_code"])
	assert.Equal(t, "select 1", model["compiled_code"])
	assert.NotContains(t, model, "raw_sql")
	assert.NotContains(t, model, "compiled_sql")
	assert.Equal(t, "sql", model["language"])
	assert.NotContains(t, model, "root_path")
}

func TestUpgradeManifest_StripsSeedCompilationAttrs(t *testing.T) {
	upgraded, err := UpgradeManifest(v7Manifest(t))
	require.NoError(t, err)

	seed := upgraded["nodes"].(map[string]any)["seed.analytics.countries"].(map[string]any)
	for _, attr := range []string{
		"language", "refs", "sources", "metrics", "compiled", "compiled_path",
		"compiled_code", "extra_ctes_injected", "extra_ctes", "relation_name",
	} {
		assert.NotContains(t, seed, attr, "seeds lose compilation attribute %q", attr)
	}
	dependsOn := seed["depends_on"].(map[string]any)
	assert.NotContains(t, dependsOn, "nodes", "seed depends_on narrows to macros")
	assert.Contains(t, dependsOn, "macros")
}

func TestUpgradeManifest_DisabledNodesUpgradeToo(t *testing.T) {
	upgraded, err := UpgradeManifest(v7Manifest(t))
	require.NoError(t, err)

	versions := upgraded["disabled"].(map[string]any)["model.analytics.retired"].([]any)
	disabled := versions[0].(map[string]any)
	assert.Equal(t, "select 2", disabled["raw_code"])
	assert.NotContains(t, disabled, "raw_sql")
	assert.NotContains(t, disabled, "root_path")
}

func TestUpgradeManifest_RenamesMetricAttrs(t *testing.T) {
	upgraded, err := UpgradeManifest(v7Manifest(t))
	require.NoError(t, err)

	metric := upgraded["metrics"].(map[string]any)["metric.analytics.order_count"].(map[string]any)
	assert.Equal(t, "order_id", metric["expression"])
	assert.NotContains(t, metric, "sql")
	assert.Equal(t, "derived", metric["calculation_method"],
		"the old \"expression\" method is renamed to \"derived\"")
	assert.NotContains(t, metric, "type")
	assert.NotContains(t, metric, "root_path")
}

func TestUpgradeManifest_MetricAttributeClash(t *testing.T) {
	manifest := v7Manifest(t)
	metric := manifest["metrics"].(map[string]any)["metric.analytics.order_count"].(map[string]any)
	metric["expression"] = "already here"

	_, err := UpgradeManifest(manifest)
	var dup *DuplicatedAttributeError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "order_count", dup.MetricName)
	assert.Equal(t, "sql", dup.Deprecated)
	assert.Equal(t, "expression", dup.Current)
}

func TestUpgradeManifest_RootPathRemovedEverywhere(t *testing.T) {
	upgraded, err := UpgradeManifest(v7Manifest(t))
	require.NoError(t, err)

	for _, section := range []string{"exposures", "sources", "macros", "docs"} {
		for id, entry := range upgraded[section].(map[string]any) {
			assert.NotContains(t, entry.(map[string]any), "root_path", "%s %s keeps root_path", section, id)
		}
	}
}

func TestUpgradeManifest_DocsGetResourceType(t *testing.T) {
	upgraded, err := UpgradeManifest(v7Manifest(t))
	require.NoError(t, err)

	doc := upgraded["docs"].(map[string]any)["doc.analytics.orders_doc"].(map[string]any)
	assert.Equal(t, "doc", doc["resource_type"])
}

func TestUpgradeManifest_Idempotent(t *testing.T) {
	once, err := UpgradeManifest(v7Manifest(t))
	require.NoError(t, err)
	onceJSON, err := json.Marshal(once)
	require.NoError(t, err)

	twice, err := UpgradeManifest(once)
	require.NoError(t, err)
	twiceJSON, err := json.Marshal(twice)
	require.NoError(t, err)

	assert.JSONEq(t, string(onceJSON), string(twiceJSON))
}

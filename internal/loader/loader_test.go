package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/sqlplan/internal/config"
	"github.com/leapstack-labs/sqlplan/internal/dag"
	"github.com/leapstack-labs/sqlplan/internal/events"
	"github.com/leapstack-labs/sqlplan/internal/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Adapter metadata for config resolution.
	_ "github.com/leapstack-labs/sqlplan/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlplan/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlplan/pkg/adapters/snowflake"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

// newFixtureProject writes a minimal analytics project and returns its
// root. Tests add model, seed and schema files before loading.
func newFixtureProject(t *testing.T, projectYAML string) string {
	t.Helper()
	root := t.TempDir()
	if projectYAML == "" {
		projectYAML = "name: analytics\nversion: \"1.0\"\nconfig-version: 2\nprofile: analytics\n"
	}
	writeFile(t, filepath.Join(root, config.ProjectFileName), projectYAML)
	return root
}

func fixtureConfig(t *testing.T, root string) *config.RuntimeConfig {
	t.Helper()
	project, err := config.LoadProject(root)
	require.NoError(t, err)
	profile := &config.Profile{
		ProfileName: "analytics",
		TargetName:  "dev",
		Threads:     config.DefaultThreads,
		Credentials: config.Credentials{
			Type: "postgres",
			Fields: map[string]any{
				"host":     "localhost",
				"database": "warehouse",
				"schema":   "main",
			},
		},
	}
	cfg, err := config.FromParts(project, profile, config.InvocationArgs{})
	require.NoError(t, err)
	return cfg
}

func fixtureLoader(t *testing.T, root string) *Loader {
	t.Helper()
	return New(fixtureConfig(t, root), events.Discard())
}

func TestLoader_Models(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "staging", "stg_orders.sql"), `/*---
materialized: table
tags: [daily]
---*/

select * from raw_orders`)
	writeFile(t, filepath.Join(root, "models", "orders.sql"),
		"select * from ref('stg_orders')")

	manifest, g, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	staging, ok := manifest.Nodes["model.analytics.stg_orders"].(*graph.ModelNode)
	require.True(t, ok)
	assert.Equal(t, []string{"analytics", "staging", "stg_orders"}, staging.FQN,
		"subdirectories appear in the fqn")
	assert.Equal(t, "table", staging.Config.Materialized)
	assert.Equal(t, []string{"daily"}, staging.Tags)
	assert.Equal(t, "select * from raw_orders", staging.RawCode,
		"the stored body excludes the config block")
	assert.Equal(t, "warehouse", staging.Database)
	assert.Equal(t, "main", staging.Schema)
	assert.Equal(t, "stg_orders", staging.Alias)

	orders, ok := manifest.Nodes["model.analytics.orders"].(*graph.ModelNode)
	require.True(t, ok)
	assert.Equal(t, []string{"model.analytics.stg_orders"}, orders.DependsOn.Nodes)

	assert.Contains(t, g.AffectedBy([]string{"model.analytics.stg_orders"}),
		"model.analytics.orders", "the dependency edge lands in the graph")
}

func TestLoader_TwoArgumentRef(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "stg_orders.sql"), "select 1")
	writeFile(t, filepath.Join(root, "models", "orders.sql"),
		"select * from ref('analytics', 'stg_orders')")

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	orders := manifest.Nodes["model.analytics.orders"].(*graph.ModelNode)
	assert.Equal(t, []string{"model.analytics.stg_orders"}, orders.DependsOn.Nodes)
}

func TestLoader_TreeConfig(t *testing.T) {
	root := newFixtureProject(t, `name: analytics
version: "1.0"
config-version: 2
profile: analytics
models:
  analytics:
    "+materialized": table
    staging:
      "+materialized": ephemeral
`)
	writeFile(t, filepath.Join(root, "models", "staging", "stg_orders.sql"), "select 1")
	writeFile(t, filepath.Join(root, "models", "orders.sql"), `/*---
materialized: view
---*/
select 1`)

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	staging := manifest.Nodes["model.analytics.stg_orders"].(*graph.ModelNode)
	assert.Equal(t, "ephemeral", staging.Config.Materialized,
		"the deepest matching tree level wins")

	orders := manifest.Nodes["model.analytics.orders"].(*graph.ModelNode)
	assert.Equal(t, "view", orders.Config.Materialized,
		"frontmatter beats the project tree")
}

func TestLoader_DisabledModel(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "retired.sql"), `/*---
enabled: false
---*/
select 1`)

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	assert.NotContains(t, manifest.Nodes, "model.analytics.retired")
	assert.Len(t, manifest.Disabled["model.analytics.retired"], 1)
}

func TestLoader_SingularTests(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "orders.sql"), "select 1")
	writeFile(t, filepath.Join(root, "tests", "assert_orders_positive.sql"),
		"select * from ref('orders') where amount < 0")

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	test, ok := manifest.Nodes["test.analytics.assert_orders_positive"].(*graph.SingularTestNode)
	require.True(t, ok)
	assert.Equal(t, []string{"model.analytics.orders"}, test.DependsOn.Nodes)
}

func TestLoader_Seeds(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "seeds", "countries.csv"), "code,name\nus,United States\n")

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	seed, ok := manifest.Nodes["seed.analytics.countries"].(*graph.SeedNode)
	require.True(t, ok)
	assert.Equal(t, "countries", seed.Alias)
	assert.Equal(t, []string{"analytics", "countries"}, seed.FQN)
	require.NotNil(t, seed.RootPath)
	assert.Equal(t, root, *seed.RootPath)
	assert.NotEmpty(t, seed.Checksum.Checksum)
}

func TestLoader_SeedHookWithRef(t *testing.T) {
	root := newFixtureProject(t, `name: analytics
version: "1.0"
config-version: 2
profile: analytics
seeds:
  analytics:
    "+post_hook": "insert into audit select * from ref('orders')"
`)
	writeFile(t, filepath.Join(root, "seeds", "countries.csv"), "code\nus\n")

	_, _, err := fixtureLoader(t, root).Load()
	var implicit *graph.ImplicitDependencyError
	require.ErrorAs(t, err, &implicit)
	assert.Equal(t, "seed.analytics.countries", implicit.UniqueID)
}

func TestLoader_Macros(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "macros", "helpers.sql"), `
{% macro cents_to_dollars(column) %}
    {{ column }} / 100
{% endmacro %}

{% macro limit_zero() %}
    limit 0
{% endmacro %}
`)

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	require.Len(t, manifest.Macros, 2)
	macro := manifest.Macros["macro.analytics.cents_to_dollars"]
	require.NotNil(t, macro)
	assert.Equal(t, "cents_to_dollars", macro.Name)
	assert.Contains(t, macro.MacroSQL, "{{ column }} / 100")
	assert.Contains(t, manifest.Macros, "macro.analytics.limit_zero")
}

func TestLoader_Docs(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "docs.md"), `
{% docs orders_doc %}
One row per completed order.
{% enddocs %}
`)

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	doc := manifest.Docs["doc.analytics.orders_doc"]
	require.NotNil(t, doc)
	assert.Equal(t, "One row per completed order.", doc.BlockContents)
}

func TestLoader_PropertiesPatches(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "orders.sql"), "select 1")
	writeFile(t, filepath.Join(root, "macros", "helpers.sql"),
		"{% macro limit_zero() %}limit 0{% endmacro %}")
	writeFile(t, filepath.Join(root, "models", "schema.yml"), `
version: 2
models:
  - name: orders
    description: One row per order.
    columns:
      - name: order_id
        description: Primary key.
macros:
  - name: limit_zero
    description: Appends a zero limit.
`)

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	orders := manifest.Nodes["model.analytics.orders"].(*graph.ModelNode)
	assert.Equal(t, "One row per order.", orders.Description)
	require.Contains(t, orders.Columns, "order_id")
	assert.Equal(t, "Primary key.", orders.Columns["order_id"].Description)
	require.NotNil(t, orders.PatchPath)
	assert.Equal(t, "analytics://"+filepath.Join("models", "schema.yml"), *orders.PatchPath)

	macro := manifest.Macros["macro.analytics.limit_zero"]
	assert.Equal(t, "Appends a zero limit.", macro.Description)
}

func TestLoader_Sources(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "schema.yml"), `
version: 2
sources:
  - name: shop
    description: The transactional database.
    database: raw
    loaded_at_field: _loaded_at
    tables:
      - name: raw_orders
      - name: raw_customers
        identifier: customers_v2
        loaded_at_field: _synced_at
`)

	manifest, _, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	orders := manifest.Sources["source.analytics.shop.raw_orders"]
	require.NotNil(t, orders)
	assert.Equal(t, "shop", orders.SourceName)
	assert.Equal(t, "shop", orders.Schema, "schema defaults to the source name")
	assert.Equal(t, "raw", orders.Database)
	assert.Equal(t, "raw_orders", orders.Identifier, "identifier defaults to the table name")
	require.NotNil(t, orders.LoadedAtField)
	assert.Equal(t, "_loaded_at", *orders.LoadedAtField)

	customers := manifest.Sources["source.analytics.shop.raw_customers"]
	require.NotNil(t, customers)
	assert.Equal(t, "customers_v2", customers.Identifier)
	require.NotNil(t, customers.LoadedAtField)
	assert.Equal(t, "_synced_at", *customers.LoadedAtField, "table settings override source settings")
}

func TestLoader_ExposuresAndMetrics(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "orders.sql"),
		"select * from source('shop', 'raw_orders')")
	writeFile(t, filepath.Join(root, "models", "schema.yml"), `
version: 2
sources:
  - name: shop
    tables:
      - name: raw_orders
exposures:
  - name: weekly_report
    type: dashboard
    owner:
      name: Data Team
    depends_on:
      - ref('orders')
      - source('shop', 'raw_orders')
metrics:
  - name: order_count
    label: Order count
    model: ref('orders')
    timestamp: ordered_at
    time_grains: [day, week]
`)

	manifest, g, err := fixtureLoader(t, root).Load()
	require.NoError(t, err)

	exposure := manifest.Exposures["exposure.analytics.weekly_report"]
	require.NotNil(t, exposure)
	assert.Equal(t, graph.ExposureType("dashboard"), exposure.Type)
	assert.ElementsMatch(t, []string{
		"model.analytics.orders",
		"source.analytics.shop.raw_orders",
	}, exposure.DependsOn.Nodes)

	metric := manifest.Metrics["metric.analytics.order_count"]
	require.NotNil(t, metric)
	assert.Equal(t, "count", metric.CalculationMethod, "the calculation method defaults to count")
	assert.Equal(t, []string{"model.analytics.orders"}, metric.DependsOn.Nodes)

	assert.Contains(t, g.AffectedBy([]string{"source.analytics.shop.raw_orders"}),
		"exposure.analytics.weekly_report")
}

func TestLoader_RefNotFound(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "orders.sql"), "select * from ref('missing')")

	_, _, err := fixtureLoader(t, root).Load()
	var notFound *DependencyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "model.analytics.orders", notFound.NodeID)
	assert.Equal(t, "missing", notFound.Target)
	assert.Equal(t, "node", notFound.Kind)
}

func TestLoader_SourceNotFound(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "orders.sql"),
		"select * from source('shop', 'raw_orders')")

	_, _, err := fixtureLoader(t, root).Load()
	var notFound *DependencyNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "shop.raw_orders", notFound.Target)
	assert.Equal(t, "source", notFound.Kind)
}

func TestLink_Cycle(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "a.sql"), "select * from ref('b')")
	writeFile(t, filepath.Join(root, "models", "b.sql"), "select * from ref('a')")

	_, _, err := fixtureLoader(t, root).Load()
	var cycle *dag.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Contains(t, cycle.Path, "model.analytics.a")
}

func TestLoadAll_MergesPackages(t *testing.T) {
	root := newFixtureProject(t, "")
	writeFile(t, filepath.Join(root, "models", "orders.sql"),
		"select * from ref('utils', 'calendar')")
	depRoot := filepath.Join(root, config.DefaultPackagesInstallPath, "utils")
	writeFile(t, filepath.Join(depRoot, config.ProjectFileName),
		"name: utils\nversion: \"1.0\"\nconfig-version: 2\nprofile: utils\n")
	writeFile(t, filepath.Join(depRoot, "models", "calendar.sql"), "select 1 as date_day")

	manifest, g, err := LoadAll(fixtureConfig(t, root), events.Discard())
	require.NoError(t, err)

	assert.Contains(t, manifest.Nodes, "model.utils.calendar")
	orders := manifest.Nodes["model.analytics.orders"].(*graph.ModelNode)
	assert.Equal(t, []string{"model.utils.calendar"}, orders.DependsOn.Nodes)
	assert.Contains(t, g.AffectedBy([]string{"model.utils.calendar"}), "model.analytics.orders")
}

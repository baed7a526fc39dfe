package config

import (
	"testing"

	"github.com/leapstack-labs/sqlplan/internal/events"
	"github.com/leapstack-labs/sqlplan/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRuntimeConfig(t *testing.T, mutate ...func(*Project)) *RuntimeConfig {
	t.Helper()
	root := t.TempDir()
	writeProject(t, root, "analytics")
	project := loadTestProject(t, root)
	for _, fn := range mutate {
		fn(project)
	}
	cfg, err := FromParts(project, testProfile("postgres"), InvocationArgs{})
	require.NoError(t, err)
	return cfg
}

func TestFromParts_QuotingDefaults(t *testing.T) {
	cfg := testRuntimeConfig(t)
	assert.Equal(t, core.QuotePolicy{Database: true, Schema: true, Identifier: true}, cfg.Quoting,
		"postgres quotes everything by default")
}

func TestFromParts_QuotingOverrides(t *testing.T) {
	cfg := testRuntimeConfig(t, func(p *Project) {
		p.Quoting = map[string]any{"schema": false, "identifier": false}
	})
	assert.Equal(t, core.QuotePolicy{Database: true, Schema: false, Identifier: false}, cfg.Quoting)
}

func TestFromParts_QuotingAliasCanonicalized(t *testing.T) {
	// postgres aliases dbname to database, so a dbname quoting entry
	// lands on the database component.
	cfg := testRuntimeConfig(t, func(p *Project) {
		p.Quoting = map[string]any{"dbname": false}
	})
	assert.False(t, cfg.Quoting.Database)
	assert.True(t, cfg.Quoting.Schema)
}

func TestFromParts_QuotingNonBooleanIgnored(t *testing.T) {
	cfg := testRuntimeConfig(t, func(p *Project) {
		p.Quoting = map[string]any{"schema": "nope"}
	})
	assert.True(t, cfg.Quoting.Schema, "non-boolean quoting entries are ignored")
}

func TestFromParts_SnowflakeDefaults(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")
	cfg, err := FromParts(loadTestProject(t, root), testProfile("snowflake"), InvocationArgs{})
	require.NoError(t, err)

	assert.Equal(t, core.QuotePolicy{}, cfg.Quoting, "snowflake quotes nothing by default")
}

func TestFromParts_UnknownAdapter(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")
	_, err := FromParts(loadTestProject(t, root), testProfile("oracle"), InvocationArgs{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `unknown adapter type "oracle"`)
}

func TestFromParts_ParsesCliVars(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")
	cfg, err := FromParts(loadTestProject(t, root), testProfile("postgres"),
		InvocationArgs{Vars: "{region: eu}"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"region": "eu"}, cfg.CliVars)
}

func TestValidate_QuotingKeys(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")
	project := loadTestProject(t, root)
	project.Quoting = map[string]any{"catalog": true}

	_, err := FromParts(project, testProfile("postgres"), InvocationArgs{})
	var contract *ConfigContractError
	require.ErrorAs(t, err, &contract)
	assert.Contains(t, contract.Error(), `unknown quoting component "catalog"`)

	// The column component is accepted even though relations have no
	// column part; source tables use it.
	project.Quoting = map[string]any{"column": true}
	_, err = FromParts(project, testProfile("postgres"), InvocationArgs{})
	assert.NoError(t, err)
}

func TestValidate_Threads(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")
	profile := testProfile("postgres")
	profile.Threads = 0

	_, err := FromParts(loadTestProject(t, root), profile, InvocationArgs{})
	var contract *ConfigContractError
	require.ErrorAs(t, err, &contract)
	assert.Contains(t, contract.Error(), "threads must be at least 1")
}

func TestGetMetadata(t *testing.T) {
	cfg := testRuntimeConfig(t)
	md := cfg.GetMetadata()

	assert.Len(t, md.ProjectID, 32, "the project id is a hex digest, not the name")
	assert.NotContains(t, md.ProjectID, "analytics")
	assert.Equal(t, "postgres", md.AdapterType)
	assert.Equal(t, md.ProjectID, cfg.GetMetadata().ProjectID, "the id is stable")
}

func TestMergedVars(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")
	project := loadTestProject(t, root)
	project.Vars = map[string]any{"region": "us", "retries": 3}

	cfg, err := FromParts(project, testProfile("postgres"), InvocationArgs{Vars: "{region: eu}"})
	require.NoError(t, err)

	merged, err := cfg.MergedVars()
	require.NoError(t, err)
	assert.Equal(t, "eu", merged["region"], "cli vars beat project vars")
	assert.Equal(t, 3, merged["retries"])
}

func TestSerialize(t *testing.T) {
	cfg := testRuntimeConfig(t)
	cfg.Profile.Credentials.Fields["password"] = "hunter2"

	flat := cfg.Serialize()
	assert.Equal(t, "analytics", flat["name"])
	assert.Equal(t, "analytics", flat["profile"])
	creds := flat["credentials"].(map[string]any)
	assert.Equal(t, "********", creds["password"], "serialized credentials are masked")
}

func TestGetResourceConfigPaths(t *testing.T) {
	cfg := testRuntimeConfig(t, func(p *Project) {
		p.Models = map[string]any{
			"analytics": map[string]any{
				"+materialized": "view",
				"staging": map[string]any{
					"+materialized": "view",
					"stg_orders":    map[string]any{"+enabled": true},
				},
			},
			"legacy_pkg": map[string]any{"+enabled": false},
		}
		p.Seeds = map[string]any{
			"analytics": map[string]any{"+quote_columns": true},
		}
	})

	paths := cfg.GetResourceConfigPaths()

	assert.Equal(t, [][]string{
		{"analytics"},
		{"analytics", "staging"},
		{"analytics", "staging", "stg_orders"},
		{"legacy_pkg"},
	}, paths["models"], "a path ends where a plus-prefixed key or scalar appears")
	assert.Equal(t, [][]string{{"analytics"}}, paths["seeds"])
	assert.Empty(t, paths["snapshots"])
}

func TestWarnForUnusedResourceConfigPaths(t *testing.T) {
	cfg := testRuntimeConfig(t, func(p *Project) {
		p.Models = map[string]any{
			"analytics": map[string]any{
				"staging": map[string]any{"+materialized": "view"},
				"retired": map[string]any{"+enabled": false},
			},
			"ghost_pkg": map[string]any{"+enabled": false},
		}
	})

	rec := &events.Recorder{}
	cfg.WarnForUnusedResourceConfigPaths(map[string][][]string{
		"models": {
			{"analytics", "staging", "stg_orders"},
		},
	}, [][]string{{"analytics", "retired", "old_model"}}, rec)

	require.Len(t, rec.Events, 1)
	unused, ok := rec.Events[0].(events.UnusedResourceConfigPath)
	require.True(t, ok)
	assert.Equal(t, []string{"models.ghost_pkg"}, unused.UnusedConfigPaths,
		"prefix-matched and disabled-matched paths are considered used")
}

func TestWarnForUnusedResourceConfigPaths_AllUsed(t *testing.T) {
	cfg := testRuntimeConfig(t, func(p *Project) {
		p.Models = map[string]any{
			"analytics": map[string]any{"+materialized": "view"},
		}
	})

	rec := &events.Recorder{}
	cfg.WarnForUnusedResourceConfigPaths(map[string][][]string{
		"models": {{"analytics", "orders"}},
	}, nil, rec)

	assert.Empty(t, rec.Events, "no event when every path matches")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

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

func writeProject(t *testing.T, root, name string) {
	t.Helper()
	writeFile(t, filepath.Join(root, ProjectFileName), "name: "+name+"\nversion: \"1.0\"\nconfig-version: 2\nprofile: "+name+"\n")
}

func testProfile(targetType string) *Profile {
	return &Profile{
		ProfileName: "analytics",
		TargetName:  "dev",
		Threads:     DefaultThreads,
		Credentials: Credentials{
			Type: targetType,
			Fields: map[string]any{
				"host":     "localhost",
				"database": "warehouse",
				"schema":   "main",
			},
		},
	}
}

func loadTestProject(t *testing.T, root string) *Project {
	t.Helper()
	project, err := LoadProject(root)
	require.NoError(t, err)
	return project
}

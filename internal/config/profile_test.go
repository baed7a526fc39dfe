package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProfiles = `
analytics:
  target: dev
  outputs:
    dev:
      type: postgres
      host: localhost
      dbname: warehouse
      schema: dev_main
      password: hunter2
      threads: 8
    prod:
      type: postgres
      host: db.internal
      dbname: warehouse
      schema: main
reporting:
  target: main
  outputs:
    main:
      type: duckdb
      path: reporting.duckdb
`

func writeProfiles(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ProfilesFileName), testProfiles)
	return dir
}

func TestLoadProfile(t *testing.T) {
	profile, err := LoadProfile(writeProfiles(t), "analytics", InvocationArgs{})
	require.NoError(t, err)

	assert.Equal(t, "analytics", profile.ProfileName)
	assert.Equal(t, "dev", profile.TargetName, "the profile's default target is selected")
	assert.Equal(t, 8, profile.Threads)
	assert.Equal(t, "postgres", profile.Credentials.Type)
	assert.Equal(t, "warehouse", profile.Credentials.Fields["database"],
		"dbname is canonicalized through the adapter aliases")
	assert.NotContains(t, profile.Credentials.Fields, "dbname")
	assert.NotContains(t, profile.Credentials.Fields, "type")
	assert.NotContains(t, profile.Credentials.Fields, "threads")
}

func TestLoadProfile_TargetOverride(t *testing.T) {
	profile, err := LoadProfile(writeProfiles(t), "analytics", InvocationArgs{Target: "prod"})
	require.NoError(t, err)

	assert.Equal(t, "prod", profile.TargetName)
	assert.Equal(t, DefaultThreads, profile.Threads, "targets without threads get the default")
}

func TestLoadProfile_ThreadsOverride(t *testing.T) {
	threads := 2
	profile, err := LoadProfile(writeProfiles(t), "analytics", InvocationArgs{Threads: &threads})
	require.NoError(t, err)

	assert.Equal(t, 2, profile.Threads, "invocation threads beat the target's setting")
}

func TestLoadProfile_DuckDBAlias(t *testing.T) {
	profile, err := LoadProfile(writeProfiles(t), "reporting", InvocationArgs{})
	require.NoError(t, err)

	assert.Equal(t, "duckdb", profile.Credentials.Type)
	assert.Equal(t, "reporting.duckdb", profile.Credentials.Fields["database"])
}

func TestLoadProfile_UnknownProfile(t *testing.T) {
	_, err := LoadProfile(writeProfiles(t), "missing", InvocationArgs{})
	var profErr *ProfileError
	require.ErrorAs(t, err, &profErr)
	assert.Contains(t, profErr.Error(), "defined profiles: [analytics reporting]",
		"the error lists available profiles sorted")
}

func TestLoadProfile_UnknownTarget(t *testing.T) {
	_, err := LoadProfile(writeProfiles(t), "analytics", InvocationArgs{Target: "staging"})
	var profErr *ProfileError
	require.ErrorAs(t, err, &profErr)
	assert.Contains(t, profErr.Error(), "defined targets: [dev prod]")
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := LoadProfile(t.TempDir(), "analytics", InvocationArgs{})
	var profErr *ProfileError
	require.ErrorAs(t, err, &profErr)
	assert.Contains(t, profErr.Error(), ProfilesFileName)
}

func TestCredentials_ConnectionInfo_MasksSecrets(t *testing.T) {
	creds := Credentials{Type: "postgres", Fields: map[string]any{
		"host":     "localhost",
		"password": "hunter2",
		"token":    "abc123",
	}}

	info := creds.ConnectionInfo()
	assert.Equal(t, "localhost", info["host"])
	assert.Equal(t, "********", info["password"])
	assert.Equal(t, "********", info["token"])
}

func TestCredentials_TranslateAliases_UnknownAdapter(t *testing.T) {
	creds := Credentials{Type: "not_registered"}
	src := map[string]any{"dbname": "x"}
	assert.Equal(t, src, creds.TranslateAliases(src), "unknown adapters pass the map through")
}

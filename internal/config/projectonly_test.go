package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectOnlyFromArgs(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")

	cfg, err := ProjectOnlyFromArgs(InvocationArgs{ProjectDir: root, Vars: "{region: eu}"})
	require.NoError(t, err)

	assert.Equal(t, "analytics", cfg.Project.Name)
	assert.Equal(t, map[string]any{"region": "eu"}, cfg.CliVars)
}

func TestProjectOnlyConfig_ProfileAccessorsFail(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "analytics")
	cfg, err := ProjectOnlyFromArgs(InvocationArgs{ProjectDir: root})
	require.NoError(t, err)

	_, err = cfg.Credentials()
	var disallowed *DisallowedAttributeError
	require.ErrorAs(t, err, &disallowed)
	assert.Equal(t, "credentials", disallowed.Attribute)

	_, err = cfg.Threads()
	require.ErrorAs(t, err, &disallowed)
	assert.Equal(t, "threads", disallowed.Attribute)

	_, err = cfg.TargetName()
	require.ErrorAs(t, err, &disallowed)
	assert.Equal(t, "target_name", disallowed.Attribute)
}

package cli

import (
	"os"
	"path/filepath"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/sqlplan/internal/config"
	"github.com/spf13/pflag"
)

// EnvPrefix selects the environment variables that feed invocation
// settings (SQLPLAN_TARGET, SQLPLAN_PROFILES_DIR, ...).
const EnvPrefix = "SQLPLAN_"

type argsSpec struct {
	ProjectDir  string `koanf:"project-dir"`
	ProfilesDir string `koanf:"profiles-dir"`
	Profile     string `koanf:"profile"`
	Target      string `koanf:"target"`
	Vars        string `koanf:"vars"`
	Threads     int    `koanf:"threads"`
	WarnError   bool   `koanf:"warn-error"`
	TargetPath  string `koanf:"target-path"`
	LogLevel    string `koanf:"log-level"`
}

// ResolveArgs layers invocation settings: defaults, then environment,
// then flags.
func ResolveArgs(flags *pflag.FlagSet) (config.InvocationArgs, string, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"project-dir": "",
		"threads":     0,
		"log-level":   "info",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return config.InvocationArgs{}, "", err
	}

	// Optional user-level defaults: ~/.sqlplan/config.yml.
	if home, err := os.UserHomeDir(); err == nil {
		userCfg := filepath.Join(home, ".sqlplan", "config.yml")
		if _, err := os.Stat(userCfg); err == nil {
			if err := k.Load(file.Provider(userCfg), kyaml.Parser()); err != nil {
				return config.InvocationArgs{}, "", err
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return config.InvocationArgs{}, "", err
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return config.InvocationArgs{}, "", err
	}

	var spec argsSpec
	if err := k.Unmarshal("", &spec); err != nil {
		return config.InvocationArgs{}, "", err
	}

	args := config.InvocationArgs{
		ProjectDir:        spec.ProjectDir,
		ProfilesDir:       spec.ProfilesDir,
		Profile:           spec.Profile,
		Target:            spec.Target,
		Vars:              spec.Vars,
		WarnErrorAsErrors: spec.WarnError,
		TargetPath:        spec.TargetPath,
	}
	if spec.Threads > 0 {
		threads := spec.Threads
		args.Threads = &threads
	}
	return args, spec.LogLevel, nil
}

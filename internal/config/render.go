package config

import (
	"fmt"
	"os"
	"regexp"
)

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// EnvVarMissingError reports a ${VAR} reference with no value in the
// environment.
type EnvVarMissingError struct {
	Name string
}

func (e *EnvVarMissingError) Error() string {
	return fmt.Sprintf("environment variable %s is referenced but not set", e.Name)
}

// expandEnvVars substitutes ${VAR} references and records every
// variable observed, so partial reparsing can invalidate on
// environment changes. A referenced but unset variable is an error.
func expandEnvVars(data []byte, observed map[string]string) ([]byte, error) {
	var missing *EnvVarMissingError
	expanded := envVarRe.ReplaceAllFunc(data, func(match []byte) []byte {
		name := string(envVarRe.FindSubmatch(match)[1])
		value, ok := os.LookupEnv(name)
		if !ok {
			if missing == nil {
				missing = &EnvVarMissingError{Name: name}
			}
			return match
		}
		observed[name] = value
		return []byte(value)
	})
	if missing != nil {
		return nil, missing
	}
	return expanded, nil
}

package artifacts

import (
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ToolVersion is stamped into artifact metadata. Overridden at build
// time via -ldflags.
var ToolVersion = "0.4.0"

// EnvVarPrefix selects the environment variables copied into artifact
// metadata for downstream tooling.
const EnvVarPrefix = "SQLPLAN_ENV_"

// Metadata is the common header of every artifact. The schema version
// key keeps the name used by the wider artifact ecosystem so existing
// consumers can dispatch on it.
type Metadata struct {
	SchemaVersion string            `json:"dbt_schema_version"`
	Version       string            `json:"dbt_version"`
	GeneratedAt   time.Time         `json:"generated_at"`
	InvocationID  string            `json:"invocation_id"`
	Env           map[string]string `json:"env"`
}

// NewMetadata builds the metadata header for a fresh artifact, minting
// a new invocation id.
func NewMetadata(schema SchemaVersion) Metadata {
	return Metadata{
		SchemaVersion: schema.String(),
		Version:       ToolVersion,
		GeneratedAt:   time.Now().UTC(),
		InvocationID:  uuid.NewString(),
		Env:           MetadataVars(),
	}
}

// MetadataVars collects the SQLPLAN_ENV_-prefixed environment
// variables, keyed without the prefix.
func MetadataVars() map[string]string {
	vars := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, EnvVarPrefix) {
			continue
		}
		vars[strings.TrimPrefix(key, EnvVarPrefix)] = value
	}
	return vars
}

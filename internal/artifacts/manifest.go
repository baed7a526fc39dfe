package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/sqlplan/internal/graph"
)

// ManifestSchemaVersion is the schema version the running tool writes.
const ManifestSchemaVersion = 8

// ManifestSchema identifies the current manifest schema.
var ManifestSchema = SchemaVersion{Name: "manifest", Version: ManifestSchemaVersion}

// ManifestFileName is the artifact file name inside the target
// directory.
const ManifestFileName = "manifest.json"

// ManifestArtifact is the on-disk form of a parsed project: the
// manifest maps plus an artifact metadata header.
type ManifestArtifact struct {
	Metadata Metadata
	Manifest graph.Manifest
}

// NewManifestArtifact wraps a manifest with fresh current-schema
// metadata.
func NewManifestArtifact(m *graph.Manifest) *ManifestArtifact {
	return &ManifestArtifact{Metadata: NewMetadata(ManifestSchema), Manifest: *m}
}

// MarshalJSON flattens the manifest maps and the metadata header into
// one object.
func (a *ManifestArtifact) MarshalJSON() ([]byte, error) {
	body, err := json.Marshal(&a.Manifest)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return nil, err
	}
	fields["metadata"] = meta
	return json.Marshal(fields)
}

// UnmarshalJSON decodes the metadata header and the manifest maps from
// one object. Callers are expected to have version-checked first; use
// ReadManifest for that.
func (a *ManifestArtifact) UnmarshalJSON(data []byte) error {
	var head struct {
		Metadata Metadata `json:"metadata"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	a.Metadata = head.Metadata
	return a.Manifest.UnmarshalJSON(data)
}

// WriteManifest serializes the artifact to path, creating parent
// directories as needed.
func WriteManifest(path string, a *ManifestArtifact) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("serializing manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest artifact, upgrading older schema
// versions in place. Versions newer than the current schema, or with
// no upgrade path, fail with IncompatibleSchemaError.
func ReadManifest(path string) (*ManifestArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	found, err := manifestSchemaVersion(raw)
	if err != nil {
		return nil, &IncompatibleSchemaError{Expected: ManifestSchema.String()}
	}

	switch {
	case found.Version == ManifestSchemaVersion:
		// Current schema, decode as-is.
	case found.Version < ManifestSchemaVersion:
		if raw, err = UpgradeManifest(raw); err != nil {
			return nil, err
		}
		if data, err = json.Marshal(raw); err != nil {
			return nil, fmt.Errorf("re-encoding upgraded manifest: %w", err)
		}
	default:
		foundStr := found.String()
		return nil, &IncompatibleSchemaError{Expected: ManifestSchema.String(), Found: &foundStr}
	}

	artifact := &ManifestArtifact{}
	if err := json.Unmarshal(data, artifact); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	return artifact, nil
}

func manifestSchemaVersion(raw map[string]any) (SchemaVersion, error) {
	meta, _ := raw["metadata"].(map[string]any)
	url, _ := meta["dbt_schema_version"].(string)
	if url == "" {
		return SchemaVersion{}, fmt.Errorf("manifest has no schema version")
	}
	return ParseSchemaVersion(url)
}

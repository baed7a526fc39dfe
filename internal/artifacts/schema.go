// Package artifacts reads and writes versioned build artifacts. Every
// artifact carries a schema identity URL in its metadata; readers
// check it before decoding and upgrade older manifests in place.
package artifacts

import (
	"fmt"
	"regexp"
	"strconv"
)

// BaseSchemasURL is the prefix of every schema identity URL.
const BaseSchemasURL = "https://schemas.getdbt.com/"

// SchemaVersion identifies an artifact schema by name and version.
type SchemaVersion struct {
	Name    string
	Version int
}

// Path is the schema location relative to BaseSchemasURL.
func (s SchemaVersion) Path() string {
	return fmt.Sprintf("dbt/%s/v%d.json", s.Name, s.Version)
}

// String renders the full identity URL written into artifact metadata.
func (s SchemaVersion) String() string {
	return BaseSchemasURL + s.Path()
}

var schemaVersionRe = regexp.MustCompile(`^https://schemas\.getdbt\.com/dbt/([^/]+)/v(\d+)\.json$`)

// ParseSchemaVersion decodes a schema identity URL.
func ParseSchemaVersion(url string) (SchemaVersion, error) {
	m := schemaVersionRe.FindStringSubmatch(url)
	if m == nil {
		return SchemaVersion{}, fmt.Errorf("malformed schema version %q", url)
	}
	version, err := strconv.Atoi(m[2])
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("malformed schema version %q: %w", url, err)
	}
	return SchemaVersion{Name: m[1], Version: version}, nil
}

// IncompatibleSchemaError reports an artifact whose schema version the
// running tool cannot read.
type IncompatibleSchemaError struct {
	Expected string
	Found    *string
}

func (e *IncompatibleSchemaError) Error() string {
	found := "nothing"
	if e.Found != nil {
		found = *e.Found
	}
	return fmt.Sprintf(
		"Expected a schema version of %q, received %s instead. Run the parse step against the current project to regenerate this artifact.",
		e.Expected, found,
	)
}

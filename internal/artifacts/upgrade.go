package artifacts

import "fmt"

// DuplicatedAttributeError reports a metric carrying both the
// deprecated and the renamed form of an attribute.
type DuplicatedAttributeError struct {
	MetricName string
	Deprecated string
	Current    string
}

func (e *DuplicatedAttributeError) Error() string {
	return fmt.Sprintf(
		"the metric %q contains both the deprecated property %q and the current property %q; remove the deprecated one",
		e.MetricName, e.Deprecated, e.Current,
	)
}

// UpgradeManifest rewrites a pre-v8 manifest dict into the current
// shape. The pass is idempotent: running it over an already-upgraded
// manifest changes nothing.
func UpgradeManifest(manifest map[string]any) (map[string]any, error) {
	for _, node := range mapValues(manifest["nodes"]) {
		upgradeNode(node)
	}
	if disabled, ok := manifest["disabled"].(map[string]any); ok {
		// Several disabled versions can share a unique_id.
		for _, versions := range disabled {
			list, ok := versions.([]any)
			if !ok {
				continue
			}
			for _, entry := range list {
				if node, ok := entry.(map[string]any); ok {
					upgradeNode(node)
				}
			}
		}
	}
	for _, metric := range mapValues(manifest["metrics"]) {
		if err := renameMetricAttrs(metric); err != nil {
			return nil, err
		}
		delete(metric, "root_path")
	}
	for _, exposure := range mapValues(manifest["exposures"]) {
		delete(exposure, "root_path")
	}
	for _, source := range mapValues(manifest["sources"]) {
		delete(source, "root_path")
	}
	for _, macro := range mapValues(manifest["macros"]) {
		delete(macro, "root_path")
	}
	for _, doc := range mapValues(manifest["docs"]) {
		delete(doc, "root_path")
		doc["resource_type"] = "doc"
	}
	return manifest, nil
}

func upgradeNode(node map[string]any) {
	renameSQLAttrs(node)
	isSeed := node["resource_type"] == "seed"
	if !isSeed {
		delete(node, "root_path")
		return
	}
	// Seeds lost their compilation attributes, and their depends_on
	// narrowed to macros only.
	for _, attr := range []string{
		"language", "refs", "sources", "metrics", "compiled_path",
		"compiled", "compiled_code", "extra_ctes_injected", "extra_ctes",
		"relation_name",
	} {
		delete(node, attr)
	}
	if dependsOn, ok := node["depends_on"].(map[string]any); ok {
		delete(dependsOn, "nodes")
	}
}

func renameSQLAttrs(node map[string]any) {
	if raw, ok := node["raw_sql"]; ok {
		node["raw_code"] = raw
		delete(node, "raw_sql")
	}
	if compiled, ok := node["compiled_sql"]; ok {
		node["compiled_code"] = compiled
		delete(node, "compiled_sql")
	}
	node["language"] = "sql"
}

func renameMetricAttrs(metric map[string]any) error {
	name, _ := metric["name"].(string)
	if sql, ok := metric["sql"]; ok {
		if _, clash := metric["expression"]; clash {
			return &DuplicatedAttributeError{MetricName: name, Deprecated: "sql", Current: "expression"}
		}
		metric["expression"] = sql
		delete(metric, "sql")
	}
	if typ, ok := metric["type"]; ok {
		if _, clash := metric["calculation_method"]; clash {
			return &DuplicatedAttributeError{MetricName: name, Deprecated: "type", Current: "calculation_method"}
		}
		metric["calculation_method"] = typ
		delete(metric, "type")
	}
	if metric["calculation_method"] == "expression" {
		metric["calculation_method"] = "derived"
	}
	return nil
}

func mapValues(v any) []map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(m))
	for _, entry := range m {
		if fields, ok := entry.(map[string]any); ok {
			out = append(out, fields)
		}
	}
	return out
}

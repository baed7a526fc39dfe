package loader

import "regexp"

// Dependency call patterns. Both quote styles are accepted; the
// two-argument ref form addresses another package.
var (
	refRe    = regexp.MustCompile(`\bref\(\s*['"]([^'"]+)['"]\s*(?:,\s*['"]([^'"]+)['"]\s*)?\)`)
	sourceRe = regexp.MustCompile(`\bsource\(\s*['"]([^'"]+)['"]\s*,\s*['"]([^'"]+)['"]\s*\)`)
	metricRe = regexp.MustCompile(`\bmetric\(\s*['"]([^'"]+)['"]\s*\)`)
)

// extractRefs collects ref() calls. One-argument calls yield
// single-element entries; two-argument calls yield [package, name].
func extractRefs(sql string) [][]string {
	var refs [][]string
	for _, m := range refRe.FindAllStringSubmatch(sql, -1) {
		if m[2] != "" {
			refs = append(refs, []string{m[1], m[2]})
		} else {
			refs = append(refs, []string{m[1]})
		}
	}
	return refs
}

// extractSources collects source() calls as [source_name, table_name].
func extractSources(sql string) [][]string {
	var sources [][]string
	for _, m := range sourceRe.FindAllStringSubmatch(sql, -1) {
		sources = append(sources, []string{m[1], m[2]})
	}
	return sources
}

// extractMetrics collects metric() calls as single-element entries.
func extractMetrics(sql string) [][]string {
	var metrics [][]string
	for _, m := range metricRe.FindAllStringSubmatch(sql, -1) {
		metrics = append(metrics, []string{m[1]})
	}
	return metrics
}

// callsDependencyFn reports whether a hook body invokes any of the
// dependency capture functions, which seeds are not allowed to do.
func callsDependencyFn(sql string) bool {
	return refRe.MatchString(sql) || sourceRe.MatchString(sql) || metricRe.MatchString(sql)
}

package loader

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// frontmatterRe matches a leading /*--- yaml ---*/ block.
var frontmatterRe = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/`)

// FrontmatterParseError reports an unparseable config block.
type FrontmatterParseError struct {
	File    string
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// extractFrontmatter splits a SQL file into its raw config map and the
// SQL body. Files without a frontmatter block get an empty map. The
// map is kept as written; it becomes the node's unrendered config.
func extractFrontmatter(file, content string) (map[string]any, string, error) {
	matches := frontmatterRe.FindStringSubmatch(content)
	if matches == nil {
		return map[string]any{}, content, nil
	}

	body := strings.TrimSpace(frontmatterRe.ReplaceAllString(content, ""))

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(matches[1]), &raw); err != nil {
		return nil, "", &FrontmatterParseError{File: file, Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, body, nil
}

// decodeConfig fills a typed config struct from a raw config map,
// leaving fields the map does not mention at their defaults. Hooks
// written as plain strings are widened to hook objects.
func decodeConfig(raw map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       hookDecodeHook,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// hookDecodeHook lets pre_hook/post_hook entries be written either as
// bare SQL strings or as {sql, transaction} mappings.
func hookDecodeHook(from, to reflect.Type, data any) (any, error) {
	if to.String() != "graph.Hook" {
		return data, nil
	}
	if sql, ok := data.(string); ok {
		return map[string]any{"sql": sql, "transaction": true}, nil
	}
	return data, nil
}

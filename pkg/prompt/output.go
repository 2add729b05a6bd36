package prompt

import (
	"bytes"
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Encode serialises submitted values.
func Encode(values map[string]any, format OutputFormat) ([]byte, error) {
	switch format {
	case "", OutputFormatJSON:
		return json.MarshalIndent(values, "", "  ")
	case OutputFormatYAML:
		return yaml.Marshal(values)
	case OutputFormatPretty:
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		for _, key := range keys {
			fmt.Fprintf(&buf, "%s: %s\n", key, display(values[key]))
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("prompt: unknown output format %q", format)
}

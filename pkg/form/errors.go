package form

import (
	"html"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/validator"
)

var (
	messagePolicyOnce sync.Once
	messagePolicy     *bluemonday.Policy
)

// ValidationError is returned by Submit when a registered field fails.
type ValidationError struct {
	Mapping ErrorMapping
	Result  validator.Result
}

// NewValidationError maps a failed result to display messages.
func NewValidationError(result validator.Result) *ValidationError {
	mapping := ErrorMapping{Fields: make(map[string][]string, len(result.Errors))}
	for id, issues := range result.Errors {
		if messages := cleanMessages(issues.Messages()); len(messages) > 0 {
			mapping.Fields[id] = messages
		}
	}
	return &ValidationError{Mapping: mapping, Result: result}
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Mapping.Fields))
	for id := range e.Mapping.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id+": "+strings.Join(e.Mapping.Fields[id], "; "))
	}
	return "form: validation failed: " + strings.Join(parts, ", ")
}

// Unwrap exposes the blocking issues.
func (e *ValidationError) Unwrap() error {
	return e.Result.Err()
}

// First returns the first message for id, the one a renderer shows inline.
func (e *ValidationError) First(id string) string {
	if messages := e.Mapping.Fields[id]; len(messages) > 0 {
		return messages[0]
	}
	return ""
}

// ErrorMapping splits messages into field-level and form-level buckets.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MergeFormErrors appends extras to existing form-level messages, trimming,
// sanitising and de-duplicating while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return cleanMessages(combined)
}

// MapErrorPayload attributes externally produced errors (a backend response,
// for example) to the form's fields. Keys may be field ids, dotted container
// paths or JSON pointers, optionally wrapped in body/data segments; anything
// that matches no field becomes a form-level message.
func MapErrorPayload(def model.FormDefinition, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		return mapping
	}
	paths := fieldPaths(def)

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := cleanMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		id, ok := resolvePath(key, paths)
		if !ok {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[id] = append(mapping.Fields[id], messages...)
	}
	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = cleanMessages(mapping.Form)
	return mapping
}

// fieldPaths indexes every field by id and by its dotted container path.
func fieldPaths(def model.FormDefinition) map[string]string {
	paths := make(map[string]string)
	prefixes := make(map[string]string)
	_ = def.Walk(func(field model.FieldDefinition, parent string) error {
		path := field.ID
		if prefix := prefixes[parent]; prefix != "" {
			path = prefix + "." + field.ID
		}
		prefixes[field.ID] = path
		paths[field.ID] = field.ID
		paths[path] = field.ID
		return nil
	})
	return paths
}

var wrapperSegments = map[string]struct{}{
	"body": {}, "request": {}, "payload": {}, "data": {}, "attributes": {},
}

func resolvePath(raw string, paths map[string]string) (string, bool) {
	key := strings.TrimSpace(raw)
	switch strings.ToLower(key) {
	case "", ".", "/", "#", "$", "form", "__all__", "non_field_errors":
		return "", false
	}
	if id, ok := paths[key]; ok {
		return id, true
	}

	segments := splitPath(key)
	for len(segments) > 0 {
		if _, wrapper := wrapperSegments[strings.ToLower(segments[0])]; !wrapper {
			break
		}
		segments = segments[1:]
	}
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		kept = append(kept, segment)
	}
	for end := len(kept); end > 0; end-- {
		if id, ok := paths[strings.Join(kept[:end], ".")]; ok {
			return id, true
		}
	}
	// Fall back to the deepest segment naming a field id.
	for i := len(kept) - 1; i >= 0; i-- {
		if id, ok := paths[kept[i]]; ok {
			return id, true
		}
	}
	return "", false
}

func splitPath(path string) []string {
	clean := strings.TrimLeft(path, "#/$.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '.' || r == '/' })
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

// cleanMessages strips markup, trims and de-duplicates messages in order.
func cleanMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	policy := sanitizer()
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		cleaned := strings.TrimSpace(html.UnescapeString(policy.Sanitize(message)))
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		out = append(out, cleaned)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func sanitizer() *bluemonday.Policy {
	messagePolicyOnce.Do(func() {
		messagePolicy = bluemonday.StrictPolicy()
	})
	return messagePolicy
}

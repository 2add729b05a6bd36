package validator

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	ruleTypeError = "typeError"
	ruleDefault   = "default"
)

var defaultMessages = map[string]string{
	"required":    "{path} is a required field",
	"length":      "{path} must be exactly {arg} characters",
	"min":         "{path} must be at least {arg}",
	"max":         "{path} must be at most {arg}",
	"matches":     `{path} must match the following: "{arg}"`,
	"email":       "{path} must be a valid email",
	"url":         "{path} must be a valid URL",
	"uuid":        "{path} must be a valid UUID",
	"positive":    "{path} must be a positive number",
	"negative":    "{path} must be a negative number",
	"integer":     "{path} must be an integer",
	"lessThan":    "{path} must be less than {arg}",
	"moreThan":    "{path} must be greater than {arg}",
	ruleTypeError: "{path} must be a `{type}` type",
	ruleDefault:   "{path} is invalid",
}

// DefaultMessage returns the message template used when a rule has no
// errorMessage override.
func DefaultMessage(rule string) string {
	if msg, ok := defaultMessages[rule]; ok {
		return msg
	}
	return defaultMessages[ruleDefault]
}

// FormatMessage interpolates {path}, {arg} and any {param} placeholders.
func FormatMessage(template, path string, params map[string]any) string {
	if !strings.Contains(template, "{") {
		return template
	}
	pairs := []string{"{path}", path}
	for key, value := range params {
		pairs = append(pairs, "{"+key+"}", formatValue(value))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func formatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(value)
}

// Package prompt fills a live form from the terminal. Fields are asked in
// declaration order; a field is only asked while it is visible, so answers
// that reveal or hide later fields shape the rest of the session.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formrules/pkg/form"
	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
)

// Filler drives a form through a prompt Driver.
type Filler struct {
	driver      Driver
	maxAttempts int
	errorPrefix string
}

// New constructs a Filler. The default driver uses survey on the terminal.
func New(options ...Option) *Filler {
	f := &Filler{
		maxAttempts: 3,
		errorPrefix: "✗ ",
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	if f.driver == nil {
		f.driver = NewSurveyDriver()
	}
	return f
}

// Fill asks every visible field and returns the submitted values. Passes
// repeat until no unasked field is visible, since a later answer can reveal
// an earlier field.
func (f *Filler) Fill(ctx context.Context, target *form.Form) (map[string]any, error) {
	if target == nil {
		return nil, fmt.Errorf("prompt: form is nil")
	}
	def := target.Definition()
	asked := make(map[string]bool)

	for {
		progressed := false
		err := def.Walk(func(field model.FieldDefinition, _ string) error {
			if field.IsContainer() || asked[field.ID] || !target.Visible(field.ID) {
				return nil
			}
			asked[field.ID] = true
			progressed = true
			return f.askField(ctx, target, field)
		})
		if err != nil {
			return nil, err
		}
		if !progressed {
			break
		}
	}

	values, err := target.Submit()
	if err != nil {
		var verr *form.ValidationError
		if errors.As(err, &verr) {
			ids := make([]string, 0, len(verr.Mapping.Fields))
			for id := range verr.Mapping.Fields {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				for _, msg := range verr.Mapping.Fields[id] {
					_ = f.driver.Info(ctx, f.errorPrefix+id+": "+msg)
				}
			}
		}
		return nil, err
	}
	return values, nil
}

func (f *Filler) askField(ctx context.Context, target *form.Form, field model.FieldDefinition) error {
	for attempt := 1; ; attempt++ {
		current, _ := target.Value(field.ID)
		answer, err := f.ask(ctx, field, current)
		if err != nil {
			return err
		}
		if err := target.SetValue(field.ID, answer); err != nil {
			return err
		}

		messages := target.FieldErrors(field.ID)
		if len(messages) == 0 {
			return nil
		}
		for _, msg := range messages {
			if err := f.driver.Info(ctx, f.errorPrefix+msg); err != nil {
				return err
			}
		}
		if f.maxAttempts > 0 && attempt >= f.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, field.ID)
		}
	}
}

func (f *Filler) ask(ctx context.Context, field model.FieldDefinition, current any) (any, error) {
	message := field.Label
	if message == "" {
		message = field.ID
	}
	options := choices(field)

	switch field.SchemaType() {
	case model.SchemaBoolean:
		def, _ := current.(bool)
		return f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def})
	case model.SchemaArray:
		if len(options) == 0 {
			text, err := f.driver.Input(ctx, InputConfig{Message: message, Help: "comma separated", Default: joinList(current)})
			if err != nil {
				return nil, err
			}
			return splitList(text), nil
		}
		picked, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  options,
			Defaults: selectedIndices(options, current),
		})
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(picked))
		for _, idx := range picked {
			out = append(out, options[idx])
		}
		return out, nil
	}

	if len(options) > 0 {
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      options,
			DefaultIndex: indexOf(options, display(current)),
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(options) {
			return nil, nil
		}
		return options[idx], nil
	}

	cfg := InputConfig{Message: message, Default: display(current)}
	if field.SchemaType() == model.SchemaNumber {
		cfg.Validator = func(text string) error {
			if strings.TrimSpace(text) == "" {
				return nil
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err != nil {
				return fmt.Errorf("%q is not a number", text)
			}
			return nil
		}
	}
	text, err := f.driver.Input(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return text, nil
}

// choices collects the oneOf options declared on the field's rules.
func choices(field model.FieldDefinition) []string {
	for _, rule := range field.Validation {
		for _, cond := range rule.Conditions {
			if cond.Name != string(predicate.OneOf) {
				continue
			}
			items, ok := cond.Arg.([]any)
			if !ok {
				continue
			}
			out := make([]string, 0, len(items))
			for _, item := range items {
				out = append(out, display(item))
			}
			return out
		}
	}
	return nil
}

func display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func joinList(value any) string {
	items, ok := value.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, display(item))
	}
	return strings.Join(parts, ", ")
}

func splitList(text string) []any {
	var out []any
	for _, part := range strings.Split(text, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func selectedIndices(options []string, current any) []int {
	items, ok := current.([]any)
	if !ok {
		return nil
	}
	values := make([]string, 0, len(items))
	for _, item := range items {
		values = append(values, display(item))
	}
	return indicesOf(options, values)
}

package prompt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrules/pkg/form"
	"github.com/goliatone/go-formrules/pkg/testsupport"
)

type stubDriver struct {
	inputs     []string
	selectIdx  []int
	confirm    []bool
	info       []string
	inputPos   int
	selectPos  int
	confirmPos int
	asked      []string
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.asked = append(s.asked, cfg.Message)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, cfg ConfirmConfig) (bool, error) {
	s.asked = append(s.asked, cfg.Message)
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.asked = append(s.asked, cfg.Message)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.asked = append(s.asked, cfg.Message)
	return nil, errors.New("no multi-select scripted")
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.info = append(s.info, msg)
	return nil
}

func signupForm(t *testing.T) *form.Form {
	t.Helper()
	return testsupport.Form(t, testsupport.SignupDefinition)
}

func TestFiller_AsksRevealedFields(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{
		selectIdx: []int{1},
		inputs:    []string{"A", "ACME"},
		confirm:   []bool{true},
	}
	values, err := New(WithDriver(driver)).Fill(context.Background(), signupForm(t))
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{"kind": "company", "company": "ACME", "newsletter": true}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Account kind", "Company", "Company", "Newsletter"}, driver.asked); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
	if len(driver.info) != 1 || !strings.HasPrefix(driver.info[0], "✗ ") {
		t.Fatalf("expected one validation message, got %v", driver.info)
	}
}

func TestFiller_SkipsHiddenFields(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{selectIdx: []int{0}, confirm: []bool{false}}
	values, err := New(WithDriver(driver)).Fill(context.Background(), signupForm(t))
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, ok := values["company"]; ok {
		t.Fatalf("hidden field must not be submitted: %v", values)
	}
	if diff := cmp.Diff([]string{"Account kind", "Newsletter"}, driver.asked); diff != "" {
		t.Fatalf("prompt order mismatch (-want +got):\n%s", diff)
	}
}

func TestFiller_TooManyAttempts(t *testing.T) {
	t.Parallel()

	driver := &stubDriver{selectIdx: []int{1}, inputs: []string{"A", "B"}}
	_, err := New(WithDriver(driver), WithMaxAttempts(2)).Fill(context.Background(), signupForm(t))
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	values := map[string]any{"b": 2.5, "a": "x"}
	pretty, err := Encode(values, OutputFormatPretty)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(pretty) != "a: x\nb: 2.5\n" {
		t.Fatalf("unexpected pretty output %q", pretty)
	}
	if _, err := Encode(values, "xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
	out, err := Encode(values, OutputFormatJSON)
	if err != nil || !strings.Contains(string(out), `"a": "x"`) {
		t.Fatalf("unexpected json %q (%v)", out, err)
	}
}

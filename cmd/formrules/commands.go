package main

import (
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/compiler"
	"github.com/goliatone/go-formrules/pkg/form"
	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/prompt"
)

var compileCmd = &cobra.Command{
	Use:   "compile <source>",
	Short: "Compile every form in a document and report skipped rules",
	Long: `compile registers every field of each form, visible or not, and reports
the rules the compiler had to skip.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

var visibleCmd = &cobra.Command{
	Use:   "visible <source>",
	Short: "Print the visibility of every field for a set of values",
	Args:  cobra.ExactArgs(1),
	RunE:  runVisible,
}

var validateCmd = &cobra.Command{
	Use:   "validate <source>",
	Short: "Validate a values file and print the submitted payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var fillCmd = &cobra.Command{
	Use:   "fill <source>",
	Short: "Fill a form interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runFill,
}

func runCompile(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	o, err := newOrchestrator()
	if err != nil {
		return err
	}
	req, err := request(args[0], nil)
	if err != nil {
		return err
	}
	defs, err := o.Definitions(ctx, req)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := cmd.OutOrStdout()
	total := 0
	for _, id := range ids {
		// Mounting catches definition errors such as a bad showIfExpr.
		f, err := form.New(defs[id], append(req.FormOptions, form.WithLogger(logger))...)
		if err != nil {
			return fmt.Errorf("form %q: %w", id, err)
		}
		visible := len(f.Registered())
		f.Close()

		composite := compiler.New(
			compiler.WithLogger(logger),
			compiler.WithScope(cfg.Scope),
		).BuildSchema(compiler.RegistryFor(defs[id]))
		warnings := composite.Warnings()

		fmt.Fprintf(out, "%s: %d fields compiled (%d visible at mount), %d warnings\n", id, len(composite.Fields()), visible, len(warnings))
		for _, w := range warnings {
			fmt.Fprintf(out, "  %s\n", w.String())
		}
		total += len(warnings)
	}
	if cfg.Strict && total > 0 {
		return fmt.Errorf("%d rule warnings (strict mode)", total)
	}
	return nil
}

func runVisible(cmd *cobra.Command, args []string) error {
	f, err := mountFromArgs(cmd, args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tSTATE\tREASON\tMISSING")
	err = f.Definition().Walk(func(field model.FieldDefinition, _ string) error {
		status, ok := f.Status(field.ID)
		if !ok {
			return nil
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", field.ID, status.State, status.Reason, status.Missing)
		return nil
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

func runValidate(cmd *cobra.Command, args []string) error {
	f, err := mountFromArgs(cmd, args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	result := f.Validate()
	for id, issues := range result.Warnings {
		for _, msg := range issues.Messages() {
			logger.Warn("soft rule failed", zap.String("field", id), zap.String("message", msg))
		}
	}

	values, err := f.Submit()
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		printErrors(cmd, verr.Mapping)
		return errors.New("validation failed")
	}
	if err != nil {
		return err
	}
	return writeValues(cmd, values)
}

func runFill(cmd *cobra.Command, args []string) error {
	f, err := mountFromArgs(cmd, args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	values, err := prompt.New().Fill(cmd.Context(), f)
	if errors.Is(err, prompt.ErrAborted) {
		return nil
	}
	if err != nil {
		return err
	}
	return writeValues(cmd, values)
}

func mountFromArgs(cmd *cobra.Command, arg string) (*form.Form, error) {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	values, err := readValues(valuesFile)
	if err != nil {
		return nil, err
	}
	o, err := newOrchestrator()
	if err != nil {
		return nil, err
	}
	req, err := request(arg, values)
	if err != nil {
		return nil, err
	}
	f, err := o.Mount(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, w := range f.Warnings() {
		logger.Debug("rule skipped", zap.String("warning", w.String()))
	}
	return f, nil
}

func printErrors(cmd *cobra.Command, mapping form.ErrorMapping) {
	ids := make([]string, 0, len(mapping.Fields))
	for id := range mapping.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := cmd.ErrOrStderr()
	for _, id := range ids {
		for _, msg := range mapping.Fields[id] {
			fmt.Fprintf(out, "%s: %s\n", id, msg)
		}
	}
	for _, msg := range mapping.Form {
		fmt.Fprintln(out, msg)
	}
}

func writeValues(cmd *cobra.Command, values map[string]any) error {
	data, err := prompt.Encode(values, prompt.OutputFormat(cfg.Output))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err = fmt.Fprintln(out)
	}
	return err
}

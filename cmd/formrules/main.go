package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formrules"
	"github.com/goliatone/go-formrules/internal/config"
	"github.com/goliatone/go-formrules/internal/logging"
	"github.com/goliatone/go-formrules/pkg/form"
	"github.com/goliatone/go-formrules/pkg/orchestrator"
	"github.com/goliatone/go-formrules/pkg/schema"
)

var (
	configFile string
	debug      bool
	formID     string
	format     string
	presetFile string
	valuesFile string
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "formrules",
	Short: "Evaluate conditional validation and visibility rules for form definitions",
	Long: `formrules loads a form definition (native JSON/YAML or an OpenAPI request
body), mounts it and reports what a live form would do: which fields are
visible for a set of values, which rules fail, and which rules were skipped
because their configuration is broken.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, debug)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ./formrules.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&formID, "form", "", "Form id when the document holds several")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Force a document format (formrules, openapi)")
	rootCmd.PersistentFlags().StringVar(&presetFile, "preset", "", "Preset overrides applied to the definition")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "Operation timeout")

	visibleCmd.Flags().StringVar(&valuesFile, "values", "", "JSON or YAML file with field values")
	validateCmd.Flags().StringVar(&valuesFile, "values", "", "JSON or YAML file with field values")

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(visibleCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(fillCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newOrchestrator() (*orchestrator.Orchestrator, error) {
	options := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithLoader(formrules.NewLoader(schema.WithHTTPFallback(cfg.HTTPTimeout))),
		orchestrator.WithParser(formrules.NewParser()),
	}
	if presetFile != "" {
		data, err := os.ReadFile(presetFile)
		if err != nil {
			return nil, fmt.Errorf("read preset: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithTransformer(preset))
	}
	return orchestrator.New(options...), nil
}

// request builds the orchestrator request for a source argument, applying the
// configured restore mode and scope.
func request(arg string, values map[string]any) (orchestrator.Request, error) {
	src, err := formrules.SourceFor(arg)
	if err != nil {
		return orchestrator.Request{}, err
	}
	req := orchestrator.Request{
		Source: src,
		Format: format,
		FormID: formID,
		Values: values,
	}
	mode, ok, err := cfg.Restore()
	if err != nil {
		return orchestrator.Request{}, err
	}
	if ok {
		req.FormOptions = append(req.FormOptions, form.WithRestoreMode(mode))
	}
	if cfg.Scope != "" {
		req.FormOptions = append(req.FormOptions, form.WithScope(cfg.Scope))
	}
	return req, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func readValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	doc, err := schema.NewDocument(schema.SourceFromFile(path), data)
	if err != nil {
		return nil, err
	}
	return doc.Generic()
}

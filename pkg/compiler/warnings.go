package compiler

import (
	"fmt"

	"go.uber.org/zap"
)

// WarningKind classifies configuration problems found while compiling.
type WarningKind string

const (
	WarnUnknownCondition  WarningKind = "unknown_condition"
	WarnInvalidArgument   WarningKind = "invalid_argument"
	WarnMissingDependency WarningKind = "missing_dependency"
	WarnDependencyCycle   WarningKind = "dependency_cycle"
	WarnMalformedRule     WarningKind = "malformed_rule"
)

// Warning is a non-fatal configuration problem. The affected rule or branch
// was skipped.
type Warning struct {
	Kind       WarningKind
	Field      string
	Condition  string
	Dependency string
	Reason     string
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnUnknownCondition:
		if w.Dependency != "" {
			return fmt.Sprintf("%s: unknown condition %q in when %q", w.Field, w.Condition, w.Dependency)
		}
		return fmt.Sprintf("%s: unknown condition %q", w.Field, w.Condition)
	case WarnInvalidArgument:
		if w.Dependency != "" {
			return fmt.Sprintf("%s: invalid argument for %q in when %q: %s", w.Field, w.Condition, w.Dependency, w.Reason)
		}
		return fmt.Sprintf("%s: invalid argument for %q: %s", w.Field, w.Condition, w.Reason)
	case WarnMissingDependency:
		return fmt.Sprintf("%s: when-clause references unregistered field %q", w.Field, w.Dependency)
	case WarnDependencyCycle:
		return fmt.Sprintf("%s: %s", w.Field, w.Reason)
	case WarnMalformedRule:
		return fmt.Sprintf("%s: malformed rule: %s", w.Field, w.Reason)
	}
	return fmt.Sprintf("%s: %s", w.Field, w.Reason)
}

// collector accumulates warnings for one compilation pass and mirrors them
// to the logger.
type collector struct {
	logger   *zap.Logger
	scope    string
	warnings []Warning
}

func (c *collector) add(w Warning) {
	c.warnings = append(c.warnings, w)
	c.logger.Warn("compiler: rule skipped",
		zap.String("kind", string(w.Kind)),
		zap.String("field", w.Field),
		zap.String("condition", w.Condition),
		zap.String("dependency", w.Dependency),
		zap.String("scope", c.scope),
		zap.String("reason", w.Reason),
	)
}

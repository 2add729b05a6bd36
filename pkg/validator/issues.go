package validator

import (
	"errors"
	"fmt"
	"strings"
)

// Issue is a single validation failure.
type Issue struct {
	Path    string
	Rule    string
	Message string
	// Soft issues are advisory and never block submission.
	Soft   bool
	Params map[string]any
}

// Issues is a collection of failures that implements error.
type Issues []Issue

// Error summarises the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	limit := len(iss)
	if limit > maxShown {
		limit = maxShown
	}
	for i := 0; i < limit; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(b, "%s at %s", iss[i].Rule, iss[i].Path)
	}
	if len(iss) > limit {
		fmt.Fprintf(b, "; ... (total %d)", len(iss))
	}
	return b.String()
}

// Blocking returns only the non-soft issues.
func (iss Issues) Blocking() Issues {
	var out Issues
	for _, issue := range iss {
		if !issue.Soft {
			out = append(out, issue)
		}
	}
	return out
}

// Soft returns only the advisory issues.
func (iss Issues) Soft() Issues {
	var out Issues
	for _, issue := range iss {
		if issue.Soft {
			out = append(out, issue)
		}
	}
	return out
}

// Messages lists the issue messages in order.
func (iss Issues) Messages() []string {
	if len(iss) == 0 {
		return nil
	}
	out := make([]string, 0, len(iss))
	for _, issue := range iss {
		out = append(out, issue.Message)
	}
	return out
}

// AsIssues extracts Issues from err.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// CycleError reports fields whose conditional dependencies form a cycle that
// was not whitelisted.
type CycleError struct {
	Fields []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("validator: cyclic dependency between fields %s", strings.Join(e.Fields, ", "))
}

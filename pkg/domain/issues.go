// Package domain holds shared domain primitives used across services and
// transport.
package domain

import (
	"fmt"
	"strings"
)

// Issue describes one field-level validation failure. Path addresses the
// offending request field (dot-separated for nested fields).
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError aggregates per-field issues. It is always recoverable by
// the caller and translates to a 400 response, never to a server fault.
type ValidationError struct {
	Issues []Issue
}

// NewValidationError builds a ValidationError from one or more issues.
func NewValidationError(issues ...Issue) *ValidationError {
	return &ValidationError{Issues: issues}
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Package openapi turns OpenAPI request bodies into form definitions. Each
// operation with a JSON object body becomes one form; property constraints
// (required, minLength, pattern, enum...) become validation rules and the
// x-validation, x-show-if, x-show-if-expr and x-restore-mode extensions carry
// the rule vocabulary verbatim. The kin-openapi backed parser lives under
// internal/openapi.
package openapi

// Package errors provides foundational, type-safe error primitives used across sitegen.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, filesystem, render, network, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation and exit codes
//
// The generator maps its failure taxonomy onto categories:
//
//	configuration (missing template)     -> CategoryConfig, fatal for the run
//	file read/write/copy                 -> CategoryFileSystem
//	markdown converter / highlighter     -> CategoryRender
//	dataURL / favicon fetch              -> CategoryNetwork
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryNetwork, "fetch failed").
//		WithContext("url", target).
//		WithCause(originalErr).
//		Build()
package errors

// Copyright (c) 2026, The Monover Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeMalformedVersion indicates version text that does not match the
	// version grammar. Fatal to the single operation that supplied it.
	ErrCodeMalformedVersion ErrorCode = "MALFORMED_VERSION"
	// ErrCodeInvalidBumpSpec indicates a bump specifier that is syntactically
	// or semantically invalid (e.g. incrementing the local segment).
	ErrCodeInvalidBumpSpec ErrorCode = "INVALID_BUMP_SPEC"
	// ErrCodeNoVersionTags indicates no version tag matched a project.
	// Recoverable: callers treat it as "project not versioned yet".
	ErrCodeNoVersionTags ErrorCode = "NO_VERSION_TAGS"
	// ErrCodeBackwardsVersion indicates an absolute version ordering before
	// the current one. Fatal unless the caller explicitly forces it.
	ErrCodeBackwardsVersion ErrorCode = "BACKWARDS_VERSION"
	// ErrCodeNonMonotonicBump indicates a plan where one or more projects
	// would move backwards in time. Fatal unless forced.
	ErrCodeNonMonotonicBump ErrorCode = "NON_MONOTONIC_BUMP"
	// ErrCodeGit indicates a failure in the underlying repository backend.
	ErrCodeGit ErrorCode = "GIT"
	// ErrCodeConfig indicates malformed or inconsistent configuration.
	ErrCodeConfig ErrorCode = "CONFIG"
	// ErrCodeEngrave indicates a failure while engraving version strings
	// into files.
	ErrCodeEngrave ErrorCode = "ENGRAVE"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError provides structured error information for better observability.
// It includes an error code for programmatic handling, a human-readable message,
// the underlying cause, and optional context for debugging.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new StructuredError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the ErrorCode carried by err or any error it wraps.
// Returns ErrCodeInternal when err carries no code.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err or any error it wraps carries the given code.
func HasCode(err error, code ErrorCode) bool {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// Copyright 2025 Poiesic Systems
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


package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrValidation is the root of every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrProvider is the root of every ProviderError.
	ErrProvider = errors.New("provider call failed")

	// ErrEmptyDocument indicates the document has no text after cleaning.
	ErrEmptyDocument = errors.New("document is empty")

	// ErrInvalidEncoding indicates the document is not valid UTF-8.
	ErrInvalidEncoding = errors.New("document is not valid UTF-8")

	// ErrNoStructure indicates no part could be found anywhere in the document.
	ErrNoStructure = errors.New("no structural units found")

	// ErrInvalidChunk indicates a DocumentChunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyChunkID indicates the chunk ID is empty.
	ErrEmptyChunkID = errors.New("chunk id cannot be empty")

	// ErrEmptyContent indicates the chunk text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrDuplicateChunkID indicates two chunks in one run share an ID.
	ErrDuplicateChunkID = errors.New("duplicate chunk id")
)

// ValidationError reports malformed input. It aborts an ingestion run
// before any batch is sent.
type ValidationError struct {
	Err error
}

// NewValidationError wraps err as a ValidationError.
func NewValidationError(err error) *ValidationError {
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Err)
}

// Unwrap exposes both ErrValidation and the underlying cause to errors.Is.
func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Err}
}

// ProviderError reports a failed call to an external collaborator
// (embedding model, vector index, or generator).
type ProviderError struct {
	Op  string // e.g. "embed", "upsert", "query", "generate"
	Err error
}

// NewProviderError wraps err as a ProviderError for the named operation.
func NewProviderError(op string, err error) *ProviderError {
	return &ProviderError{Op: op, Err: err}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrProvider, e.Op, e.Err)
}

// Unwrap exposes both ErrProvider and the underlying cause to errors.Is.
func (e *ProviderError) Unwrap() []error {
	return []error{ErrProvider, e.Err}
}

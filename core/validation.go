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
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidateDocumentText checks raw document text before segmentation.
//
// Validation rules:
//   - Text must be valid UTF-8
//   - Text must contain something other than whitespace
func ValidateDocumentText(text string) error {
	if !utf8.ValidString(text) {
		return NewValidationError(ErrInvalidEncoding)
	}
	if strings.TrimSpace(text) == "" {
		return NewValidationError(ErrEmptyDocument)
	}
	return nil
}

// ValidateChunk validates a DocumentChunk according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Text must not be blank
//
// NOT validated (populated by the ingestion pipeline):
//   - Embedding (nil until embedded)
func ValidateChunk(chunk *DocumentChunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkID)
	}

	if strings.TrimSpace(chunk.Text) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidChunk, chunk.ID, ErrEmptyContent)
	}

	return nil
}

// ValidateChunks validates every chunk and checks that IDs are unique
// within the run. Any failure is returned as a ValidationError.
func ValidateChunks(chunks []*DocumentChunk) error {
	seen := make(map[string]struct{}, len(chunks))
	for _, chunk := range chunks {
		if err := ValidateChunk(chunk); err != nil {
			return NewValidationError(err)
		}
		if _, dup := seen[chunk.ID]; dup {
			return NewValidationError(fmt.Errorf("%w: %s", ErrDuplicateChunkID, chunk.ID))
		}
		seen[chunk.ID] = struct{}{}
	}
	return nil
}

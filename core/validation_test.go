package core

import (
	"errors"
	"testing"
)

func TestValidateDocumentText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "valid text",
			text:    "PART I\nSection 1 - Definitions",
			wantErr: nil,
		},
		{
			name:    "blank text",
			text:    "  \n\t ",
			wantErr: ErrEmptyDocument,
		},
		{
			name:    "invalid utf8",
			text:    "PART I \xff\xfe",
			wantErr: ErrInvalidEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentText(tt.text)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDocumentText() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDocumentText() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ValidateDocumentText() error = %v, want ValidationError", err)
			}
		})
	}
}

func TestValidateChunk(t *testing.T) {
	tests := []struct {
		name    string
		chunk   *DocumentChunk
		wantErr error
	}{
		{
			name:    "valid chunk",
			chunk:   &DocumentChunk{ID: "part-i-section-1", Text: "The board shall..."},
			wantErr: nil,
		},
		{
			name:    "valid chunk without embedding",
			chunk:   &DocumentChunk{ID: "part-i-section-1", Text: "text", Embedding: nil},
			wantErr: nil,
		},
		{
			name:    "nil chunk",
			chunk:   nil,
			wantErr: ErrInvalidChunk,
		},
		{
			name:    "empty id",
			chunk:   &DocumentChunk{Text: "text"},
			wantErr: ErrEmptyChunkID,
		},
		{
			name:    "blank text",
			chunk:   &DocumentChunk{ID: "x", Text: "   "},
			wantErr: ErrEmptyContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChunk(tt.chunk)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateChunk() unexpected error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateChunk() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateChunks_Duplicate(t *testing.T) {
	chunks := []*DocumentChunk{
		{ID: "a", Text: "one"},
		{ID: "b", Text: "two"},
		{ID: "a", Text: "three"},
	}

	err := ValidateChunks(chunks)
	if !errors.Is(err, ErrDuplicateChunkID) {
		t.Fatalf("ValidateChunks() error = %v, want %v", err, ErrDuplicateChunkID)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("ValidateChunks() error = %T, want *ValidationError", err)
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderError("upsert", cause)

	if !errors.Is(err, ErrProvider) {
		t.Errorf("expected ErrProvider in chain")
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause in chain")
	}
	if errors.Is(err, ErrValidation) {
		t.Errorf("provider error must not match ErrValidation")
	}
}

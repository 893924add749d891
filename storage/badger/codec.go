package badger

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/lexrag/storage"
)

// storedRecord is the on-disk form of a vector record.
// The vector is stored normalized.
type storedRecord struct {
	Vector  []float32      `json:"v"`
	Payload map[string]any `json:"p,omitempty"`
}

func marshalRecord(vector []float32, payload map[string]any) ([]byte, error) {
	data, err := json.Marshal(storedRecord{Vector: vector, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return data, nil
}

func unmarshalRecord(data []byte) (*storedRecord, error) {
	var rec storedRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	for key, value := range rec.Payload {
		rec.Payload[key] = restoreValue(value)
	}
	return &rec, nil
}

// restoreValue turns decoded JSON arrays back into []string.
// Sanitized payloads hold no other array type.
func restoreValue(value any) any {
	items, ok := value.([]any)
	if !ok {
		return value
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		} else {
			out = append(out, fmt.Sprint(item))
		}
	}
	return out
}

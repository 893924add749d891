package qdrant

import (
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
)

// toValueMap converts a sanitized payload into Qdrant values.
// The client only accepts []any for lists, so string slices are widened first.
func toValueMap(payload map[string]any) (map[string]*qdrant.Value, error) {
	widened := make(map[string]any, len(payload))
	for key, value := range payload {
		switch v := value.(type) {
		case []string:
			items := make([]any, len(v))
			for i, s := range v {
				items[i] = s
			}
			widened[key] = items
		case int8:
			widened[key] = int64(v)
		case int16:
			widened[key] = int64(v)
		case uint8:
			widened[key] = int64(v)
		case uint16:
			widened[key] = int64(v)
		default:
			widened[key] = value
		}
	}
	values, err := qdrant.TryValueMap(widened)
	if err != nil {
		return nil, fmt.Errorf("convert payload: %w", err)
	}
	return values, nil
}

// fromValueMap converts Qdrant values back into plain Go values.
// Lists of strings come back as []string.
func fromValueMap(values map[string]*qdrant.Value) map[string]any {
	payload := make(map[string]any, len(values))
	for key, value := range values {
		if v := fromValue(value); v != nil {
			payload[key] = v
		}
	}
	return payload
}

func fromValue(value *qdrant.Value) any {
	switch kind := value.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return fromValueMap(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		items := kind.ListValue.GetValues()
		strs := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.GetKind().(*qdrant.Value_StringValue)
			if !ok {
				return fromList(items)
			}
			strs = append(strs, s.StringValue)
		}
		return strs
	default:
		return nil
	}
}

func fromList(items []*qdrant.Value) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, fromValue(item))
	}
	return out
}

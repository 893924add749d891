package core

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Payload keys shared by every vector index implementation.
const (
	PayloadChunkID      = "chunk_id"
	PayloadText         = "text"
	PayloadPart         = "part"
	PayloadPartTitle    = "partTitle"
	PayloadSection      = "section"
	PayloadSectionTitle = "sectionTitle"
	PayloadSubsection   = "subsection"
	PayloadPageNumber   = "pageNumber"
	PayloadChunkType    = "chunkType"
	PayloadType         = "type"
	PayloadRelated      = "relatedSections"
	PayloadDefinitions  = "definitions"
	PayloadAmendments   = "amendments"
	PayloadTopics       = "topics"
	PayloadIsAmendment  = "isAmendment"
	PayloadNotes        = "notes"
	PayloadDate         = "date"
)

// RawMetadata renders a chunk as an unsanitized metadata map.
// Optional values that are unset are left as nil, and nested values keep their
// structure. Pass the result through SanitizeMetadata before handing it to an index.
func RawMetadata(chunk *DocumentChunk) map[string]any {
	m := chunk.Metadata
	raw := map[string]any{
		PayloadChunkID:      chunk.ID,
		PayloadText:         chunk.Text,
		PayloadPart:         m.Part,
		PayloadPartTitle:    m.PartTitle,
		PayloadSection:      m.Section,
		PayloadSectionTitle: m.SectionTitle,
		PayloadSubsection:   nil,
		PayloadPageNumber:   m.PageNumber,
		PayloadChunkType:    string(m.ChunkType),
		PayloadType:         string(m.Type),
		PayloadRelated:      m.RelatedSections,
		PayloadDefinitions:  m.Definitions,
		PayloadAmendments:   m.Amendments,
		PayloadTopics:       m.Topics,
		PayloadIsAmendment:  m.IsAmendment,
		PayloadNotes:        m.Notes,
		PayloadDate:         nil,
	}
	if m.Subsection != "" {
		raw[PayloadSubsection] = m.Subsection
	}
	if m.Date != "" {
		raw[PayloadDate] = m.Date
	}
	return raw
}

// Payload returns the sanitized, index-ready metadata for a chunk.
func Payload(chunk *DocumentChunk) map[string]any {
	return SanitizeMetadata(RawMetadata(chunk))
}

// SanitizeMetadata flattens a metadata map so that it holds only strings,
// numbers, booleans, and string slices.
//
// Rules:
//   - nil values and empty objects are dropped
//   - non-array objects (maps, structs) are serialized to JSON strings
//   - arrays become arrays of strings, with object elements serialized to JSON
//   - string, number, and boolean scalars pass through unchanged
func SanitizeMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		if clean, ok := sanitizeValue(value); ok {
			out[key] = clean
		}
	}
	return out
}

// sanitizeValue converts a single metadata value. The boolean result is false
// when the value should be dropped.
func sanitizeValue(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, true
	case []string:
		return append([]string{}, v...), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		return sanitizeValue(rv.Elem().Interface())
	case reflect.Map:
		if rv.IsNil() || rv.Len() == 0 {
			return nil, false
		}
		return encodeObject(value)
	case reflect.Struct:
		return encodeObject(value)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []string{}, true
		}
		items := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := stringifyElement(rv.Index(i).Interface()); ok {
				items = append(items, s)
			}
		}
		return items, true
	default:
		// Scalars with named types (e.g. ContentType) fall through to here
		switch rv.Kind() {
		case reflect.String:
			return rv.String(), true
		case reflect.Bool:
			return rv.Bool(), true
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return rv.Int(), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return rv.Uint(), true
		case reflect.Float32, reflect.Float64:
			return rv.Float(), true
		}
		return fmt.Sprint(value), true
	}
}

// encodeObject serializes an object to JSON, dropping it when it encodes as {}.
func encodeObject(value any) (any, bool) {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value), true
	}
	if string(data) == "{}" || string(data) == "null" {
		return nil, false
	}
	return string(data), true
}

// stringifyElement converts an array element to its string form.
func stringifyElement(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
		return stringifyElement(rv.Elem().Interface())
	case reflect.String:
		return rv.String(), true
	case reflect.Map, reflect.Struct, reflect.Slice, reflect.Array:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value), true
		}
		return string(data), true
	default:
		return fmt.Sprint(value), true
	}
}

// ResultFromPayload rebuilds a SearchResult from stored index metadata.
// The score is clamped to [0,1].
func ResultFromPayload(score float32, payload map[string]any) SearchResult {
	title := payloadString(payload, PayloadSectionTitle)
	if title == "" {
		title = payloadString(payload, PayloadPartTitle)
	}
	return SearchResult{
		ID:    payloadString(payload, PayloadChunkID),
		Text:  payloadString(payload, PayloadText),
		Score: ClampScore(score),
		Citation: Citation{
			Part:       payloadString(payload, PayloadPart),
			Section:    payloadString(payload, PayloadSection),
			Subsection: payloadString(payload, PayloadSubsection),
			Title:      title,
		},
		Type: ContentType(payloadString(payload, PayloadType)),
		Page: payloadInt(payload, PayloadPageNumber),
	}
}

func payloadString(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func payloadInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	}
	return 0
}

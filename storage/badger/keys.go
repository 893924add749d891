package badger

// Key prefixes
const (
	vectorRecordPrefix = "vecrec:"
	indexMetaPrefix    = "vecmeta:"
	dimensionKey       = indexMetaPrefix + "dim"
)

// makeRecordKey generates a key for a vector record by chunk ID.
// Format: prefix:chunkID
func makeRecordKey(id string) []byte {
	return []byte(vectorRecordPrefix + id)
}

// recordIDFromKey strips the record prefix from a key.
func recordIDFromKey(key []byte) string {
	return string(key[len(vectorRecordPrefix):])
}

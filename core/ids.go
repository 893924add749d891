package core

import (
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// ChunkID builds a deterministic chunk identifier from a structural path.
// Each element is slugified and empty elements are skipped, so
// ChunkID("PART I", "section", "12", "sub", "(1)(a)") yields
// "part-i-section-12-sub-1-a".
func ChunkID(path ...string) string {
	parts := make([]string, 0, len(path))
	for _, p := range path {
		if s := slugify(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}

// PointID maps a chunk identifier onto a UUID using BLAKE2b.
// Vector stores that only accept UUID or integer keys use it as the primary key,
// while the chunk identifier itself travels in the payload.
func PointID(chunkID string) string {
	h, _ := blake2b.New(16, nil) // 16 bytes = 128 bits
	h.Write([]byte(chunkID))
	sum := h.Sum(nil)

	// Mark as an RFC 9562 version 8 (custom) UUID
	sum[6] = (sum[6] & 0x0f) | 0x80
	sum[8] = (sum[8] & 0x3f) | 0x80

	id, err := uuid.FromBytes(sum)
	if err != nil {
		// FromBytes only fails on length, which is fixed above
		panic(err)
	}
	return id.String()
}

// slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen.
func slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

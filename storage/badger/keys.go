package badger

import (
	"encoding/binary"
	"time"

	"github.com/poiesic/careersearch/core"
)

// Key prefixes for different data types
const (
	institutePrefix       = "inst:"
	instituteSlugPrefix   = "instslug:"
	suggestionPrefix      = "sugg:"
	suggestionPIDPrefix   = "suggpid:"
	rebuildRunPrefix      = "rebuild:"
	rebuildRunIndexPrefix = "rebuildid:"
)

// makeInstituteKey generates a key for an institute by public ID.
func makeInstituteKey(publicID string) []byte {
	return []byte(institutePrefix + publicID)
}

// makeInstituteSlugKey generates a key for the slug uniqueness index.
func makeInstituteSlugKey(slug string) []byte {
	return []byte(instituteSlugPrefix + slug)
}

// makeSuggestionKey generates a key for a suggestion by ID.
// Format: prefix + 8 byte big endian ID, so iteration is in ID order.
func makeSuggestionKey(id core.ID) []byte {
	buf := make([]byte, len(suggestionPrefix)+8)
	offset := copy(buf, suggestionPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeSuggestionPIDKey generates a composite key for the public ID index.
// Format: prefix:publicID:id
func makeSuggestionPIDKey(publicID string, id core.ID) []byte {
	prefix := makePartialSuggestionPIDKey(publicID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makePartialSuggestionPIDKey generates the prefix for one institute's suggestions.
func makePartialSuggestionPIDKey(publicID string) []byte {
	return []byte(suggestionPIDPrefix + publicID + ":")
}

// suggestionIDFromPIDKey extracts the trailing ID from a public ID index key.
func suggestionIDFromPIDKey(key []byte) core.ID {
	if len(key) < 8 {
		return 0
	}
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makeRebuildRunKey generates a key ordered by start time.
// Format: prefix + 8 byte big endian unix micros + run ID
func makeRebuildRunKey(startedAt time.Time, runID string) []byte {
	buf := make([]byte, len(rebuildRunPrefix)+8, len(rebuildRunPrefix)+8+len(runID))
	offset := copy(buf, rebuildRunPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(startedAt.UnixMicro()))
	return append(buf, runID...)
}

// makeRebuildRunIndexKey maps a run ID to its time-ordered key.
func makeRebuildRunIndexKey(runID string) []byte {
	return []byte(rebuildRunIndexPrefix + runID)
}

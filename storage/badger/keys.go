package badger

import (
	"encoding/binary"
	"strings"

	"github.com/poiesic/tmbridge/core"
)

// Key prefixes for different data types. Every terminology segment is
// terminated by ':' so that "ayurveda" never prefixes "ayurveda-sat".
const (
	catalogEntryPrefix  = "catent"
	catalogMetaPrefix   = "catmeta"
	catalogVectorPrefix = "catvec"
	catalogInfoPrefix   = "catinfo"
	selectionLogPrefix  = "sellog"
	selectionCntPrefix  = "selcnt"
	selectionIDSeq      = "selseq"
)

func terminologyPrefix(prefix string, t core.Terminology) []byte {
	return []byte(prefix + ":" + string(t) + ":")
}

// makeOrdinalKey generates a composite key for an entry-aligned record.
// Format: prefix:terminology:ordinal (ordinal BigEndian so iteration follows
// catalog insertion order).
func makeOrdinalKey(prefix string, t core.Terminology, ordinal int) []byte {
	head := terminologyPrefix(prefix, t)
	buf := make([]byte, len(head)+4)
	offset := copy(buf, head)
	binary.BigEndian.PutUint32(buf[offset:], uint32(ordinal))
	return buf
}

func makeCatalogEntryKey(t core.Terminology, ordinal int) []byte {
	return makeOrdinalKey(catalogEntryPrefix, t, ordinal)
}

func makeCatalogVectorKey(t core.Terminology, ordinal int) []byte {
	return makeOrdinalKey(catalogVectorPrefix, t, ordinal)
}

// makeCatalogMetaKey holds the entry count of a stored catalog.
func makeCatalogMetaKey(t core.Terminology) []byte {
	return terminologyPrefix(catalogMetaPrefix, t)
}

func makeCatalogInfoKey(t core.Terminology) []byte {
	return terminologyPrefix(catalogInfoPrefix, t)
}

// terminologyFromMetaKey extracts the terminology from a catalog meta key.
func terminologyFromMetaKey(key []byte) core.Terminology {
	s := strings.TrimPrefix(string(key), catalogMetaPrefix+":")
	return core.Terminology(strings.TrimSuffix(s, ":"))
}

// makeSelectionLogKey generates a key for a selection record by sequence ID.
func makeSelectionLogKey(id uint64) []byte {
	prefix := selectionLogPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], id)
	return buf
}

// makeSelectionCountKey generates a key for a per-code selection counter.
// Format: prefix:target:code
func makeSelectionCountKey(target core.Terminology, code string) []byte {
	return append(terminologyPrefix(selectionCntPrefix, target), code...)
}

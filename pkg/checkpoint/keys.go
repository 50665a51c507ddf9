package checkpoint

import "fmt"

// Key prefixes for the snapshot store.
const (
	snapshotPrefix = "snap"
	metaPrefix     = "snapmeta"
	latestPointer  = "snaplatest"
)

// makeSnapshotKey generates the key holding a snapshot payload.
func makeSnapshotKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", snapshotPrefix, id))
}

// makeMetaKey generates the key holding a snapshot's metadata record.
func makeMetaKey(id string) []byte {
	return []byte(fmt.Sprintf("%s:%s", metaPrefix, id))
}

// latestKey is the pointer to the most recently saved snapshot ID.
func latestKey() []byte {
	return []byte(latestPointer)
}

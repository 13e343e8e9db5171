// Package ingest parses the different listening-history exports into the
// store's normalized track and event records. Parsers are lenient: a record
// with missing or malformed fields is skipped with a warning instead of
// failing the file, because real exports are full of partial rows.
package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/fnino-dev/spotifygpt/internal/store"
)

// Result is the normalized output of one import.
type Result struct {
	Tracks   []store.Track
	Events   []store.Event
	Files    []string
	RowsSeen int
	Warnings []string
}

// DedupKey derives a stable identity hash for one raw record, used to make
// repeated imports idempotent.
func DedupKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

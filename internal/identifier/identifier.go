// Package identifier generates opaque, lexicographically sortable job
// identifiers. A ULID encodes a millisecond timestamp followed by random
// entropy, so an identifier created in a later millisecond sorts after
// one created in an earlier millisecond — the ordering property the
// original swarmer relied on `ulid.new()` for (jobs/runner.py:
// `identifier = ulid.new().str`). Each call draws fresh random entropy,
// so the order of identifiers created within the same millisecond is
// not defined.
package identifier

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a fresh 26-character ULID string for a new job.
func New() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

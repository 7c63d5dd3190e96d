package arbor

import "errors"

// Sentinel errors surfaced by the arena and the archive contract (spec.md §7).
//
// Conditions outside the arena and the archive contract are not reported
// through these: a child ordinal past the end reads as ChildEnd,
// CompoundMut materializes a Stored link before handing it out, and sharing
// a tree across goroutines is not detected.
var (
	// ErrInvalid is returned when a validator rejects bytes at a claimed
	// offset: the bytes do not correspond to a well-formed archived record
	// (an out-of-range variant tag, an implausible length, a referenced
	// offset outside arena bounds).
	ErrInvalid = errors.New("arbor: invalid archived record")

	// ErrMissingLane is returned by get when an offset resolves to a lane
	// that holds neither RAM nor a mapped file. restore does not return it:
	// it stops at the first absent lane file.
	ErrMissingLane = errors.New("arbor: lane file missing")

	// ErrStartAfterEnd is returned by range-style operations given a start
	// key that sorts after the end key.
	ErrStartAfterEnd = errors.New("arbor: start key is greater than end key")
)

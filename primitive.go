package arbor

// Primitive is the archive contract every fixed-size record satisfies
// (spec.md §3 "Primitive / Archive contract"). An archived type has a fixed
// byte size and alignment known without reading the bytes themselves, so the
// arena can slice a buffer of exactly Size() bytes out of a lane without a
// length prefix.
type Primitive interface {
	// Size returns the number of bytes the archived form occupies.
	Size() int

	// Align returns the required byte alignment of the archived form's
	// start offset. Lanes are allocated in full-page chunks, so callers
	// that care about alignment (mmap-friendly fixed records) can rely on
	// lane 0 always starting at offset 0.
	Align() int
}

// FixedRecord is the Primitive every hand-written Codec in this module
// builds: since there's no derive facility to compute a record's size and
// alignment from its Go type (spec.md §4.A/§4.G), each container package
// states them as a fixed integer constant once, at Codec-construction time,
// the same way the teacher fixes each node kind's serialized layout to an
// explicit, hand-computed byte count rather than reflecting it off the Go
// struct (see e.g. Node.go's getSerializedNodeSize/Serialize.go's offset
// arithmetic, which both work from explicit byte counts, not reflection).
type FixedRecord struct {
	RecordSize  int
	RecordAlign int
}

func (f FixedRecord) Size() int  { return f.RecordSize }
func (f FixedRecord) Align() int { return f.RecordAlign }

// Validator decodes and checks bytes read back from the arena into an
// archived value of type A, rejecting bytes that cannot correspond to a
// well-formed record. Concrete record types (collections/btreemap's node
// form, collections/linkedlist's node form) implement one of these by hand,
// following the teacher's DeserializeINode/DeserializeLNode pattern: decode
// fixed-offset fields, bounds-check tags and lengths, return ErrInvalid on
// mismatch instead of panicking on attacker- or corruption-controlled bytes.
// It receives the owning Portal so a node that embeds child Links can wrap
// their decoded offsets as Stored links against the same arena.
type Validator[A any] func(b []byte, p *Portal) (A, error)

// Marshaler encodes a value of type T into its fixed-size archived byte
// form, storing any child Links it embeds to the given Portal first so
// their offsets can be written inline. Paired with a Validator to round-trip
// through the arena. There is no derive/codegen facility in this module;
// every container type hand-writes its own Marshaler/Validator pair, the
// way the teacher hand-writes SerializeINode/DeserializeINode.
type Marshaler[T any] func(v T, p *Portal) []byte

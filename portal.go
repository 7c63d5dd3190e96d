package arbor

import "sync"

// Portal is the concurrency-safe handle to an arena (spec.md §3 "Arena").
// Its RWMutex guards lane metadata only — the append cursor and which lanes
// have maps installed — never the lane bytes themselves, which, once
// allocated, never move or grow in place (a lane's backing slice is
// replaced wholesale by append, under the lock, rather than mutated
// concurrently). That's what makes concurrent readers safe while a single
// writer appends: a reader that already holds a byte slice returned by Get
// keeps a valid view of it even if a writer appends elsewhere afterward.
//
// Grounded on original_source/src/storage.rs's Portal(Arc<RwLock<Storage>>)
// and on the teacher's RWResizeLock guarding its own single growing mmap
// against concurrent readers during a resize.
type Portal struct {
	mu      sync.RWMutex
	storage Storage
}

// NewPortal returns an empty, in-memory-only portal.
func NewPortal() *Portal {
	return &Portal{}
}

// OpenPortal restores a portal from a previously persisted directory. A
// directory that doesn't exist or holds no lane_0 file yields an empty
// portal, matching Storage.restore's empty-arena behavior.
func OpenPortal(dir string) (*Portal, error) {
	p := &Portal{}
	if err := p.storage.restore(dir); err != nil {
		return nil, err
	}
	return p, nil
}

// Put appends raw bytes to the arena and returns their tail offset.
func (p *Portal) Put(data []byte) Offset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage.put(data)
}

// Get reads the size bytes written at a tail offset previously returned by
// Put.
func (p *Portal) Get(off Offset, size int) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.storage.get(off, size)
}

// Persist flushes unflushed bytes in every lane to dir/lane_<k>.
func (p *Portal) Persist(dir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage.persist(dir)
}

// Close unmaps every installed lane map and closes open lane files.
func (p *Portal) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.storage.close()
}

// PutT marshals v and stores it, returning a typed Ident for later
// retrieval with GetT. The marshal function is supplied by the concrete
// record type (e.g. collections/btreemap's node archive form) rather than
// derived, since this module carries no codegen/derive facility.
func PutT[T any](p *Portal, v T, marshal Marshaler[T]) Ident[T] {
	return NewIdent[T](p.Put(marshal(v, p)))
}

// GetT retrieves and validates the value previously stored at id, using the
// validator supplied by the concrete record type.
func GetT[T any](p *Portal, id Ident[T], size int, validate Validator[T]) (T, error) {
	var zero T
	b, err := p.Get(id.Off, size)
	if err != nil {
		return zero, err
	}
	return validate(b, p)
}

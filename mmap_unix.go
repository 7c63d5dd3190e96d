//go:build unix

package arbor

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Mmap protection/flag constants. Copied verbatim from the teacher's
// Types.go, which in turn mirrors github.com/edsrzf/mmap-go's constants
// (the teacher's own go.mod doesn't list that package — its Map/Unmap/Flush
// helpers wrap golang.org/x/sys/unix directly instead, which is what this
// file does).
const (
	RDONLY = 0
	RDWR   = 1 << iota
	COPY
	EXEC
)

const (
	ANON = 1 << iota
)

// MMap is a byte slice backed by a memory-mapped file region.
type MMap []byte

// Map maps the whole of f into memory with the given protection flags.
func Map(f *os.File, prot int, flags int) (MMap, error) {
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("arbor: stat for mmap: %w", err)
	}

	size := fi.Size()
	if size == 0 {
		return MMap{}, nil
	}

	unixProt := unix.PROT_READ
	unixFlags := unix.MAP_SHARED
	switch {
	case prot&RDWR != 0:
		unixProt |= unix.PROT_WRITE
	case prot&COPY != 0:
		unixProt |= unix.PROT_WRITE
		unixFlags = unix.MAP_PRIVATE
	}
	if prot&EXEC != 0 {
		unixProt |= unix.PROT_EXEC
	}
	if flags&ANON != 0 {
		unixFlags |= unix.MAP_ANON
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unixProt, unixFlags)
	if err != nil {
		return nil, fmt.Errorf("arbor: mmap: %w", err)
	}

	return MMap(data), nil
}

// Flush synchronizes the mapping's contents to its backing file.
func (m MMap) Flush() error {
	if len(m) == 0 {
		return nil
	}
	if err := unix.Msync([]byte(m), unix.MS_SYNC); err != nil {
		return fmt.Errorf("arbor: msync: %w", err)
	}
	return nil
}

// Unmap releases the mapping. m must not be used afterward.
func (m MMap) Unmap() error {
	if len(m) == 0 {
		return nil
	}
	if err := unix.Munmap([]byte(m)); err != nil {
		return fmt.Errorf("arbor: munmap: %w", err)
	}
	return nil
}

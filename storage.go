package arbor

import (
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
)

// firstLaneSize is C₀ in spec.md §3: the capacity of lane 0. Lane k holds
// firstLaneSize * 2^k bytes, so the arena's total addressable capacity
// across all 32 lanes is effectively unbounded for any realistic workload.
// Grounded on original_source/src/storage.rs's FIRST_CHONK_SIZE.
const firstLaneSize = 64 * 1024

// numLanes mirrors original_source/src/storage.rs's N_LANES. 32 lanes of
// geometrically doubling capacity address just under 2^48 bytes, far past
// anything this module's workloads need.
const numLanes = 32

// lane is one geometrically-sized chunk of the arena. A lane can be purely
// in RAM (never persisted), purely mapped (restored from disk, never
// written to since), or both at once: a mapped read-only prefix of
// "flushed" bytes from a previous persist, with an unflushed RAM suffix
// holding writes since then. Once installed, a lane's map never grows; new
// writes past its end land in RAM and are read from there until the next
// restore maps them.
type lane struct {
	ram     []byte
	mapped  MMap
	file    *os.File
	flushed int // bytes of ram already written and fsynced to file
}

// Storage is the non-concurrent-safe arena backing. Portal wraps it with a
// lock; nothing outside this package touches Storage directly.
//
// Grounded on original_source/src/storage.rs's Storage/Lane, with persist
// corrected to track how much of each lane's RAM has already been flushed
// (the original's persist rewrites the lane's entire RAM buffer into its
// append-mode file on every call, duplicating already-flushed bytes on the
// second and subsequent persists of the same lane — see DESIGN.md) and to
// install a map once a lane has been flushed at least once, per spec.md
// §4.B, rather than never mapping until a full restore.
type Storage struct {
	lanes   [numLanes]lane
	written uint64
}

// laneFromOffset maps a raw arena offset to the (lane index, offset within
// that lane) it falls in, per spec.md §3's closed-form lane address
// formula. Grounded on original_source/src/storage.rs's lane_from_offset.
func laneFromOffset(offset uint64) (int, uint64) {
	i := offset/firstLaneSize + 1
	l := bits.Len64(i) - 1
	local := offset - (uint64(1)<<uint(l)-1)*firstLaneSize
	return l, local
}

// laneCapacity returns the byte capacity of lane l: firstLaneSize * 2^l.
func laneCapacity(l int) uint64 {
	return firstLaneSize * (uint64(1) << uint(l))
}

// put appends data to the arena and returns the tail offset of the written
// record (start + len(data)), per spec.md §4.B's tail-offset convention.
// Writes that would overflow the current lane pad out the remainder of that
// lane and continue in the next one, advancing written across the padding
// so later offset arithmetic stays consistent.
func (s *Storage) put(data []byte) Offset {
	ln, localWritten := laneFromOffset(s.written)

	for {
		cap := laneCapacity(ln)
		l := &s.lanes[ln]
		if l.ram == nil && l.mapped == nil {
			l.ram = make([]byte, 0, cap)
		}

		spaceLeft := cap - localWritten
		if uint64(len(data)) > spaceLeft {
			s.written += spaceLeft
			ln++
			localWritten = 0
			continue
		}

		s.written += uint64(len(data))

		var bufOff uint64
		if l.mapped != nil {
			bufOff = localWritten - uint64(len(l.mapped))
		} else {
			bufOff = localWritten
		}

		needed := bufOff + uint64(len(data))
		if uint64(len(l.ram)) < needed {
			l.ram = append(l.ram, make([]byte, needed-uint64(len(l.ram)))...)
		}
		copy(l.ram[bufOff:bufOff+uint64(len(data))], data)

		return Offset(s.written)
	}
}

// get resolves a previously-returned tail offset back to the size bytes
// that were written there, reading from whichever of a lane's map/RAM holds
// that span. Grounded on original_source/src/storage.rs's Storage::get.
func (s *Storage) get(off Offset, size int) ([]byte, error) {
	if uint64(size) > uint64(off) {
		return nil, fmt.Errorf("arbor: offset %d too small for a %d-byte record: %w", off, size, ErrInvalid)
	}

	start := uint64(off) - uint64(size)
	ln, localOff := laneFromOffset(start)
	if ln >= numLanes {
		return nil, ErrMissingLane
	}

	l := &s.lanes[ln]
	switch {
	case l.mapped != nil:
		mlen := uint64(len(l.mapped))
		if localOff < mlen {
			if localOff+uint64(size) > mlen {
				return nil, fmt.Errorf("arbor: record at offset %d spans the map/ram boundary: %w", off, ErrInvalid)
			}
			return l.mapped[localOff : localOff+uint64(size)], nil
		}
		ro := localOff - mlen
		if l.ram == nil || ro+uint64(size) > uint64(len(l.ram)) {
			return nil, fmt.Errorf("arbor: offset %d out of range: %w", off, ErrInvalid)
		}
		return l.ram[ro : ro+uint64(size)], nil
	case l.ram != nil:
		if localOff+uint64(size) > uint64(len(l.ram)) {
			return nil, fmt.Errorf("arbor: offset %d out of range: %w", off, ErrInvalid)
		}
		return l.ram[localOff : localOff+uint64(size)], nil
	default:
		return nil, ErrMissingLane
	}
}

// persist flushes every lane's unflushed RAM suffix to path/lane_<k>,
// fsyncs it, and, the first time a given lane is flushed, installs a
// read-only map over the file so future Gets against the flushed prefix
// resolve through the map instead of RAM. The map's length is fixed at
// install time; further writes to that lane keep landing in RAM until the
// next restore.
func (s *Storage) persist(dir string) error {
	for i := range s.lanes {
		l := &s.lanes[i]
		if l.ram == nil {
			continue
		}

		if unflushed := l.ram[l.flushed:]; len(unflushed) > 0 {
			if l.file == nil {
				f, err := os.OpenFile(filepath.Join(dir, fmt.Sprintf("lane_%d", i)), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
				if err != nil {
					return fmt.Errorf("arbor: open lane %d: %w", i, err)
				}
				l.file = f
			}

			if _, err := l.file.Write(unflushed); err != nil {
				return fmt.Errorf("arbor: write lane %d: %w", i, err)
			}
			if err := l.file.Sync(); err != nil {
				return fmt.Errorf("arbor: fsync lane %d: %w", i, err)
			}
			l.flushed = len(l.ram)
		}

		if l.mapped == nil {
			m, err := Map(l.file, RDONLY, 0)
			if err != nil {
				return fmt.Errorf("arbor: map lane %d: %w", i, err)
			}
			l.mapped = m
			// The map now covers every flushed byte, so RAM keeps only what
			// follows it, matching put/get's local-minus-map-length indexing.
			l.ram = l.ram[l.flushed:]
			l.flushed = 0
		}
	}

	return nil
}

// restore maps every lane_<k> file present under dir, in order, stopping at
// the first missing index, and sets the write cursor past the end of the
// last mapped lane so subsequent writes continue where the arena left off.
// An empty or nonexistent dir yields an empty arena with a zero cursor.
// Grounded on original_source/src/storage.rs's Storage::restore.
func (s *Storage) restore(dir string) error {
	var written uint64

	for i := range s.lanes {
		path := filepath.Join(dir, fmt.Sprintf("lane_%d", i))
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return fmt.Errorf("arbor: stat lane %d: %w", i, err)
		}

		f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("arbor: open lane %d: %w", i, err)
		}

		m, err := Map(f, RDONLY, 0)
		if err != nil {
			return fmt.Errorf("arbor: map lane %d: %w", i, err)
		}

		l := &s.lanes[i]
		l.file = f
		l.mapped = m
		l.flushed = 0
		written += uint64(info.Size())
	}

	s.written = written
	return nil
}

// close unmaps every installed map and closes every open lane file. Callers
// that built a Portal from Restore or that called Persist should Close it
// once they're done to release the maps.
func (s *Storage) close() error {
	var firstErr error
	for i := range s.lanes {
		l := &s.lanes[i]
		if l.mapped != nil {
			if err := l.mapped.Unmap(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("arbor: unmap lane %d: %w", i, err)
			}
			l.mapped = nil
		}
		if l.file != nil {
			if err := l.file.Close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("arbor: close lane %d: %w", i, err)
			}
			l.file = nil
		}
	}
	return firstErr
}

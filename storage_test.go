package arbor

import (
	"encoding/binary"
	"testing"
)

func TestStorageRoundTripLittleEndian32(t *testing.T) {
	var s Storage

	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, 0x01020304)

	off := s.put(data)
	if off != 4 {
		t.Fatalf("put offset = %d, want 4", off)
	}

	got, err := s.get(off, 4)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if binary.LittleEndian.Uint32(got) != 0x01020304 {
		t.Fatalf("get = %x, want 0x01020304", got)
	}
}

func TestStorageLanePromotion(t *testing.T) {
	var s Storage

	first := make([]byte, firstLaneSize)
	for i := range first {
		first[i] = 0xAA
	}
	offA := s.put(first)
	if offA != firstLaneSize {
		t.Fatalf("offA = %d, want %d", offA, firstLaneSize)
	}

	offB := s.put([]byte{0xBB})
	if offB != firstLaneSize+1 {
		t.Fatalf("offB = %d, want %d", offB, firstLaneSize+1)
	}

	got, err := s.get(offB, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[0] != 0xBB {
		t.Fatalf("get = %x, want bb", got[0])
	}

	if l, local := laneFromOffset(firstLaneSize); l != 1 || local != 0 {
		t.Fatalf("laneFromOffset(%d) = (%d, %d), want (1, 0)", firstLaneSize, l, local)
	}
	if l, local := laneFromOffset(firstLaneSize + 1); l != 1 || local != 1 {
		t.Fatalf("laneFromOffset(%d) = (%d, %d), want (1, 1)", firstLaneSize+1, l, local)
	}
}

func TestStorageRestoreEmptyDir(t *testing.T) {
	var s Storage
	if err := s.restore(t.TempDir()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if s.written != 0 {
		t.Fatalf("written = %d, want 0", s.written)
	}
}

// TestStoragePersistRestoreRoundTrip mirrors original_source/tests/persistance.rs's
// two-phase scenario: 65536 u32 values, persist, restore, re-verify, append
// another 65536, persist again, restore again, verify all 131072.
func TestStoragePersistRestoreRoundTrip(t *testing.T) {
	dir := t.TempDir()

	var offsets []Offset
	var s Storage

	putN := func(st *Storage, n int) {
		for i := 0; i < n; i++ {
			data := make([]byte, 4)
			binary.LittleEndian.PutUint32(data, uint32(i))
			offsets = append(offsets, st.put(data))
		}
	}
	verify := func(st *Storage) {
		t.Helper()
		for i, off := range offsets {
			got, err := st.get(off, 4)
			if err != nil {
				t.Fatalf("get(%d): %v", off, err)
			}
			if want := uint32(i % 65536); binary.LittleEndian.Uint32(got) != want {
				t.Fatalf("get(%d) = %d, want %d", off, binary.LittleEndian.Uint32(got), want)
			}
		}
	}

	putN(&s, 65536)
	verify(&s)
	if err := s.persist(dir); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if err := s.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var restored Storage
	if err := restored.restore(dir); err != nil {
		t.Fatalf("restore: %v", err)
	}
	verify(&restored)

	putN(&restored, 65536)
	verify(&restored)
	if err := restored.persist(dir); err != nil {
		t.Fatalf("second persist: %v", err)
	}
	if err := restored.close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var final Storage
	if err := final.restore(dir); err != nil {
		t.Fatalf("second restore: %v", err)
	}
	verify(&final)
	if err := final.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestStorageGetMissingLane(t *testing.T) {
	var s Storage
	_, err := s.get(Offset(firstLaneSize*1000), 4)
	if err == nil {
		t.Fatal("expected an error for an offset in a lane that was never written")
	}
}

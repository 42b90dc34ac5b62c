package tapesort

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tapeerrors "github.com/tamirms/tapesort/errors"
	"github.com/tamirms/tapesort/internal/encoding"
)

// =============================================================================
// Cell access and movement
// =============================================================================

func TestFileTapeReadWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeStore(t, dir, "tape.bin", []int32{1, 2, 3, 4, 5})
	tape := openTape(t, path, WithMemoryLimit(8))

	if tape.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", tape.Size())
	}
	if v, err := tape.Read(); err != nil || v != 1 {
		t.Fatalf("Read() = %d, %v; want 1", v, err)
	}
	if !tape.Next() || tape.Position() != 1 {
		t.Fatalf("Next() did not advance to 1, position %d", tape.Position())
	}
	if err := tape.Write(20); err != nil {
		t.Fatal(err)
	}
	// Moving past the two-cell window forces a flush of the dirty cell.
	if !tape.Rewind(3) {
		t.Fatal("Rewind(3) failed")
	}
	if v, _ := tape.Read(); v != 5 {
		t.Errorf("Read() at 4 = %d, want 5", v)
	}
	if err := tape.Write(-7); err != nil {
		t.Fatal(err)
	}
	tape.Reset()
	if tape.Position() != 0 {
		t.Errorf("Reset left position %d", tape.Position())
	}
	if !tape.Next() {
		t.Fatal("Next() failed")
	}
	if v, _ := tape.Read(); v != 20 {
		t.Errorf("Read() at 1 = %d, want 20", v)
	}

	if err := tape.Close(); err != nil {
		t.Fatal(err)
	}
	if got, want := readStore(t, path), []int32{1, 20, 3, 4, -7}; !slices.Equal(got, want) {
		t.Errorf("store = %v, want %v", got, want)
	}
}

func TestFileTapeMovementBounds(t *testing.T) {
	path := writeStore(t, t.TempDir(), "tape.bin", []int32{10, 11, 12, 13})
	tape := openTape(t, path)

	if tape.Prev() {
		t.Error("Prev() at 0 succeeded")
	}
	if tape.Rewind(-1) || tape.Rewind(4) {
		t.Error("Rewind out of range succeeded")
	}
	if tape.Position() != 0 {
		t.Fatalf("failed moves changed position to %d", tape.Position())
	}
	if !tape.Rewind(3) {
		t.Fatal("Rewind(3) failed")
	}
	if tape.Next() {
		t.Error("Next() at last cell succeeded")
	}
	if tape.Position() != 3 {
		t.Errorf("position = %d, want 3", tape.Position())
	}
	if !tape.Prev() || tape.Position() != 2 {
		t.Errorf("Prev() did not move to 2, position %d", tape.Position())
	}
	if v, _ := tape.Read(); v != 12 {
		t.Errorf("Read() = %d, want 12", v)
	}
}

func TestFileTapeEmpty(t *testing.T) {
	path := writeStore(t, t.TempDir(), "empty.bin", nil)
	tape := openTape(t, path)

	if tape.Size() != 0 || tape.Position() != 0 {
		t.Fatalf("Size/Position = %d/%d, want 0/0", tape.Size(), tape.Position())
	}
	if _, err := tape.Read(); !errors.Is(err, tapeerrors.ErrOutOfRange) {
		t.Errorf("Read() error = %v, want ErrOutOfRange", err)
	}
	if err := tape.Write(1); !errors.Is(err, tapeerrors.ErrOutOfRange) {
		t.Errorf("Write() error = %v, want ErrOutOfRange", err)
	}
	if tape.Next() || tape.Prev() || tape.Rewind(0) {
		t.Error("movement on an empty tape succeeded")
	}
	tape.Reset()
	if tape.Position() != 0 {
		t.Errorf("position = %d, want 0", tape.Position())
	}
}

// =============================================================================
// Delays
// =============================================================================

func TestFileTapeDelays(t *testing.T) {
	path := writeStore(t, t.TempDir(), "tape.bin", make([]int32, 10))
	var rec recordingSleeper
	delays := Delays{
		Read:   1 * time.Millisecond,
		Write:  2 * time.Millisecond,
		Shift:  3 * time.Millisecond,
		Rewind: 10 * time.Millisecond,
	}
	tape, err := OpenFileTape(path, delays, WithSleeper(rec.sleep))
	if err != nil {
		t.Fatal(err)
	}
	defer tape.Close()

	tape.Read()
	tape.Write(1)
	tape.Prev() // fails, not charged
	tape.Next()
	tape.Rewind(2) // two shifts are cheaper than a rewind
	tape.Rewind(5) // a rewind is cheaper than five shifts
	tape.Reset()
	tape.Rewind(100) // fails, not charged

	want := []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		6 * time.Millisecond,
		10 * time.Millisecond,
		10 * time.Millisecond,
	}
	if !slices.Equal(rec.calls, want) {
		t.Errorf("charged %v, want %v", rec.calls, want)
	}
}

func TestRewindCost(t *testing.T) {
	d := Delays{Shift: 2 * time.Millisecond, Rewind: 7 * time.Millisecond}
	tests := []struct {
		offset int
		want   time.Duration
	}{
		{0, 0},
		{1, 2 * time.Millisecond},
		{-3, 6 * time.Millisecond},
		{4, 7 * time.Millisecond},
		{-1000, 7 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := d.rewindCost(tt.offset); got != tt.want {
			t.Errorf("rewindCost(%d) = %v, want %v", tt.offset, got, tt.want)
		}
	}
}

// =============================================================================
// Memory limit
// =============================================================================

// TestFileTapeWindowFootprint drives a random access pattern under changing
// limits and checks the cached window never exceeds the limit (or one cell).
func TestFileTapeWindowFootprint(t *testing.T) {
	rng := newTestRNG(t)
	const n = 300
	model := randomValues(rng, n, -1000, 1000)
	path := writeStore(t, t.TempDir(), "tape.bin", model)

	for _, limit := range []int{0, 3, 4, 7, 16, 100, 1 << 12} {
		t.Run("", func(t *testing.T) {
			tape := openTape(t, path, WithMemoryLimit(limit))
			bound := max(limit, encoding.CellSize)

			for step := range 2000 {
				switch rng.IntN(5) {
				case 0:
					tape.Next()
				case 1:
					tape.Prev()
				case 2:
					tape.Rewind(rng.IntN(n) - tape.Position())
				case 3:
					v := int32(rng.Uint32())
					if err := tape.Write(v); err != nil {
						t.Fatal(err)
					}
					model[tape.Position()] = v
				case 4:
					v, err := tape.Read()
					if err != nil {
						t.Fatal(err)
					}
					if v != model[tape.Position()] {
						t.Fatalf("step %d: Read() at %d = %d, want %d", step, tape.Position(), v, model[tape.Position()])
					}
				}
				if fp := tape.win.footprint(); fp > bound {
					t.Fatalf("step %d: window holds %d bytes, limit %d", step, fp, limit)
				}
			}
			if err := tape.Close(); err != nil {
				t.Fatal(err)
			}
			if got := readStore(t, path); !slices.Equal(got, model) {
				t.Fatal("store diverged from model")
			}
		})
	}
}

func TestSetMemoryLimitFlushes(t *testing.T) {
	path := writeStore(t, t.TempDir(), "tape.bin", []int32{1, 2, 3, 4})
	tape := openTape(t, path, WithMemoryLimit(16))

	tape.Rewind(2)
	if err := tape.Write(99); err != nil {
		t.Fatal(err)
	}
	if got := readStore(t, path); got[2] != 3 {
		t.Fatalf("write reached the store before flush: %v", got)
	}

	if err := tape.SetMemoryLimit(0); err != nil {
		t.Fatal(err)
	}
	if tape.win.footprint() != 0 {
		t.Errorf("window not dropped, %d bytes", tape.win.footprint())
	}
	if got := readStore(t, path); got[2] != 99 {
		t.Errorf("store = %v, want 99 at 2", got)
	}
	if tape.Position() != 2 {
		t.Errorf("SetMemoryLimit moved the head to %d", tape.Position())
	}

	// Raising the limit keeps the window.
	tape.Read()
	if err := tape.SetMemoryLimit(64); err != nil {
		t.Fatal(err)
	}
	if tape.win.footprint() == 0 {
		t.Error("raising the limit dropped the window")
	}
}

// =============================================================================
// Temporaries and lifecycle
// =============================================================================

func TestCreateTemporary(t *testing.T) {
	dir := t.TempDir()
	tempDir := filepath.Join(dir, "tmp")
	if err := os.Mkdir(tempDir, 0o755); err != nil {
		t.Fatal(err)
	}
	var rec recordingSleeper
	owner, err := OpenFileTape(writeStore(t, dir, "owner.bin", []int32{5, 6}),
		Delays{Write: time.Millisecond}, WithTempDir(tempDir), WithSleeper(rec.sleep))
	if err != nil {
		t.Fatal(err)
	}
	defer owner.Close()

	tmp, err := owner.CreateTemporary(6, 8)
	if err != nil {
		t.Fatal(err)
	}
	ft := tmp.(*FileTape)
	if filepath.Dir(ft.Path()) != tempDir {
		t.Errorf("temporary created in %s, want %s", filepath.Dir(ft.Path()), tempDir)
	}
	if !strings.HasPrefix(filepath.Base(ft.Path()), "tape-") {
		t.Errorf("unexpected temporary name %s", filepath.Base(ft.Path()))
	}
	if tmp.Size() != 6 || tmp.Position() != 0 {
		t.Errorf("Size/Position = %d/%d, want 6/0", tmp.Size(), tmp.Position())
	}
	for i := range 6 {
		v, err := tmp.Read()
		if err != nil || v != 0 {
			t.Fatalf("cell %d = %d, %v; want zero", i, v, err)
		}
		tmp.Next()
	}
	if err := tmp.Write(1); err != nil {
		t.Fatal(err)
	}
	if rec.total() != time.Millisecond {
		t.Errorf("temporary charged %v, want inherited 1ms write delay", rec.total())
	}

	other, err := owner.CreateTemporary(1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if other.(*FileTape).Path() == ft.Path() {
		t.Error("temporaries share a path")
	}

	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if err := other.Close(); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
	assertDirEmpty(t, tempDir)
}

func TestCreateTemporaryEmpty(t *testing.T) {
	dir := t.TempDir()
	owner := openTape(t, writeStore(t, dir, "owner.bin", nil), WithTempDir(dir))
	tmp, err := owner.CreateTemporary(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tmp.Size() != 0 {
		t.Errorf("Size() = %d", tmp.Size())
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCreateTemporaryMissingDir(t *testing.T) {
	dir := t.TempDir()
	owner := openTape(t, writeStore(t, dir, "owner.bin", []int32{1}),
		WithTempDir(filepath.Join(dir, "missing")))
	if _, err := owner.CreateTemporary(4, 16); !errors.Is(err, tapeerrors.ErrIO) {
		t.Errorf("CreateTemporary error = %v, want ErrIO", err)
	}
}

func TestClosedTape(t *testing.T) {
	tape := openTape(t, writeStore(t, t.TempDir(), "tape.bin", []int32{1, 2}))
	if err := tape.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := tape.Read(); !errors.Is(err, tapeerrors.ErrTapeClosed) {
		t.Errorf("Read() error = %v, want ErrTapeClosed", err)
	}
	if err := tape.Write(1); !errors.Is(err, tapeerrors.ErrTapeClosed) {
		t.Errorf("Write() error = %v, want ErrTapeClosed", err)
	}
	if err := tape.SetMemoryLimit(8); !errors.Is(err, tapeerrors.ErrTapeClosed) {
		t.Errorf("SetMemoryLimit() error = %v, want ErrTapeClosed", err)
	}
	if _, err := tape.CreateTemporary(1, 4); !errors.Is(err, tapeerrors.ErrTapeClosed) {
		t.Errorf("CreateTemporary() error = %v, want ErrTapeClosed", err)
	}
	if err := tape.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestOpenFileTapeErrors(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.bin")
	if err := os.WriteFile(bad, []byte{1, 2, 3, 4, 5}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenFileTape(bad, Delays{}); !errors.Is(err, tapeerrors.ErrFormat) {
		t.Errorf("OpenFileTape(5 bytes) error = %v, want ErrFormat", err)
	}

	_, err := OpenFileTape(filepath.Join(dir, "missing.bin"), Delays{})
	if !errors.Is(err, tapeerrors.ErrIO) || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenFileTape(missing) error = %v, want ErrIO wrapping ErrNotExist", err)
	}
}

func TestCreateStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(path, []byte("stale contents!!"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CreateStore(path, 3); err != nil {
		t.Fatal(err)
	}
	if got := readStore(t, path); !slices.Equal(got, []int32{0, 0, 0}) {
		t.Errorf("store = %v, want three zero cells", got)
	}
	if err := CreateStore(path, 0); err != nil {
		t.Fatal(err)
	}
	if got := readStore(t, path); len(got) != 0 {
		t.Errorf("store = %v, want empty", got)
	}
}

func TestReserveCells(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "reserve.bin"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if err := reserveCells(f, 0); err != nil {
		t.Fatalf("reserveCells(0): %v", err)
	}
	for _, cells := range []int{1, 1024, 5000} {
		if err := reserveCells(f, cells); err != nil {
			t.Fatalf("reserveCells(%d): %v", cells, err)
		}
		stat, err := f.Stat()
		if err != nil {
			t.Fatal(err)
		}
		if want := int64(cells) * encoding.CellSize; stat.Size() != want {
			t.Fatalf("size after reserveCells(%d) = %d, want %d", cells, stat.Size(), want)
		}
	}
	for i, v := range readStore(t, f.Name()) {
		if v != 0 {
			t.Fatalf("cell %d = %d, want 0", i, v)
		}
	}
}

func TestReadPrefix(t *testing.T) {
	path := writeStore(t, t.TempDir(), "tape.bin", []int32{9, 8, 7, 6, 5})
	tape := openTape(t, path, WithMemoryLimit(8))
	tape.Rewind(3)

	got, err := ReadPrefix(tape, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []int32{9, 8, 7}) {
		t.Errorf("ReadPrefix(3) = %v", got)
	}
	if tape.Position() != 3 {
		t.Errorf("position = %d, want restored 3", tape.Position())
	}
	if got, _ := ReadPrefix(tape, 20); len(got) != 5 {
		t.Errorf("ReadPrefix(20) returned %d cells, want 5", len(got))
	}
}

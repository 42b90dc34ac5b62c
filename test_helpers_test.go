package tapesort

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	tapeerrors "github.com/tamirms/tapesort/errors"
	"github.com/tamirms/tapesort/internal/encoding"
)

const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a PCG seeded from the test name, so every test gets a
// stable but distinct stream.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomValues returns n values drawn uniformly from [lo, hi].
func randomValues(rng *rand.Rand, n int, lo, hi int32) []int32 {
	span := uint64(int64(hi)-int64(lo)) + 1
	vals := make([]int32, n)
	for i := range vals {
		vals[i] = int32(int64(lo) + int64(rng.Uint64N(span)))
	}
	return vals
}

func sortedCopy(vals []int32) []int32 {
	out := slices.Clone(vals)
	slices.Sort(out)
	return out
}

// writeStore writes vals as a store file in dir and returns its path.
func writeStore(t testing.TB, dir, name string, vals []int32) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, encoding.AppendCells(nil, vals...), 0o644); err != nil {
		t.Fatalf("write store: %v", err)
	}
	return path
}

// readStore decodes the store at path.
func readStore(t testing.TB, path string) []int32 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	return encoding.DecodeCells(data)
}

// openTape opens a FileTape with no delays and closes it at test end.
func openTape(t testing.TB, path string, opts ...TapeOption) *FileTape {
	t.Helper()
	tape, err := OpenFileTape(path, Delays{}, opts...)
	if err != nil {
		t.Fatalf("OpenFileTape(%s): %v", path, err)
	}
	t.Cleanup(func() { tape.Close() })
	return tape
}

// sortFileTapes runs sortFn over a fresh input store holding vals and a
// zero-filled output store, and returns the output contents. Temporaries go
// to a dedicated directory that must be empty afterwards.
func sortFileTapes(t *testing.T, vals []int32, sortFn func(in, out Tape) error) ([]int32, error) {
	t.Helper()
	dir := t.TempDir()
	tempDir := filepath.Join(dir, "tmp")
	if err := os.Mkdir(tempDir, 0o755); err != nil {
		t.Fatal(err)
	}

	inPath := writeStore(t, dir, "input.bin", vals)
	outPath := filepath.Join(dir, "output.bin")
	if err := CreateStore(outPath, len(vals)); err != nil {
		t.Fatal(err)
	}

	in := openTape(t, inPath, WithTempDir(tempDir))
	out := openTape(t, outPath, WithTempDir(tempDir))
	sortErr := sortFn(in, out)
	if err := in.Close(); err != nil {
		t.Fatalf("close input: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close output: %v", err)
	}

	assertDirEmpty(t, tempDir)
	if got := readStore(t, inPath); !slices.Equal(got, vals) {
		t.Errorf("input store modified")
	}
	return readStore(t, outPath), sortErr
}

func assertDirEmpty(t testing.TB, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("temp dir not empty: %v", names)
	}
}

// =============================================================================
// memTape: in-memory Tape double
// =============================================================================

// tapeLedger tracks every memTape created from one root, so tests can check
// the combined memory limits and that all temporaries were closed.
type tapeLedger struct {
	tapes     []*memTape
	peakLimit int
	moves     int
	rewinds   int
}

func (l *tapeLedger) observe() {
	total := 0
	for _, m := range l.tapes {
		if !m.closed {
			total += m.limit
		}
	}
	l.peakLimit = max(l.peakLimit, total)
}

func (l *tapeLedger) open() int {
	n := 0
	for _, m := range l.tapes {
		if !m.closed {
			n++
		}
	}
	return n
}

// memTape is a Tape over a slice. It enforces the same position rules as
// FileTape and records declared memory limits in its ledger.
type memTape struct {
	cells  []int32
	pos    int
	limit  int
	closed bool
	ledger *tapeLedger

	failCreate bool
}

func newMemTape(ledger *tapeLedger, cells []int32, limit int) *memTape {
	m := &memTape{cells: cells, limit: limit, ledger: ledger}
	ledger.tapes = append(ledger.tapes, m)
	ledger.observe()
	return m
}

func (m *memTape) Read() (int32, error) {
	if m.closed {
		return 0, tapeerrors.ErrTapeClosed
	}
	if m.pos >= len(m.cells) {
		return 0, fmt.Errorf("%w: cell %d of %d", tapeerrors.ErrOutOfRange, m.pos, len(m.cells))
	}
	return m.cells[m.pos], nil
}

func (m *memTape) Write(v int32) error {
	if m.closed {
		return tapeerrors.ErrTapeClosed
	}
	if m.pos >= len(m.cells) {
		return fmt.Errorf("%w: cell %d of %d", tapeerrors.ErrOutOfRange, m.pos, len(m.cells))
	}
	m.cells[m.pos] = v
	return nil
}

func (m *memTape) Next() bool { return m.move(1) }
func (m *memTape) Prev() bool { return m.move(-1) }

func (m *memTape) Rewind(offset int) bool {
	if !m.move(offset) {
		return false
	}
	m.ledger.rewinds++
	return true
}

func (m *memTape) Reset() { m.Rewind(-m.pos) }

func (m *memTape) move(offset int) bool {
	next := m.pos + offset
	if next < 0 || next >= len(m.cells) {
		return false
	}
	m.pos = next
	m.ledger.moves++
	return true
}

func (m *memTape) Size() int     { return len(m.cells) }
func (m *memTape) Position() int { return m.pos }

func (m *memTape) SetMemoryLimit(bytes int) error {
	if m.closed {
		return tapeerrors.ErrTapeClosed
	}
	m.limit = max(bytes, 0)
	m.ledger.observe()
	return nil
}

func (m *memTape) CreateTemporary(size, bufferBytes int) (Tape, error) {
	if m.failCreate {
		return nil, fmt.Errorf("%w: injected", tapeerrors.ErrIO)
	}
	return newMemTape(m.ledger, make([]int32, size), max(bufferBytes, 0)), nil
}

func (m *memTape) Close() error {
	m.closed = true
	m.ledger.observe()
	return nil
}

// recordingSleeper collects every delay charged through WithSleeper.
type recordingSleeper struct {
	calls []time.Duration
}

func (r *recordingSleeper) sleep(d time.Duration) {
	r.calls = append(r.calls, d)
}

func (r *recordingSleeper) total() time.Duration {
	var sum time.Duration
	for _, d := range r.calls {
		sum += d
	}
	return sum
}

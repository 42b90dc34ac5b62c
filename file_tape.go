package tapesort

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tapeerrors "github.com/tamirms/tapesort/errors"
	"github.com/tamirms/tapesort/internal/encoding"
)

// FileTape is a Tape backed by a flat store file of native-endian int32 cells.
//
// At most one window of cells is cached in memory; its size is bounded by the
// memory limit (but never less than one cell, so every access can make
// progress). Accessing a cell outside the window writes the window back if it
// is dirty and loads a new one starting at the target cell.
//
// A FileTape created by CreateTemporary deletes its file on Close.
type FileTape struct {
	file      *os.File
	path      string
	size      int
	pos       int
	delays    Delays
	cfg       tapeConfig
	win       window
	temporary bool
	closed    bool
}

// OpenFileTape opens an existing store for reading and writing.
// The store length must be a multiple of the cell size.
func OpenFileTape(path string, delays Delays, opts ...TapeOption) (*FileTape, error) {
	cfg := defaultTapeConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open tape: %w", tapeerrors.ErrIO, err)
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: stat tape: %w", tapeerrors.ErrIO, err), f.Close())
	}
	if stat.Size()%encoding.CellSize != 0 {
		return nil, errors.Join(
			fmt.Errorf("%w: %s has %d bytes", tapeerrors.ErrFormat, path, stat.Size()),
			f.Close())
	}

	adviseSequential(f)

	return &FileTape{
		file:   f,
		path:   path,
		size:   int(stat.Size() / encoding.CellSize),
		delays: delays,
		cfg:    *cfg,
	}, nil
}

// CreateStore creates (or truncates) a store of cells zero-filled cells.
// Disk blocks are reserved up front so later window flushes cannot fail
// for lack of space.
func CreateStore(path string, cells int) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create store: %w", tapeerrors.ErrIO, err)
	}
	if err := reserveCells(f, cells); err != nil {
		primaryErr := fmt.Errorf("%w: pre-allocate %s: %w", tapeerrors.ErrIO, path, err)
		return errors.Join(primaryErr, f.Close())
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close store: %w", tapeerrors.ErrIO, err)
	}
	return nil
}

// Path returns the backing file path.
func (t *FileTape) Path() string {
	return t.path
}

// Read returns the cell at the current position.
func (t *FileTape) Read() (int32, error) {
	if err := t.ensure(t.pos); err != nil {
		return 0, err
	}
	t.charge(t.delays.Read)
	return t.win.get(t.pos), nil
}

// Write overwrites the cell at the current position.
// The change reaches the store when the window is flushed.
func (t *FileTape) Write(v int32) error {
	if err := t.ensure(t.pos); err != nil {
		return err
	}
	t.win.set(t.pos, v)
	t.charge(t.delays.Write)
	return nil
}

func (t *FileTape) Next() bool {
	if !t.shift(1) {
		return false
	}
	t.charge(t.delays.Shift)
	return true
}

func (t *FileTape) Prev() bool {
	if !t.shift(-1) {
		return false
	}
	t.charge(t.delays.Shift)
	return true
}

// Rewind moves by offset cells in one step, charging the cheaper of one
// rewind or |offset| shifts.
func (t *FileTape) Rewind(offset int) bool {
	if !t.shift(offset) {
		return false
	}
	t.charge(t.delays.rewindCost(offset))
	return true
}

func (t *FileTape) Reset() {
	t.Rewind(-t.pos)
}

func (t *FileTape) Size() int {
	return t.size
}

func (t *FileTape) Position() int {
	return t.pos
}

// SetMemoryLimit sets the window budget. If the live window no longer fits
// it is flushed and dropped now rather than on the next access, so the
// tape never holds more than bytes at rest (subject to the one-cell floor).
func (t *FileTape) SetMemoryLimit(bytes int) error {
	if t.closed {
		return tapeerrors.ErrTapeClosed
	}
	bytes = max(bytes, 0)
	t.cfg.memoryLimit = bytes
	if bytes < t.win.footprint() {
		if err := t.win.drop(t.file); err != nil {
			return fmt.Errorf("%w: flush %s: %w", tapeerrors.ErrIO, t.path, err)
		}
	}
	return nil
}

// CreateTemporary creates a zero-filled temporary tape in the temp dir.
// It inherits delays, temp dir and sleeper; its file is removed on Close.
func (t *FileTape) CreateTemporary(size, bufferBytes int) (Tape, error) {
	if t.closed {
		return nil, tapeerrors.ErrTapeClosed
	}
	dir := t.cfg.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, temporaryName(t.path))

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%w: create temporary tape: %w", tapeerrors.ErrIO, err)
	}
	if err := reserveCells(f, size); err != nil {
		primaryErr := fmt.Errorf("%w: pre-allocate temporary tape: %w", tapeerrors.ErrIO, err)
		return nil, errors.Join(primaryErr, f.Close(), os.Remove(path))
	}

	cfg := t.cfg
	cfg.memoryLimit = max(bufferBytes, 0)
	return &FileTape{
		file:      f,
		path:      path,
		size:      max(size, 0),
		delays:    t.delays,
		cfg:       cfg,
		temporary: true,
	}, nil
}

// Close flushes the window and closes the store. Temporary stores are
// removed. Idempotent: subsequent calls return nil.
func (t *FileTape) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true

	var errs []error
	if err := t.win.drop(t.file); err != nil {
		errs = append(errs, fmt.Errorf("%w: flush %s: %w", tapeerrors.ErrIO, t.path, err))
	}
	if err := t.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: close %s: %w", tapeerrors.ErrIO, t.path, err))
	}
	if t.temporary {
		if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("%w: remove temporary tape: %w", tapeerrors.ErrIO, err))
		}
	}
	return errors.Join(errs...)
}

// ensure makes cell resident, replacing the window if needed.
func (t *FileTape) ensure(cell int) error {
	if t.closed {
		return tapeerrors.ErrTapeClosed
	}
	if cell < 0 || cell >= t.size {
		return fmt.Errorf("%w: cell %d of %d", tapeerrors.ErrOutOfRange, cell, t.size)
	}
	if t.win.contains(cell) {
		return nil
	}
	if err := t.win.flush(t.file); err != nil {
		return fmt.Errorf("%w: flush %s: %w", tapeerrors.ErrIO, t.path, err)
	}
	n := min(t.windowCells(), t.size-cell)
	if err := t.win.load(t.file, cell, n); err != nil {
		return fmt.Errorf("%w: load %s at cell %d: %w", tapeerrors.ErrIO, t.path, cell, err)
	}
	return nil
}

// windowCells is the window length allowed by the memory limit, at least one.
func (t *FileTape) windowCells() int {
	return max(1, t.cfg.memoryLimit/encoding.CellSize)
}

func (t *FileTape) shift(offset int) bool {
	next := t.pos + offset
	if next < 0 || next >= t.size {
		return false
	}
	t.pos = next
	return true
}

func (t *FileTape) charge(d time.Duration) {
	if d > 0 {
		t.cfg.sleep(d)
	}
}

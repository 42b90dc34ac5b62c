package tapesort

import (
	"errors"
	"io"

	"github.com/tamirms/tapesort/internal/encoding"
)

// window is the single cached run of cells a FileTape keeps in memory.
// Cells are held as raw bytes, so cap(data) is the whole footprint.
//
// Transitions: empty -> load -> (set -> dirty) -> flush/drop -> empty.
// A dirty window is always written back before it is replaced or dropped.
type window struct {
	data  []byte
	start int // index of the first cached cell
	dirty bool
}

func (w *window) cells() int {
	return encoding.Cells(w.data)
}

// footprint returns the bytes held by the window, including spare capacity.
func (w *window) footprint() int {
	return cap(w.data)
}

func (w *window) contains(cell int) bool {
	return cell >= w.start && cell < w.start+w.cells()
}

// get returns a cached cell. Precondition: w.contains(cell).
func (w *window) get(cell int) int32 {
	return encoding.Cell(w.data, cell-w.start)
}

// set overwrites a cached cell and marks the window dirty.
// Precondition: w.contains(cell).
func (w *window) set(cell int, v int32) {
	encoding.PutCell(w.data, cell-w.start, v)
	w.dirty = true
}

// flush writes a dirty window back to its original offset.
func (w *window) flush(dst io.WriterAt) error {
	if !w.dirty {
		return nil
	}
	if _, err := dst.WriteAt(w.data, int64(w.start)*encoding.CellSize); err != nil {
		return err
	}
	w.dirty = false
	return nil
}

// drop flushes the window and releases its memory.
// The memory is released even when the flush fails.
func (w *window) drop(dst io.WriterAt) error {
	err := w.flush(dst)
	w.data = nil
	w.start = 0
	w.dirty = false
	return err
}

// load replaces the (already flushed) window with n cells starting at cell.
// The existing buffer is reused when it is large enough.
func (w *window) load(src io.ReaderAt, cell, n int) error {
	need := n * encoding.CellSize
	if cap(w.data) >= need {
		w.data = w.data[:need]
	} else {
		w.data = make([]byte, need)
	}
	w.start = cell
	w.dirty = false

	read, err := src.ReadAt(w.data, int64(cell)*encoding.CellSize)
	if errors.Is(err, io.EOF) && read == need {
		err = nil
	}
	if err != nil {
		w.data = nil
		w.start = 0
		return err
	}
	return nil
}

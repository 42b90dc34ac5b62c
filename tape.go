package tapesort

import "time"

// Tape is a sequential-access store of int32 cells with a current position.
//
// Sort engines drive all movement and I/O through this interface only.
// Movement is atomic: Next, Prev and Rewind return false and leave the
// position unchanged when the destination would leave [0, Size()).
//
// Read and Write act on the cell at Position. They fail only when the backing
// store fails or when the tape has no cell to act on (an empty tape).
//
// Implementations are not safe for concurrent use.
type Tape interface {
	Read() (int32, error)
	Write(v int32) error

	Next() bool
	Prev() bool
	Rewind(offset int) bool
	Reset()

	Size() int
	Position() int

	// SetMemoryLimit sets the byte budget for cached cells. Shrinking below
	// the live cache flushes and drops it before returning.
	SetMemoryLimit(bytes int) error

	// CreateTemporary returns a new zero-filled tape of size cells that
	// inherits this tape's delays. The caller owns the returned tape and
	// must Close it; closing releases its backing storage.
	CreateTemporary(size, bufferBytes int) (Tape, error)

	Close() error
}

// Delays are the simulated latencies charged by a tape.
// Zero values disable the corresponding delay.
type Delays struct {
	Read   time.Duration
	Write  time.Duration
	Shift  time.Duration // one-cell move
	Rewind time.Duration // arbitrary-offset move
}

// rewindCost is the cheaper of one rewind or |offset| unit shifts.
func (d Delays) rewindCost(offset int) time.Duration {
	if offset < 0 {
		offset = -offset
	}
	return min(d.Rewind, d.Shift*time.Duration(offset))
}

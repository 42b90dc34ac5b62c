package tapesort

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	tapeerrors "github.com/tamirms/tapesort/errors"
	"github.com/tamirms/tapesort/internal/encoding"
)

// generateBatch is the number of cells encoded per buffered write.
const generateBatch = 4096

// Generate writes a store of n cells drawn uniformly from [lo, hi].
// The same seed always produces the same store.
func Generate(path string, n int, lo, hi int32, seed uint64) (err error) {
	if lo > hi {
		return fmt.Errorf("%w: [%d, %d]", tapeerrors.ErrInvalidRange, lo, hi)
	}
	if n < 0 {
		return fmt.Errorf("%w: negative cell count %d", tapeerrors.ErrConfig, n)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", tapeerrors.ErrIO, path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("%w: close %s: %w", tapeerrors.ErrIO, path, cerr))
		}
	}()

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	span := uint64(int64(hi)-int64(lo)) + 1
	w := bufio.NewWriter(f)
	buf := make([]byte, 0, generateBatch*encoding.CellSize)
	for written := 0; written < n; {
		batch := min(generateBatch, n-written)
		buf = buf[:0]
		for range batch {
			buf = encoding.AppendCells(buf, int32(int64(lo)+int64(rng.Uint64N(span))))
		}
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w: write %s: %w", tapeerrors.ErrIO, path, err)
		}
		written += batch
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: write %s: %w", tapeerrors.ErrIO, path, err)
	}
	return nil
}

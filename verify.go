package tapesort

import (
	"errors"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sync/errgroup"

	tapeerrors "github.com/tamirms/tapesort/errors"
	"github.com/tamirms/tapesort/internal/encoding"
)

// Report describes a verified sort.
type Report struct {
	Cells  int
	Input  Digest
	Output Digest

	// FirstDescent is the index of the first output cell smaller than its
	// predecessor, or -1 if the output is non-decreasing.
	FirstDescent int
}

// Verify checks that the store at outputPath is a sorted permutation of the
// store at inputPath. Both stores are memory-mapped read-only and scanned in
// parallel; neither is opened as a Tape.
//
// The report is returned alongside ErrNotSorted or ErrNotPermutation so the
// caller can log what was found.
func Verify(inputPath, outputPath string) (*Report, error) {
	in, err := mapStore(inputPath)
	if err != nil {
		return nil, err
	}
	defer in.close()
	out, err := mapStore(outputPath)
	if err != nil {
		return nil, err
	}
	defer out.close()

	if len(in.data) != len(out.data) {
		return nil, fmt.Errorf("%w: input has %d cells, output has %d",
			tapeerrors.ErrSizeMismatch, encoding.Cells(in.data), encoding.Cells(out.data))
	}

	r := &Report{Cells: encoding.Cells(in.data), FirstDescent: -1}
	var g errgroup.Group
	g.Go(func() error {
		r.Input = Fingerprint(in.data)
		return nil
	})
	g.Go(func() error {
		r.Output = Fingerprint(out.data)
		return nil
	})
	g.Go(func() error {
		if i := firstDescent(out.data); i >= 0 {
			r.FirstDescent = i
			return fmt.Errorf("%w: cell %d", tapeerrors.ErrNotSorted, i)
		}
		return nil
	})
	// Wait lets the fingerprints finish even when the order check fails.
	if err := g.Wait(); err != nil {
		return r, err
	}
	if r.Input != r.Output {
		return r, tapeerrors.ErrNotPermutation
	}
	return r, nil
}

func firstDescent(data []byte) int {
	n := encoding.Cells(data)
	for i := 1; i < n; i++ {
		if encoding.Cell(data, i) < encoding.Cell(data, i-1) {
			return i
		}
	}
	return -1
}

// mappedStore is a read-only view of a store file. Empty files cannot be
// mapped, so they get a nil data slice and no mapping.
type mappedStore struct {
	file *os.File
	mm   mmap.MMap
	data []byte
}

func mapStore(path string) (*mappedStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", tapeerrors.ErrIO, path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: stat %s: %w", tapeerrors.ErrIO, path, err), f.Close())
	}
	if stat.Size()%encoding.CellSize != 0 {
		return nil, errors.Join(
			fmt.Errorf("%w: %s has %d bytes", tapeerrors.ErrFormat, path, stat.Size()),
			f.Close())
	}

	s := &mappedStore{file: f}
	if stat.Size() == 0 {
		return s, nil
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("%w: mmap %s: %w", tapeerrors.ErrIO, path, err), f.Close())
	}
	s.mm = mm
	s.data = []byte(mm)
	return s, nil
}

func (s *mappedStore) close() error {
	var unmapErr error
	if s.mm != nil {
		unmapErr = s.mm.Unmap()
	}
	return errors.Join(unmapErr, s.file.Close())
}

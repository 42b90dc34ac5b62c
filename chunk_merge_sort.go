package tapesort

import (
	"errors"
	"fmt"
	"slices"

	tapeerrors "github.com/tamirms/tapesort/errors"
	"github.com/tamirms/tapesort/internal/encoding"
	"github.com/tamirms/tapesort/internal/heapsort"
)

// ChunkMergeSort sorts input into output using at most memoryLimit bytes.
//
// Phase 1 reads chunks of memoryLimit/2 bytes, sorts each in memory and
// deals them alternately onto an even and an odd temporary. Phase 2 merges
// run pairs from the current scratch pair into the next one, doubling the
// run length each round, until one run covers the input. Phase 3 copies that
// run into output.
//
// strictStack selects heap sort (constant stack depth) over slices.Sort
// (logarithmic stack depth) for the in-memory chunk sort.
//
// output must already have input.Size() cells. All temporaries are released
// before ChunkMergeSort returns, on success and on failure.
func ChunkMergeSort(input, output Tape, memoryLimit int, strictStack bool) (err error) {
	if memoryLimit < encoding.CellSize {
		return fmt.Errorf("%w: chunk merge sort needs at least %d bytes, got %d",
			tapeerrors.ErrMemoryTooSmall, encoding.CellSize, memoryLimit)
	}
	if err := checkSizes(input, output); err != nil {
		return err
	}
	if input.Size() == 0 {
		return nil
	}

	current, err := sortChunks(input, memoryLimit, strictStack)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, current.close()) }()

	// Five tapes are open at once from here on: current even/odd,
	// next even/odd, and the output.
	perTape := memoryLimit / 5
	if err := current.setMemoryLimit(perTape); err != nil {
		return err
	}
	if err := output.SetMemoryLimit(perTape); err != nil {
		return err
	}

	if current.chunkLen < current.total {
		var next *scratchPair
		next, err = newScratchPair(current.even, current.total, perTape, current.chunkLen)
		if err != nil {
			return err
		}
		defer func() { err = errors.Join(err, next.close()) }()

		for current.chunkLen < current.total {
			if err := mergeIteration(current, next); err != nil {
				return err
			}
			current, next = next, current
		}
	}

	if err := drain(current, output); err != nil {
		return err
	}
	output.Reset()
	return nil
}

// sortChunks is phase 1. Half the budget holds the chunk being sorted; the
// rest is split between the input and the two scratch tapes.
// On failure the returned pair is nil and nothing is left open.
func sortChunks(input Tape, memoryLimit int, strictStack bool) (_ *scratchPair, err error) {
	sortBuffer := max(memoryLimit/2, encoding.CellSize)
	perTape := (memoryLimit - sortBuffer) / 3
	maxElements := sortBuffer / encoding.CellSize
	if maxElements == 0 {
		return nil, fmt.Errorf("%w: sort buffer of %d bytes holds no element",
			tapeerrors.ErrMemoryTooSmall, sortBuffer)
	}

	input.Reset()
	if err := input.SetMemoryLimit(perTape); err != nil {
		return nil, err
	}

	total := input.Size()
	pair, err := newScratchPair(input, total, perTape, maxElements)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, pair.close())
		}
	}()

	buf := make([]int32, 0, min(maxElements, total))
	dest := sideEven
	for processed := 0; processed < total; {
		n := min(maxElements, total-processed)
		buf = buf[:0]
		for range n {
			v, err := input.Read()
			if err != nil {
				return nil, fmt.Errorf("read input: %w", err)
			}
			buf = append(buf, v)
			input.Next()
		}

		if strictStack {
			heapsort.Sort(buf)
		} else {
			slices.Sort(buf)
		}

		if err := writeCells(pair.tape(dest), buf); err != nil {
			return nil, fmt.Errorf("write %s chunk: %w", dest, err)
		}
		pair.last = dest
		dest = dest.other()
		processed += n
	}

	// The input is not read again; give its window back.
	if err := input.SetMemoryLimit(0); err != nil {
		return nil, err
	}
	return pair, nil
}

// mergeIteration is one round of phase 2: every even run is merged with the
// odd run that follows it, and the doubled runs are dealt alternately onto
// out starting with its even side.
func mergeIteration(in, out *scratchPair) error {
	in.reset()
	out.reset()

	dest := sideEven
	for processed := 0; processed < in.total; {
		leftLen := min(in.chunkLen, in.total-processed)
		rightLen := min(in.chunkLen, in.total-processed-leftLen)

		if err := mergeRuns(in.even, leftLen, in.odd, rightLen, out.tape(dest)); err != nil {
			return fmt.Errorf("merge into %s: %w", dest, err)
		}
		out.last = dest
		dest = dest.other()
		processed += leftLen + rightLen
	}

	out.chunkLen = in.chunkLen * 2
	return nil
}

// mergeRuns merges the next leftLen cells of left with the next rightLen
// cells of right into dst. Stable: on ties the left (even) cell goes first.
func mergeRuns(left Tape, leftLen int, right Tape, rightLen int, dst Tape) error {
	var lv, rv int32
	var err error
	if leftLen > 0 {
		if lv, err = left.Read(); err != nil {
			return err
		}
	}
	if rightLen > 0 {
		if rv, err = right.Read(); err != nil {
			return err
		}
	}

	li, ri := 0, 0
	for li < leftLen || ri < rightLen {
		if li < leftLen && (ri >= rightLen || lv <= rv) {
			if err := dst.Write(lv); err != nil {
				return err
			}
			li++
			left.Next()
			if li < leftLen {
				if lv, err = left.Read(); err != nil {
					return err
				}
			}
		} else {
			if err := dst.Write(rv); err != nil {
				return err
			}
			ri++
			right.Next()
			if ri < rightLen {
				if rv, err = right.Read(); err != nil {
					return err
				}
			}
		}
		dst.Next()
	}
	return nil
}

// drain is phase 3: copy the single full run into output.
func drain(pair *scratchPair, output Tape) error {
	src := pair.tape(pair.last)
	src.Reset()
	output.Reset()
	for range pair.total {
		v, err := src.Read()
		if err != nil {
			return fmt.Errorf("read %s run: %w", pair.last, err)
		}
		if err := output.Write(v); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		src.Next()
		output.Next()
	}
	return nil
}

// writeCells writes vals at the current position of t, advancing past each.
func writeCells(t Tape, vals []int32) error {
	for _, v := range vals {
		if err := t.Write(v); err != nil {
			return err
		}
		t.Next()
	}
	return nil
}

// checkSizes verifies that output can hold exactly the input.
func checkSizes(input, output Tape) error {
	if input.Size() != output.Size() {
		return fmt.Errorf("%w: input has %d cells, output %d",
			tapeerrors.ErrSizeMismatch, input.Size(), output.Size())
	}
	return nil
}

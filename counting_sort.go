package tapesort

import (
	"fmt"

	tapeerrors "github.com/tamirms/tapesort/errors"
)

const (
	// maxTapeBufferBytes caps the window given to each of the input and
	// output tapes, so large budgets go to the counting table instead.
	maxTapeBufferBytes = 128 << 20

	// counterSize is the footprint of one counting-table slot.
	counterSize = 8
)

// CountingSort sorts input into output when the value range is unknown.
// It scans the input once for its minimum and maximum and then runs
// CountingSortRange, so the input is read at least twice.
func CountingSort(input, output Tape, memoryLimit int) error {
	tapeBuffer, _, err := countingBudget(memoryLimit)
	if err != nil {
		return err
	}
	if err := checkSizes(input, output); err != nil {
		return err
	}
	if input.Size() == 0 {
		return nil
	}

	if err := input.SetMemoryLimit(tapeBuffer); err != nil {
		return err
	}
	lo, hi, err := scanRange(input)
	if err != nil {
		return err
	}
	return CountingSortRange(input, output, memoryLimit, lo, hi)
}

// CountingSortRange sorts input into output given that every value lies in
// [lo, hi].
//
// Each input tape and output tape gets min(memoryLimit/4, 128 MiB) of
// buffer; the rest holds counters. When the range has more values than
// there are counters, the value domain is split into windows and the input
// is re-read once per window, lowest window first. Each window's counts are
// emitted before the next pass, so output is written once, left to right.
//
// A value outside [lo, hi] fails the sort with ErrValueOutOfRange.
func CountingSortRange(input, output Tape, memoryLimit int, lo, hi int32) error {
	if lo > hi {
		return fmt.Errorf("%w: [%d, %d]", tapeerrors.ErrInvalidRange, lo, hi)
	}
	tapeBuffer, counters, err := countingBudget(memoryLimit)
	if err != nil {
		return err
	}
	if err := checkSizes(input, output); err != nil {
		return err
	}
	n := input.Size()
	if n == 0 {
		return nil
	}

	if err := input.SetMemoryLimit(tapeBuffer); err != nil {
		return err
	}
	if err := output.SetMemoryLimit(tapeBuffer); err != nil {
		return err
	}

	span := int64(hi) - int64(lo) + 1
	windowSize := min(span, int64(counters))
	counts := make([]uint64, windowSize)

	output.Reset()
	written := 0
	for start := int64(lo); start <= int64(hi); start += windowSize {
		end := min(int64(hi), start+windowSize-1)
		window := counts[:end-start+1]
		clear(window)

		if err := countWindow(input, start, end, window); err != nil {
			return err
		}
		for i, c := range window {
			v := int32(start + int64(i))
			for range c {
				if err := output.Write(v); err != nil {
					return fmt.Errorf("write output: %w", err)
				}
				output.Next()
				written++
			}
		}
	}

	if written != n {
		return fmt.Errorf("%w: %d of %d values outside [%d, %d]",
			tapeerrors.ErrValueOutOfRange, n-written, n, lo, hi)
	}
	output.Reset()
	return nil
}

// countingBudget splits memoryLimit into the per-tape buffer and the number
// of counters.
func countingBudget(memoryLimit int) (tapeBuffer, counters int, err error) {
	tapeBuffer = min(max(memoryLimit, 0)/4, maxTapeBufferBytes)
	counters = (memoryLimit - 2*tapeBuffer) / counterSize
	if counters <= 0 {
		return 0, 0, fmt.Errorf("%w: counting sort has %d bytes left for counters, needs %d",
			tapeerrors.ErrMemoryTooSmall, max(memoryLimit-2*tapeBuffer, 0), counterSize)
	}
	return tapeBuffer, counters, nil
}

// scanRange returns the minimum and maximum of a non-empty tape.
func scanRange(t Tape) (lo, hi int32, err error) {
	t.Reset()
	if lo, err = t.Read(); err != nil {
		return 0, 0, fmt.Errorf("scan input: %w", err)
	}
	hi = lo
	for t.Next() {
		v, err := t.Read()
		if err != nil {
			return 0, 0, fmt.Errorf("scan input: %w", err)
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi, nil
}

// countWindow tallies the input values in [start, end] into counts.
func countWindow(input Tape, start, end int64, counts []uint64) error {
	input.Reset()
	for range input.Size() {
		v, err := input.Read()
		if err != nil {
			return fmt.Errorf("count input: %w", err)
		}
		if w := int64(v); w >= start && w <= end {
			counts[w-start]++
		}
		input.Next()
	}
	return nil
}

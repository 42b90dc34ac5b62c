package tapesort

import (
	"fmt"

	"github.com/tamirms/tapesort/config"
)

// Algorithm identifies the sort engine used for a run.
type Algorithm uint8

const (
	// AlgoChunkMerge forms sorted runs in memory and merges them across
	// scratch tapes. Works for any input.
	AlgoChunkMerge Algorithm = iota

	// AlgoCounting tallies values per window of a known range.
	AlgoCounting
)

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AlgoChunkMerge:
		return "chunk-merge"
	case AlgoCounting:
		return "counting"
	default:
		return "unknown"
	}
}

// SelectAlgorithm picks counting sort when the configuration carries a value
// range and chunk merge sort otherwise.
func SelectAlgorithm(cfg *config.Config) Algorithm {
	if cfg.ValueRange != nil {
		return AlgoCounting
	}
	return AlgoChunkMerge
}

// runAlgorithm sorts input into output with the engine cfg selects.
func runAlgorithm(algo Algorithm, input, output Tape, cfg *config.Config) error {
	switch algo {
	case AlgoCounting:
		return CountingSortRange(input, output, cfg.MemoryLimitBytes, cfg.ValueRange.Min, cfg.ValueRange.Max)
	case AlgoChunkMerge:
		return ChunkMergeSort(input, output, cfg.MemoryLimitBytes, cfg.StrictStackLimit)
	default:
		return fmt.Errorf("unknown algorithm %d", algo)
	}
}

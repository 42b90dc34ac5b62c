// Package tapesort sorts stores of 32-bit integers through a tape abstraction
// under a fixed memory budget.
//
// A tape is a sequential-access array of cells with a current position.
// Every cell access and every head movement is charged a simulated delay, so
// the sort engines are written to touch each tape mostly front to back. A
// FileTape keeps at most one window of cells in memory, sized by its memory
// limit, and spills additional state to temporary tapes on disk.
//
// # Basic Usage
//
// Sorting a store file:
//
//	cfg, err := config.Load("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := tapesort.SortFile("input.bin", "output.bin", cfg,
//	    tapesort.WithLogger(slog.Default())); err != nil {
//	    log.Fatal(err)
//	}
//
// Driving an engine directly:
//
//	in, err := tapesort.OpenFileTape("input.bin", tapesort.Delays{})
//	...
//	err = tapesort.ChunkMergeSort(in, out, 1<<20, false)
//
// # Package Structure
//
// The implementation is organized as follows:
//
//   - Tape contract: tape.go (Tape, Delays)
//   - File-backed tape: file_tape.go, window.go, tempname.go, tape_options.go
//   - Engines: chunk_merge_sort.go, scratch_pair.go, counting_sort.go
//   - File-level driver: file_sort.go, sort_options.go, algorithm.go
//   - Checking: verify.go, fingerprint.go, generate.go
//   - Cell codec: internal/encoding/
//   - Constant-stack chunk sort: internal/heapsort/
//   - Platform: fallocate_*.go, fadvise_*.go (OS-specific optimizations)
package tapesort

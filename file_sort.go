package tapesort

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tamirms/tapesort/config"
	tapeerrors "github.com/tamirms/tapesort/errors"
)

// SortFile sorts the store at inputPath into a new store at outputPath.
//
// The output is created (or truncated) and pre-allocated to the input length
// before sorting. Temporary tapes go to cfg.TempDir, which is created if
// missing (os.TempDir() when empty). The engine is chosen by
// SelectAlgorithm.
func SortFile(inputPath, outputPath string, cfg *config.Config, opts ...SortOption) (err error) {
	sc := defaultSortConfig()
	for _, opt := range opts {
		opt(sc)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fmt.Errorf("%w: create temp dir: %w", tapeerrors.ErrIO, err)
	}

	delays := Delays{
		Read:   cfg.Delays.Read(),
		Write:  cfg.Delays.Write(),
		Shift:  cfg.Delays.Shift(),
		Rewind: cfg.Delays.Rewind(),
	}
	tapeOpts := append([]TapeOption{WithTempDir(tempDir)}, sc.tapeOpts...)

	input, err := OpenFileTape(inputPath, delays, tapeOpts...)
	if err != nil {
		return fmt.Errorf("input tape: %w", err)
	}
	defer func() { err = errors.Join(err, input.Close()) }()
	if err := logPrefix(sc, "input tape loaded", input); err != nil {
		return err
	}

	if err := CreateStore(outputPath, input.Size()); err != nil {
		return fmt.Errorf("output tape: %w", err)
	}
	output, err := OpenFileTape(outputPath, delays, tapeOpts...)
	if err != nil {
		return fmt.Errorf("output tape: %w", err)
	}
	defer func() { err = errors.Join(err, output.Close()) }()

	algo := SelectAlgorithm(cfg)
	sc.logger.Info("sorting",
		"algorithm", algo.String(),
		"cells", input.Size(),
		"memory_limit_bytes", cfg.MemoryLimitBytes,
		"strict_stack_limit", cfg.StrictStackLimit)

	start := time.Now()
	if err := runAlgorithm(algo, input, output, cfg); err != nil {
		return fmt.Errorf("%s sort: %w", algo, err)
	}
	sc.logger.Info("sort finished", "algorithm", algo.String(), "elapsed", time.Since(start))

	return logPrefix(sc, "result", output)
}

// logPrefix logs the first cells of t and restores its position.
func logPrefix(sc *sortConfig, msg string, t *FileTape) error {
	if sc.prefixLimit == 0 || !sc.logger.Enabled(context.Background(), slog.LevelInfo) {
		return nil
	}
	prefix, err := ReadPrefix(t, sc.prefixLimit)
	if err != nil {
		return fmt.Errorf("read prefix of %s: %w", t.Path(), err)
	}
	sc.logger.Info(msg,
		"path", t.Path(),
		"cells", t.Size(),
		"prefix", prefix,
		"truncated", t.Size() > len(prefix))
	return nil
}

// ReadPrefix returns up to limit leading cells of t. The position of t is
// restored afterwards.
func ReadPrefix(t Tape, limit int) ([]int32, error) {
	old := t.Position()
	defer func() {
		t.Reset()
		t.Rewind(old)
	}()

	n := min(limit, t.Size())
	prefix := make([]int32, 0, max(n, 0))
	t.Reset()
	for range n {
		v, err := t.Read()
		if err != nil {
			return nil, err
		}
		prefix = append(prefix, v)
		t.Next()
	}
	return prefix, nil
}

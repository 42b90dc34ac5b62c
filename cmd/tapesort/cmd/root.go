// Package cmd provides the command-line interface for tapesort.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/tamirms/tapesort"
	"github.com/tamirms/tapesort/config"
)

const (
	envLogLevel = "TAPESORT_LOG_LEVEL"
	envTempDir  = "TAPESORT_TEMP_DIR"

	// defaultTempDir is used when neither the configuration nor the
	// environment names one.
	defaultTempDir = "tmp"
)

// Execute runs the CLI and exits. Registered cleanups run on every exit path.
func Execute() {
	if err := execute(newRootCmd(os.Stdout, os.Stderr)); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// execute runs root and, on failure, writes the error followed by the usage
// of the command that failed to root's error stream.
func execute(root *cobra.Command) error {
	cmd, err := root.ExecuteC()
	if err == nil {
		return nil
	}
	if cmd == nil {
		cmd = root
	}
	w := root.ErrOrStderr()
	fmt.Fprintf(w, "Error: %v\n", err)
	fmt.Fprint(w, cmd.UsageString())
	return err
}

type rootOptions struct {
	verify   bool
	logLevel string
	prefix   int
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "tapesort <input> <output> <config>",
		Short: "Sort a store of int32 cells through simulated tapes",
		Long: `Tapesort sorts a flat store of native-endian int32 cells into a new store, ` +
			`moving data only through tapes with simulated read, write and seek delays ` +
			`and a fixed memory budget. A value_range in the configuration selects counting ` +
			`sort; otherwise chunk merge sort is used.`,
		Args:          cobra.ExactArgs(3),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadEnv()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(cmd, opts, args[0], args[1], args[2])
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.Flags().BoolVar(&opts.verify, "verify", false, "verify the output is a sorted permutation of the input")
	root.Flags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	root.Flags().IntVar(&opts.prefix, "prefix", 20, "number of leading cells to log from each tape")

	root.AddCommand(newGenCmd(), newVerifyCmd())
	return root
}

// loadEnv loads .env from the working directory. A missing file is not an
// error.
func loadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	if env := os.Getenv(envLogLevel); env != "" {
		level = env
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func runSort(cmd *cobra.Command, opts *rootOptions, inputPath, outputPath, configPath string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), opts.logLevel)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if env := os.Getenv(envTempDir); env != "" {
		cfg.TempDir = env
	}
	if cfg.TempDir == "" {
		cfg.TempDir = defaultTempDir
	}
	if err := prepareTempDir(cfg.TempDir, logger); err != nil {
		return err
	}

	logger.Debug("configuration loaded",
		"path", configPath,
		"memory_limit_bytes", cfg.MemoryLimitBytes,
		"strict_stack_limit", cfg.StrictStackLimit,
		"counting", cfg.ValueRange != nil,
		"temp_dir", cfg.TempDir)

	if err := tapesort.SortFile(inputPath, outputPath, cfg,
		tapesort.WithLogger(logger),
		tapesort.WithPrefixLimit(opts.prefix)); err != nil {
		return err
	}

	if opts.verify {
		report, err := tapesort.Verify(inputPath, outputPath)
		if err != nil {
			return err
		}
		logger.Info("output verified", "cells", report.Cells)
	}
	return nil
}

// prepareTempDir creates dir if it does not exist and registers its removal
// at exit. os.Remove leaves the directory in place if anything is left in it.
func prepareTempDir(dir string, logger *slog.Logger) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat temp dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	atexit.Register(func() {
		if err := os.Remove(abs); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("temp dir left behind", "path", abs, "err", err)
		}
	})
	return nil
}

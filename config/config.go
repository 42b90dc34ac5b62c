// Package config loads tapesort run configuration from YAML.
//
// Example:
//
//	delays:
//	  read_ms: 1
//	  write_ms: 1
//	  shift_ms: 1
//	  rewind_ms: 5
//	memory_limit_bytes: 4096
//	strict_stack_limit: false
//	value_range: [-100, 100]
//
// A value_range with exactly two items selects counting sort; anything else
// selects chunk merge sort.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	tapeerrors "github.com/tamirms/tapesort/errors"
)

// Config holds the settings for one sort invocation. It is not modified
// after loading.
type Config struct {
	Delays           Delays
	MemoryLimitBytes int
	StrictStackLimit bool

	// ValueRange is the inclusive counting sort range, nil when absent.
	ValueRange *ValueRange

	// TempDir is where temporary tapes are created. Empty means the
	// directory the caller chooses (the CLI defaults to ./tmp).
	TempDir string
}

// Delays are the simulated tape latencies in milliseconds.
type Delays struct {
	ReadMs   uint64
	WriteMs  uint64
	ShiftMs  uint64
	RewindMs uint64
}

// ValueRange is an inclusive [Min, Max] range.
type ValueRange struct {
	Min int32
	Max int32
}

// Read returns the read delay.
func (d Delays) Read() time.Duration { return ms(d.ReadMs) }

// Write returns the write delay.
func (d Delays) Write() time.Duration { return ms(d.WriteMs) }

// Shift returns the one-cell move delay.
func (d Delays) Shift() time.Duration { return ms(d.ShiftMs) }

// Rewind returns the arbitrary-offset move delay.
func (d Delays) Rewind() time.Duration { return ms(d.RewindMs) }

func ms(v uint64) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// fileConfig mirrors the YAML layout. Pointers distinguish a missing field
// from a zero value.
type fileConfig struct {
	Delays *struct {
		ReadMs   *uint64 `yaml:"read_ms"`
		WriteMs  *uint64 `yaml:"write_ms"`
		ShiftMs  *uint64 `yaml:"shift_ms"`
		RewindMs *uint64 `yaml:"rewind_ms"`
	} `yaml:"delays"`
	MemoryLimitBytes *int    `yaml:"memory_limit_bytes"`
	StrictStackLimit *bool   `yaml:"strict_stack_limit"`
	ValueRange       []int32 `yaml:"value_range"`
	TempDir          string  `yaml:"temp_dir"`
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %q: %w", tapeerrors.ErrConfig, path, err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration document from r.
func Parse(r io.Reader) (*Config, error) {
	var fc fileConfig
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", tapeerrors.ErrConfig, err)
	}

	var missing []string
	if fc.Delays == nil {
		missing = append(missing, "delays")
	} else {
		if fc.Delays.ReadMs == nil {
			missing = append(missing, "delays.read_ms")
		}
		if fc.Delays.WriteMs == nil {
			missing = append(missing, "delays.write_ms")
		}
		if fc.Delays.ShiftMs == nil {
			missing = append(missing, "delays.shift_ms")
		}
		if fc.Delays.RewindMs == nil {
			missing = append(missing, "delays.rewind_ms")
		}
	}
	if fc.MemoryLimitBytes == nil {
		missing = append(missing, "memory_limit_bytes")
	}
	if fc.StrictStackLimit == nil {
		missing = append(missing, "strict_stack_limit")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", tapeerrors.ErrConfig, missing)
	}

	cfg := &Config{
		Delays: Delays{
			ReadMs:   *fc.Delays.ReadMs,
			WriteMs:  *fc.Delays.WriteMs,
			ShiftMs:  *fc.Delays.ShiftMs,
			RewindMs: *fc.Delays.RewindMs,
		},
		MemoryLimitBytes: *fc.MemoryLimitBytes,
		StrictStackLimit: *fc.StrictStackLimit,
		TempDir:          fc.TempDir,
	}
	// Only a two-item range selects counting sort; other lengths are ignored.
	if len(fc.ValueRange) == 2 {
		cfg.ValueRange = &ValueRange{Min: fc.ValueRange[0], Max: fc.ValueRange[1]}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values that YAML typing cannot.
func (c *Config) Validate() error {
	if c.MemoryLimitBytes < 0 {
		return fmt.Errorf("%w: memory_limit_bytes is negative (%d)", tapeerrors.ErrConfig, c.MemoryLimitBytes)
	}
	if r := c.ValueRange; r != nil && r.Min > r.Max {
		return fmt.Errorf("%w: value_range [%d, %d]: %w", tapeerrors.ErrConfig, r.Min, r.Max, tapeerrors.ErrInvalidRange)
	}
	return nil
}

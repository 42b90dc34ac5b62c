package tapesort

import (
	"io"
	"log/slog"
)

// defaultPrefixLimit is how many leading cells of each tape SortFile logs.
const defaultPrefixLimit = 20

// SortOption is a functional option for configuring SortFile.
type SortOption func(*sortConfig)

type sortConfig struct {
	logger      *slog.Logger
	prefixLimit int
	tapeOpts    []TapeOption
}

func defaultSortConfig() *sortConfig {
	return &sortConfig{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		prefixLimit: defaultPrefixLimit,
	}
}

// WithLogger sets the logger for progress and tape prefixes.
// By default SortFile logs nothing.
func WithLogger(logger *slog.Logger) SortOption {
	return func(c *sortConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrefixLimit sets how many leading cells of the input and output tapes
// are logged. Zero disables prefix logging.
func WithPrefixLimit(n int) SortOption {
	return func(c *sortConfig) {
		c.prefixLimit = max(n, 0)
	}
}

// WithTapeOptions passes extra options to every tape SortFile opens.
// They are applied after the temp dir from the configuration.
func WithTapeOptions(opts ...TapeOption) SortOption {
	return func(c *sortConfig) {
		c.tapeOpts = append(c.tapeOpts, opts...)
	}
}

package tapesort

import "time"

// TapeOption is a functional option for configuring a FileTape.
type TapeOption func(*tapeConfig)

type tapeConfig struct {
	memoryLimit int
	tempDir     string
	sleep       func(time.Duration)
}

func defaultTapeConfig() *tapeConfig {
	return &tapeConfig{
		sleep: time.Sleep,
	}
}

// WithMemoryLimit sets the initial window budget in bytes.
// The default of 0 caches a single cell at a time.
func WithMemoryLimit(bytes int) TapeOption {
	return func(c *tapeConfig) {
		c.memoryLimit = bytes
	}
}

// WithTempDir sets the directory for temporary tapes created by this tape
// and, transitively, by its temporaries. Defaults to os.TempDir().
// The directory must exist.
func WithTempDir(dir string) TapeOption {
	return func(c *tapeConfig) {
		c.tempDir = dir
	}
}

// WithSleeper replaces time.Sleep as the way delays are charged.
// Tests use it to record delays instead of waiting them out.
func WithSleeper(sleep func(time.Duration)) TapeOption {
	return func(c *tapeConfig) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

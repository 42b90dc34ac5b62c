//go:build linux

package tapesort

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential doubles the kernel readahead for file. Engines walk
// input tapes front to back, so the larger readahead keeps small windows
// from stalling on every refill. Failure only costs speed.
func adviseSequential(file *os.File) {
	_ = unix.Fadvise(int(file.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}

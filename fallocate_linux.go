//go:build linux

package tapesort

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/tamirms/tapesort/internal/encoding"
)

// reserveCells grows file to cells zero cells with the blocks allocated,
// so a later window flush cannot hit ENOSPC halfway through a sort.
func reserveCells(file *os.File, cells int) error {
	if cells <= 0 {
		return nil
	}
	size := int64(cells) * encoding.CellSize
	fd := int(file.Fd())
	// Mode 0 extends the file size as well as the blocks.
	err := unix.Fallocate(fd, 0, 0, size)
	if err == nil {
		return nil
	}
	// tmpfs on old kernels and some network mounts: a sparse tape still
	// reads back as zeros.
	if errors.Is(err, unix.EOPNOTSUPP) || errors.Is(err, unix.ENOSYS) {
		return unix.Ftruncate(fd, size)
	}
	return err
}

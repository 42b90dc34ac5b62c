//go:build darwin

package tapesort

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/tamirms/tapesort/internal/encoding"
)

// reserveCells grows file to cells zero cells. F_PREALLOCATE only reserves
// blocks past EOF, so the size is always set with ftruncate afterwards.
func reserveCells(file *os.File, cells int) error {
	if cells <= 0 {
		return nil
	}
	size := int64(cells) * encoding.CellSize
	store := unix.Fstore_t{
		Flags:   unix.F_ALLOCATECONTIG,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	}
	if err := unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &store); err != nil {
		// No contiguous run left; take whatever blocks the volume has.
		store.Flags = unix.F_ALLOCATEALL
		_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &store)
	}
	return unix.Ftruncate(int(file.Fd()), size)
}

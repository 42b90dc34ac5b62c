//go:build !linux && !darwin

package tapesort

import (
	"os"

	"github.com/tamirms/tapesort/internal/encoding"
)

// reserveCells grows file to cells zero cells. Blocks are not reserved.
func reserveCells(file *os.File, cells int) error {
	if cells <= 0 {
		return nil
	}
	return file.Truncate(int64(cells) * encoding.CellSize)
}

// Package encoding provides the cell codec for tape stores.
//
// A store is a flat array of 4-byte signed integers in the host's native byte
// order with no header. Windows are kept as raw bytes so that the in-memory
// footprint of a window equals its byte budget exactly; cells are decoded on
// access rather than copied into a second []int32.
package encoding

import "encoding/binary"

// CellSize is the width of one stored element in bytes.
const CellSize = 4

// Cell reads the cell at index i of buf.
// Precondition: len(buf) >= (i+1)*CellSize.
func Cell(buf []byte, i int) int32 {
	return int32(binary.NativeEndian.Uint32(buf[i*CellSize:]))
}

// PutCell writes v into the cell at index i of buf.
// Precondition: len(buf) >= (i+1)*CellSize.
func PutCell(buf []byte, i int, v int32) {
	binary.NativeEndian.PutUint32(buf[i*CellSize:], uint32(v))
}

// Cells returns the number of whole cells in buf.
func Cells(buf []byte) int {
	return len(buf) / CellSize
}

// AppendCells appends the encoding of vals to dst.
func AppendCells(dst []byte, vals ...int32) []byte {
	for _, v := range vals {
		dst = binary.NativeEndian.AppendUint32(dst, uint32(v))
	}
	return dst
}

// DecodeCells decodes every whole cell of buf into a new slice.
// Intended for small stores (tests, prefixes); engines never call it.
func DecodeCells(buf []byte) []int32 {
	out := make([]int32, Cells(buf))
	for i := range out {
		out[i] = Cell(buf, i)
	}
	return out
}

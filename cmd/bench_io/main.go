// bench_io measures FileTape sequential throughput as a function of its
// memory limit (window size):
//
//  1. "read":  Read+Next over every cell
//  2. "write": Write+Next over every cell, then Close to flush
//  3. "back":  Prev+Read from the last cell down to the first
//
// Usage:
//
//	go run ./cmd/bench_io -cells 4000000
//	go run ./cmd/bench_io -cells 4000000 -limits 4,64,4096 -mode read
//
// To see the effect of the page cache, drop caches between runs:
//
//	sync && echo 3 | sudo tee /proc/sys/vm/drop_caches
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tamirms/tapesort"
)

func main() {
	numCells := flag.Int("cells", 4_000_000, "number of cells in the store")
	limitsFlag := flag.String("limits", "4,64,1024,65536,1048576", "comma-separated memory limits in bytes")
	mode := flag.String("mode", "all", "mode: read, write, back, or all")
	tmpDir := flag.String("dir", "", "temp directory (default: os.TempDir())")
	flag.Parse()

	if *tmpDir == "" {
		*tmpDir = os.TempDir()
	}
	var limits []int
	for _, s := range strings.Split(*limitsFlag, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			fmt.Printf("Bad limit %q: %v\n", s, err)
			return
		}
		limits = append(limits, v)
	}

	dir, err := os.MkdirTemp(*tmpDir, "bench-io-")
	if err != nil {
		fmt.Printf("ERROR: create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(dir) }()
	path := filepath.Join(dir, "store.bin")
	if err := tapesort.Generate(path, *numCells, -1<<30, 1<<30, 42); err != nil {
		fmt.Printf("ERROR: generate: %v\n", err)
		return
	}

	fmt.Printf("Configuration:\n")
	fmt.Printf("  Cells:     %d (%.1f MB)\n", *numCells, float64(*numCells)*4/1e6)
	fmt.Printf("  Temp dir:  %s\n", dir)
	fmt.Println()

	for _, limit := range limits {
		fmt.Printf("=== limit %d bytes (%d-cell window) ===\n", limit, max(1, limit/4))
		if *mode == "read" || *mode == "all" {
			report("read", *numCells, func() error { return benchRead(path, limit) })
		}
		if *mode == "write" || *mode == "all" {
			report("write", *numCells, func() error { return benchWrite(path, limit) })
		}
		if *mode == "back" || *mode == "all" {
			report("back", *numCells, func() error { return benchBackward(path, limit) })
		}
		fmt.Println()
	}
}

func report(name string, cells int, fn func() error) {
	start := time.Now()
	if err := fn(); err != nil {
		fmt.Printf("  %-6s ERROR: %v\n", name+":", err)
		return
	}
	d := time.Since(start)
	fmt.Printf("  %-6s %6.2fs (%6.2f M cells/sec)\n", name+":", d.Seconds(), float64(cells)/d.Seconds()/1e6)
}

func benchRead(path string, limit int) error {
	t, err := tapesort.OpenFileTape(path, tapesort.Delays{}, tapesort.WithMemoryLimit(limit))
	if err != nil {
		return err
	}
	var checksum int64
	for range t.Size() {
		v, err := t.Read()
		if err != nil {
			_ = t.Close()
			return err
		}
		checksum += int64(v)
		t.Next()
	}
	_ = checksum
	return t.Close()
}

func benchWrite(path string, limit int) error {
	t, err := tapesort.OpenFileTape(path, tapesort.Delays{}, tapesort.WithMemoryLimit(limit))
	if err != nil {
		return err
	}
	for i := range t.Size() {
		if err := t.Write(int32(i)); err != nil {
			_ = t.Close()
			return err
		}
		t.Next()
	}
	return t.Close()
}

func benchBackward(path string, limit int) error {
	t, err := tapesort.OpenFileTape(path, tapesort.Delays{}, tapesort.WithMemoryLimit(limit))
	if err != nil {
		return err
	}
	t.Rewind(t.Size() - 1)
	for range t.Size() {
		if _, err := t.Read(); err != nil {
			_ = t.Close()
			return err
		}
		t.Prev()
	}
	return t.Close()
}

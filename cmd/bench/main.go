// Bench measures tapesort engine throughput and peak memory against the
// configured memory limit.
//
// Usage:
//
//	go run ./cmd/bench -cells 10000000 -mem 1048576 -algo both
//
// Flags:
//
//	-cells     Number of cells in the generated input (default: 1,000,000)
//	-min/-max  Value range of the generated input (default: -1,000,000..1,000,000)
//	-mem       Memory limit in bytes handed to the engine (default: 1 MiB)
//	-algo      Engine: chunk-merge, counting, or both (default: both)
//	-strict    Use heap sort for chunk merge sort runs (default: false)
//	-seed      Input seed (default: 1)
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/metrics"
	"runtime/pprof"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/tamirms/tapesort"
	"github.com/tamirms/tapesort/config"
)

// getMaxRSS returns the maximum resident set size in bytes.
// Uses getrusage(RUSAGE_SELF) which tracks peak RSS since process start.
func getMaxRSS() uint64 {
	var rusage syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &rusage); err != nil {
		return 0
	}
	// On macOS, MaxRss is in bytes. On Linux, it's in kilobytes.
	maxRSS := uint64(rusage.Maxrss)
	if runtime.GOOS == "linux" {
		maxRSS *= 1024
	}
	return maxRSS
}

// peakSampler tracks the live heap every 10ms until stopped.
type peakSampler struct {
	peak atomic.Uint64
	done chan struct{}
}

func startSampler() *peakSampler {
	s := &peakSampler{done: make(chan struct{})}
	go func() {
		samples := []metrics.Sample{
			{Name: "/memory/classes/heap/objects:bytes"},
		}
		ticker := time.NewTicker(10 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				metrics.Read(samples)
				heapBytes := samples[0].Value.Uint64()
				for {
					old := s.peak.Load()
					if heapBytes <= old || s.peak.CompareAndSwap(old, heapBytes) {
						break
					}
				}
			}
		}
	}()
	return s
}

func (s *peakSampler) stop() uint64 {
	close(s.done)
	return s.peak.Load()
}

type result struct {
	algo     tapesort.Algorithm
	duration time.Duration
	peakHeap uint64
	err      error
}

func main() {
	cellsFlag := flag.Int("cells", 1_000_000, "number of cells")
	minFlag := flag.Int("min", -1_000_000, "smallest generated value")
	maxFlag := flag.Int("max", 1_000_000, "largest generated value")
	memFlag := flag.Int("mem", 1<<20, "memory limit in bytes")
	algoFlag := flag.String("algo", "both", "engine: chunk-merge, counting, or both")
	strictFlag := flag.Bool("strict", false, "use heap sort for chunk merge sort runs")
	seedFlag := flag.Uint64("seed", 1, "input seed")
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file (sort phase only)")
	memprofile := flag.String("memprofile", "", "write memory profile to file (after the last sort)")
	flag.Parse()

	var algos []tapesort.Algorithm
	switch *algoFlag {
	case "chunk-merge":
		algos = []tapesort.Algorithm{tapesort.AlgoChunkMerge}
	case "counting":
		algos = []tapesort.Algorithm{tapesort.AlgoCounting}
	case "both":
		algos = []tapesort.Algorithm{tapesort.AlgoChunkMerge, tapesort.AlgoCounting}
	default:
		fmt.Printf("Unknown algorithm: %s (use 'chunk-merge', 'counting' or 'both')\n", *algoFlag)
		return
	}

	tmpDir, err := os.MkdirTemp("", "tapesort-bench-")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		return
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	inputPath := filepath.Join(tmpDir, "input.bin")
	lo, hi := int32(*minFlag), int32(*maxFlag)
	fmt.Println("Generating input...")
	genStart := time.Now()
	if err := tapesort.Generate(inputPath, *cellsFlag, lo, hi, *seedFlag); err != nil {
		fmt.Printf("Generate failed: %v\n", err)
		return
	}
	genDuration := time.Since(genStart)

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Printf("could not create CPU profile: %v\n", err)
			return
		}
		defer func() { _ = f.Close() }()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Printf("could not start CPU profile: %v\n", err)
			return
		}
	}

	baselineRSS := getMaxRSS()
	var results []result
	for _, algo := range algos {
		cfg := &config.Config{
			MemoryLimitBytes: *memFlag,
			StrictStackLimit: *strictFlag,
			TempDir:          tmpDir,
		}
		if algo == tapesort.AlgoCounting {
			cfg.ValueRange = &config.ValueRange{Min: lo, Max: hi}
		}
		outputPath := filepath.Join(tmpDir, "output-"+algo.String()+".bin")

		fmt.Printf("Sorting with %s...\n", algo)
		runtime.GC()
		var baseline runtime.MemStats
		runtime.ReadMemStats(&baseline)
		sampler := startSampler()

		start := time.Now()
		err := tapesort.SortFile(inputPath, outputPath, cfg, tapesort.WithPrefixLimit(0))
		r := result{algo: algo, duration: time.Since(start), err: err}
		if peak := sampler.stop(); peak > baseline.HeapAlloc {
			r.peakHeap = peak - baseline.HeapAlloc
		}
		if err == nil {
			if _, verr := tapesort.Verify(inputPath, outputPath); verr != nil {
				r.err = fmt.Errorf("verify: %w", verr)
			}
		}
		results = append(results, r)
	}

	if *cpuprofile != "" {
		pprof.StopCPUProfile()
	}
	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Printf("could not create memory profile: %v\n", err)
		} else {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Printf("could not write memory profile: %v\n", err)
			}
			_ = f.Close()
		}
	}
	peakRSSMem := getMaxRSS() - baselineRSS

	fmt.Printf("\n")
	fmt.Printf("Cells: %d in [%d, %d]   Memory limit: %d bytes   Generate: %.2f sec\n",
		*cellsFlag, lo, hi, *memFlag, genDuration.Seconds())
	fmt.Printf("╔═════════════════╦════════════════╦════════════════╦══════════════════╗\n")
	fmt.Printf("║ Engine          ║ Time           ║ Throughput     ║ Peak heap        ║\n")
	fmt.Printf("╠═════════════════╬════════════════╬════════════════╬══════════════════╣\n")
	for _, r := range results {
		if r.err != nil {
			fmt.Printf("║ %-15s ║ failed: %-52v ║\n", r.algo, r.err)
			continue
		}
		fmt.Printf("║ %-15s ║ %8.2f sec   ║ %6.2f M/sec   ║ %10.1f KB    ║\n",
			r.algo, r.duration.Seconds(),
			float64(*cellsFlag)/r.duration.Seconds()/1_000_000,
			float64(r.peakHeap)/1000)
	}
	fmt.Printf("╚═════════════════╩════════════════╩════════════════╩══════════════════╝\n")
	fmt.Printf("Peak RSS growth: %.1f MB\n", float64(peakRSSMem)/1_000_000)
}

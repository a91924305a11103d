// Command numastat initializes the NUMA allocator, prints topology, runs a
// small allocate/free workload, and reports global stats — a diagnostic
// harness in the shape of bnclabs-gostore/tools/pools's flag-driven main.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/noahbean33/memory-allocator/numalloc"
)

var options struct {
	nodeCapacity int64
	iterations   int
	blockSize    int64
	verbose      bool
}

func argParse() {
	flag.Int64Var(&options.nodeCapacity, "nodecapacity", 64*1024*1024,
		"bytes of virtual memory reserved per NUMA node")
	flag.IntVar(&options.iterations, "iterations", 100000,
		"number of allocate/free round trips to run")
	flag.Int64Var(&options.blockSize, "blocksize", 64,
		"size in bytes of each allocated block")
	flag.BoolVar(&options.verbose, "verbose", false,
		"enable structured diagnostic logging")
	flag.Parse()
}

func main() {
	argParse()

	var opts []numalloc.Option
	if options.verbose {
		log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		opts = append(opts, numalloc.WithLogger(log))
	}

	a := numalloc.NewAllocator(opts...)
	if err := a.Init(numalloc.DefaultSettings(options.nodeCapacity)); err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Cleanup()

	a.PrintTopology()
	runWorkload(a)

	allocs, frees := a.ThreadStats()
	requested, granted, highWater := a.Stats()
	fmt.Printf("thread_stats: allocs=%d frees=%d\n", allocs, frees)
	fmt.Printf("stats: requested=%d granted=%d highwater=%d\n",
		requested, granted, highWater)
}

func runWorkload(a *numalloc.Allocator) {
	for i := 0; i < options.iterations; i++ {
		p := a.Allocate(options.blockSize)
		if p == nil {
			fmt.Fprintf(os.Stderr, "allocation failed at iteration %d\n", i)
			os.Exit(1)
		}
		a.Free(p)
	}
}

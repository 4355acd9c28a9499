// ABOUTME: Entry point for the stroke-grader application
// ABOUTME: Handles command-line parsing, profiling, and routing to CLI, TUI or view modes

// Package main provides the entry point for stroke-grader, a genetic
// algorithm-based handwriting grader for logographic characters.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
)

func main() {
	os.Exit(run())
}

func run() int {
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile := flag.String("memprofile", "", "write memory profile to file")
	visual := flag.Bool("visual", false, "run in visual/interactive mode with live parameter tuning")
	view := flag.Bool("view", false, "watch the attempt file and re-grade on every change")
	written := flag.String("written", "", "written attempt file (JSON stroke array); default is the reference itself")
	corrupt := flag.Bool("corrupt", false, "corrupt a copy of the reference instead of loading an attempt (demo)")
	seed := flag.Uint64("seed", 0, "random seed for the GA and the corruption harness (0 = nondeterministic)")
	plotPrefix := flag.String("plot", "", "write <prefix>-match.png and <prefix>-history.png after grading")
	debug := flag.Bool("debug", false, "enable debug logging to stroke-grader-debug.log")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Println("Usage: stroke-grader [flags] <dataset.jsonl> <character>")
		fmt.Println("Example: stroke-grader -corrupt -seed 7 graphics.txt 永")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()

		return 1
	}

	opts := RunOptions{
		DatasetPath: args[0],
		Character:   args[1],
		AttemptPath: *written,
		Corrupt:     *corrupt,
		Seed:        *seed,
		PlotPrefix:  *plotPrefix,
		DebugLog:    *debug,
	}

	if *cpuprofile != "" {
		stopCPUProfile := setupCPUProfile(*cpuprofile)
		defer stopCPUProfile()
	}

	if *memprofile != "" {
		defer writeMemoryProfile(*memprofile)
	}

	if *debug {
		if err := SetupDebugLog("stroke-grader-debug.log"); err != nil {
			log.Printf("Failed to setup debug log: %v", err)

			return 1
		}
	}

	switch {
	case *visual:
		if err := RunTUI(opts); err != nil {
			log.Printf("TUI error: %v", err)

			return 1
		}
	case *view:
		if err := RunViewMode(opts); err != nil {
			log.Printf("View error: %v", err)

			return 1
		}
	default:
		if err := RunCLI(opts); err != nil {
			log.Printf("CLI error: %v", err)

			return 1
		}
	}

	return 0
}

// setupCPUProfile starts CPU profiling, returns cleanup function
func setupCPUProfile(filename string) func() {
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("could not create CPU profile: %v", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		log.Fatalf("could not start CPU profile: %v", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close CPU profile: %v", err)
		}
	}
}

// writeMemoryProfile writes memory profile to file
func writeMemoryProfile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Printf("could not create memory profile: %v", err)

		return
	}

	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close memory profile: %v", err)
		}
	}()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("could not write memory profile: %v", err)
	}
}

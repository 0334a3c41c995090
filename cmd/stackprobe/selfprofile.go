package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/felixge/fgprof"
	gpprof "github.com/google/pprof/profile"
	"github.com/pkg/profile"
)

// startSelfProfile wraps the sampling loop in the command's own profiling
// stack when --self-profile is set: a standard on-CPU profile via
// pkg/profile, plus an fgprof profile (on-CPU and off-CPU/blocked time
// together, useful here since most of a sampling loop's time is spent
// blocked in process_vm_readv). The returned func stops both and prints a
// short top-function summary parsed back out of the fgprof output.
func startSelfProfile(dir string) func() {
	stopCPU := profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook).Stop

	fgprofPath := dir + "/fgprof.pprof"

	f, err := os.Create(fgprofPath)
	if err != nil {
		log.Printf("self-profile: could not create %s: %v", fgprofPath, err)

		return stopCPU
	}

	stopFgprof := fgprof.Start(f, fgprof.FormatPprof)

	return func() {
		stopCPU()

		if err := stopFgprof(); err != nil {
			log.Printf("self-profile: stopping fgprof: %v", err)
		}

		f.Close()

		printTopFunctions(fgprofPath)
	}
}

// printTopFunctions reads the fgprof pprof file back with
// google/pprof/profile and prints the five most-sampled functions, a quick
// sanity check that doesn't require a separate `go tool pprof` invocation.
func printTopFunctions(path string) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	prof, err := gpprof.Parse(f)
	if err != nil {
		log.Printf("self-profile: parsing %s: %v", path, err)

		return
	}

	totals := map[string]int64{}

	for _, sample := range prof.Sample {
		for _, loc := range sample.Location {
			for _, line := range loc.Line {
				if line.Function == nil {
					continue
				}

				var v int64
				if len(sample.Value) > 0 {
					v = sample.Value[0]
				}

				totals[line.Function.Name] += v
			}
		}
	}

	type row struct {
		name  string
		total int64
	}

	rows := make([]row, 0, len(totals))
	for name, total := range totals {
		rows = append(rows, row{name, total})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].total > rows[j].total })

	limit := 5
	if len(rows) < limit {
		limit = len(rows)
	}

	for _, r := range rows[:limit] {
		fmt.Fprintf(os.Stderr, "%10d  %s\n", r.total, r.name)
	}
}

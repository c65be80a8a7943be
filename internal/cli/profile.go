package cli

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strconv"

	"github.com/Anthya1104/raid-engine/internal/raid"
	"github.com/google/pprof/profile"
)

// cmdProfile drives a read/write stress loop against the configured device
// under runtime/pprof CPU profiling, then reopens the recorded profile with
// google/pprof's profile package and prints a short sample-count summary.
//
// This is the CLI-facing analogue of the teacher's defs.D_PROF "profiling
// device" (biscuit/src/defs/device.go) — there is no kernel /dev/prof node
// to drive from a Go process, so the same concern surfaces here as an
// on-demand CPU profile of the engine's own hot path instead.
func cmdProfile(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: profile <iterations> <outfile>")
		os.Exit(1)
	}
	iterations, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("bad iterations %q: %v", args[0], err)
	}
	outfile := args[1]

	e, closeDev, err := openEngine(dataDir())
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	f, err := os.Create(outfile)
	if err != nil {
		log.Fatalf("create %s: %v", outfile, err)
	}
	defer f.Close()

	if err := pprof.StartCPUProfile(f); err != nil {
		log.Fatalf("start profile: %v", err)
	}
	if err := stress(e, iterations); err != nil {
		pprof.StopCPUProfile()
		log.Fatalf("stress loop: %v", err)
	}
	pprof.StopCPUProfile()

	summarizeProfile(outfile)
}

// stress writes then reads logical block 0 repeatedly, covering the same
// readRaid/writeRaid paths a real workload would exercise.
func stress(e *raid.Engine, iterations int) error {
	ctx := context.Background()
	_, bsize, _, err := e.Info(ctx)
	if err != nil {
		return err
	}
	buf := make([]byte, bsize)
	for i := 0; i < iterations; i++ {
		buf[0] = byte(i)
		if err := e.WriteBlock(ctx, 0, buf); err != nil {
			return err
		}
		if err := e.ReadBlock(ctx, 0, buf); err != nil {
			return err
		}
	}
	return nil
}

func summarizeProfile(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read profile %s: %v", path, err)
	}
	prof, err := profile.Parse(bytes.NewReader(raw))
	if err != nil {
		log.Fatalf("parse profile %s: %v", path, err)
	}
	fmt.Printf("profile: %d samples, %d value types, duration %ds\n",
		len(prof.Sample), len(prof.SampleType), prof.DurationNanos/1e9)
}

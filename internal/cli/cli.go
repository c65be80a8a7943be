// Package cli drives the RAID virtualization engine from the command line.
//
// It follows the same bare os.Args dispatch the teacher's own chentry
// command uses (biscuit/src/kernel/chentry.go): a usage() helper, plain
// fmt.Printf for output, and log.Fatal on operator error — no flag-parsing
// library, since none of the teacher's own commands use one.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/Anthya1104/raid-engine/internal/config"
	"github.com/Anthya1104/raid-engine/internal/raid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// usage prints a small help message and terminates the program, mirroring
// chentry.go's usage(me string).
func usage(me string) {
	fmt.Printf(`%s <command> [args...]

Commands:
  init <disks> <bsize> <scheme>   configure the engine (scheme: raid0, raid1, raid01, raid4, raid5)
  read <lbn>                      read and print a logical block
  write <lbn> <data>              write data (padded/truncated to block size) to a logical block
  fail <disk>                     mark a 1-based disk index broken
  repair <disk>                   clear a disk's broken flag and rebuild it
  info                            report logical geometry
  destroy                         unconfigure the engine
  version                         print version info
  profile <iterations> <outfile>  CPU-profile a read/write stress loop to outfile

The device directory defaults to %s; override with $RAIDCTL_DIR.
`, me, config.DefaultDataDir)
	os.Exit(1)
}

// Run dispatches args (normally os.Args[1:]) to the matching subcommand.
func Run(args []string) {
	if len(args) < 1 {
		usage(progName())
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		cmdInit(rest)
	case "read":
		cmdRead(rest)
	case "write":
		cmdWrite(rest)
	case "fail":
		cmdFail(rest)
	case "repair":
		cmdRepair(rest)
	case "info":
		cmdInfo(rest)
	case "destroy":
		cmdDestroy(rest)
	case "version":
		cmdVersion(rest)
	case "profile":
		cmdProfile(rest)
	default:
		fmt.Printf("unknown command %q\n", cmd)
		usage(progName())
	}
}

func progName() string {
	if len(os.Args) > 0 {
		return os.Args[0]
	}
	return "raidctl"
}

func dataDir() string {
	if d := os.Getenv("RAIDCTL_DIR"); d != "" {
		return d
	}
	return config.DefaultDataDir
}

func cmdInit(args []string) {
	if len(args) != 3 {
		fmt.Println("usage: init <disks> <bsize> <scheme>")
		os.Exit(1)
	}
	disks, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("bad disks %q: %v", args[0], err)
	}
	bsize, err := strconv.Atoi(args[1])
	if err != nil {
		log.Fatalf("bad bsize %q: %v", args[1], err)
	}
	scheme, err := schemeFromFlag(args[2])
	if err != nil {
		log.Fatal(err)
	}

	dir := dataDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("mkdir %s: %v", dir, err)
	}
	cfg := raid.Config{Disks: disks, BSize: bsize, DiskSize: bsize * (config.DefaultDiskSize / config.DefaultBlockSize)}
	if err := writeShape(dir, cfg); err != nil {
		log.Fatalf("write shape: %v", err)
	}

	e, closeDev, err := openEngine(dir)
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	if err := e.InitRAID(context.Background(), scheme); err != nil {
		log.Fatalf("init failed: %v", err)
	}
	fmt.Printf("RAID initialized: scheme=%s disks=%d bsize=%d\n", scheme, disks, bsize)
}

func cmdRead(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: read <lbn>")
		os.Exit(1)
	}
	lbn, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("bad lbn %q: %v", args[0], err)
	}

	e, closeDev, err := openEngine(dataDir())
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	_, bsize, _, err := e.Info(context.Background())
	if err != nil {
		log.Fatalf("read failed: %v", err)
	}
	buf := make([]byte, bsize)
	if err := e.ReadBlock(context.Background(), lbn, buf); err != nil {
		log.Fatalf("read failed: %v", err)
	}
	fmt.Printf("read lbn=%d: %q\n", lbn, buf)
}

func cmdWrite(args []string) {
	if len(args) != 2 {
		fmt.Println("usage: write <lbn> <data>")
		os.Exit(1)
	}
	lbn, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("bad lbn %q: %v", args[0], err)
	}

	e, closeDev, err := openEngine(dataDir())
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	_, bsize, _, err := e.Info(context.Background())
	if err != nil {
		log.Fatalf("write failed: %v", err)
	}
	buf := make([]byte, bsize)
	copy(buf, args[1])
	if err := e.WriteBlock(context.Background(), lbn, buf); err != nil {
		log.Fatalf("write failed: %v", err)
	}
	fmt.Printf("wrote lbn=%d\n", lbn)
}

func cmdFail(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: fail <disk>")
		os.Exit(1)
	}
	disk, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("bad disk %q: %v", args[0], err)
	}

	e, closeDev, err := openEngine(dataDir())
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	if err := e.DiskFail(context.Background(), disk); err != nil {
		log.Fatalf("disk_fail failed: %v", err)
	}
	fmt.Printf("disk %d marked broken\n", disk)
}

func cmdRepair(args []string) {
	if len(args) != 1 {
		fmt.Println("usage: repair <disk>")
		os.Exit(1)
	}
	disk, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("bad disk %q: %v", args[0], err)
	}

	e, closeDev, err := openEngine(dataDir())
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	if err := e.DiskRepaired(context.Background(), disk); err != nil {
		log.Fatalf("disk_repaired failed: %v", err)
	}
	fmt.Printf("disk %d repaired\n", disk)
}

func cmdInfo(args []string) {
	e, closeDev, err := openEngine(dataDir())
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	blocks, bsize, disks, err := e.Info(context.Background())
	if err != nil {
		log.Fatalf("info failed: %v", err)
	}
	p := message.NewPrinter(language.English)
	p.Printf("blocks=%d blocksize=%d disks=%d\n", blocks, bsize, disks)
}

func cmdDestroy(args []string) {
	e, closeDev, err := openEngine(dataDir())
	if err != nil {
		log.Fatal(err)
	}
	defer closeDev()

	if err := e.DestroyRAID(context.Background()); err != nil {
		log.Fatalf("destroy failed: %v", err)
	}
	fmt.Println("RAID destroyed")
}

func cmdVersion(args []string) {
	p := message.NewPrinter(language.English)
	p.Printf("raidctl %s (default shape: %d disks, %d-byte blocks, %d bytes/disk)\n",
		config.Version, config.DefaultDisks, config.DefaultBlockSize, config.DefaultDiskSize)
}

func schemeFromFlag(s string) (raid.Scheme, error) {
	switch s {
	case "raid0":
		return raid.R0, nil
	case "raid1":
		return raid.R1, nil
	case "raid01", "raid0+1":
		return raid.R01, nil
	case "raid4":
		return raid.R4, nil
	case "raid5":
		return raid.R5, nil
	default:
		return raid.None, fmt.Errorf("unknown RAID scheme %q", s)
	}
}

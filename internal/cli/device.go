package cli

import (
	"fmt"
	"os"

	"github.com/Anthya1104/raid-engine/internal/raid"
)

// shapeFileName holds the engine's compile-time shape (disks, block size,
// bytes per disk) as three whitespace-separated integers, so that "init"
// run once can be followed by separate read/write/fail/... invocations
// against the same on-disk device directory. Plain fmt scanning is used
// here the same way chentry.go reaches for strconv over anything heavier
// for small, fixed-shape text.
const shapeFileName = "shape"

func writeShape(dir string, cfg raid.Config) error {
	f, err := os.Create(dir + "/" + shapeFileName)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%d %d %d\n", cfg.Disks, cfg.BSize, cfg.DiskSize)
	return err
}

func readShapeFile(dir string) (raid.Config, error) {
	f, err := os.Open(dir + "/" + shapeFileName)
	if err != nil {
		return raid.Config{}, fmt.Errorf("no device found in %s: run init first (%w)", dir, err)
	}
	defer f.Close()

	var cfg raid.Config
	if _, err := fmt.Fscan(f, &cfg.Disks, &cfg.BSize, &cfg.DiskSize); err != nil {
		return raid.Config{}, fmt.Errorf("reading shape in %s: %w", dir, err)
	}
	return cfg, nil
}

// openEngine opens the on-disk device directory dir, builds an Engine over
// it, and returns a func to release the underlying file locks.
func openEngine(dir string) (*raid.Engine, func(), error) {
	cfg, err := readShapeFile(dir)
	if err != nil {
		return nil, nil, err
	}
	dev, err := raid.NewFileDevice(dir, cfg)
	if err != nil {
		return nil, nil, err
	}
	e, err := raid.NewEngine(cfg, dev)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return e, func() { dev.Close() }, nil
}

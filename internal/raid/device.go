package raid

import "fmt"

// BlockDevice is the seam standing in for the host kernel's read_block/
// write_block primitives (spec §4.2, out of scope per spec §1). Disk
// indices are 1-based to match the rest of the layout arithmetic; block
// indices are physical block numbers, with data blocks starting at 1 and
// block 0 reserved for the header, which the header store reads and writes
// through this same interface.
type BlockDevice interface {
	// ReadBlock fills buf (len == BSize) from disk, physical block block.
	ReadBlock(disk, block int, buf []byte) error
	// WriteBlock persists buf (len == BSize) to disk, physical block block.
	WriteBlock(disk, block int, buf []byte) error
}

// memDevice is an in-memory BlockDevice: Config.Disks flat arenas of
// DiskSize bytes each. Grounded on the teacher's ahci_disk_t
// (biscuit/src/ufs/driver.go), which "simulates a disk backed by a file";
// this is the same idea with a []byte arena standing in for the file, so
// physical block 0 is a stable header slot and watermarks bound real,
// fixed address ranges.
type memDevice struct {
	cfg    Config
	arenas [][]byte
}

// NewMemDevice allocates an in-memory block device of the given shape. It
// is the BlockDevice the tests use in lieu of a real host block driver; the
// CLI uses the file-backed device instead.
func NewMemDevice(cfg Config) BlockDevice {
	arenas := make([][]byte, cfg.Disks)
	for i := range arenas {
		arenas[i] = make([]byte, cfg.DiskSize)
	}
	return &memDevice{cfg: cfg, arenas: arenas}
}

func (m *memDevice) ReadBlock(disk, block int, buf []byte) error {
	off, err := m.offset(disk, block, len(buf))
	if err != nil {
		return err
	}
	copy(buf, m.arenas[disk-1][off:off+m.cfg.BSize])
	return nil
}

func (m *memDevice) WriteBlock(disk, block int, buf []byte) error {
	off, err := m.offset(disk, block, len(buf))
	if err != nil {
		return err
	}
	copy(m.arenas[disk-1][off:off+m.cfg.BSize], buf)
	return nil
}

func (m *memDevice) offset(disk, block, bufLen int) (int, error) {
	if disk < 1 || disk > m.cfg.Disks {
		return 0, fmt.Errorf("memdevice: disk %d out of range [1,%d]", disk, m.cfg.Disks)
	}
	if block < 0 || block >= m.cfg.BlocksPerDisk() {
		return 0, fmt.Errorf("memdevice: block %d out of range [0,%d)", block, m.cfg.BlocksPerDisk())
	}
	if bufLen != m.cfg.BSize {
		return 0, fmt.Errorf("memdevice: buffer length %d != BSIZE %d", bufLen, m.cfg.BSize)
	}
	return block * m.cfg.BSize, nil
}

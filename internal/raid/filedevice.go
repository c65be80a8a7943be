package raid

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// fileDevice is a BlockDevice backed by one real file per disk, grounded on
// biscuit/src/ufs/driver.go's ahci_disk_t ("simulates a disk backed by a
// file"), which serializes Seek-then-Read/Write under its own sync.Mutex
// because "lock to ensure that seek followed by read/write is atomic".
// fileDevice keeps that same in-process mutex per disk, and additionally
// takes an advisory unix.Flock on each disk's file for the lifetime of the
// device, so two fileDevice processes can't be pointed at the same disk
// image concurrently.
type fileDevice struct {
	cfg   Config
	files []*os.File
	mus   []sync.Mutex
}

// NewFileDevice opens or creates one regular file per disk under dir (named
// disk0 .. diskN-1), sized to cfg.DiskSize, and flock(2)s each for exclusive
// use by this process. Closing is the caller's responsibility via Close.
func NewFileDevice(dir string, cfg Config) (*fileDevice, error) {
	fd := &fileDevice{cfg: cfg, files: make([]*os.File, cfg.Disks), mus: make([]sync.Mutex, cfg.Disks)}
	for i := 0; i < cfg.Disks; i++ {
		path := fmt.Sprintf("%s/disk%d", dir, i)
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
		if err != nil {
			fd.closeOpened(i)
			return nil, fmt.Errorf("filedevice: open %s: %w", path, err)
		}
		if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
			f.Close()
			fd.closeOpened(i)
			return nil, fmt.Errorf("filedevice: flock %s: %w", path, err)
		}
		if err := f.Truncate(int64(cfg.DiskSize)); err != nil {
			f.Close()
			fd.closeOpened(i)
			return nil, fmt.Errorf("filedevice: truncate %s: %w", path, err)
		}
		fd.files[i] = f
	}
	return fd, nil
}

func (fd *fileDevice) closeOpened(n int) {
	for i := 0; i < n; i++ {
		fd.files[i].Close()
	}
}

// Close releases every disk's flock and closes its file.
func (fd *fileDevice) Close() error {
	var first error
	for _, f := range fd.files {
		if f == nil {
			continue
		}
		if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil && first == nil {
			first = err
		}
		if err := f.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (fd *fileDevice) ReadBlock(disk, block int, buf []byte) error {
	off, err := fd.offset(disk, block, len(buf))
	if err != nil {
		return err
	}
	fd.mus[disk-1].Lock()
	defer fd.mus[disk-1].Unlock()
	_, err = fd.files[disk-1].ReadAt(buf, off)
	return err
}

func (fd *fileDevice) WriteBlock(disk, block int, buf []byte) error {
	off, err := fd.offset(disk, block, len(buf))
	if err != nil {
		return err
	}
	fd.mus[disk-1].Lock()
	defer fd.mus[disk-1].Unlock()
	_, err = fd.files[disk-1].WriteAt(buf, off)
	return err
}

func (fd *fileDevice) offset(disk, block, bufLen int) (int64, error) {
	if disk < 1 || disk > fd.cfg.Disks {
		return 0, fmt.Errorf("filedevice: disk %d out of range [1,%d]", disk, fd.cfg.Disks)
	}
	if block < 0 || block >= fd.cfg.BlocksPerDisk() {
		return 0, fmt.Errorf("filedevice: block %d out of range [0,%d)", block, fd.cfg.BlocksPerDisk())
	}
	if bufLen != fd.cfg.BSize {
		return 0, fmt.Errorf("filedevice: buffer length %d != BSIZE %d", bufLen, fd.cfg.BSize)
	}
	return int64(block * fd.cfg.BSize), nil
}

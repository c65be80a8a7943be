package raid

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ReadBlock fills dst (len >= BSize) with the contents of logical block
// lbn, transparently reconstructing from parity/mirror if the owning disk
// is broken (spec §4.5.1). ctx is only consulted at admission; once the
// operation is admitted it runs to completion (spec §4.4: "no timeouts").
func (e *Engine) ReadBlock(ctx context.Context, lbn int, dst []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release := e.top.enter(classRW)
	defer release()

	if err := e.top.ensureLoaded(e.loadCache); err != nil {
		return err
	}

	scratch := make([]byte, e.cfg.BSize)
	if err := e.readRaid(lbn, scratch); err != nil {
		return err
	}
	return copyOut(dst, scratch)
}

// WriteBlock persists src (len >= BSize) as logical block lbn, updating
// mirror/parity as the scheme requires (spec §4.5.2).
func (e *Engine) WriteBlock(ctx context.Context, lbn int, src []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	release := e.top.enter(classRW)
	defer release()

	if err := e.top.ensureLoaded(e.loadCache); err != nil {
		return err
	}

	scratch := make([]byte, e.cfg.BSize)
	if err := copyIn(scratch, src); err != nil {
		return err
	}
	return e.writeRaid(lbn, scratch)
}

// readRaid implements spec §4.5.1. buf is exactly BSize bytes.
func (e *Engine) readRaid(lbn int, buf []byte) error {
	scheme := e.currentScheme()
	if scheme == None {
		return ErrNoRaid
	}
	if lbn < 0 || lbn >= numLogicalBlocks(scheme, e.cfg) {
		return ErrBadBlock
	}

	d := diskOf(lbn, scheme, e.cfg)
	p := blockOf(lbn, scheme, e.cfg)

	if !e.isBroken(d) {
		return e.readDisk(d, p, buf)
	}

	debugf("degraded read: lbn=%d scheme=%s disk=%d broken", lbn, scheme, d)

	if scheme == R0 {
		return ErrReadBroken
	}

	m, _ := parityDiskOf(d, lbn, scheme, e.cfg)
	if e.isBroken(m) {
		return ErrReadBroken
	}

	if !scheme.usesXORParity() {
		// R1/R01: straight mirror read.
		return e.readDisk(m, p, buf)
	}

	// R4/R5: need every peer besides d healthy to reconstruct.
	if e.anyBrokenExcept(d) {
		return ErrReadBroken
	}
	return e.reconstructBlock(d, m, p, buf)
}

// stripeShards arranges the per-disk shards physical (len == disks,
// 1-indexed by disk number) into the [data..., parity] order
// klauspost/reedsolomon expects: every disk except parityDisk, in disk
// order, followed by parityDisk's shard last. Returns the ordered slice
// plus a disk -> index lookup into it. Grounded on the same
// data-shards-then-parity-shard ordering minio's erasure-readfile.go builds
// before calling reedsolomon.Encode/Reconstruct, generalized to a single
// physical block per disk instead of an absolute multi-block stripe index.
func stripeShards(physical [][]byte, parityDisk, disks int) (ordered [][]byte, indexOf map[int]int) {
	ordered = make([][]byte, disks)
	indexOf = make(map[int]int, disks)
	idx := 0
	for disk := 1; disk <= disks; disk++ {
		if disk == parityDisk {
			continue
		}
		ordered[idx] = physical[disk-1]
		indexOf[disk] = idx
		idx++
	}
	ordered[disks-1] = physical[parityDisk-1]
	indexOf[parityDisk] = disks - 1
	return ordered, indexOf
}

// reconstructBlock rebuilds the contents of the broken disk d's block p
// into buf by reading parity disk m and every other peer disk, then
// XOR-combining via a single-parity Reed-Solomon reconstruct (spec
// §4.5.1 R4/R5 branch).
func (e *Engine) reconstructBlock(d, m, p int, buf []byte) error {
	shards := make([][]byte, e.cfg.Disks)
	var g errgroup.Group
	for disk := 1; disk <= e.cfg.Disks; disk++ {
		if disk == d {
			continue // the missing shard; left nil for Reconstruct
		}
		disk := disk
		g.Go(func() error {
			shard := make([]byte, e.cfg.BSize)
			if err := e.readDisk(disk, p, shard); err != nil {
				return err
			}
			shards[disk-1] = shard
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	ordered, indexOf := stripeShards(shards, m, e.cfg.Disks)
	if err := e.xorShards(ordered); err != nil {
		return err
	}
	copy(buf, ordered[indexOf[d]])
	return nil
}

// writeRaid implements spec §4.5.2. buf is exactly BSize bytes.
func (e *Engine) writeRaid(lbn int, buf []byte) error {
	scheme := e.currentScheme()
	if scheme == None {
		return ErrNoRaid
	}
	if lbn < 0 || lbn >= numLogicalBlocks(scheme, e.cfg) {
		return ErrBadBlock
	}

	d := diskOf(lbn, scheme, e.cfg)
	p := blockOf(lbn, scheme, e.cfg)

	partial := ErrWriteBroken
	if !e.isBroken(d) {
		if err := e.writeDisk(d, p, buf); err != nil {
			return err
		}
		partial = nil
	}

	if scheme == R0 {
		return partial
	}

	m, _ := parityDiskOf(d, lbn, scheme, e.cfg)
	if e.isBroken(m) {
		return partial
	}

	if !scheme.usesXORParity() {
		// R1/R01: write the mirror and report full success.
		if err := e.writeDisk(m, p, buf); err != nil {
			return err
		}
		return nil
	}

	// R4/R5: parity update requires every disk besides d and m healthy.
	if e.anyBrokenExcept(d, m) {
		return partial
	}
	return e.updateParity(d, m, p, buf)
}

// updateParity performs the exclusive read-peers/XOR/write-parity sequence
// (spec §4.5.2 R4/R5 branch, §4.4 "parity serializer"). It bypasses
// readDisk/writeDisk's per-disk locking and reader-slot registration
// entirely: by the time enterWrite returns, no ordinary reader/writer path
// can be mid-flight on any disk (every one of them first takes the parity
// serializer's reader slot), mirroring raid.c's __write_raid exclusive
// section, which calls read_block/write_block directly rather than
// read_mutex/write_mutex for exactly that reason.
func (e *Engine) updateParity(d, m, p int, buf []byte) error {
	e.parity.enterWrite()
	defer e.parity.exitWrite()

	shards := make([][]byte, e.cfg.Disks)
	var g errgroup.Group
	for disk := 1; disk <= e.cfg.Disks; disk++ {
		if disk == d || disk == m {
			continue
		}
		disk := disk
		g.Go(func() error {
			shard := make([]byte, e.cfg.BSize)
			if err := e.dev.ReadBlock(disk, p, shard); err != nil {
				return err
			}
			shards[disk-1] = shard
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	newData := make([]byte, e.cfg.BSize)
	copy(newData, buf)
	shards[d-1] = newData

	ordered, indexOf := stripeShards(shards, m, e.cfg.Disks)
	ordered[indexOf[m]] = make([]byte, e.cfg.BSize)
	if err := e.recomputeParity(ordered); err != nil {
		return err
	}
	return e.dev.WriteBlock(m, p, ordered[indexOf[m]])
}

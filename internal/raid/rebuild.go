package raid

import "golang.org/x/sync/errgroup"

// restoreData rebuilds disk's data from its peers up to that disk's
// current watermark, after DiskRepaired clears its broken flag (spec
// §4.5.3). It is best-effort: if the parity/mirror disk is itself broken,
// or (R4/R5) any other disk is broken, it aborts silently, mirroring
// raid.c's restore_data.
func (e *Engine) restoreData(disk int) error {
	scheme := e.currentScheme()
	if scheme == None || scheme == R0 {
		return nil
	}

	// backup_disk_number(diskn, diskn-1): the lbn argument only matters for
	// R5's rotation, and raid.c always derives the rebuild's anchor disk
	// from diskn-1's stripe, matching block_of/disk_of's own convention of
	// 1-based disk numbers over 0-based lbn arithmetic.
	m, _ := parityDiskOf(disk, disk-1, scheme, e.cfg)
	if e.isBroken(m) {
		return nil
	}

	if scheme.usesXORParity() {
		if e.anyBrokenExcept() {
			return nil
		}
		if scheme == R4 && disk == m {
			m--
		}
	}

	watermark := e.watermarkOf(disk)
	buf := make([]byte, e.cfg.BSize)
	for p := 1; p <= watermark; p++ {
		if err := e.dev.ReadBlock(m, p, buf); err != nil {
			return err
		}
		if scheme.usesXORParity() {
			if err := e.xorPeersInto(buf, disk, m, p); err != nil {
				return err
			}
		}
		if err := e.dev.WriteBlock(disk, p, buf); err != nil {
			return err
		}
	}
	return nil
}

// xorPeersInto XORs every peer disk's block p (other than disk and m) into
// buf, reconstructing disk's original contents. Mirrors raid.c's
// restore_data inner loop, rebuilt on the same single-parity Reed-Solomon
// path as reconstructBlock.
func (e *Engine) xorPeersInto(buf []byte, disk, m, p int) error {
	shards := make([][]byte, e.cfg.Disks)
	shards[m-1] = append([]byte(nil), buf...)
	var g errgroup.Group
	for peer := 1; peer <= e.cfg.Disks; peer++ {
		if peer == disk || peer == m {
			continue
		}
		peer := peer
		g.Go(func() error {
			shard := make([]byte, e.cfg.BSize)
			if err := e.dev.ReadBlock(peer, p, shard); err != nil {
				return err
			}
			shards[peer-1] = shard
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
	copy(buf, ordered[indexOf[disk]])
	return nil
}

func (e *Engine) watermarkOf(disk int) int {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.watermark[disk-1]
}

package raid

// Layout calculator (spec §4.1). Pure functions of (scheme, Config),
// transcribed from original_source/kernel/raid.c's num_of_disks,
// num_of_blocks, disk_number, block_number and backup_disk_number. They
// must stay total and deterministic over the valid lbn range — no lookups,
// no engine state.

// numDataDisks mirrors raid.c's num_of_disks.
func numDataDisks(scheme Scheme, cfg Config) int {
	switch scheme {
	case R4:
		return cfg.Disks - 1
	case R0, R5:
		return cfg.Disks
	default: // R1, R01
		return cfg.Disks / 2
	}
}

// numLogicalBlocks mirrors raid.c's num_of_blocks.
func numLogicalBlocks(scheme Scheme, cfg Config) int {
	d := numDataDisks(scheme, cfg)
	if scheme == R5 {
		d--
	}
	return d * (cfg.BlocksPerDisk() - 1)
}

// diskOf returns the 1-based physical disk index holding lbn's data copy.
// Mirrors raid.c's disk_number, including the BSIZE-1 stride bug preserved
// verbatim for RAID1 (spec §9 open question 1).
func diskOf(lbn int, scheme Scheme, cfg Config) int {
	if scheme == R1 {
		return lbn/(cfg.BSize-1) + 1
	}
	return lbn%numDataDisks(scheme, cfg) + 1
}

// blockOf returns the 1-based physical block index within the disk
// returned by diskOf. Mirrors raid.c's block_number, including RAID5's
// rotating-parity skip arithmetic.
func blockOf(lbn int, scheme Scheme, cfg Config) int {
	switch scheme {
	case R1:
		return lbn%(cfg.BSize-1) + 1
	case R0, R01, R4:
		return lbn/numDataDisks(scheme, cfg) + 1
	default: // R5
		d := diskOf(lbn, scheme, cfg)
		original := lbn / cfg.Disks
		backups := (lbn / (cfg.Disks - 1)) / cfg.Disks
		block := original + backups
		if block%cfg.Disks >= cfg.Disks-d {
			block++
		}
		return block + 1
	}
}

// parityDiskOf returns the 1-based physical disk index that mirrors or
// parities dataDisk for this lbn, and whether the scheme has one at all
// (RAID0 does not — raid.c's backup_disk_number returns -1 there, which
// this repo surfaces as ok=false instead of propagating a sentinel disk
// index through Go's 1-based disk arithmetic). Mirrors raid.c's
// backup_disk_number.
func parityDiskOf(dataDisk, lbn int, scheme Scheme, cfg Config) (disk int, ok bool) {
	switch scheme {
	case R0:
		return 0, false
	case R1, R01:
		half := cfg.Disks / 2
		if dataDisk > half {
			return dataDisk - half, true
		}
		return dataDisk + half, true
	case R4:
		return cfg.Disks, true
	default: // R5
		return cfg.Disks - (lbn/(cfg.Disks-1))%cfg.Disks, true
	}
}

// shapeValid checks the §3 scheme/DISKS constraints for InitRAID.
func shapeValid(scheme Scheme, cfg Config) bool {
	switch scheme {
	case R1, R01:
		if cfg.Disks%2 != 0 {
			return false
		}
		if scheme == R01 && cfg.Disks < 4 {
			return false
		}
	case R4, R5:
		if cfg.Disks < 3 {
			return false
		}
	}
	return true
}

package raid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func cfg4() Config {
	return Config{Disks: 4, BSize: 1024, DiskSize: 1024 * 65}
}

func TestNumDataDisks(t *testing.T) {
	cfg := cfg4()
	require.Equal(t, 4, numDataDisks(R0, cfg))
	require.Equal(t, 2, numDataDisks(R1, cfg))
	require.Equal(t, 2, numDataDisks(R01, cfg))
	require.Equal(t, 3, numDataDisks(R4, cfg))
	require.Equal(t, 4, numDataDisks(R5, cfg))
}

func TestNumLogicalBlocks(t *testing.T) {
	cfg := cfg4()
	bpd := cfg.BlocksPerDisk() - 1
	require.Equal(t, 4*bpd, numLogicalBlocks(R0, cfg))
	require.Equal(t, 2*bpd, numLogicalBlocks(R1, cfg))
	require.Equal(t, 2*bpd, numLogicalBlocks(R01, cfg))
	require.Equal(t, 3*bpd, numLogicalBlocks(R4, cfg))
	require.Equal(t, 3*bpd, numLogicalBlocks(R5, cfg)) // (4-1) data disks for R5
}

// TestLayoutTotality covers spec invariant 1: for every scheme and every
// lbn in range, disk_of is within [1, DISKS] and block_of is within
// [1, blocks-per-disk - 1].
func TestLayoutTotality(t *testing.T) {
	cfg := cfg4()
	for _, scheme := range []Scheme{R0, R1, R01, R4, R5} {
		blocks := numLogicalBlocks(scheme, cfg)
		for lbn := 0; lbn < blocks; lbn++ {
			d := diskOf(lbn, scheme, cfg)
			p := blockOf(lbn, scheme, cfg)
			require.GreaterOrEqual(t, d, 1, "scheme %s lbn %d disk", scheme, lbn)
			require.LessOrEqual(t, d, cfg.Disks, "scheme %s lbn %d disk", scheme, lbn)
			require.GreaterOrEqual(t, p, 1, "scheme %s lbn %d block", scheme, lbn)
			require.LessOrEqual(t, p, cfg.BlocksPerDisk()-1, "scheme %s lbn %d block", scheme, lbn)
		}
	}
}

// TestRAID1StrideIsPreservedVerbatim pins down spec §9 open question 1:
// the BSIZE-1 stride, including its quirky over-reporting of capacity.
func TestRAID1StrideIsPreservedVerbatim(t *testing.T) {
	cfg := cfg4()
	require.Equal(t, 1, diskOf(0, R1, cfg))
	require.Equal(t, 1, blockOf(0, R1, cfg))
	require.Equal(t, 1, diskOf(cfg.BSize-2, R1, cfg))
	require.Equal(t, 2, diskOf(cfg.BSize-1, R1, cfg))
	require.Equal(t, 1, blockOf(cfg.BSize-1, R1, cfg))
}

// TestRAID5ParityRotates covers spec invariant 8: the DISKS-1 lbns of one
// stripe share a parity disk, and across consecutive stripes the parity
// disk index is not constant.
func TestRAID5ParityRotates(t *testing.T) {
	cfg := cfg4()
	seen := map[int]bool{}
	for stripe := 0; stripe < cfg.Disks; stripe++ {
		lbn := stripe * (cfg.Disks - 1)
		d := diskOf(lbn, R5, cfg)
		m, ok := parityDiskOf(d, lbn, R5, cfg)
		require.True(t, ok)
		seen[m] = true
	}
	require.Greater(t, len(seen), 1, "parity disk should rotate across consecutive stripes")
}

func TestParityDiskOfRaid0HasNone(t *testing.T) {
	cfg := cfg4()
	_, ok := parityDiskOf(1, 0, R0, cfg)
	require.False(t, ok)
}

func TestShapeValid(t *testing.T) {
	require.True(t, shapeValid(R5, Config{Disks: 3}))
	require.False(t, shapeValid(R1, Config{Disks: 3}))
	require.False(t, shapeValid(R01, Config{Disks: 3}))
	require.True(t, shapeValid(R1, Config{Disks: 4}))
	require.True(t, shapeValid(R01, Config{Disks: 4}))
	require.False(t, shapeValid(R4, Config{Disks: 2}))
}

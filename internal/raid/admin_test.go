package raid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, disks, bsize int) *Engine {
	cfg := Config{Disks: disks, BSize: bsize, DiskSize: bsize * 65}
	e, err := NewEngine(cfg, NewMemDevice(cfg))
	require.NoError(t, err)
	return e
}

func TestInitRaidRejectsDoubleInit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	require.NoError(t, e.InitRAID(ctx, R0))
	err := e.InitRAID(ctx, R0)
	require.Equal(t, -2, Code(err))
}

func TestInitRaidRejectsBadShape(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 3, 1024) // odd disk count, invalid for mirrored schemes
	err := e.InitRAID(ctx, R1)
	require.Equal(t, -3, Code(err))
}

func TestInitRaidRejectsRaid01BelowFourDisks(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 2, 1024)
	err := e.InitRAID(ctx, R01)
	require.Equal(t, -3, Code(err))
}

func TestDestroyRaidRequiresInit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	err := e.DestroyRAID(ctx)
	require.Equal(t, -1, Code(err))
}

func TestDestroyThenReinitAllowed(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	require.NoError(t, e.InitRAID(ctx, R5))
	require.NoError(t, e.DestroyRAID(ctx))
	require.NoError(t, e.InitRAID(ctx, R0))
}

func TestDiskFailRejectsOutOfRange(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	require.NoError(t, e.InitRAID(ctx, R5))
	err := e.DiskFail(ctx, 9)
	require.Equal(t, -5, Code(err))
}

func TestDiskFailRejectsDoubleFail(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	require.NoError(t, e.InitRAID(ctx, R5))
	require.NoError(t, e.DiskFail(ctx, 1))
	err := e.DiskFail(ctx, 1)
	require.Equal(t, -10, Code(err))
}

func TestDiskRepairedRejectsNotBroken(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	require.NoError(t, e.InitRAID(ctx, R5))
	err := e.DiskRepaired(ctx, 1)
	require.Equal(t, -11, Code(err))
}

func TestInfoReportsGeometry(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	require.NoError(t, e.InitRAID(ctx, R4))
	blocks, bsize, disks, err := e.Info(ctx)
	require.NoError(t, err)
	require.Equal(t, 1024, bsize)
	require.Equal(t, 3, disks)
	require.Greater(t, blocks, 0)
}

func TestInfoRequiresInit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, 4, 1024)
	_, _, _, err := e.Info(ctx)
	require.Equal(t, -1, Code(err))
}

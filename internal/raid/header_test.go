package raid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := header{state: stateActive, schemeTag: int32(R5), diskBroken: diskOK, maxAccessed: 42}
	buf := make([]byte, 1024)
	h.encodeInto(buf)

	got := decodeHeader(buf)
	require.Equal(t, h, got)
}

func TestHeaderEncodeZeroesRemainder(t *testing.T) {
	buf := make([]byte, 64)
	for i := range buf {
		buf[i] = 0xff
	}
	h := header{state: stateInactive}
	h.encodeInto(buf)
	for i := 16; i < len(buf); i++ {
		require.Equal(t, byte(0), buf[i], "byte %d should be zeroed", i)
	}
}

func TestLoadCacheHydratesFromLastActiveHeader(t *testing.T) {
	cfg := cfg4()
	dev := NewMemDevice(cfg)
	e, err := NewEngine(cfg, dev)
	require.NoError(t, err)

	// Disk 1 claims RAID1, active, watermark 3.
	h1 := header{state: stateActive, schemeTag: int32(R1), maxAccessed: 3}
	buf := make([]byte, cfg.BSize)
	h1.encodeInto(buf)
	require.NoError(t, dev.WriteBlock(1, 0, buf))

	// Disk 3 claims RAID5, active, watermark 7: later in iteration order,
	// so it should win per loadCache's documented "last ACTIVE wins" rule.
	h3 := header{state: stateActive, schemeTag: int32(R5), maxAccessed: 7}
	h3.encodeInto(buf)
	require.NoError(t, dev.WriteBlock(3, 0, buf))

	require.NoError(t, e.loadCache())
	require.Equal(t, R5, e.scheme)
	require.Equal(t, 7, e.watermark[2])
}

func TestLoadCacheMarksBrokenDisks(t *testing.T) {
	cfg := cfg4()
	dev := NewMemDevice(cfg)
	e, err := NewEngine(cfg, dev)
	require.NoError(t, err)

	h := header{state: stateActive, schemeTag: int32(R0), diskBroken: diskBroken}
	buf := make([]byte, cfg.BSize)
	h.encodeInto(buf)
	require.NoError(t, dev.WriteBlock(2, 0, buf))

	require.NoError(t, e.loadCache())
	require.True(t, e.broken[1])
	require.False(t, e.broken[0])
}

func TestWriteHeaderForDiskRoundTrip(t *testing.T) {
	cfg := cfg4()
	dev := NewMemDevice(cfg)
	e, err := NewEngine(cfg, dev)
	require.NoError(t, err)

	e.scheme = R4
	e.watermark[0] = 12
	e.broken[0] = true

	require.NoError(t, e.writeHeaderForDisk(1))

	buf := make([]byte, cfg.BSize)
	require.NoError(t, dev.ReadBlock(1, 0, buf))
	h := decodeHeader(buf)
	require.Equal(t, int32(stateActive), h.state)
	require.Equal(t, int32(R4), h.schemeTag)
	require.Equal(t, int32(diskBroken), h.diskBroken)
	require.Equal(t, int32(12), h.maxAccessed)
}

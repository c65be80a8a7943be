package raid

import "encoding/binary"

// On-disk header constants (spec §6), carried verbatim from
// original_source/kernel/raid.h.
const (
	stateInactive = 0
	stateActive   = 772024 // RAID_ACTIVE_MAGIC
	diskOK        = 0
	diskBroken    = 773024 // BROKEN_MAGIC
)

// header is the 16-byte payload written to physical block 0 of every disk
// (spec §3, §6). Byte order is host-native per spec §6 ("the medium is
// local to the host").
type header struct {
	state       int32
	schemeTag   int32
	diskBroken  int32
	maxAccessed int32
}

func decodeHeader(buf []byte) header {
	return header{
		state:       int32(binary.NativeEndian.Uint32(buf[0:4])),
		schemeTag:   int32(binary.NativeEndian.Uint32(buf[4:8])),
		diskBroken:  int32(binary.NativeEndian.Uint32(buf[8:12])),
		maxAccessed: int32(binary.NativeEndian.Uint32(buf[12:16])),
	}
}

// encodeInto packs h into buf (len >= BSize), zeroing the reserved
// remainder per spec §6 ("remainder, should be zero on write").
func (h header) encodeInto(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	binary.NativeEndian.PutUint32(buf[0:4], uint32(h.state))
	binary.NativeEndian.PutUint32(buf[4:8], uint32(h.schemeTag))
	binary.NativeEndian.PutUint32(buf[8:12], uint32(h.diskBroken))
	binary.NativeEndian.PutUint32(buf[12:16], uint32(h.maxAccessed))
}

// loadCache hydrates runtime state (scheme, broken, watermark) from every
// disk's header. Runs at most once per Engine lifetime, gated by
// topGate.ensureLoaded (spec §4.3). Mirrors raid.c's load_cache, including its "last ACTIVE
// header wins" resolution of disk-by-disk iteration (see DESIGN.md).
func (e *Engine) loadCache() error {
	scratch := make([]byte, e.cfg.BSize)
	scheme := None
	for d := 1; d <= e.cfg.Disks; d++ {
		if err := e.dev.ReadBlock(d, 0, scratch); err != nil {
			return err
		}
		h := decodeHeader(scratch)
		e.watermark[d-1] = 0
		if h.state == stateActive {
			scheme = Scheme(h.schemeTag)
			e.watermark[d-1] = int(h.maxAccessed)
		}
		e.broken[d-1] = h.diskBroken == diskBroken
	}
	e.scheme = scheme
	return nil
}

// writeHeaderForDisk composes disk d's header from current engine state and
// persists it. Per spec §9 open question 4, this is always recomputed for
// the one disk being written, never batch-composed and fanned out.
func (e *Engine) writeHeaderForDisk(d int) error {
	scratch := make([]byte, e.cfg.BSize)
	h := header{
		schemeTag:   int32(e.scheme),
		maxAccessed: int32(e.watermark[d-1]),
	}
	if e.scheme == None {
		h.state = stateInactive
	} else {
		h.state = stateActive
	}
	if e.broken[d-1] {
		h.diskBroken = diskBroken
	} else {
		h.diskBroken = diskOK
	}
	h.encodeInto(scratch)
	return e.dev.WriteBlock(d, 0, scratch)
}

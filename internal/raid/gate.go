package raid

import "sync"

// opClass distinguishes the two top-level admission classes (spec §4.4).
type opClass int

const (
	classRW opClass = iota
	classSpec
)

// topGate is the top-level admission gate: any number of RW operations run
// concurrently; at most one SPEC operation runs at a time and excludes all
// RW admission while it runs (but does not preempt RWs already in flight).
// It also owns the one-shot "header cache loaded" condition, mirroring
// raid.c's raid_cache three-state flag (not loaded / loading / loaded).
//
// Grounded on raid.c's start_mutex/end_mutex and the raid_lock spinlock,
// translated into a single sync.Mutex guarding the admission counters plus
// two sync.Cond for the two things callers wait on (spec §9: "spinlock +
// condvar pairs -> structured primitives").
type topGate struct {
	mu        sync.Mutex
	admitCond *sync.Cond

	readWrite int
	special   bool

	cacheState cacheState
	cacheCond  *sync.Cond
}

type cacheState int

const (
	cacheNotLoaded cacheState = iota
	cacheLoading
	cacheLoaded
)

func newTopGate() *topGate {
	g := &topGate{}
	g.admitCond = sync.NewCond(&g.mu)
	g.cacheCond = sync.NewCond(&g.mu)
	return g
}

// enter admits the caller under class c, blocking per spec §4.4's rules.
// Returns a release func to call on exit from the operation's body.
func (g *topGate) enter(c opClass) (release func()) {
	g.mu.Lock()
	for g.special || (c == classSpec && g.readWrite != 0) {
		g.admitCond.Wait()
	}
	if c == classRW {
		g.readWrite++
	} else {
		g.special = true
	}
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		if c == classRW {
			g.readWrite--
		} else {
			g.special = false
		}
		if g.readWrite == 0 && !g.special {
			g.admitCond.Broadcast()
		}
		g.mu.Unlock()
	}
}

// ensureLoaded runs loadFn exactly once across the Engine's lifetime,
// letting the first caller through the gate do the load while any peers
// admitted concurrently (other RWs) wait on it, mirroring raid_cache's
// LOCKED-while-loading state.
func (g *topGate) ensureLoaded(loadFn func() error) error {
	g.mu.Lock()
	switch g.cacheState {
	case cacheLoaded:
		g.mu.Unlock()
		return nil
	case cacheLoading:
		for g.cacheState == cacheLoading {
			g.cacheCond.Wait()
		}
		g.mu.Unlock()
		return nil
	default: // cacheNotLoaded
		g.cacheState = cacheLoading
		g.mu.Unlock()

		err := loadFn()

		g.mu.Lock()
		g.cacheState = cacheLoaded
		g.cacheCond.Broadcast()
		g.mu.Unlock()
		return err
	}
}

// diskGate serializes physical access to one disk (raid.c's disk_locks +
// disk_used). A plain sync.Mutex already gives the block-without-spin
// semantics the original built from a spinlock + condvar pair.
type diskGate struct {
	mus []sync.Mutex
}

func newDiskGate(n int) *diskGate {
	return &diskGate{mus: make([]sync.Mutex, n)}
}

func (d *diskGate) lock(disk int)   { d.mus[disk-1].Lock() }
func (d *diskGate) unlock(disk int) { d.mus[disk-1].Unlock() }

// paritySentinel mirrors raid.c's LOCKED sentinel for state_W45.
const paritySentinel = -1

// paritySerializer is the RAID4/5-only gate that lets many concurrent
// readers through but gives a parity writer exclusive access to the
// read-XOR-write critical section across peer disks (spec §4.4, §9
// "exclusive escalation in parity writer"). Mirrors raid.c's W45 spinlock
// plus state_W45 counter/sentinel.
type paritySerializer struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state int // >=0: number of concurrent readers; paritySentinel: exclusive writer
}

func newParitySerializer() *paritySerializer {
	p := &paritySerializer{}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// enterRead blocks while a writer holds the exclusive section, then
// registers as one more concurrent reader.
func (p *paritySerializer) enterRead() {
	p.mu.Lock()
	for p.state == paritySentinel {
		p.cond.Wait()
	}
	p.state++
	p.mu.Unlock()
}

func (p *paritySerializer) exitRead() {
	p.mu.Lock()
	p.state--
	if p.state == 0 {
		p.cond.Broadcast()
	}
	p.mu.Unlock()
}

// enterWrite blocks until the sentinel is free (state == 0, no readers and
// no other writer), then takes exclusive ownership.
func (p *paritySerializer) enterWrite() {
	p.mu.Lock()
	for p.state != 0 {
		p.cond.Wait()
	}
	p.state = paritySentinel
	p.mu.Unlock()
}

func (p *paritySerializer) exitWrite() {
	p.mu.Lock()
	p.state = 0
	p.cond.Broadcast()
	p.mu.Unlock()
}

package raid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTopGateAllowsConcurrentRW(t *testing.T) {
	g := newTopGate()
	release1 := g.enter(classRW)
	release2 := g.enter(classRW)
	release1()
	release2()
}

func TestTopGateSpecExcludesRW(t *testing.T) {
	g := newTopGate()
	releaseSpec := g.enter(classSpec)

	admitted := make(chan struct{})
	go func() {
		release := g.enter(classRW)
		close(admitted)
		release()
	}()

	select {
	case <-admitted:
		t.Fatal("RW admitted while a SPEC operation was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	releaseSpec()
	<-admitted
}

func TestTopGateEnsureLoadedRunsOnce(t *testing.T) {
	g := newTopGate()
	var calls int
	var mu sync.Mutex
	load := func() error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, g.ensureLoaded(load))
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, calls)
}

func TestDiskGateExcludesSameDisk(t *testing.T) {
	g := newDiskGate(2)
	g.lock(1)

	acquired := make(chan struct{})
	go func() {
		g.lock(1)
		close(acquired)
		g.unlock(1)
	}()

	select {
	case <-acquired:
		t.Fatal("second lock on same disk acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}
	g.unlock(1)
	<-acquired
}

func TestDiskGateDoesNotSerializeDifferentDisks(t *testing.T) {
	g := newDiskGate(2)
	g.lock(1)
	done := make(chan struct{})
	go func() {
		g.lock(2)
		g.unlock(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("lock on disk 2 blocked by lock held on disk 1")
	}
	g.unlock(1)
}

func TestParitySerializerReadersConcurrent(t *testing.T) {
	p := newParitySerializer()
	p.enterRead()
	done := make(chan struct{})
	go func() {
		p.enterRead()
		close(done)
		p.exitRead()
	}()
	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("second reader did not proceed concurrently with first")
	}
	p.exitRead()
}

func TestParitySerializerWriterExcludesReaders(t *testing.T) {
	p := newParitySerializer()
	p.enterRead()

	writerDone := make(chan struct{})
	go func() {
		p.enterWrite()
		close(writerDone)
		p.exitWrite()
	}()

	select {
	case <-writerDone:
		t.Fatal("writer entered exclusive section while a reader was active")
	case <-time.After(50 * time.Millisecond):
	}

	p.exitRead()
	<-writerDone
}

func TestParitySerializerReaderWaitsForWriter(t *testing.T) {
	p := newParitySerializer()
	p.enterWrite()

	readerDone := make(chan struct{})
	go func() {
		p.enterRead()
		close(readerDone)
		p.exitRead()
	}()

	select {
	case <-readerDone:
		t.Fatal("reader entered while writer held the exclusive section")
	case <-time.After(50 * time.Millisecond):
	}

	p.exitWrite()
	<-readerDone
}

package raid

import "fmt"

// xorShards reconstructs any single nil shard in shards as the XOR of all
// others, via a Reed-Solomon encoder configured with exactly one parity
// shard (len(shards)-1 data shards). This is the Go-native, library-backed
// form of the peer-read/XOR loop spec §4.5.1/§4.5.2 describe, grounded on
// minio's erasure-coded read path
// (other_examples/ed6d4c59_hshsobug-minio-master__erasure-readfile.go.go),
// which drives klauspost/reedsolomon the same way — generalized here from
// whole-file erasure coding down to one fixed-size block per shard.
//
// Every present shard must have the same length; at most one nil is
// tolerated (matching spec's "at most one disk broken" invariant).
func (e *Engine) xorShards(shards [][]byte) error {
	missing := 0
	for _, s := range shards {
		if s == nil {
			missing++
		}
	}
	if missing == 0 {
		return nil
	}
	if missing > 1 {
		return fmt.Errorf("raid: xorShards: %d missing shards, only 1 parity shard available", missing)
	}
	enc, err := e.rsEncoder(len(shards) - 1)
	if err != nil {
		return err
	}
	// klauspost/reedsolomon's Reconstruct treats a nil entry as the one to
	// fill in and allocates its replacement itself; pre-filling it here
	// would hide the missing shard instead of reconstructing it.
	return enc.Reconstruct(shards)
}

// recomputeParity regenerates the parity shard (the last element of
// shards) from the data shards (all others), via the same single-parity
// Reed-Solomon encoder. Used by the parity-update write path.
func (e *Engine) recomputeParity(shards [][]byte) error {
	enc, err := e.rsEncoder(len(shards) - 1)
	if err != nil {
		return err
	}
	return enc.Encode(shards)
}

package raid

// Address-space bridge (spec §4.7). There is no real privileged/
// unprivileged boundary in a Go process, so copyIn/copyOut degrade to a
// length-checked copy() between the caller's buffer and the engine's
// scratch buffer, but the CopyIn/CopyOut error codes are preserved for a
// short caller buffer exactly as a failed copyin/copyout would be in the
// original.

func copyOut(dst, scratch []byte) error {
	if len(dst) < len(scratch) {
		return ErrCopyOut
	}
	copy(dst, scratch)
	return nil
}

func copyIn(scratch, src []byte) error {
	if len(src) < len(scratch) {
		return ErrCopyIn
	}
	copy(scratch, src)
	return nil
}

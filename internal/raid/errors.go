package raid

import "fmt"

// RaidError carries the stable numeric error-code contract (spec §6)
// alongside a human-readable message, so callers can branch on Code()
// the way a syscall shim would, while idiomatic Go callers use errors.Is.
type RaidError struct {
	code int
	msg  string
}

func (e *RaidError) Error() string { return e.msg }

// Code returns the stable numeric contract value (-1..-12).
func (e *RaidError) Code() int { return e.code }

func newErr(code int, msg string) *RaidError {
	return &RaidError{code: code, msg: msg}
}

func newErrf(code int, format string, args ...any) *RaidError {
	return &RaidError{code: code, msg: fmt.Sprintf(format, args...)}
}

// Stable sentinel errors, one per code in spec §6.
var (
	ErrNoRaid        = newErr(-1, "raid: no raid configured")
	ErrAlreadyInit   = newErr(-2, "raid: already initialized")
	ErrShapeMismatch = newErr(-3, "raid: disk count does not match scheme")
	ErrBadBlock      = newErr(-4, "raid: invalid logical block number")
	ErrBadDisk       = newErr(-5, "raid: invalid disk index")
	ErrReadBroken    = newErr(-6, "raid: block cannot be read, disk broken")
	ErrWriteBroken   = newErr(-7, "raid: block cannot be written, disk broken")
	ErrCopyOut       = newErr(-8, "raid: copy to caller buffer failed")
	ErrCopyIn        = newErr(-9, "raid: copy from caller buffer failed")
	ErrAlreadyBroken = newErr(-10, "raid: disk already broken")
	ErrNotBroken     = newErr(-11, "raid: disk is not broken")
	ErrOutOfMemory   = newErr(-12, "raid: out of memory")
)

// Code extracts the stable numeric contract from any error produced by this
// package, or 0 if err is nil, or a generic negative sentinel if err is a
// non-nil error that did not originate here.
func Code(err error) int {
	if err == nil {
		return 0
	}
	if re, ok := err.(*RaidError); ok {
		return re.code
	}
	return -1
}

package numalloc

import (
	"errors"
	"fmt"
)

// Sentinel errors named directly after spec.md §7's error kinds.
var (
	ErrAlreadyInitialized  = errors.New("numalloc.alreadyinitialized")
	ErrTopologyUnavailable = errors.New("numalloc.topologyunavailable")
	ErrVmReserveFailed     = errors.New("numalloc.vmreservefailed")
	ErrVmCommitFailed      = errors.New("numalloc.vmcommitfailed")
	ErrNodeExhausted       = errors.New("numalloc.nodeexhausted")
	ErrAllocFailed         = errors.New("numalloc.allocfailed")
)

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

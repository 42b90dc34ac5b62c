package tapesort

import (
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/xid"
	"github.com/zeebo/xxh3"
)

// Process-wide state for temporary tape names. Both are initialized once at
// package init and never torn down: processID identifies this execution
// context (unique across processes and hosts sharing a temp dir) and
// tempCounter distinguishes temporaries created by the same owner.
var (
	processID   = xid.New().String()
	tempCounter atomic.Uint64
)

// temporaryName returns a unique file name for a temporary owned by the tape
// stored at ownerPath. The owner identity is hashed so that arbitrary paths
// never leak separators or length into the name.
func temporaryName(ownerPath string) string {
	abs, err := filepath.Abs(ownerPath)
	if err != nil {
		abs = ownerPath
	}
	return fmt.Sprintf("tape-%016x-%s-%d.bin", xxh3.HashString(abs), processID, tempCounter.Add(1))
}

package layout

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// reentrantMutex may be locked again by the goroutine holding it. Each Lock
// needs a matching Unlock.
type reentrantMutex struct {
	mu    sync.Mutex
	owner atomic.Uint64
	depth int
}

func (m *reentrantMutex) Lock() {
	gid := goroutineID()
	if gid != 0 && m.owner.Load() == gid {
		m.depth++
		return
	}
	m.mu.Lock()
	m.owner.Store(gid)
	m.depth = 1
}

func (m *reentrantMutex) Unlock() {
	m.depth--
	if m.depth > 0 {
		return
	}
	m.owner.Store(0)
	m.mu.Unlock()
}

// goroutineID parses the current goroutine id from its stack header.
// Returns 0 when the header cannot be parsed.
func goroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]

	// "goroutine 123 [running]:\n..."
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	buf = buf[len(prefix):]
	end := bytes.IndexByte(buf, ' ')
	if end < 0 {
		return 0
	}
	gid, err := strconv.ParseUint(string(buf[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return gid
}

package engine

import (
	"sync"
	"time"

	"github.com/Subho4531/arbigent06-sub000/internal/types"
)

// activityFeed is a bounded in-memory log of notable events for the
// dashboard. Oldest entries fall off once the size is reached.
type activityFeed struct {
	mu   sync.Mutex
	size int
	buf  []types.LogEntry
	next int
	full bool
}

func newActivityFeed(size int) *activityFeed {
	if size <= 0 {
		size = 100
	}
	return &activityFeed{
		size: size,
		buf:  make([]types.LogEntry, size),
	}
}

func (f *activityFeed) record(level, message, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.buf[f.next] = types.LogEntry{
		Time:    time.Now().UTC(),
		Level:   level,
		Message: message,
		Detail:  detail,
	}
	f.next = (f.next + 1) % f.size
	if f.next == 0 {
		f.full = true
	}
}

// entries returns the feed newest first.
func (f *activityFeed) entries() []types.LogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.next
	if f.full {
		count = f.size
	}

	out := make([]types.LogEntry, 0, count)
	for i := 1; i <= count; i++ {
		idx := (f.next - i + f.size) % f.size
		out = append(out, f.buf[idx])
	}
	return out
}

package app

import (
	"context"
	"sync"
	"sync/atomic"

	"causelens/domain/rd"
)

// Ticket identifies one rendering cycle of a chart
type Ticket struct {
	Key string
	Seq int64
}

// DefaultMaxLanes bounds how many chart lanes a tracker keeps
const DefaultMaxLanes = 1024

type lane struct {
	seq    int64
	cancel context.CancelFunc
	latest *rd.Plot
	used   int64 // tick of the last Begin, Commit or Latest
}

// ChartTracker guards charts against stale responses. Each chart key has one
// lane; starting a cycle supersedes and cancels the previous one, and only the
// newest cycle may publish its plot. Idle lanes beyond maxLanes are evicted,
// least recently used first.
type ChartTracker struct {
	currentSeq int64

	mu       sync.Mutex
	lanes    map[string]*lane
	tick     int64
	maxLanes int
}

// NewChartTracker creates an empty tracker holding up to DefaultMaxLanes lanes
func NewChartTracker() *ChartTracker {
	return NewChartTrackerWithLimit(DefaultMaxLanes)
}

// NewChartTrackerWithLimit creates a tracker holding up to maxLanes lanes.
// Lanes with a cycle in flight are never evicted, so the limit can be
// exceeded while many charts render at once.
func NewChartTrackerWithLimit(maxLanes int) *ChartTracker {
	if maxLanes <= 0 {
		maxLanes = DefaultMaxLanes
	}
	return &ChartTracker{lanes: make(map[string]*lane), maxLanes: maxLanes}
}

// touch marks l as used; callers hold t.mu
func (t *ChartTracker) touch(l *lane) {
	t.tick++
	l.used = t.tick
}

// evictIdle drops least recently used idle lanes until there is room for one
// more; callers hold t.mu
func (t *ChartTracker) evictIdle() {
	for len(t.lanes) >= t.maxLanes {
		var (
			oldestKey string
			oldest    *lane
		)
		for key, l := range t.lanes {
			if l.cancel != nil {
				continue
			}
			if oldest == nil || l.used < oldest.used {
				oldestKey, oldest = key, l
			}
		}
		if oldest == nil {
			return
		}
		delete(t.lanes, oldestKey)
	}
}

// Begin starts a new cycle for key. The returned context is cancelled as soon
// as a newer cycle begins for the same key.
func (t *ChartTracker) Begin(ctx context.Context, key string) (Ticket, context.Context) {
	cycleCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	// issued under the lock so a lane's seq only moves forward
	seq := atomic.AddInt64(&t.currentSeq, 1)

	l, ok := t.lanes[key]
	if !ok {
		t.evictIdle()
		l = &lane{}
		t.lanes[key] = l
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.seq = seq
	l.cancel = cancel
	t.touch(l)

	return Ticket{Key: key, Seq: seq}, cycleCtx
}

// IsCurrent reports whether ticket is still the newest cycle of its key
func (t *ChartTracker) IsCurrent(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.lanes[ticket.Key]
	return ok && l.seq == ticket.Seq
}

// Commit publishes plot as the key's latest result. Stale tickets are rejected.
func (t *ChartTracker) Commit(ticket Ticket, plot *rd.Plot) bool {
	return t.CommitWith(ticket, plot, nil)
}

// CommitWith is Commit that also runs publish while the lane is still locked,
// so no newer cycle of the key can commit or publish in between. publish must
// not block or call back into the tracker.
func (t *ChartTracker) CommitWith(ticket Ticket, plot *rd.Plot, publish func(Ticket, *rd.Plot)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.lanes[ticket.Key]
	if !ok || l.seq != ticket.Seq {
		return false
	}
	l.latest = plot
	t.touch(l)
	if publish != nil {
		publish(ticket, plot)
	}
	return true
}

// Release ends a cycle and frees its context
func (t *ChartTracker) Release(ticket Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.lanes[ticket.Key]
	if ok && l.seq == ticket.Seq && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Latest returns the last committed plot of key
func (t *ChartTracker) Latest(key string) (*rd.Plot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.lanes[key]
	if !ok || l.latest == nil {
		return nil, false
	}
	t.touch(l)
	return l.latest, true
}

// Forget cancels any in-flight cycle of key and drops its lane
func (t *ChartTracker) Forget(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if l, ok := t.lanes[key]; ok {
		if l.cancel != nil {
			l.cancel()
		}
		delete(t.lanes, key)
	}
}

// Len returns the number of lanes held
func (t *ChartTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lanes)
}

// CurrentSeq returns the last issued sequence number
func (t *ChartTracker) CurrentSeq() int64 {
	return atomic.LoadInt64(&t.currentSeq)
}

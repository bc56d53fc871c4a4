package typing

import (
	"container/heap"
	"sync"
	"time"
)

// The ephemeral broadcast entry expires 3 seconds after the last start
// event; the durable fallback row stays discoverable for 10 seconds. The two
// windows are intentionally different: the broadcast path self-cleans far
// faster than the persisted fallback is consulted.
const (
	EphemeralTTL = 3 * time.Second
	StaleWindow  = 10 * time.Second
)

type entry struct {
	channelID int
	userID    int
	deadline  time.Time
	index     int
}

// Registry tracks which users are typing in which channels, per process.
// It is fed by broker events and expires entries from a single deadline heap
// instead of one timer per event, so cancellation stays correct.
type Registry struct {
	mu        sync.Mutex
	channels  map[int]map[int]*entry
	deadlines deadlineHeap
	timer     *time.Timer
	ttl       time.Duration
	now       func() time.Time
	onExpire  func(channelID int, userID int)
	closed    bool
}

// NewRegistry builds an empty registry. onExpire fires once per entry that
// ages out without an explicit stop; it is called without the lock held.
func NewRegistry(onExpire func(channelID int, userID int)) *Registry {
	return &Registry{
		channels: make(map[int]map[int]*entry),
		ttl:      EphemeralTTL,
		now:      time.Now,
		onExpire: onExpire,
	}
}

// Start records that the user is typing, extending the deadline if an entry
// already exists.
func (r *Registry) Start(channelID int, userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	deadline := r.now().Add(r.ttl)
	if users, ok := r.channels[channelID]; ok {
		if existing, ok := users[userID]; ok {
			existing.deadline = deadline
			heap.Fix(&r.deadlines, existing.index)
			r.reschedule()
			return
		}
	} else {
		r.channels[channelID] = make(map[int]*entry)
	}

	item := &entry{channelID: channelID, userID: userID, deadline: deadline}
	r.channels[channelID][userID] = item
	heap.Push(&r.deadlines, item)
	r.reschedule()
}

// Stop removes the user's entry immediately and cancels its pending expiry.
func (r *Registry) Stop(channelID int, userID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(channelID, userID)
	r.reschedule()
}

// TypingUsers returns the users currently typing in the channel.
func (r *Registry) TypingUsers(channelID int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]int, 0, len(r.channels[channelID]))
	now := r.now()
	for userID, item := range r.channels[channelID] {
		if item.deadline.After(now) {
			users = append(users, userID)
		}
	}
	return users
}

// DropChannel discards all entries and pending deadlines for a channel.
// Called when the last local subscriber leaves, so stale state never fires.
func (r *Registry) DropChannel(channelID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID := range r.channels[channelID] {
		r.remove(channelID, userID)
	}
	r.reschedule()
}

// Close stops the sweeper and drops all state.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
	}
	r.channels = make(map[int]map[int]*entry)
	r.deadlines = nil
}

// remove deletes an entry; caller holds the lock.
func (r *Registry) remove(channelID int, userID int) {
	users, ok := r.channels[channelID]
	if !ok {
		return
	}
	item, ok := users[userID]
	if !ok {
		return
	}
	heap.Remove(&r.deadlines, item.index)
	delete(users, userID)
	if len(users) == 0 {
		delete(r.channels, channelID)
	}
}

// reschedule arms the sweep timer for the earliest deadline; caller holds
// the lock.
func (r *Registry) reschedule() {
	if r.closed {
		return
	}
	if len(r.deadlines) == 0 {
		if r.timer != nil {
			r.timer.Stop()
		}
		return
	}
	wait := time.Until(r.deadlines[0].deadline)
	if wait < 0 {
		wait = 0
	}
	if r.timer == nil {
		r.timer = time.AfterFunc(wait, r.sweep)
		return
	}
	r.timer.Stop()
	r.timer.Reset(wait)
}

// sweep pops every expired entry, then notifies outside the lock.
func (r *Registry) sweep() {
	r.mu.Lock()
	var expired []*entry
	now := r.now()
	for len(r.deadlines) > 0 && !r.deadlines[0].deadline.After(now) {
		item := heap.Pop(&r.deadlines).(*entry)
		if users, ok := r.channels[item.channelID]; ok {
			delete(users, item.userID)
			if len(users) == 0 {
				delete(r.channels, item.channelID)
			}
		}
		expired = append(expired, item)
	}
	r.reschedule()
	onExpire := r.onExpire
	r.mu.Unlock()

	if onExpire == nil {
		return
	}
	for _, item := range expired {
		onExpire(item.channelID, item.userID)
	}
}

// deadlineHeap orders entries by soonest deadline.
type deadlineHeap []*entry

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i].deadline.Before(h[j].deadline) }
func (h deadlineHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *deadlineHeap) Push(x any) {
	item := x.(*entry)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *deadlineHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

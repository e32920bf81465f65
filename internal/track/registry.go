package track

import (
	"sort"
	"sync"
)

// ChangeBufferSize is the capacity of the Changes channel.
const ChangeBufferSize = 64

// Registry is the thread-safe channel set.
type Registry struct {
	mu     sync.RWMutex
	pinned map[string]struct{}
	top    map[string]struct{}

	changes chan string
}

// NewRegistry creates a Registry with the given pinned channels.
func NewRegistry(pinned ...string) *Registry {
	r := &Registry{
		pinned:  make(map[string]struct{}),
		top:     make(map[string]struct{}),
		changes: make(chan string, ChangeBufferSize),
	}
	for _, channel := range pinned {
		if channel == "" {
			continue
		}
		if _, ok := r.pinned[channel]; ok {
			continue
		}
		r.pinned[channel] = struct{}{}
		r.notify(channel)
	}
	return r
}

// Pin adds a channel that ReplaceTop cannot remove.
func (r *Registry) Pin(channel string) {
	if channel == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.trackedLocked(channel) {
		r.pinned[channel] = struct{}{}
		return
	}
	r.pinned[channel] = struct{}{}
	r.notify(channel)
}

// ReplaceTop swaps the dynamic part of the set with the first n
// channels of the given list. Pinned channels are unaffected; channels
// that fall out of the top list stop being tracked without notice.
func (r *Registry) ReplaceTop(channels []string, n int) {
	if n > len(channels) {
		n = len(channels)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := make(map[string]struct{}, n)
	for _, channel := range channels[:n] {
		if channel == "" {
			continue
		}
		if _, ok := next[channel]; ok {
			continue
		}
		next[channel] = struct{}{}
		if !r.trackedLocked(channel) {
			r.notify(channel)
		}
	}
	r.top = next
}

// Tracked reports whether a channel is currently in the set.
func (r *Registry) Tracked(channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.trackedLocked(channel)
}

// List returns the tracked channels in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]string, 0, len(r.pinned)+len(r.top))
	for channel := range r.pinned {
		channels = append(channels, channel)
	}
	for channel := range r.top {
		if _, ok := r.pinned[channel]; !ok {
			channels = append(channels, channel)
		}
	}
	sort.Strings(channels)
	return channels
}

// Len returns the number of tracked channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.pinned)
	for channel := range r.top {
		if _, ok := r.pinned[channel]; !ok {
			n++
		}
	}
	return n
}

// Changes returns the channel announcing newly tracked channels.
func (r *Registry) Changes() <-chan string {
	return r.changes
}

func (r *Registry) trackedLocked(channel string) bool {
	if _, ok := r.pinned[channel]; ok {
		return true
	}
	_, ok := r.top[channel]
	return ok
}

// notify sends a change without blocking; when the buffer is full the
// oldest entry is dropped.
func (r *Registry) notify(channel string) {
	select {
	case r.changes <- channel:
	default:
		select {
		case <-r.changes:
			r.changes <- channel
		default:
		}
	}
}

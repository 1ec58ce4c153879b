package scene

import "sync"

// Tracker records resources at creation time and releases them together.
// A resource is released at most once through a tracker.
type Tracker struct {
	mu        sync.Mutex
	resources []Resource
	closed    bool
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{}
}

// Add registers r. Once the tracker has been released r is released
// immediately and ErrDisposed is returned.
func (t *Tracker) Add(r Resource) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		r.Release()
		return ErrDisposed
	}
	defer t.mu.Unlock()

	if t.indexOf(r) >= 0 {
		return nil
	}
	t.resources = append(t.resources, r)
	return nil
}

// Release releases one tracked resource early. It reports false when r is
// not tracked, in which case r is left alone.
func (t *Tracker) Release(r Resource) bool {
	t.mu.Lock()
	i := t.indexOf(r)
	if i < 0 {
		t.mu.Unlock()
		return false
	}
	t.resources = append(t.resources[:i], t.resources[i+1:]...)
	t.mu.Unlock()

	r.Release()
	return true
}

// ReleaseAll releases every tracked resource in reverse creation order and
// closes the tracker. Calling it again does nothing.
func (t *Tracker) ReleaseAll() {
	t.mu.Lock()
	resources := t.resources
	t.resources = nil
	t.closed = true
	t.mu.Unlock()

	for i := len(resources) - 1; i >= 0; i-- {
		resources[i].Release()
	}
}

// Len returns the number of resources currently tracked
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.resources)
}

// Closed reports whether ReleaseAll has run
func (t *Tracker) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *Tracker) indexOf(r Resource) int {
	for i, tracked := range t.resources {
		if tracked == r {
			return i
		}
	}
	return -1
}

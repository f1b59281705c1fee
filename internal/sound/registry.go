package sound

import (
	"sort"
	"sync"
)

// Registry maps sound ids to their live handles. Only map operations happen
// under the lock; callers spawn, wait and signal outside it.
type Registry struct {
	handles map[string]*Handle
	mu      sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handles: make(map[string]*Handle),
	}
}

// Put stores h under its sound id and returns the handle it replaced, if any.
func (r *Registry) Put(h *Handle) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.handles[h.SoundID]
	r.handles[h.SoundID] = h
	return prev
}

// Get returns the live handle for id, or nil.
func (r *Registry) Get(id string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handles[id]
}

// Remove deletes id and returns the handle that was stored, or nil.
func (r *Registry) Remove(id string) *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return nil
	}
	delete(r.handles, id)
	return h
}

// RemoveIf deletes id only while it still maps to h. A watcher for an older
// playback must not remove a newer handle that reused the id.
func (r *Registry) RemoveIf(id string, h *Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.handles[id]; ok && cur == h {
		delete(r.handles, id)
		return true
	}
	return false
}

// IDs returns a sorted snapshot of the live sound ids.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns a snapshot of the live handles ordered by sound id.
func (r *Registry) All() []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SoundID < out[j].SoundID })
	return out
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

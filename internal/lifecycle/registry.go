package lifecycle

import "sync"

// Registry tracks live File entities by ID for the duration of a session.
// It is intentionally not persisted; a restart forgets the entities while
// the stored bytes remain until the TTL sweep collects them.
type Registry struct {
	mu    sync.RWMutex
	files map[string]*File
}

func NewRegistry() *Registry {
	return &Registry{files: make(map[string]*File)}
}

func (r *Registry) Add(f *File) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.ID] = f
}

func (r *Registry) Get(id string) (*File, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[id]
	return f, ok
}

// GetAll resolves a list of IDs, preserving order. Missing IDs are skipped.
func (r *Registry) GetAll(ids []string) []*File {
	r.mu.RLock()
	defer r.mu.RUnlock()

	files := make([]*File, 0, len(ids))
	for _, id := range ids {
		if f, ok := r.files[id]; ok {
			files = append(files, f)
		}
	}
	return files
}

// Remove drops a file from tracking. It refuses files that are mid-phase.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok || !f.Removable() {
		return false
	}
	delete(r.files, id)
	return true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

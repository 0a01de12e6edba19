package api

import (
	"sort"
	"sync"
)

// Registry selects the adapter for a library key. Unknown keys resolve to
// the fallback library.
type Registry struct {
	mutex    sync.RWMutex
	adapters map[string]Adapter
	fallback string
}

func NewRegistry(fallback string, adapters ...Adapter) *Registry {
	r := &Registry{
		adapters: make(map[string]Adapter, len(adapters)),
		fallback: fallback,
	}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.adapters[a.Library()] = a
}

// Get returns the adapter for library, the fallback adapter, or the
// fineuploader adapter when the fallback is not registered either.
func (r *Registry) Get(library string) Adapter {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if a, ok := r.adapters[library]; ok {
		return a
	}
	if a, ok := r.adapters[r.fallback]; ok {
		return a
	}
	return r.adapters[FineUploader]
}

func (r *Registry) Libraries() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	libraries := make([]string, 0, len(r.adapters))
	for library := range r.adapters {
		libraries = append(libraries, library)
	}
	sort.Strings(libraries)
	return libraries
}

// Package lease tracks which users have a request in flight.
package lease

import (
	"sync"
	"time"
)

// Registry is a process-wide set of held leases keyed by user ID.
// Leases are not persisted and are cleared on restart.
type Registry struct {
	mu     sync.Mutex
	leases map[string]time.Time
	now    func() time.Time
}

// NewRegistry creates an empty lease registry.
func NewRegistry() *Registry {
	return &Registry{
		leases: make(map[string]time.Time),
		now:    time.Now,
	}
}

// TryAcquire takes the lease for key if nobody holds it. The returned release
// function is safe to call more than once.
func (r *Registry) TryAcquire(key string) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.leases[key]; held {
		return nil, false
	}
	r.leases[key] = r.now()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.leases, key)
			r.mu.Unlock()
		})
	}, true
}

// Since returns when the lease for key was acquired.
func (r *Registry) Since(key string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at, held := r.leases[key]
	return at, held
}

// Active returns the number of held leases.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.leases)
}

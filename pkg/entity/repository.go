package entity

import "sync"

// Repository is an identity-deduplicating store of materialized entities,
// partitioned by type. Entries are write-once: there is no update in place,
// only [Repository.TryAdd] and [Repository.Remove].
//
// Repository is safe for concurrent use.
type Repository struct {
	mu    sync.RWMutex
	items map[Key]Entity
	order map[Type][]int64
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{
		items: make(map[Key]Entity),
		order: make(map[Type][]int64),
	}
}

// TryAdd inserts e if its key is absent and reports whether it did.
// A false return means the key was already materialized and e was ignored.
func (r *Repository) TryAdd(e Entity) bool {
	k := e.Key()
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[k]; ok {
		return false
	}
	r.items[k] = e
	r.order[k.Type] = append(r.order[k.Type], k.ID)
	return true
}

// Remove deletes the entity with key k and reports whether it was present.
func (r *Repository) Remove(k Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[k]; !ok {
		return false
	}
	delete(r.items, k)
	ids := r.order[k.Type]
	for i, id := range ids {
		if id == k.ID {
			r.order[k.Type] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports whether an entity with key k is materialized.
func (r *Repository) Contains(k Key) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[k]
	return ok
}

// Get returns the stored entity for k.
func (r *Repository) Get(k Key) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.items[k]
	return e, ok
}

// IDs returns the ids of all entities of type t in insertion order.
func (r *Repository) IDs(t Type) []int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int64(nil), r.order[t]...)
}

// Len returns the number of materialized entities across all types.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear drops every entity.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = make(map[Key]Entity)
	r.order = make(map[Type][]int64)
}

package world

import "github.com/brentp/intintmap"

// Store is an O(1) object store keyed by TransientID, with a free-list for
// id reuse after destruction and lazily-allocated stable ids for save/load
// cross-referencing, per spec.md 4.5. One Store instance backs one of the
// six object classes (clients, entities, inventories, planes, terrain
// chunks, structures); T is that class's concrete type.
//
// Lookup is backed by intintmap rather than a Go map[TransientID]int: every
// mutation in the world's single-threaded tick touches several stores, and
// this keeps hot-path id resolution allocation-free.
type Store[T any] struct {
	index *intintmap.Map

	slots   []T
	ids     []TransientID
	present []bool
	free    []TransientID
	next    TransientID

	stableOf map[TransientID]StableID
	idOf     map[StableID]TransientID
}

// NewStore creates an empty store, sized for roughly capacityHint objects.
func NewStore[T any](capacityHint int) *Store[T] {
	if capacityHint < 16 {
		capacityHint = 16
	}
	return &Store[T]{
		index:    intintmap.New(int64(capacityHint), 0.6),
		stableOf: make(map[TransientID]StableID),
		idOf:     make(map[StableID]TransientID),
	}
}

// Insert allocates a transient id for obj and stores it, returning the id.
func (s *Store[T]) Insert(obj T) TransientID {
	var id TransientID
	if n := len(s.free); n > 0 {
		id, s.free = s.free[n-1], s.free[:n-1]
		// A freed id keeps its index entry, so its old slot is reused.
		if slot, ok := s.index.Get(int64(id)); ok {
			s.slots[slot] = obj
			s.present[slot] = true
			return id
		}
	} else {
		s.next++
		id = s.next
	}
	slot := int64(len(s.slots))
	s.slots = append(s.slots, obj)
	s.ids = append(s.ids, id)
	s.present = append(s.present, true)
	s.index.Put(int64(id), slot)
	return id
}

// Get returns the object for id, or the zero value and false if id is not
// resident (never allocated, or already destroyed).
func (s *Store[T]) Get(id TransientID) (T, bool) {
	slot, ok := s.slot(id)
	if !ok {
		var zero T
		return zero, false
	}
	return s.slots[slot], true
}

// Set overwrites the object stored for id. It reports false if id is not
// resident.
func (s *Store[T]) Set(id TransientID, obj T) bool {
	slot, ok := s.slot(id)
	if !ok {
		return false
	}
	s.slots[slot] = obj
	return true
}

func (s *Store[T]) slot(id TransientID) (int64, bool) {
	slot, ok := s.index.Get(int64(id))
	if !ok || slot >= int64(len(s.present)) || !s.present[slot] {
		return 0, false
	}
	return slot, true
}

// Remove destroys id, freeing it for reuse. It reports false if id was not
// resident. Stable id bindings, if any, are dropped along with it: a
// destroyed object's stable id is never reused for another object.
func (s *Store[T]) Remove(id TransientID) bool {
	slot, ok := s.slot(id)
	if !ok {
		return false
	}
	var zero T
	s.slots[slot] = zero
	s.present[slot] = false
	s.free = append(s.free, id)
	if sid, ok := s.stableOf[id]; ok {
		delete(s.idOf, sid)
		delete(s.stableOf, id)
	}
	return true
}

// StableOf returns id's stable id, minting one on first call. It reports
// false if id is not resident.
func (s *Store[T]) StableOf(id TransientID) (StableID, bool) {
	if _, ok := s.slot(id); !ok {
		return NilStableID, false
	}
	if sid, ok := s.stableOf[id]; ok {
		return sid, true
	}
	sid := NewStableID()
	s.stableOf[id] = sid
	s.idOf[sid] = id
	return sid, true
}

// ByStable resolves a stable id back to its live transient id.
func (s *Store[T]) ByStable(sid StableID) (TransientID, bool) {
	id, ok := s.idOf[sid]
	return id, ok
}

// BindStable associates an already-known stable id with id, used when
// restoring an object on load rather than minting a fresh stable id.
func (s *Store[T]) BindStable(id TransientID, sid StableID) {
	s.stableOf[id] = sid
	s.idOf[sid] = id
}

// Len returns the number of resident objects.
func (s *Store[T]) Len() int { return len(s.slots) - len(s.free) }

// Range calls fn for every resident object, in no particular order. fn
// returning false stops iteration early.
func (s *Store[T]) Range(fn func(id TransientID, obj T) bool) {
	for slot, present := range s.present {
		if !present {
			continue
		}
		if !fn(s.ids[slot], s.slots[slot]) {
			return
		}
	}
}

package world

import "testing"

type widget struct{ n int }

func TestStoreInsertGetSet(t *testing.T) {
	s := NewStore[*widget](4)
	id := s.Insert(&widget{n: 1})
	w, ok := s.Get(id)
	if !ok || w.n != 1 {
		t.Fatalf("Get(%d) = %v, %v, want {1}, true", id, w, ok)
	}
	s.Set(id, &widget{n: 2})
	w, ok = s.Get(id)
	if !ok || w.n != 2 {
		t.Fatalf("Get after Set = %v, %v, want {2}, true", w, ok)
	}
}

func TestStoreRemoveFreesID(t *testing.T) {
	s := NewStore[*widget](4)
	id := s.Insert(&widget{n: 1})
	if !s.Remove(id) {
		t.Fatalf("Remove(%d) = false, want true", id)
	}
	if _, ok := s.Get(id); ok {
		t.Fatalf("Get(%d) after Remove: ok = true, want false", id)
	}
	if s.Remove(id) {
		t.Fatalf("second Remove(%d) = true, want false", id)
	}
	reused := s.Insert(&widget{n: 2})
	if reused != id {
		t.Fatalf("Insert after Remove = %d, want reused id %d", reused, id)
	}
}

func TestStoreZeroIDNeverAllocated(t *testing.T) {
	s := NewStore[*widget](4)
	for i := 0; i < 8; i++ {
		if id := s.Insert(&widget{n: i}); id == 0 {
			t.Fatalf("Insert returned TransientID 0 on iteration %d", i)
		}
	}
}

func TestStoreStableIDRoundTrip(t *testing.T) {
	s := NewStore[*widget](4)
	id := s.Insert(&widget{n: 1})
	sid, ok := s.StableOf(id)
	if !ok {
		t.Fatalf("StableOf(%d) ok = false", id)
	}
	again, ok := s.StableOf(id)
	if !ok || again != sid {
		t.Fatalf("StableOf not stable across calls: %v vs %v", again, sid)
	}
	back, ok := s.ByStable(sid)
	if !ok || back != id {
		t.Fatalf("ByStable(%v) = %d, %v, want %d, true", sid, back, ok, id)
	}
}

func TestStoreRemoveDropsStableBinding(t *testing.T) {
	s := NewStore[*widget](4)
	id := s.Insert(&widget{n: 1})
	sid, _ := s.StableOf(id)
	s.Remove(id)
	if _, ok := s.ByStable(sid); ok {
		t.Fatalf("ByStable(%v) after Remove: ok = true, want false", sid)
	}
}

func TestStoreRangeVisitsAllResident(t *testing.T) {
	s := NewStore[*widget](4)
	var ids []TransientID
	for i := 0; i < 5; i++ {
		ids = append(ids, s.Insert(&widget{n: i}))
	}
	s.Remove(ids[2])

	seen := map[TransientID]bool{}
	s.Range(func(id TransientID, w *widget) bool {
		seen[id] = true
		return true
	})
	if len(seen) != 4 {
		t.Fatalf("Range visited %d objects, want 4", len(seen))
	}
	if seen[ids[2]] {
		t.Fatalf("Range visited removed id %d", ids[2])
	}
	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
}

func TestStoreRangeStopsEarly(t *testing.T) {
	s := NewStore[*widget](4)
	for i := 0; i < 5; i++ {
		s.Insert(&widget{n: i})
	}
	count := 0
	s.Range(func(TransientID, *widget) bool {
		count++
		return count < 2
	})
	if count != 2 {
		t.Fatalf("Range visited %d objects before stopping, want 2", count)
	}
}

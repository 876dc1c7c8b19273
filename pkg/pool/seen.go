package pool

// seenSet is a fixed-capacity set of event ids with oldest-first
// eviction. It is owned by the pool goroutine and needs no locking.
type seenSet struct {
	capacity int
	ids      map[string]struct{}
	order    []string
	head     int
}

func newSeenSet(capacity int) *seenSet {
	return &seenSet{
		capacity: capacity,
		ids:      make(map[string]struct{}, capacity),
		order:    make([]string, 0, capacity),
	}
}

// add records id and reports whether it was new.
func (s *seenSet) add(id string) bool {
	if _, ok := s.ids[id]; ok {
		return false
	}
	if len(s.order) < s.capacity {
		s.order = append(s.order, id)
	} else {
		delete(s.ids, s.order[s.head])
		s.order[s.head] = id
		s.head = (s.head + 1) % s.capacity
	}
	s.ids[id] = struct{}{}
	return true
}

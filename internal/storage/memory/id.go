package memory

// nextID hands out sequential identifiers per table, starting at 1. Callers
// must hold the store's write lock.
func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

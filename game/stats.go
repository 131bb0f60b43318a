package game

import "github.com/kamstrup/intmap"

// MaxClear is the largest number of rows a single built-in piece can complete.
const MaxClear = 4

// Stats counts what happened during a session.
type Stats struct {
	Spawned int
	Locked  int
	Lines   int

	clears *intmap.Map[int, int]
	spawns *intmap.Map[int, int]
}

func newStats() *Stats {
	return &Stats{
		clears: intmap.New[int, int](MaxClear + 1),
		spawns: intmap.New[int, int](8),
	}
}

// NewStats returns empty counters, for aggregating several sessions with Merge.
func NewStats() *Stats {
	return newStats()
}

// Clears returns how many locks completed exactly n rows.
func (s *Stats) Clears(n int) int {
	count, _ := s.clears.Get(n)
	return count
}

// Spawns returns how many times the piece with the given catalog id spawned.
func (s *Stats) Spawns(id int) int {
	count, _ := s.spawns.Get(id)
	return count
}

// Merge adds the counters of other into s.
func (s *Stats) Merge(other *Stats, pieces int) {
	s.Spawned += other.Spawned
	s.Locked += other.Locked
	s.Lines += other.Lines
	for n := 1; n <= MaxClear; n++ {
		if c := other.Clears(n); c > 0 {
			s.clears.Put(n, s.Clears(n)+c)
		}
	}
	for id := 0; id < pieces; id++ {
		if c := other.Spawns(id); c > 0 {
			s.spawns.Put(id, s.Spawns(id)+c)
		}
	}
}

func (s *Stats) recordLock(cleared int) {
	s.Locked++
	s.Lines += cleared
	if cleared > 0 {
		s.clears.Put(cleared, s.Clears(cleared)+1)
	}
}

func (s *Stats) recordSpawn(id int) {
	s.Spawned++
	s.spawns.Put(id, s.Spawns(id)+1)
}

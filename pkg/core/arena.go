package core

import "reflect"

const arenaBlockSize = 64

// Arena hands out per-sample scratch values that live until Reset. Each
// render worker owns one and resets it after every pixel sample, so memory
// stays bounded by the deepest path rather than growing with the tile.
// An Arena is not safe for concurrent use.
type Arena struct {
	pools map[reflect.Type]resetter
	bsdfs slab[BSDF]
	inUse int
	peak  int
}

type resetter interface {
	reset()
}

// slab is a chunked bump allocator; chunks are never reallocated so
// pointers handed out stay valid until reset.
type slab[T any] struct {
	blocks [][]T
	next   int
}

func (s *slab[T]) alloc(n int) []T {
	if n > arenaBlockSize {
		return make([]T, n)
	}
	block, offset := s.next/arenaBlockSize, s.next%arenaBlockSize
	if offset+n > arenaBlockSize {
		block++
		offset = 0
		s.next = block * arenaBlockSize
	}
	for len(s.blocks) <= block {
		s.blocks = append(s.blocks, make([]T, arenaBlockSize))
	}
	s.next += n
	out := s.blocks[block][offset : offset+n : offset+n]
	var zero T
	for i := range out {
		out[i] = zero
	}
	return out
}

func (s *slab[T]) reset() {
	s.next = 0
}

// NewArena creates an empty arena
func NewArena() *Arena {
	return &Arena{pools: make(map[reflect.Type]resetter)}
}

// Alloc returns a zeroed *T owned by the arena
func Alloc[T any](a *Arena) *T {
	if a.pools == nil {
		a.pools = make(map[reflect.Type]resetter)
	}
	key := reflect.TypeFor[T]()
	pool, ok := a.pools[key]
	if !ok {
		pool = &slab[T]{}
		a.pools[key] = pool
	}
	a.track(1)
	return &pool.(*slab[T]).alloc(1)[0]
}

// BSDFs returns a zeroed slice of n BSDF slots owned by the arena
func (a *Arena) BSDFs(n int) []BSDF {
	a.track(n)
	return a.bsdfs.alloc(n)
}

func (a *Arena) track(n int) {
	a.inUse += n
	if a.inUse > a.peak {
		a.peak = a.inUse
	}
}

// Reset releases everything allocated since the last reset
func (a *Arena) Reset() {
	for _, p := range a.pools {
		p.reset()
	}
	a.bsdfs.reset()
	a.inUse = 0
}

// InUse returns the number of values allocated since the last reset
func (a *Arena) InUse() int {
	return a.inUse
}

// Peak returns the largest number of values live at once
func (a *Arena) Peak() int {
	return a.peak
}

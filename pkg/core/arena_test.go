package core

import "testing"

type arenaItem struct {
	a, b float64
}

func TestArena_AllocAndReset(t *testing.T) {
	arena := NewArena()

	first := Alloc[arenaItem](arena)
	first.a = 1
	second := Alloc[arenaItem](arena)
	if first == second {
		t.Fatal("two allocations returned the same pointer")
	}
	if second.a != 0 {
		t.Error("allocation not zeroed")
	}

	slots := arena.BSDFs(4)
	if len(slots) != 4 {
		t.Fatalf("BSDFs(4) returned %d slots", len(slots))
	}
	if arena.InUse() != 6 {
		t.Errorf("InUse = %d, want 6", arena.InUse())
	}

	arena.Reset()
	if arena.InUse() != 0 {
		t.Errorf("InUse after reset = %d", arena.InUse())
	}
	if arena.Peak() != 6 {
		t.Errorf("Peak = %d, want 6", arena.Peak())
	}

	// memory is reused and handed back zeroed
	again := Alloc[arenaItem](arena)
	if again != first {
		t.Error("reset did not reuse the first slot")
	}
	if again.a != 0 {
		t.Error("reused slot not zeroed")
	}
}

func TestArena_PointersStableAcrossBlocks(t *testing.T) {
	var arena Arena
	ptrs := make([]*arenaItem, 0, 3*arenaBlockSize)
	for i := 0; i < 3*arenaBlockSize; i++ {
		p := Alloc[arenaItem](&arena)
		p.a = float64(i)
		ptrs = append(ptrs, p)
	}
	for i, p := range ptrs {
		if p.a != float64(i) {
			t.Fatalf("pointer %d overwritten: %g", i, p.a)
		}
	}

	// slices never straddle a block boundary
	arena.Reset()
	arena.BSDFs(arenaBlockSize - 1)
	s := arena.BSDFs(2)
	if cap(s) != 2 {
		t.Errorf("slice capacity %d leaks into neighbouring slots", cap(s))
	}
}

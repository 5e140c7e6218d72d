package engine

import "testing"

func TestRNGDeterminism(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 100; i++ {
		if a.Roll(20) != b.Roll(20) {
			t.Fatal("same seed must produce the same roll sequence")
		}
	}
}

func TestRollBounds(t *testing.T) {
	rng := NewRNG(1)
	for i := 0; i < 1000; i++ {
		n := rng.Roll(6)
		if n < 1 || n > 6 {
			t.Fatalf("Roll(6) = %d out of [1,6]", n)
		}
	}
}

func TestPercentExtremes(t *testing.T) {
	rng := NewRNG(7)
	for i := 0; i < 100; i++ {
		if !rng.Percent(100) {
			t.Fatal("Percent(100) must always succeed")
		}
		if rng.Percent(0) {
			t.Fatal("Percent(0) must never succeed")
		}
	}
}

func TestVarianceBounds(t *testing.T) {
	rng := NewRNG(9)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		v := rng.Variance(1)
		if v < -1 || v > 1 {
			t.Fatalf("Variance(1) = %d out of [-1,1]", v)
		}
		seen[v] = true
	}
	for _, want := range []int{-1, 0, 1} {
		if !seen[want] {
			t.Errorf("Variance(1) never produced %d", want)
		}
	}
	if rng.Variance(0) != 0 {
		t.Error("Variance(0) must be 0")
	}
}

func TestPositionTracking(t *testing.T) {
	rng := NewRNG(5)
	if rng.Position() != 0 {
		t.Fatal("fresh RNG position must be 0")
	}
	rng.Roll(6)
	rng.Percent(50)
	rng.Variance(1)
	if rng.Position() != 3 {
		t.Errorf("position = %d, want 3", rng.Position())
	}
}

func TestRestoreRNGReproducesStream(t *testing.T) {
	orig := NewRNG(123)
	for i := 0; i < 17; i++ {
		orig.Roll(100)
	}

	restored := RestoreRNG(orig.Seed(), orig.Position())
	for i := 0; i < 50; i++ {
		if orig.Roll(100) != restored.Roll(100) {
			t.Fatal("restored RNG diverged from original stream")
		}
	}
}

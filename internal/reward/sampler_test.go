package reward

import (
	"math"
	"math/rand"
	"testing"
)

func testCatalog() []Definition {
	return []Definition{
		{ID: "quill", DropRateWeight: 40, PointValue: 5, Active: true},
		{ID: "scroll", DropRateWeight: 30, PointValue: 10, Active: true},
		{ID: "gem", DropRateWeight: 20, PointValue: 40, Active: true},
		{ID: "crown", DropRateWeight: 10, PointValue: 75, Active: true},
	}
}

func TestDraw_FrequenciesMatchWeights(t *testing.T) {
	defs := testCatalog()
	rng := rand.New(rand.NewSource(42))

	const trials = 10000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		got := Draw(defs, 1, rng)
		if len(got) != 1 {
			t.Fatalf("Draw(count=1) returned %d entries", len(got))
		}
		counts[got[0].ID]++
	}

	for _, d := range defs {
		want := d.DropRateWeight / 100.0
		got := float64(counts[d.ID]) / trials
		if math.Abs(got-want) > 0.015 {
			t.Errorf("%s: empirical frequency %.4f, configured %.4f (tolerance 0.015)", d.ID, got, want)
		}
	}
}

func TestDraw_PairNeverDuplicates(t *testing.T) {
	defs := testCatalog()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 5000; i++ {
		got := Draw(defs, 2, rng)
		if len(got) != 2 {
			t.Fatalf("Draw(count=2) returned %d entries", len(got))
		}
		if got[0].ID == got[1].ID {
			t.Fatalf("duplicate pair %q on trial %d", got[0].ID, i)
		}
	}
}

// With one entry holding nearly all the weight, the second slot almost
// always collides ten times and the ordered fallback must pick the
// first entry not yet chosen.
func TestDraw_CollisionFallbackUsesStoredOrder(t *testing.T) {
	defs := []Definition{
		{ID: "heavy", DropRateWeight: 99.99, Active: true},
		{ID: "light", DropRateWeight: 0.005, Active: true},
		{ID: "lighter", DropRateWeight: 0.005, Active: true},
	}
	rng := rand.New(rand.NewSource(1))

	sawFallback := false
	for i := 0; i < 200; i++ {
		got := Draw(defs, 2, rng)
		if len(got) != 2 {
			t.Fatalf("Draw returned %d entries", len(got))
		}
		if got[0].ID == "heavy" && got[1].ID == "light" {
			sawFallback = true
		}
		if got[0].ID == got[1].ID {
			t.Fatalf("duplicate pair %q", got[0].ID)
		}
	}
	if !sawFallback {
		t.Error("expected the ordered fallback (heavy then light) to occur")
	}
}

func TestDraw_SingleEntryCatalog(t *testing.T) {
	defs := []Definition{{ID: "only", DropRateWeight: 100, Active: true}}
	rng := rand.New(rand.NewSource(3))

	got := Draw(defs, 2, rng)
	if len(got) != 1 || got[0].ID != "only" {
		t.Fatalf("Draw over single-entry catalog = %+v, want just 'only'", got)
	}
}

func TestDraw_IgnoresInactive(t *testing.T) {
	defs := []Definition{
		{ID: "dead", DropRateWeight: 90, Active: false},
		{ID: "live", DropRateWeight: 10, Active: true},
	}
	rng := rand.New(rand.NewSource(5))

	for i := 0; i < 100; i++ {
		for _, d := range Draw(defs, 1, rng) {
			if d.ID == "dead" {
				t.Fatal("inactive definition drawn")
			}
		}
	}
}

func TestDraw_EmptyCatalog(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	if got := Draw(nil, 1, rng); got != nil {
		t.Fatalf("Draw over empty catalog = %+v, want nil", got)
	}
}

func TestRollCount_OnlyOneOrTwo(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	saw := map[int]bool{}
	for i := 0; i < 1000; i++ {
		n := RollCount(rng)
		if n != 1 && n != 2 {
			t.Fatalf("RollCount = %d, want 1 or 2", n)
		}
		saw[n] = true
	}
	if !saw[1] || !saw[2] {
		t.Errorf("RollCount never produced both values: %+v", saw)
	}
}

package fortune

import (
	"testing"
)

func TestEventChanceBounds(t *testing.T) {
	f := NewField(7)
	for day := 0; day < 336*5; day++ {
		chance := f.EventChance(day)
		if chance < baseChance-swing || chance > baseChance+swing {
			t.Fatalf("EventChance(%d) = %f out of [%f, %f]",
				day, chance, baseChance-swing, baseChance+swing)
		}
	}
}

func TestFieldIsDeterministicPerSeed(t *testing.T) {
	a, b := NewField(42), NewField(42)
	for day := 0; day < 100; day++ {
		if a.At(day) != b.At(day) {
			t.Fatalf("same seed diverges at day %d", day)
		}
	}

	c := NewField(43)
	same := true
	for day := 0; day < 100; day++ {
		if a.At(day) != c.At(day) {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced an identical field")
	}
}

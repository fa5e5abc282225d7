package distribution

import (
	"math/rand"
	"testing"
)

func TestDeterministicMean(t *testing.T) {
	d := DeterministicMean{}
	v, err := d.Sample(5, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 5 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestDeterministicMeanRejectsNegative(t *testing.T) {
	d := DeterministicMean{}
	if _, err := d.Sample(-1, 0); err == nil {
		t.Fatal("expected error for negative mean")
	}
}

func TestSymmetricUniformBounds(t *testing.T) {
	d := SymmetricUniform{Rand: rand.New(rand.NewSource(42))}
	for i := 0; i < 1000; i++ {
		v, err := d.Sample(10, 1)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v < 0 {
			t.Fatalf("sampled negative value %v", v)
		}
	}
}

func TestSymmetricUniformRejectsOversizedSD(t *testing.T) {
	d := SymmetricUniform{Rand: rand.New(rand.NewSource(1))}
	if _, err := d.Sample(1, 100); err == nil {
		t.Fatal("expected rejection of sd too large for mean")
	}
}

func TestSymmetricUniformZeroSDIsDeterministic(t *testing.T) {
	d := SymmetricUniform{Rand: rand.New(rand.NewSource(1))}
	v, err := d.Sample(7, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %v", v)
	}
}

func TestNoisePresetUniformBounds(t *testing.T) {
	d := NoisePresetUniform{Rand: rand.New(rand.NewSource(7)), NoiseLevel: 0.5}
	for i := 0; i < 1000; i++ {
		v, err := d.Sample(10, 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v < 9 || v > 11 {
			t.Fatalf("sample %v outside expected noise band", v)
		}
	}
}

//-------------------------------------------------------------------------
//
// pgEdge Tick Pipeline
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerPrice(t *testing.T) {
	f := NewFaker()
	min := decimal.NewFromInt(10)
	max := decimal.NewFromInt(100)

	for i := 0; i < 100; i++ {
		price := f.Price(10.0, 100.0)
		if price.LessThan(min) || price.GreaterThan(max) {
			t.Errorf("Price %s not in range [10, 100]", price)
		}
		if price.Exponent() < -2 {
			t.Errorf("Price %s has more than 2 decimal places", price)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(5, 10)
		if v < 5 || v > 10 {
			t.Errorf("Int %d not in range [5, 10]", v)
		}
	}
}

func TestFakerInt64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int64(1000, 2000)
		if v < 1000 || v > 2000 {
			t.Errorf("Int64 %d not in range [1000, 2000]", v)
		}
	}
}

func TestFakerChance(t *testing.T) {
	f := NewFaker()

	for i := 0; i < 10; i++ {
		if f.Chance(0) {
			t.Error("Chance(0) should never report true")
		}
		if !f.Chance(1) {
			t.Error("Chance(1) should always report true")
		}
	}

	hits := 0
	iterations := 1000
	for i := 0; i < iterations; i++ {
		if f.Chance(0.5) {
			hits++
		}
	}
	// Loose bounds; this is a sanity check, not a statistics test.
	if hits < 350 || hits > 650 {
		t.Errorf("Chance(0.5) hit %d/%d times", hits, iterations)
	}
}

func TestChoose(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}

	for i := 0; i < 100; i++ {
		chosen := Choose(f, items)
		found := false
		for _, item := range items {
			if item == chosen {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Choose returned item not in slice: %s", chosen)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	var items []string

	chosen := Choose(f, items)
	if chosen != "" {
		t.Errorf("Choose on empty slice should return zero value, got: %s", chosen)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFaker()
	items := []string{"a", "b", "c"}
	weights := []int{1, 2, 7} // c should be chosen ~70% of the time

	counts := make(map[string]int)
	iterations := 1000

	for i := 0; i < iterations; i++ {
		chosen := ChooseWeighted(f, items, weights)
		counts[chosen]++
	}

	// c should be most common
	if counts["c"] < counts["a"] || counts["c"] < counts["b"] {
		t.Errorf("Weighted choice distribution unexpected: %v", counts)
	}
}

func TestChooseWeightedEmpty(t *testing.T) {
	f := NewFaker()
	var items []string
	var weights []int

	chosen := ChooseWeighted(f, items, weights)
	if chosen != "" {
		t.Errorf("ChooseWeighted on empty slices should return zero value, got: %s", chosen)
	}
}

// Benchmarks
func BenchmarkFakerPrice(b *testing.B) {
	f := NewFaker()
	for i := 0; i < b.N; i++ {
		f.Price(100, 500)
	}
}

func BenchmarkChooseWeighted(b *testing.B) {
	f := NewFaker()
	items := []string{"a", "b", "c", "d", "e"}
	weights := []int{1, 2, 3, 4, 5}
	for i := 0; i < b.N; i++ {
		ChooseWeighted(f, items, weights)
	}
}

package ocp

import (
	"errors"
	"math"
	"testing"
)

func TestNewBox_Validation(t *testing.T) {
	tests := []struct {
		name string
		low  []float64
		high []float64
		ok   bool
	}{
		{"valid", []float64{-1, -2}, []float64{1, 2}, true},
		{"equal bounds", []float64{0}, []float64{0}, true},
		{"infinite", []float64{math.Inf(-1)}, []float64{math.Inf(1)}, true},
		{"length mismatch", []float64{0}, []float64{1, 2}, false},
		{"crossed", []float64{1}, []float64{-1}, false},
		{"NaN bound", []float64{math.NaN()}, []float64{1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBox(tt.low, tt.high)
			if tt.ok && err != nil {
				t.Fatalf("NewBox() error = %v, want nil", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("NewBox() error = nil, want ErrBadBounds")
				}
				if !errors.Is(err, ErrBadBounds) {
					t.Errorf("NewBox() error = %v, want ErrBadBounds", err)
				}
			}
		})
	}
}

func TestBox_Clip(t *testing.T) {
	b, err := NewBox([]float64{-5, -1}, []float64{5, 1})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"inside untouched", []float64{0.5, -0.5}, []float64{0.5, -0.5}},
		{"on boundary", []float64{5, -1}, []float64{5, -1}},
		{"clamp high", []float64{7, 0}, []float64{5, 0}},
		{"clamp low", []float64{-9, -3}, []float64{-5, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := append([]float64(nil), tt.in...)
			got := b.Clip(in)
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Clip(%v) = %v, want %v", tt.in, got, tt.want)
					break
				}
			}
			for i := range in {
				if in[i] != tt.in[i] {
					t.Errorf("Clip mutated its input: %v", in)
					break
				}
			}
		})
	}
}

func TestBox_ClipIdempotent(t *testing.T) {
	b, err := NewBox([]float64{-5, -1, math.Inf(-1)}, []float64{5, 1, math.Inf(1)})
	if err != nil {
		t.Fatal(err)
	}

	once := b.Clip([]float64{7.3, -2.6, 41.5})
	twice := b.Clip(once)
	for i := range twice {
		if twice[i] != once[i] {
			t.Fatalf("second Clip moved %v to %v", once, twice)
		}
	}
}

func TestBox_ClipNaNPassesThrough(t *testing.T) {
	b, _ := NewBox([]float64{-1}, []float64{1})
	got := b.Clip([]float64{math.NaN()})
	if !math.IsNaN(got[0]) {
		t.Errorf("Clip replaced NaN with %v", got[0])
	}
}

func TestBox_Contains(t *testing.T) {
	b, _ := NewBox([]float64{-1, -1}, []float64{1, 1})

	if !b.Contains([]float64{0, 0}) {
		t.Error("Contains(origin) = false")
	}
	if !b.Contains([]float64{1, -1}) {
		t.Error("Contains(corner) = false")
	}
	if b.Contains([]float64{2, 0}) {
		t.Error("Contains(outside) = true")
	}
	if b.Contains([]float64{0}) {
		t.Error("Contains accepted wrong dimension")
	}
}

func TestUnbounded(t *testing.T) {
	b := Unbounded(3)
	if b.Dim() != 3 {
		t.Fatalf("Dim() = %d, want 3", b.Dim())
	}

	v := []float64{1e300, -1e300, 0}
	got := b.Clip(v)
	if got[0] != 1e300 || got[1] != -1e300 {
		t.Errorf("unbounded Clip altered values: %v", got)
	}
	if !b.Contains(v) {
		t.Error("unbounded box does not contain huge values")
	}
}

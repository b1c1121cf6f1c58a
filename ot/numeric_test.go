package ot

import (
	"math"
	"testing"
)

func TestF2Dot14RoundTrip(t *testing.T) {
	tests := []float32{0, 1, -1, 0.5, -0.5, 0.25, 0.76249, -0.99994}
	for _, f := range tests {
		raw := floatToF2dot14(f)
		got := f2dot14ToFloat(raw)
		if abs(got-f) > 0.0001 {
			t.Errorf("round-trip(%v) = %v, want within 0.0001", f, got)
		}
	}
}

func TestFloatToF2Dot14Saturates(t *testing.T) {
	if v := floatToF2dot14(10.0); v != 32767 {
		t.Errorf("floatToF2dot14(10.0) = %d, want 32767", v)
	}
	if v := floatToF2dot14(-10.0); v != -32768 {
		t.Errorf("floatToF2dot14(-10.0) = %d, want -32768", v)
	}
}

func TestSignum(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0},
		{1, 1},
		{-1, -1},
		{0.0001, 1},
		{-0.0001, -1},
	}
	for _, tt := range tests {
		if got := signum(tt.in); got != tt.want {
			t.Errorf("signum(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSaturatingRoundToInt16(t *testing.T) {
	tests := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1.4, 1},
		{1.5, 2},
		{-1.5, -2},
		{40000, 32767},
		{-40000, -32768},
	}
	for _, tt := range tests {
		if got := saturatingRoundToInt16(tt.in); got != tt.want {
			t.Errorf("saturatingRoundToInt16(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := saturatingRoundToInt16(float32(math.NaN())); got != 0 {
		t.Errorf("saturatingRoundToInt16(NaN) = %d, want 0", got)
	}
}

func TestVector2F(t *testing.T) {
	a := Vector2F{X: 1, Y: 2}
	b := Vector2F{X: 3, Y: -1}
	if sum := a.Add(b); sum != (Vector2F{X: 4, Y: 1}) {
		t.Errorf("Add = %v, want {4 1}", sum)
	}
	if scaled := a.Scale(2); scaled != (Vector2F{X: 2, Y: 4}) {
		t.Errorf("Scale = %v, want {2 4}", scaled)
	}
}

func TestMatrix2x2FApply(t *testing.T) {
	m := Matrix2x2F{XX: 2, YY: 3}
	got := m.Apply(Vector2F{X: 4, Y: 5})
	want := Vector2F{X: 8, Y: 15}
	if got != want {
		t.Errorf("Apply = %v, want %v", got, want)
	}
}

func TestRectFUnionAndTransform(t *testing.T) {
	r1 := EmptyRectF().AddPoint(Vector2F{X: 0, Y: 0}).AddPoint(Vector2F{X: 10, Y: 10})
	r2 := EmptyRectF().AddPoint(Vector2F{X: 5, Y: -5}).AddPoint(Vector2F{X: 20, Y: 5})

	union := r1.Union(r2)
	want := RectF{MinX: 0, MinY: -5, MaxX: 20, MaxY: 10}
	if union != want {
		t.Errorf("Union = %+v, want %+v", union, want)
	}

	scaled := r1.Transform(Transform2F{Matrix: Matrix2x2F{XX: 2, YY: 2}})
	wantScaled := RectF{MinX: 0, MinY: 0, MaxX: 20, MaxY: 20}
	if scaled != wantScaled {
		t.Errorf("Transform = %+v, want %+v", scaled, wantScaled)
	}
}

func TestEmptyRectFIsEmpty(t *testing.T) {
	r := EmptyRectF()
	if !r.IsEmpty() {
		t.Error("EmptyRectF().IsEmpty() = false, want true")
	}
	if r.Union(EmptyRectF()).IsEmpty() != true {
		t.Error("union of two empty rects should stay empty")
	}
}

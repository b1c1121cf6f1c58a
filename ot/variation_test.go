package ot

import "testing"

func TestRegionScalarAxisIgnoredWhenPeakZero(t *testing.T) {
	region := VariationRegion{
		Peak:  []float32{0},
		Start: []float32{0},
		End:   []float32{0},
	}
	if got := RegionScalar(region, []float32{0.75}); got != 1 {
		t.Errorf("RegionScalar with peak=0 = %v, want 1", got)
	}
}

func TestRegionScalarOutsideRegion(t *testing.T) {
	region := VariationRegion{
		Peak:  []float32{1},
		Start: []float32{0},
		End:   []float32{1},
	}
	if got := RegionScalar(region, []float32{-0.5}); got != 0 {
		t.Errorf("RegionScalar outside region = %v, want 0", got)
	}
}

func TestRegionScalarAtPeak(t *testing.T) {
	region := VariationRegion{
		Peak:  []float32{1},
		Start: []float32{0},
		End:   []float32{1},
	}
	if got := RegionScalar(region, []float32{1}); got != 1 {
		t.Errorf("RegionScalar at peak = %v, want 1", got)
	}
}

func TestRegionScalarInterpolated(t *testing.T) {
	region := VariationRegion{
		Peak:  []float32{1},
		Start: []float32{0},
		End:   []float32{1},
	}
	got := RegionScalar(region, []float32{0.5})
	if abs(got-0.5) > 0.0001 {
		t.Errorf("RegionScalar below peak = %v, want 0.5", got)
	}

	region2 := VariationRegion{
		Peak:  []float32{-1},
		Start: []float32{-1},
		End:   []float32{0},
	}
	got2 := RegionScalar(region2, []float32{-0.25})
	if abs(got2-0.25) > 0.0001 {
		t.Errorf("RegionScalar between negative peak and end = %v, want 0.25", got2)
	}
}

func TestRegionScalarMultiAxisProduct(t *testing.T) {
	region := VariationRegion{
		Peak:  []float32{1, 1},
		Start: []float32{0, 0},
		End:   []float32{1, 1},
	}
	got := RegionScalar(region, []float32{0.5, 0.5})
	if abs(got-0.25) > 0.0001 {
		t.Errorf("RegionScalar product = %v, want 0.25", got)
	}
}

func TestDeriveImplicitRegion(t *testing.T) {
	start, end := deriveImplicitRegion([]float32{-1, 0, 1})
	wantStart := []float32{-1, 0, 0}
	wantEnd := []float32{0, 0, 1}
	for i := range start {
		if start[i] != wantStart[i] || end[i] != wantEnd[i] {
			t.Errorf("axis %d: start=%v end=%v, want start=%v end=%v", i, start[i], end[i], wantStart[i], wantEnd[i])
		}
	}
}

// Scenario E from the interpolation contract: target outside its
// neighbors takes the nearer neighbor's delta without extrapolating.
func TestInferAxisTargetOutsideNeighbors(t *testing.T) {
	if got := inferAxis(10, 5, 20, 3, 7); got != 3 {
		t.Errorf("inferAxis(target before prev) = %v, want 3", got)
	}
	if got := inferAxis(10, 25, 20, 3, 7); got != 7 {
		t.Errorf("inferAxis(target beyond next) = %v, want 7", got)
	}
}

// Scenario F: equal neighbor coordinates with disagreeing deltas infer
// to zero.
func TestInferAxisEqualNeighborsDisagree(t *testing.T) {
	if got := inferAxis(10, 10, 10, 3, 5); got != 0 {
		t.Errorf("inferAxis(equal neighbors, unequal deltas) = %v, want 0", got)
	}
}

func TestInferAxisEqualNeighborsAgree(t *testing.T) {
	if got := inferAxis(10, 10, 10, 4, 4); got != 4 {
		t.Errorf("inferAxis(equal neighbors, equal deltas) = %v, want 4", got)
	}
}

func TestInferAxisLinearInterpolation(t *testing.T) {
	got := inferAxis(0, 5, 10, 0, 10)
	if abs(got-5) > 0.0001 {
		t.Errorf("inferAxis(midpoint) = %v, want 5", got)
	}
}

// Scenario D: a contour with exactly one explicit point emits that
// delta for every point of the contour.
func TestInferUnreferencedPointsSingleExplicit(t *testing.T) {
	g := &SimpleGlyph{
		EndPtsOfContours: []uint16{3},
		Points: []Point{
			{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10},
		},
	}
	explicit := map[int]Vector2F{1: {X: 5, Y: -5}}
	deltas := make([]Vector2F, 4)
	deltas[1] = explicit[1]

	if err := inferUnreferencedPoints(g, explicit, deltas); err != nil {
		t.Fatalf("inferUnreferencedPoints failed: %v", err)
	}
	for i, d := range deltas {
		if d != (Vector2F{X: 5, Y: -5}) {
			t.Errorf("deltas[%d] = %v, want {5 -5}", i, d)
		}
	}
}

func TestInferUnreferencedPointsNoExplicit(t *testing.T) {
	g := &SimpleGlyph{
		EndPtsOfContours: []uint16{2},
		Points:           []Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}},
	}
	explicit := map[int]Vector2F{}
	deltas := make([]Vector2F, 3)

	if err := inferUnreferencedPoints(g, explicit, deltas); err != nil {
		t.Fatalf("inferUnreferencedPoints failed: %v", err)
	}
	for i, d := range deltas {
		if d != (Vector2F{}) {
			t.Errorf("deltas[%d] = %v, want zero", i, d)
		}
	}
}

// A contour with two explicit points on either side of two
// unreferenced points interpolates linearly and wraps cyclically.
func TestInferUnreferencedPointsInterpolation(t *testing.T) {
	g := &SimpleGlyph{
		EndPtsOfContours: []uint16{3},
		Points: []Point{
			{X: 0, Y: 0},  // 0: explicit
			{X: 10, Y: 0}, // 1: inferred
			{X: 20, Y: 0}, // 2: explicit
			{X: 30, Y: 0}, // 3: inferred, wraps between point 2 and point 0
		},
	}
	explicit := map[int]Vector2F{
		0: {X: 0, Y: 0},
		2: {X: 10, Y: 0},
	}
	deltas := make([]Vector2F, 4)
	deltas[0] = explicit[0]
	deltas[2] = explicit[2]

	if err := inferUnreferencedPoints(g, explicit, deltas); err != nil {
		t.Fatalf("inferUnreferencedPoints failed: %v", err)
	}

	// Point 1 sits midway between points 0 (delta 0) and 2 (delta 10).
	if abs(deltas[1].X-5) > 0.0001 {
		t.Errorf("deltas[1].X = %v, want 5", deltas[1].X)
	}
	// Point 3 (X=30) lies beyond point 2 on the way to point 0 (wrap);
	// coordinates are non-monotonic across the wrap so it clamps to the
	// nearer neighbor's delta rather than extrapolating.
	if deltas[3] != deltas[2] && deltas[3] != deltas[0] {
		t.Errorf("deltas[3] = %v, want clamped to a neighbor's delta", deltas[3])
	}
}

func TestInferUnreferencedPointsAllExplicit(t *testing.T) {
	g := &SimpleGlyph{
		EndPtsOfContours: []uint16{1},
		Points:           []Point{{X: 0, Y: 0}, {X: 10, Y: 0}},
	}
	explicit := map[int]Vector2F{0: {X: 1, Y: 1}, 1: {X: 2, Y: 2}}
	deltas := []Vector2F{{X: 1, Y: 1}, {X: 2, Y: 2}}

	if err := inferUnreferencedPoints(g, explicit, deltas); err != nil {
		t.Fatalf("inferUnreferencedPoints failed: %v", err)
	}
	if deltas[0] != (Vector2F{X: 1, Y: 1}) || deltas[1] != (Vector2F{X: 2, Y: 2}) {
		t.Errorf("fully explicit contour should be untouched, got %v", deltas)
	}
}

func TestApplyVariationsRejectsOutOfRangeGlyph(t *testing.T) {
	loca, err := ParseLoca(make([]byte, 4), 1, 0)
	if err != nil {
		t.Fatalf("ParseLoca failed: %v", err)
	}
	ctx := &VariationContext{Glyf: &Glyf{loca: loca}}

	// Gvar is nil here deliberately: GlyphVariationData would be reached
	// only after the bounds check this test exercises.
	_, err = ctx.ApplyVariations(5, nil)
	if !IsBadIndex(err) {
		t.Errorf("out-of-range glyph index error = %v, want BadIndex", err)
	}
}

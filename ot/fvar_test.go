package ot

import (
	"encoding/binary"
	"testing"
)

// buildFvar assembles a minimal fvar table for two axes (wght, wdth) and
// one named instance, matching Roboto-style ranges: wght 100/400/900,
// wdth 75/100/100.
func buildFvar(t *testing.T) []byte {
	t.Helper()

	const axisCount = 2
	const axisSize = 20
	const instanceCount = 1
	const instanceSize = axisCount*4 + 4

	axesOffset := 16
	instancesOffset := axesOffset + axisCount*axisSize
	total := instancesOffset + instanceCount*instanceSize

	data := make([]byte, total)
	binary.BigEndian.PutUint16(data[0:], 1) // major
	binary.BigEndian.PutUint16(data[2:], 0) // minor
	binary.BigEndian.PutUint16(data[4:], uint16(axesOffset))
	binary.BigEndian.PutUint16(data[6:], 2) // reserved
	binary.BigEndian.PutUint16(data[8:], axisCount)
	binary.BigEndian.PutUint16(data[10:], axisSize)
	binary.BigEndian.PutUint16(data[12:], instanceCount)
	binary.BigEndian.PutUint16(data[14:], instanceSize)

	writeAxis := func(off int, tag Tag, min, def, max float32, nameID uint16) {
		binary.BigEndian.PutUint32(data[off:], uint32(tag))
		binary.BigEndian.PutUint32(data[off+4:], floatToFixed1616(min))
		binary.BigEndian.PutUint32(data[off+8:], floatToFixed1616(def))
		binary.BigEndian.PutUint32(data[off+12:], floatToFixed1616(max))
		binary.BigEndian.PutUint16(data[off+16:], 0) // flags
		binary.BigEndian.PutUint16(data[off+18:], nameID)
	}
	writeAxis(axesOffset, TagAxisWeight, 100, 400, 900, 256)
	writeAxis(axesOffset+axisSize, TagAxisWidth, 75, 100, 100, 257)

	instOff := instancesOffset
	binary.BigEndian.PutUint16(data[instOff:], 258) // subfamilyNameID
	binary.BigEndian.PutUint16(data[instOff+2:], 0) // flags
	binary.BigEndian.PutUint32(data[instOff+4:], floatToFixed1616(700))
	binary.BigEndian.PutUint32(data[instOff+8:], floatToFixed1616(100))

	return data
}

func TestFvarParsing(t *testing.T) {
	fvar, err := ParseFvar(buildFvar(t))
	if err != nil {
		t.Fatalf("ParseFvar failed: %v", err)
	}

	if !fvar.HasData() {
		t.Error("fvar.HasData() = false, want true")
	}

	axisCount := fvar.AxisCount()
	if axisCount != 2 {
		t.Errorf("AxisCount() = %d, want 2", axisCount)
	}

	axes := fvar.AxisInfos()
	if len(axes) != 2 {
		t.Fatalf("len(AxisInfos()) = %d, want 2", len(axes))
	}

	wghtAxis := axes[0]
	if wghtAxis.Tag != TagAxisWeight {
		t.Errorf("axes[0].Tag = %v, want wght", wghtAxis.Tag)
	}
	if wghtAxis.MinValue != 100 {
		t.Errorf("wght.MinValue = %v, want 100", wghtAxis.MinValue)
	}
	if wghtAxis.DefaultValue != 400 {
		t.Errorf("wght.DefaultValue = %v, want 400", wghtAxis.DefaultValue)
	}
	if wghtAxis.MaxValue != 900 {
		t.Errorf("wght.MaxValue = %v, want 900", wghtAxis.MaxValue)
	}

	wdthAxis := axes[1]
	if wdthAxis.Tag != TagAxisWidth {
		t.Errorf("axes[1].Tag = %v, want wdth", wdthAxis.Tag)
	}
	if wdthAxis.MinValue != 75 {
		t.Errorf("wdth.MinValue = %v, want 75", wdthAxis.MinValue)
	}

	if axis, found := fvar.FindAxis(TagAxisWeight); !found {
		t.Error("FindAxis(wght) returned false")
	} else if axis.Tag != TagAxisWeight {
		t.Errorf("FindAxis(wght).Tag = %v, want wght", axis.Tag)
	}

	if _, found := fvar.FindAxis(TagAxisItalic); found {
		t.Error("FindAxis(ital) should return false")
	}
}

func TestFvarNamedInstances(t *testing.T) {
	fvar, err := ParseFvar(buildFvar(t))
	if err != nil {
		t.Fatalf("ParseFvar failed: %v", err)
	}

	instances := fvar.NamedInstances()
	if len(instances) != 1 {
		t.Fatalf("len(NamedInstances()) = %d, want 1", len(instances))
	}

	inst := instances[0]
	if inst.SubfamilyNameID != 258 {
		t.Errorf("SubfamilyNameID = %d, want 258", inst.SubfamilyNameID)
	}
	if len(inst.Coords) != fvar.AxisCount() {
		t.Errorf("instance has %d coords, want %d", len(inst.Coords), fvar.AxisCount())
	}
	if inst.Coords[0] != 700 {
		t.Errorf("instance weight coord = %v, want 700", inst.Coords[0])
	}
}

func TestFvarNormalization(t *testing.T) {
	fvar, err := ParseFvar(buildFvar(t))
	if err != nil {
		t.Fatalf("ParseFvar failed: %v", err)
	}

	tests := []struct {
		axisIdx int
		value   float32
		want    float32
	}{
		{0, 100, -1.0},  // min
		{0, 400, 0.0},   // default
		{0, 900, 1.0},   // max
		{0, 250, -0.5},  // halfway between min and default
		{0, 650, 0.5},   // halfway between default and max
		{0, 50, -1.0},   // below min, clamped
		{0, 1000, 1.0},  // above max, clamped
	}

	for _, tt := range tests {
		got := fvar.NormalizeAxisValue(tt.axisIdx, tt.value)
		if abs(got-tt.want) > 0.001 {
			t.Errorf("NormalizeAxisValue(%d, %v) = %v, want %v",
				tt.axisIdx, tt.value, got, tt.want)
		}
	}
}

func TestFvarNormalizeVariations(t *testing.T) {
	fvar, err := ParseFvar(buildFvar(t))
	if err != nil {
		t.Fatalf("ParseFvar failed: %v", err)
	}

	variations := []Variation{
		{Tag: TagAxisWeight, Value: 700}, // Bold
	}

	coords := fvar.NormalizeVariations(variations)
	if len(coords) != 2 {
		t.Fatalf("NormalizeVariations returned %d coords, want 2", len(coords))
	}

	// Weight 700 should normalize to 0.6 (700-400)/(900-400) = 300/500 = 0.6
	if abs(coords[0]-0.6) > 0.001 {
		t.Errorf("coords[0] (wght) = %v, want 0.6", coords[0])
	}

	// Width was not specified, should be 0 (default)
	if coords[1] != 0 {
		t.Errorf("coords[1] (wdth) = %v, want 0", coords[1])
	}
}

func TestFaceNormalizeCoords(t *testing.T) {
	fvar, err := ParseFvar(buildFvar(t))
	if err != nil {
		t.Fatalf("ParseFvar failed: %v", err)
	}

	face := &Face{fvar: fvar}

	coords := face.NormalizeCoords(map[Tag]float32{TagAxisWeight: 700})
	if len(coords) != 2 {
		t.Fatalf("NormalizeCoords returned %d coords, want 2", len(coords))
	}
	if abs(coords[0]-0.6) > 0.001 {
		t.Errorf("coords[0] (wght) = %v, want 0.6", coords[0])
	}
	if coords[1] != 0 {
		t.Errorf("coords[1] (wdth) = %v, want 0", coords[1])
	}
}

func TestFaceNormalizeCoordsNoFvar(t *testing.T) {
	face := &Face{}
	if coords := face.NormalizeCoords(map[Tag]float32{TagAxisWeight: 700}); coords != nil {
		t.Errorf("NormalizeCoords() on a non-variable face = %v, want nil", coords)
	}
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

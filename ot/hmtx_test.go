package ot

import (
	"encoding/binary"
	"testing"
)

func buildHhea(numberOfHMetrics uint16) []byte {
	data := make([]byte, 36)
	binary.BigEndian.PutUint32(data[0:], 0x00010000)
	binary.BigEndian.PutUint16(data[4:], uint16(int16(950)))  // ascender
	binary.BigEndian.PutUint16(data[6:], uint16(int16(-250))) // descender
	binary.BigEndian.PutUint16(data[8:], 0)                   // lineGap
	binary.BigEndian.PutUint16(data[34:], numberOfHMetrics)
	return data
}

func buildHmtx(metrics []LongHorMetric, extraLsb []int16) []byte {
	data := make([]byte, len(metrics)*4+len(extraLsb)*2)
	off := 0
	for _, m := range metrics {
		binary.BigEndian.PutUint16(data[off:], m.AdvanceWidth)
		binary.BigEndian.PutUint16(data[off+2:], uint16(m.Lsb))
		off += 4
	}
	for _, lsb := range extraLsb {
		binary.BigEndian.PutUint16(data[off:], uint16(lsb))
		off += 2
	}
	return data
}

func TestParseHhea(t *testing.T) {
	hhea, err := ParseHhea(buildHhea(3))
	if err != nil {
		t.Fatalf("ParseHhea failed: %v", err)
	}
	if hhea.Ascender != 950 {
		t.Errorf("Ascender = %d, want 950", hhea.Ascender)
	}
	if hhea.Descender != -250 {
		t.Errorf("Descender = %d, want -250", hhea.Descender)
	}
	if hhea.NumberOfHMetrics != 3 {
		t.Errorf("NumberOfHMetrics = %d, want 3", hhea.NumberOfHMetrics)
	}
}

func TestParseHmtx(t *testing.T) {
	metrics := []LongHorMetric{
		{AdvanceWidth: 1336, Lsb: 74},
		{AdvanceWidth: 1303, Lsb: 10},
		{AdvanceWidth: 569, Lsb: 56},
	}
	hmtx, err := ParseHmtx(buildHmtx(metrics, nil), len(metrics), len(metrics))
	if err != nil {
		t.Fatalf("ParseHmtx failed: %v", err)
	}

	for i, m := range metrics {
		adv, lsb := hmtx.GetMetrics(GlyphID(i))
		if adv != m.AdvanceWidth {
			t.Errorf("glyph %d: advanceWidth = %d, want %d", i, adv, m.AdvanceWidth)
		}
		if lsb != m.Lsb {
			t.Errorf("glyph %d: lsb = %d, want %d", i, lsb, m.Lsb)
		}
	}
}

func TestHmtxGlyphBeyondHMetrics(t *testing.T) {
	metrics := []LongHorMetric{
		{AdvanceWidth: 1336, Lsb: 74},
		{AdvanceWidth: 1303, Lsb: 10},
	}
	extraLsb := []int16{5, -3}
	numGlyphs := len(metrics) + len(extraLsb)

	hmtx, err := ParseHmtx(buildHmtx(metrics, extraLsb), len(metrics), numGlyphs)
	if err != nil {
		t.Fatalf("ParseHmtx failed: %v", err)
	}

	lastAdv := metrics[len(metrics)-1].AdvanceWidth
	for i := len(metrics); i < numGlyphs; i++ {
		adv := hmtx.GetAdvanceWidth(GlyphID(i))
		if adv != lastAdv {
			t.Errorf("glyph %d: advanceWidth = %d, want %d (shared last)", i, adv, lastAdv)
		}
		lsb := hmtx.GetLsb(GlyphID(i))
		want := extraLsb[i-len(metrics)]
		if lsb != want {
			t.Errorf("glyph %d: lsb = %d, want %d", i, lsb, want)
		}
	}
}

func TestParseHmtxRejectsZeroMetrics(t *testing.T) {
	if _, err := ParseHmtx(nil, 0, 5); err == nil {
		t.Error("ParseHmtx with numberOfHMetrics=0 should fail")
	}
}

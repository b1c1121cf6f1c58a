package ot

import (
	"encoding/binary"
)

// TagGvar is the table tag for the glyph variations table.
var TagGvar = MakeTag('g', 'v', 'a', 'r')

// Gvar represents a parsed gvar (Glyph Variations) table.
// It contains per-glyph outline deltas for each registered variation
// region.
type Gvar struct {
	data                []byte
	axisCount           int
	sharedTupleCount    int
	glyphCount          int
	flags               uint16
	sharedTuplesOffset  uint32
	glyphVarDataOffset  uint32
	glyphVarDataOffsets []uint32 // Offset for each glyph's variation data
}

// ParseGvar parses a gvar table.
func ParseGvar(data []byte) (*Gvar, error) {
	if len(data) < 20 {
		return nil, ErrInvalidTable
	}

	version := binary.BigEndian.Uint16(data[0:])
	if version != 1 {
		return nil, ErrInvalidFormat
	}

	g := &Gvar{
		data:               data,
		axisCount:          int(binary.BigEndian.Uint16(data[4:])),
		sharedTupleCount:   int(binary.BigEndian.Uint16(data[6:])),
		sharedTuplesOffset: binary.BigEndian.Uint32(data[8:]),
		glyphCount:         int(binary.BigEndian.Uint16(data[12:])),
		flags:              binary.BigEndian.Uint16(data[14:]),
		glyphVarDataOffset: binary.BigEndian.Uint32(data[16:]),
	}

	longOffsets := (g.flags & 1) != 0
	offsetsStart := 20

	g.glyphVarDataOffsets = make([]uint32, g.glyphCount+1)

	if longOffsets {
		if len(data) < offsetsStart+(g.glyphCount+1)*4 {
			return nil, ErrInvalidOffset
		}
		for i := 0; i <= g.glyphCount; i++ {
			g.glyphVarDataOffsets[i] = binary.BigEndian.Uint32(data[offsetsStart+i*4:])
		}
	} else {
		if len(data) < offsetsStart+(g.glyphCount+1)*2 {
			return nil, ErrInvalidOffset
		}
		for i := 0; i <= g.glyphCount; i++ {
			g.glyphVarDataOffsets[i] = uint32(binary.BigEndian.Uint16(data[offsetsStart+i*2:])) * 2
		}
	}

	return g, nil
}

// HasData returns true if the gvar table has valid data.
func (g *Gvar) HasData() bool {
	return g != nil && g.glyphCount > 0
}

// AxisCount returns the number of variation axes.
func (g *Gvar) AxisCount() int {
	return g.axisCount
}

// GlyphCount returns the number of glyphs the gvar table holds data
// offsets for, including glyphs whose variation data is empty.
func (g *Gvar) GlyphCount() int {
	return g.glyphCount
}

// getSharedTuple returns the normalized coordinates for a shared tuple.
func (g *Gvar) getSharedTuple(index int) []float32 {
	if index < 0 || index >= g.sharedTupleCount {
		return nil
	}

	tupleSize := g.axisCount * 2
	offset := int(g.sharedTuplesOffset) + index*tupleSize

	if offset+tupleSize > len(g.data) {
		return nil
	}

	coords := make([]float32, g.axisCount)
	for i := 0; i < g.axisCount; i++ {
		coords[i] = f2dot14ToFloat(int16(binary.BigEndian.Uint16(g.data[offset+i*2:])))
	}
	return coords
}

// VariationRegion is the peak tuple and, for every axis, the interval
// over which the region's scalar interpolates between zero and one.
type VariationRegion struct {
	Peak, Start, End []float32
}

// TupleVariationData is one tuple variation's region together with the
// raw (unscaled) deltas it contributes, indexed in the order given by
// PointNumbers. A nil PointNumbers means the deltas apply to every
// point of the glyph, including its four phantom points, in order.
type TupleVariationData struct {
	Region       VariationRegion
	PointNumbers []int // nil => all points, in index order
	XDeltas      []int16
	YDeltas      []int16
}

// GlyphVariationData returns the tuple variation data for glyphID,
// given the total number of points in the glyph (outline points plus
// the four phantom points). It returns (nil, nil) if the glyph has no
// variation data.
func (g *Gvar) GlyphVariationData(glyphID GlyphID, totalPoints int) ([]TupleVariationData, error) {
	if g == nil || int(glyphID) < 0 || int(glyphID) >= g.glyphCount {
		return nil, newParseError(KindBadIndex, "glyph index out of range for gvar")
	}

	startOffset := g.glyphVarDataOffset + g.glyphVarDataOffsets[glyphID]
	endOffset := g.glyphVarDataOffset + g.glyphVarDataOffsets[glyphID+1]

	if startOffset == endOffset {
		return nil, nil
	}
	if int(endOffset) > len(g.data) || startOffset > endOffset {
		return nil, newParseError(KindBadIndex, "glyph variation data offset out of range")
	}

	glyphData := g.data[startOffset:endOffset]
	if len(glyphData) < 4 {
		return nil, wrapParseError(KindMalformedTuple, "glyph variation data header truncated", ErrInvalidTable)
	}

	tupleVarCount := binary.BigEndian.Uint16(glyphData[0:])
	tupleCount := int(tupleVarCount & 0x0FFF)
	sharedPointNumbers := (tupleVarCount & 0x8000) != 0
	dataOffset := int(binary.BigEndian.Uint16(glyphData[2:]))

	if tupleCount == 0 {
		return nil, nil
	}

	var sharedPoints []int
	serializedOffset := dataOffset
	if sharedPointNumbers {
		var consumed int
		sharedPoints, consumed = g.parsePointNumbers(glyphData[serializedOffset:])
		serializedOffset += consumed
	}

	result := make([]TupleVariationData, 0, tupleCount)
	headerOffset := 4

	for t := 0; t < tupleCount; t++ {
		if headerOffset+4 > len(glyphData) {
			return nil, wrapParseError(KindMalformedTuple, "tuple variation header truncated", ErrInvalidTable)
		}

		variationDataSize := int(binary.BigEndian.Uint16(glyphData[headerOffset:]))
		tupleIndex := binary.BigEndian.Uint16(glyphData[headerOffset+2:])
		headerOffset += 4

		embeddedPeakTuple := (tupleIndex & 0x8000) != 0
		intermediateRegion := (tupleIndex & 0x4000) != 0
		privatePointNumbers := (tupleIndex & 0x2000) != 0
		tupleIdx := int(tupleIndex & 0x0FFF)

		var peak []float32
		if embeddedPeakTuple {
			peak = make([]float32, g.axisCount)
			for i := 0; i < g.axisCount; i++ {
				if headerOffset+2 > len(glyphData) {
					return nil, wrapParseError(KindMalformedTuple, "embedded peak tuple truncated", ErrInvalidTable)
				}
				peak[i] = f2dot14ToFloat(int16(binary.BigEndian.Uint16(glyphData[headerOffset:])))
				headerOffset += 2
			}
		} else {
			peak = g.getSharedTuple(tupleIdx)
			if peak == nil {
				return nil, newParseError(KindBadIndex, "shared tuple index out of range")
			}
		}

		region := VariationRegion{Peak: peak}
		if intermediateRegion {
			start := make([]float32, g.axisCount)
			end := make([]float32, g.axisCount)
			for i := 0; i < g.axisCount; i++ {
				if headerOffset+2 > len(glyphData) {
					return nil, wrapParseError(KindMalformedTuple, "intermediate start tuple truncated", ErrInvalidTable)
				}
				start[i] = f2dot14ToFloat(int16(binary.BigEndian.Uint16(glyphData[headerOffset:])))
				headerOffset += 2
			}
			for i := 0; i < g.axisCount; i++ {
				if headerOffset+2 > len(glyphData) {
					return nil, wrapParseError(KindMalformedTuple, "intermediate end tuple truncated", ErrInvalidTable)
				}
				end[i] = f2dot14ToFloat(int16(binary.BigEndian.Uint16(glyphData[headerOffset:])))
				headerOffset += 2
			}
			region.Start, region.End = start, end
		} else {
			region.Start, region.End = deriveImplicitRegion(peak)
		}

		var pointNumbers []int
		deltaStart := serializedOffset
		if privatePointNumbers {
			var consumed int
			pointNumbers, consumed = g.parsePointNumbers(glyphData[serializedOffset:])
			deltaStart += consumed
		} else {
			pointNumbers = sharedPoints
		}

		numDeltas := len(pointNumbers)
		if pointNumbers == nil {
			numDeltas = totalPoints
		}

		xDeltas, yDeltas, _ := g.parseDeltas(glyphData[deltaStart:], numDeltas)

		result = append(result, TupleVariationData{
			Region:       region,
			PointNumbers: pointNumbers,
			XDeltas:      xDeltas,
			YDeltas:      yDeltas,
		})

		serializedOffset += variationDataSize
	}

	return result, nil
}

// deriveImplicitRegion computes the start/end tuples for a tuple
// variation header that carries no explicit intermediate region: each
// axis's interval is pinned between zero and the peak, on the side
// indicated by the peak's sign.
func deriveImplicitRegion(peak []float32) (start, end []float32) {
	start = make([]float32, len(peak))
	end = make([]float32, len(peak))
	for i, p := range peak {
		switch signum(p) {
		case -1:
			start[i], end[i] = p, 0
		case 1:
			start[i], end[i] = 0, p
		default:
			start[i], end[i] = p, p
		}
	}
	return start, end
}

// RegionScalar computes the scalar contribution of a variation region
// at the given normalized instance coordinates. Instance axes beyond
// the region's axis count are ignored; a region axis with no instance
// coordinate is evaluated at 0 (the default position).
func RegionScalar(region VariationRegion, instance []float32) float32 {
	scalar := float32(1.0)
	n := len(region.Peak)
	for i := 0; i < n; i++ {
		peak := region.Peak[i]
		if peak == 0 {
			continue
		}
		var coord float32
		if i < len(instance) {
			coord = instance[i]
		}
		start, end := region.Start[i], region.End[i]
		if coord < start || coord > end {
			return 0
		}
		switch {
		case coord == peak:
			// factor 1
		case coord < peak:
			scalar *= (coord - start) / (peak - start)
		default:
			scalar *= (end - coord) / (end - peak)
		}
	}
	return scalar
}

// parsePointNumbers parses a packed point-number list. It returns nil
// when the list encodes "all points of the glyph", along with the
// number of bytes consumed.
func (g *Gvar) parsePointNumbers(data []byte) ([]int, int) {
	if len(data) == 0 {
		return nil, 0
	}

	count := int(data[0])
	offset := 1

	if count == 0 {
		return nil, 1
	}

	if count&0x80 != 0 {
		if len(data) < 2 {
			return nil, 1
		}
		count = ((count & 0x7F) << 8) | int(data[1])
		offset = 2
	}

	points := make([]int, 0, count)
	pointsRead := 0
	lastPoint := 0

	for pointsRead < count && offset < len(data) {
		runHeader := data[offset]
		offset++

		pointsAreWords := (runHeader & 0x80) != 0
		runCount := int(runHeader&0x7F) + 1

		for i := 0; i < runCount && pointsRead < count; i++ {
			var delta int
			if pointsAreWords {
				if offset+2 > len(data) {
					break
				}
				delta = int(binary.BigEndian.Uint16(data[offset:]))
				offset += 2
			} else {
				if offset >= len(data) {
					break
				}
				delta = int(data[offset])
				offset++
			}
			lastPoint += delta
			points = append(points, lastPoint)
			pointsRead++
		}
	}

	return points, offset
}

// parseDeltas parses the packed X-then-Y delta runs for numDeltas
// points, returning the decoded arrays and the number of bytes
// consumed.
func (g *Gvar) parseDeltas(data []byte, numDeltas int) (xDeltas, yDeltas []int16, consumed int) {
	var offsetX, offsetY int
	xDeltas, offsetX = decodeDeltaRun(data, numDeltas)
	yDeltas, offsetY = decodeDeltaRun(data[offsetX:], numDeltas)
	return xDeltas, yDeltas, offsetX + offsetY
}

// decodeDeltaRun decodes one run-length-encoded delta array (either
// the X or the Y half of a tuple's delta stream).
func decodeDeltaRun(data []byte, numDeltas int) ([]int16, int) {
	deltas := make([]int16, numDeltas)
	offset := 0
	read := 0

	for read < numDeltas && offset < len(data) {
		runHeader := data[offset]
		offset++

		deltasAreZero := (runHeader & 0x80) != 0
		deltasAreWords := (runHeader & 0x40) != 0
		runCount := int(runHeader&0x3F) + 1

		for i := 0; i < runCount && read < numDeltas; i++ {
			var delta int16
			switch {
			case deltasAreZero:
				delta = 0
			case deltasAreWords:
				if offset+2 > len(data) {
					return deltas, offset
				}
				delta = int16(binary.BigEndian.Uint16(data[offset:]))
				offset += 2
			default:
				if offset >= len(data) {
					return deltas, offset
				}
				delta = int16(int8(data[offset]))
				offset++
			}
			deltas[read] = delta
			read++
		}
	}

	return deltas, offset
}

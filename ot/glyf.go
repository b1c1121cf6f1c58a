package ot

import (
	"encoding/binary"

	"github.com/bits-and-blooms/bitset"
)

// Glyf represents the parsed glyf table (glyph data).
type Glyf struct {
	data []byte
	loca *Loca
}

// Loca represents the parsed loca table (index to location).
type Loca struct {
	offsets   []uint32 // Glyph offsets into glyf table
	numGlyphs int
	isShort   bool // true for short format (16-bit offsets)
}

// GlyphData represents the raw data for a single glyph, before the
// outline (or composite component list) has been decoded.
type GlyphData struct {
	Data             []byte
	NumberOfContours int16 // -1 for composite, 0 for empty, > 0 for simple
}

// ParseLoca parses the loca table.
// indexToLocFormat: 0 = short (16-bit), 1 = long (32-bit)
func ParseLoca(data []byte, numGlyphs int, indexToLocFormat int16) (*Loca, error) {
	l := &Loca{
		numGlyphs: numGlyphs,
		isShort:   indexToLocFormat == 0,
	}

	// loca has numGlyphs+1 entries
	numEntries := numGlyphs + 1

	if l.isShort {
		// Short format: 16-bit offsets (actual offset = value * 2)
		if len(data) < numEntries*2 {
			return nil, ErrInvalidOffset
		}
		l.offsets = make([]uint32, numEntries)
		for i := 0; i < numEntries; i++ {
			l.offsets[i] = uint32(binary.BigEndian.Uint16(data[i*2:])) * 2
		}
	} else {
		// Long format: 32-bit offsets
		if len(data) < numEntries*4 {
			return nil, ErrInvalidOffset
		}
		l.offsets = make([]uint32, numEntries)
		for i := 0; i < numEntries; i++ {
			l.offsets[i] = binary.BigEndian.Uint32(data[i*4:])
		}
	}

	return l, nil
}

// GetOffset returns the offset and length for a glyph.
// Returns (offset, length, ok)
func (l *Loca) GetOffset(gid GlyphID) (uint32, uint32, bool) {
	idx := int(gid)
	if idx < 0 || idx >= l.numGlyphs {
		return 0, 0, false
	}
	start := l.offsets[idx]
	end := l.offsets[idx+1]
	return start, end - start, true
}

// NumGlyphs returns the number of glyphs.
func (l *Loca) NumGlyphs() int {
	return l.numGlyphs
}

// ParseGlyf parses the glyf table using a loca table.
func ParseGlyf(data []byte, loca *Loca) (*Glyf, error) {
	return &Glyf{
		data: data,
		loca: loca,
	}, nil
}

// GetGlyph returns the raw glyph record for a glyph ID, or nil if the
// index is out of range.
func (g *Glyf) GetGlyph(gid GlyphID) *GlyphData {
	offset, length, ok := g.loca.GetOffset(gid)
	if !ok {
		return nil
	}

	// Empty glyph (like space)
	if length == 0 {
		return &GlyphData{
			Data:             nil,
			NumberOfContours: 0,
		}
	}

	if int(offset)+int(length) > len(g.data) {
		return nil
	}

	data := g.data[offset : offset+length]
	if len(data) < 2 {
		return nil
	}

	numberOfContours := int16(binary.BigEndian.Uint16(data))

	return &GlyphData{
		Data:             data,
		NumberOfContours: numberOfContours,
	}
}

// IsComposite returns true if the glyph is a composite glyph.
func (gd *GlyphData) IsComposite() bool {
	return gd.NumberOfContours < 0
}

// IsEmpty returns true if the glyph has no contours and no components
// (NumberOfContours is 0), as for a zero-length record such as a space
// glyph.
func (gd *GlyphData) IsEmpty() bool {
	return gd.NumberOfContours == 0
}

// Point is a single outline point, in font design units, tagged with
// whether it lies on the curve.
type Point struct {
	X, Y    int16
	OnCurve bool
}

// SimpleGlyph is a decoded simple (non-composite) outline.
type SimpleGlyph struct {
	BBox             RectF
	EndPtsOfContours []uint16
	Instructions     []byte
	Points           []Point
}

// NumPoints returns the number of outline points, excluding phantom
// points.
func (g *SimpleGlyph) NumPoints() int {
	return len(g.Points)
}

// ContourRange returns the inclusive [start,end] point index range of
// contour i.
func (g *SimpleGlyph) ContourRange(i int) (start, end int) {
	if i > 0 {
		start = int(g.EndPtsOfContours[i-1]) + 1
	}
	end = int(g.EndPtsOfContours[i])
	return start, end
}

// CompositeGlyph is a decoded composite outline: a list of references
// to other glyphs, each with a placement transform.
type CompositeGlyph struct {
	BBox         RectF
	Components   []CompositeComponent
	Instructions []byte
}

// EmptyGlyph is a glyph with no outline and no components (e.g. space).
type EmptyGlyph struct{}

// Composite glyph flags, per the glyf table composite component record.
const (
	compArgsAreWords            uint16 = 0x0001 // ARG_1_AND_2_ARE_WORDS
	compArgsAreXYValues         uint16 = 0x0002 // ARGS_ARE_XY_VALUES
	compRoundXYToGrid           uint16 = 0x0004
	compWeHaveAScale            uint16 = 0x0008
	compMoreComponents          uint16 = 0x0020
	compWeHaveXYScale           uint16 = 0x0040
	compWeHave2x2               uint16 = 0x0080
	compWeHaveInstr             uint16 = 0x0100
	compUseMyMetrics            uint16 = 0x0200
	compOverlapCompound         uint16 = 0x0400
	compScaledComponentOffset   uint16 = 0x0800
	compUnscaledComponentOffset uint16 = 0x1000
)

// CompositeComponent is one component reference within a composite
// glyph: a child glyph ID, a placement transform, and the flags that
// describe how the transform was encoded.
type CompositeComponent struct {
	GlyphID GlyphID
	Flags   uint16

	// ArgsAreXYValues is true when Arg1/Arg2 are an (x,y) offset; when
	// false they are point-matching indices (OurPoint/TheirPoint) and
	// Offset is the zero vector.
	ArgsAreXYValues bool
	Offset          Vector2F
	OurPoint        int16
	TheirPoint      int16

	// Transform is the component's scale/rotation matrix, identity if
	// the component carries no scale record.
	Transform Matrix2x2F

	// ScaledComponentOffset is true if the placement offset should be
	// transformed along with the child outline rather than applied
	// after transformation.
	ScaledComponentOffset bool

	RoundXYToGrid   bool
	UseMyMetrics    bool
	OverlapCompound bool
}

// simpleGlyph flag bits, per the glyf simple glyph description.
const (
	flagOnCurve       byte = 0x01
	flagXShortVec     byte = 0x02
	flagYShortVec     byte = 0x04
	flagRepeat        byte = 0x08
	flagXSameOrPos    byte = 0x10
	flagYSameOrPos    byte = 0x20
	flagOverlapSimple byte = 0x40
)

// ParseGlyphOutline decodes a raw glyph record into its Simple,
// Composite, or Empty form.
func (gd *GlyphData) ParseGlyphOutline() (interface{}, error) {
	if gd.IsEmpty() {
		return EmptyGlyph{}, nil
	}
	if len(gd.Data) < 10 {
		return nil, wrapParseError(KindMalformedTuple, "glyph header truncated", ErrInvalidTable)
	}
	bbox := RectF{
		MinX: float32(int16(binary.BigEndian.Uint16(gd.Data[2:]))),
		MinY: float32(int16(binary.BigEndian.Uint16(gd.Data[4:]))),
		MaxX: float32(int16(binary.BigEndian.Uint16(gd.Data[6:]))),
		MaxY: float32(int16(binary.BigEndian.Uint16(gd.Data[8:]))),
	}
	if gd.IsComposite() {
		return decodeCompositeGlyph(gd.Data[10:], bbox)
	}
	return decodeSimpleGlyph(gd.Data[10:], int(gd.NumberOfContours), bbox)
}

func decodeSimpleGlyph(buf []byte, numContours int, bbox RectF) (*SimpleGlyph, error) {
	if numContours <= 0 {
		return nil, wrapParseError(KindMalformedTuple, "simple glyph has no contours", ErrInvalidTable)
	}
	if len(buf) < 2*numContours+2 {
		return nil, wrapParseError(KindMalformedTuple, "end-points array truncated", ErrInvalidTable)
	}

	endPts := make([]uint16, numContours)
	for i := 0; i < numContours; i++ {
		endPts[i] = binary.BigEndian.Uint16(buf[2*i:])
	}
	buf = buf[2*numContours:]
	numPoints := int(endPts[numContours-1]) + 1

	if len(buf) < 2 {
		return nil, wrapParseError(KindMalformedTuple, "instruction length truncated", ErrInvalidTable)
	}
	instrLen := int(binary.BigEndian.Uint16(buf))
	buf = buf[2:]
	if len(buf) < instrLen {
		return nil, wrapParseError(KindMalformedTuple, "instructions truncated", ErrInvalidTable)
	}
	instructions := buf[:instrLen]
	buf = buf[instrLen:]

	flags := make([]byte, numPoints)
	i := 0
	for i < numPoints {
		if len(buf) < 1 {
			return nil, wrapParseError(KindMalformedTuple, "flags truncated", ErrInvalidTable)
		}
		f := buf[0]
		buf = buf[1:]
		flags[i] = f
		i++
		if f&flagRepeat != 0 {
			if len(buf) < 1 {
				return nil, wrapParseError(KindMalformedTuple, "flag repeat count truncated", ErrInvalidTable)
			}
			count := buf[0]
			buf = buf[1:]
			for count > 0 && i < numPoints {
				flags[i] = f
				i++
				count--
			}
		}
	}
	if i != numPoints {
		return nil, wrapParseError(KindMalformedTuple, "flag run overruns point count", ErrInvalidTable)
	}

	xs := make([]int16, numPoints)
	var x int16
	for idx, f := range flags {
		switch {
		case f&flagXShortVec != 0:
			if len(buf) < 1 {
				return nil, wrapParseError(KindMalformedTuple, "x short vector truncated", ErrInvalidTable)
			}
			dx := int16(buf[0])
			buf = buf[1:]
			if f&flagXSameOrPos != 0 {
				x += dx
			} else {
				x -= dx
			}
		case f&flagXSameOrPos == 0:
			if len(buf) < 2 {
				return nil, wrapParseError(KindMalformedTuple, "x delta truncated", ErrInvalidTable)
			}
			x += int16(binary.BigEndian.Uint16(buf))
			buf = buf[2:]
		}
		xs[idx] = x
	}

	ys := make([]int16, numPoints)
	var y int16
	for idx, f := range flags {
		switch {
		case f&flagYShortVec != 0:
			if len(buf) < 1 {
				return nil, wrapParseError(KindMalformedTuple, "y short vector truncated", ErrInvalidTable)
			}
			dy := int16(buf[0])
			buf = buf[1:]
			if f&flagYSameOrPos != 0 {
				y += dy
			} else {
				y -= dy
			}
		case f&flagYSameOrPos == 0:
			if len(buf) < 2 {
				return nil, wrapParseError(KindMalformedTuple, "y delta truncated", ErrInvalidTable)
			}
			y += int16(binary.BigEndian.Uint16(buf))
			buf = buf[2:]
		}
		ys[idx] = y
	}

	points := make([]Point, numPoints)
	for idx := range points {
		points[idx] = Point{X: xs[idx], Y: ys[idx], OnCurve: flags[idx]&flagOnCurve != 0}
	}

	return &SimpleGlyph{
		BBox:             bbox,
		EndPtsOfContours: endPts,
		Instructions:     instructions,
		Points:           points,
	}, nil
}

func decodeCompositeGlyph(buf []byte, bbox RectF) (*CompositeGlyph, error) {
	var components []CompositeComponent
	weHaveInstructions := false

	for {
		if len(buf) < 4 {
			return nil, wrapParseError(KindMalformedTuple, "component header truncated", ErrInvalidTable)
		}
		flags := binary.BigEndian.Uint16(buf)
		glyphIndex := GlyphID(binary.BigEndian.Uint16(buf[2:]))
		buf = buf[4:]

		comp := CompositeComponent{
			GlyphID:               glyphIndex,
			Flags:                 flags,
			Transform:             IdentityMatrix2x2F,
			ArgsAreXYValues:       flags&compArgsAreXYValues != 0,
			RoundXYToGrid:         flags&compRoundXYToGrid != 0,
			UseMyMetrics:          flags&compUseMyMetrics != 0,
			OverlapCompound:       flags&compOverlapCompound != 0,
			ScaledComponentOffset: flags&compScaledComponentOffset != 0,
		}

		// Per the composite glyph format, arg1/arg2 are signed offsets
		// when ARGS_ARE_XY_VALUES is set, and unsigned point-matching
		// indices otherwise.
		var arg1, arg2 int16
		if flags&compArgsAreWords != 0 {
			if len(buf) < 4 {
				return nil, wrapParseError(KindMalformedTuple, "word arguments truncated", ErrInvalidTable)
			}
			arg1 = int16(binary.BigEndian.Uint16(buf))
			arg2 = int16(binary.BigEndian.Uint16(buf[2:]))
			buf = buf[4:]
		} else {
			if len(buf) < 2 {
				return nil, wrapParseError(KindMalformedTuple, "byte arguments truncated", ErrInvalidTable)
			}
			if flags&compArgsAreXYValues != 0 {
				arg1 = int16(int8(buf[0]))
				arg2 = int16(int8(buf[1]))
			} else {
				arg1 = int16(buf[0])
				arg2 = int16(buf[1])
			}
			buf = buf[2:]
		}
		if comp.ArgsAreXYValues {
			comp.Offset = Vector2F{X: float32(arg1), Y: float32(arg2)}
		} else {
			comp.OurPoint = arg1
			comp.TheirPoint = arg2
		}

		switch {
		case flags&compWeHaveAScale != 0:
			if len(buf) < 2 {
				return nil, wrapParseError(KindMalformedTuple, "scale truncated", ErrInvalidTable)
			}
			s := f2dot14ToFloat(int16(binary.BigEndian.Uint16(buf)))
			comp.Transform = Matrix2x2F{XX: s, YY: s}
			buf = buf[2:]
		case flags&compWeHaveXYScale != 0:
			if len(buf) < 4 {
				return nil, wrapParseError(KindMalformedTuple, "x/y scale truncated", ErrInvalidTable)
			}
			sx := f2dot14ToFloat(int16(binary.BigEndian.Uint16(buf)))
			sy := f2dot14ToFloat(int16(binary.BigEndian.Uint16(buf[2:])))
			comp.Transform = Matrix2x2F{XX: sx, YY: sy}
			buf = buf[4:]
		case flags&compWeHave2x2 != 0:
			if len(buf) < 8 {
				return nil, wrapParseError(KindMalformedTuple, "2x2 matrix truncated", ErrInvalidTable)
			}
			xx := f2dot14ToFloat(int16(binary.BigEndian.Uint16(buf)))
			xy := f2dot14ToFloat(int16(binary.BigEndian.Uint16(buf[2:])))
			yx := f2dot14ToFloat(int16(binary.BigEndian.Uint16(buf[4:])))
			yy := f2dot14ToFloat(int16(binary.BigEndian.Uint16(buf[6:])))
			comp.Transform = Matrix2x2F{XX: xx, XY: xy, YX: yx, YY: yy}
			buf = buf[8:]
		}

		if flags&compWeHaveInstr != 0 {
			weHaveInstructions = true
		}

		components = append(components, comp)

		if flags&compMoreComponents == 0 {
			break
		}
	}

	var instructions []byte
	if weHaveInstructions && len(buf) >= 2 {
		n := int(binary.BigEndian.Uint16(buf))
		buf = buf[2:]
		if n <= len(buf) {
			instructions = buf[:n]
		}
	}

	return &CompositeGlyph{
		BBox:         bbox,
		Components:   components,
		Instructions: instructions,
	}, nil
}

// ParseGlyfFromFont parses both glyf and loca tables from a font.
func ParseGlyfFromFont(font *Font) (*Glyf, error) {
	// Get numGlyphs from maxp
	maxpData, err := font.TableData(TagMaxp)
	if err != nil {
		return nil, err
	}
	if len(maxpData) < 6 {
		return nil, ErrInvalidTable
	}
	numGlyphs := int(binary.BigEndian.Uint16(maxpData[4:]))

	// Get indexToLocFormat from head
	headData, err := font.TableData(TagHead)
	if err != nil {
		return nil, err
	}
	if len(headData) < 54 {
		return nil, ErrInvalidTable
	}
	indexToLocFormat := int16(binary.BigEndian.Uint16(headData[50:]))

	// Parse loca
	locaData, err := font.TableData(TagLoca)
	if err != nil {
		return nil, err
	}
	loca, err := ParseLoca(locaData, numGlyphs, indexToLocFormat)
	if err != nil {
		return nil, err
	}

	// Parse glyf
	glyfData, err := font.TableData(TagGlyf)
	if err != nil {
		return nil, err
	}

	return ParseGlyf(glyfData, loca)
}

// CompositeBoundingBox recursively computes the bounding box of a
// composite glyph by unioning its transformed children's boxes. It
// guards against circular component references with a visited set,
// since the glyf table format places no structural limit on nesting.
func (g *Glyf) CompositeBoundingBox(gid GlyphID) (RectF, error) {
	visited := bitset.New(uint(g.loca.NumGlyphs()))
	return g.compositeBoundingBox(gid, visited)
}

func (g *Glyf) compositeBoundingBox(gid GlyphID, visited *bitset.BitSet) (RectF, error) {
	if int(gid) < 0 || uint(gid) >= uint(g.loca.NumGlyphs()) {
		return RectF{}, newParseError(KindBadIndex, "composite child glyph index out of range")
	}
	if visited.Test(uint(gid)) {
		return RectF{}, newParseError(KindMalformedTuple, "composite component cycle detected")
	}
	visited.Set(uint(gid))
	defer visited.Clear(uint(gid))

	record := g.GetGlyph(gid)
	if record == nil {
		return RectF{}, newParseError(KindBadIndex, "glyph record missing")
	}
	if record.IsEmpty() {
		return EmptyRectF(), nil
	}
	if !record.IsComposite() {
		outline, err := record.ParseGlyphOutline()
		if err != nil {
			return RectF{}, err
		}
		return outline.(*SimpleGlyph).BBox, nil
	}

	outline, err := record.ParseGlyphOutline()
	if err != nil {
		return RectF{}, err
	}
	composite := outline.(*CompositeGlyph)

	result := EmptyRectF()
	for _, comp := range composite.Components {
		childBox, err := g.compositeBoundingBox(comp.GlyphID, visited)
		if err != nil {
			return RectF{}, err
		}
		transform := Transform2F{Matrix: comp.Transform}
		var placed RectF
		if comp.ScaledComponentOffset {
			placed = childBox.Offset(comp.Offset).Transform(transform)
		} else {
			transform.Vector = comp.Offset
			placed = childBox.Transform(transform)
		}
		result = result.Union(placed)
	}
	return result, nil
}

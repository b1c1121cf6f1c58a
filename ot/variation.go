package ot

import "github.com/bits-and-blooms/bitset"

// PhantomPoints are the four synthetic points gvar attaches to every
// glyph so that advance width and advance height can vary along with
// the outline: left/right sidebearing points (indices 0,1) and
// top/bottom sidebearing points (indices 2,3).
type PhantomPoints [4]Vector2F

// VariationContext bundles the tables needed to apply glyph variations
// for one font: the outline data, the variation deltas, and the
// metrics tables phantom points are derived from.
type VariationContext struct {
	Glyf       *Glyf
	Gvar       *Gvar
	Hmtx       *Hmtx
	Hhea       *Hhea
	Vmtx       *Vmtx // optional
	Vhea       *Vhea // optional
	OS2        *OS2  // optional, used as a vertical-metrics fallback
	UnitsPerEm uint16
}

// VariedSimpleGlyph is a simple glyph's outline after variation deltas
// have been applied and rounded to font design units.
type VariedSimpleGlyph struct {
	Points           []Point
	EndPtsOfContours []uint16
	Instructions     []byte
	BBox             RectF
	Phantom          PhantomPoints
}

// VariedComponent is one composite component after its placement
// offset has been adjusted by its slice of the composite's variation
// deltas. Point-matching indices (OurPoint/TheirPoint) are carried over
// unchanged.
type VariedComponent struct {
	GlyphID               GlyphID
	ArgsAreXYValues       bool
	Offset                Vector2F
	OurPoint, TheirPoint  int16
	Transform             Matrix2x2F
	ScaledComponentOffset bool
	RoundXYToGrid         bool
	UseMyMetrics          bool
	OverlapCompound       bool
}

// VariedCompositeGlyph is a composite glyph after variation, with each
// component's placement adjusted and the bounding box recomputed from
// the (recursively varied) children.
type VariedCompositeGlyph struct {
	Components   []VariedComponent
	Instructions []byte
	BBox         RectF
	Phantom      PhantomPoints
}

// VariedEmptyGlyph is an empty glyph (no outline, no components) after
// variation; only its phantom points can move.
type VariedEmptyGlyph struct {
	Phantom PhantomPoints
}

// ApplyVariations computes the varied outline (or component list) for
// glyphIndex at the given normalized instance coordinates. The
// returned value is one of *VariedSimpleGlyph, *VariedCompositeGlyph,
// or *VariedEmptyGlyph.
func (ctx *VariationContext) ApplyVariations(glyphIndex GlyphID, instance []float32) (interface{}, error) {
	visited := bitset.New(uint(ctx.Glyf.loca.NumGlyphs()))
	return ctx.applyVariations(glyphIndex, instance, visited)
}

func (ctx *VariationContext) applyVariations(glyphIndex GlyphID, instance []float32, visited *bitset.BitSet) (interface{}, error) {
	if uint(glyphIndex) >= uint(ctx.Glyf.loca.NumGlyphs()) {
		return nil, newParseError(KindBadIndex, "glyph index out of range")
	}
	if visited.Test(uint(glyphIndex)) {
		return nil, newParseError(KindMalformedTuple, "composite component cycle detected")
	}
	visited.Set(uint(glyphIndex))
	defer visited.Clear(uint(glyphIndex))

	record := ctx.Glyf.GetGlyph(glyphIndex)
	if record == nil {
		return nil, newParseError(KindBadIndex, "glyph record missing")
	}

	if record.IsEmpty() {
		phantom := ctx.phantomPoints(glyphIndex, EmptyRectF())
		deltas, err := ctx.glyphDeltas(glyphIndex, instance, 0, nil)
		if err != nil {
			return nil, err
		}
		if len(deltas) >= 4 {
			phantom = applyPhantomDeltas(phantom, deltas[len(deltas)-4:])
		}
		return &VariedEmptyGlyph{Phantom: phantom}, nil
	}

	outline, err := record.ParseGlyphOutline()
	if err != nil {
		return nil, err
	}

	switch g := outline.(type) {
	case *SimpleGlyph:
		return ctx.applySimpleVariation(glyphIndex, g, instance)
	case *CompositeGlyph:
		return ctx.applyCompositeVariation(glyphIndex, g, instance, visited)
	default:
		return nil, newParseError(KindUnsupported, "unrecognized glyph outline kind")
	}
}

func (ctx *VariationContext) applySimpleVariation(glyphIndex GlyphID, g *SimpleGlyph, instance []float32) (*VariedSimpleGlyph, error) {
	phantom := ctx.phantomPoints(glyphIndex, g.BBox)

	numPoints := len(g.Points)
	deltas, err := ctx.glyphDeltas(glyphIndex, instance, numPoints, g)
	if err != nil {
		return nil, err
	}

	points := make([]Point, numPoints)
	bbox := EmptyRectF()
	for i, p := range g.Points {
		var d Vector2F
		if i < len(deltas) {
			d = deltas[i]
		}
		nx := saturatingRoundToInt16(float32(p.X) + d.X)
		ny := saturatingRoundToInt16(float32(p.Y) + d.Y)
		points[i] = Point{X: nx, Y: ny, OnCurve: p.OnCurve}
		bbox = bbox.AddPoint(Vector2F{X: float32(nx), Y: float32(ny)})
	}

	if len(deltas) >= numPoints+4 {
		phantom = applyPhantomDeltas(phantom, deltas[numPoints:numPoints+4])
	}

	return &VariedSimpleGlyph{
		Points:           points,
		EndPtsOfContours: g.EndPtsOfContours,
		Instructions:     g.Instructions,
		BBox:             bbox,
		Phantom:          phantom,
	}, nil
}

func (ctx *VariationContext) applyCompositeVariation(glyphIndex GlyphID, g *CompositeGlyph, instance []float32, visited *bitset.BitSet) (*VariedCompositeGlyph, error) {
	phantom := ctx.phantomPoints(glyphIndex, g.BBox)

	numComponents := len(g.Components)
	deltas, err := ctx.glyphDeltas(glyphIndex, instance, numComponents, nil)
	if err != nil {
		return nil, err
	}

	components := make([]VariedComponent, numComponents)
	bbox := EmptyRectF()
	for i, comp := range g.Components {
		vc := VariedComponent{
			GlyphID:               comp.GlyphID,
			ArgsAreXYValues:       comp.ArgsAreXYValues,
			Offset:                comp.Offset,
			OurPoint:              comp.OurPoint,
			TheirPoint:            comp.TheirPoint,
			Transform:             comp.Transform,
			ScaledComponentOffset: comp.ScaledComponentOffset,
			RoundXYToGrid:         comp.RoundXYToGrid,
			UseMyMetrics:          comp.UseMyMetrics,
			OverlapCompound:       comp.OverlapCompound,
		}
		if comp.ArgsAreXYValues && i < len(deltas) {
			d := deltas[i]
			vc.Offset = Vector2F{
				X: float32(saturatingRoundToInt16(comp.Offset.X + d.X)),
				Y: float32(saturatingRoundToInt16(comp.Offset.Y + d.Y)),
			}
		}
		components[i] = vc

		childOutline, err := ctx.applyVariations(comp.GlyphID, instance, visited)
		if err != nil {
			return nil, err
		}
		childBox := extractBBox(childOutline)
		transform := Transform2F{Matrix: vc.Transform}
		var placed RectF
		if vc.ScaledComponentOffset {
			placed = childBox.Offset(vc.Offset).Transform(transform)
		} else {
			transform.Vector = vc.Offset
			placed = childBox.Transform(transform)
		}
		bbox = bbox.Union(placed)
	}

	if len(deltas) >= numComponents+4 {
		phantom = applyPhantomDeltas(phantom, deltas[numComponents:numComponents+4])
	}

	return &VariedCompositeGlyph{
		Components:   components,
		Instructions: g.Instructions,
		BBox:         bbox,
		Phantom:      phantom,
	}, nil
}

// extractBBox pulls the bounding box out of whichever Varied*Glyph
// variant a recursive ApplyVariations call returned.
func extractBBox(v interface{}) RectF {
	switch g := v.(type) {
	case *VariedSimpleGlyph:
		return g.BBox
	case *VariedCompositeGlyph:
		return g.BBox
	case *VariedEmptyGlyph:
		return EmptyRectF()
	default:
		return EmptyRectF()
	}
}

// applyPhantomDeltas adds a trailing 4-entry delta slice to the
// phantom points, using the same saturating rounding as outline
// points.
func applyPhantomDeltas(phantom PhantomPoints, deltas []Vector2F) PhantomPoints {
	var out PhantomPoints
	for i := range phantom {
		out[i] = Vector2F{
			X: float32(saturatingRoundToInt16(phantom[i].X + deltas[i].X)),
			Y: float32(saturatingRoundToInt16(phantom[i].Y + deltas[i].Y)),
		}
	}
	return out
}

// phantomPoints derives the four phantom points for a glyph from its
// pre-variation bounding box and the font's metrics tables, following
// the standard left/right/top/bottom sidebearing construction: the
// horizontal pair always exists, the vertical pair falls back to
// ascender/descender-derived values when vmtx is absent.
func (ctx *VariationContext) phantomPoints(glyphIndex GlyphID, bbox RectF) PhantomPoints {
	xMin, yMax := float32(0), float32(0)
	if !bbox.IsEmpty() {
		xMin, yMax = bbox.MinX, bbox.MaxY
	}

	lsb := int16(0)
	advanceWidth := uint16(0)
	if ctx.Hmtx != nil {
		advanceWidth, lsb = ctx.Hmtx.GetMetrics(glyphIndex)
	}
	leftX := xMin - float32(lsb)
	rightX := leftX + float32(advanceWidth)

	var tsb int16
	var advanceHeight uint16
	if ctx.Vmtx != nil {
		advanceHeight = ctx.Vmtx.GetAdvanceHeight(glyphIndex)
		tsb = ctx.Vmtx.GetTsb(glyphIndex)
	} else {
		ascender, descender := ctx.verticalFallback()
		advanceHeight = uint16(ascender - descender)
		tsb = ascender - int16(yMax)
	}
	topY := yMax + float32(tsb)
	bottomY := topY - float32(advanceHeight)

	return PhantomPoints{
		{X: leftX, Y: 0},
		{X: rightX, Y: 0},
		{X: 0, Y: topY},
		{X: 0, Y: bottomY},
	}
}

// verticalFallback returns an ascender/descender pair to derive phantom
// points from when the font has no vhea/vmtx, preferring OS/2's
// typographic metrics and falling back to hhea.
func (ctx *VariationContext) verticalFallback() (ascender, descender int16) {
	if ctx.OS2 != nil {
		return ctx.OS2.STypoAscender, ctx.OS2.STypoDescender
	}
	if ctx.Hhea != nil {
		return ctx.Hhea.Ascender, ctx.Hhea.Descender
	}
	return int16(ctx.UnitsPerEm), 0
}

// glyphDeltas computes the final, scalar-weighted, inference-completed
// delta vector for a glyph: one entry per outline point (or per
// composite component) followed by four phantom-point entries.
// simpleGlyph is non-nil only when the glyph is a simple outline,
// enabling per-contour IUP inference; composite glyphs and empty
// glyphs never infer missing deltas.
func (ctx *VariationContext) glyphDeltas(glyphIndex GlyphID, instance []float32, numPoints int, simpleGlyph *SimpleGlyph) ([]Vector2F, error) {
	totalPoints := numPoints + 4

	tuples, err := ctx.Gvar.GlyphVariationData(glyphIndex, totalPoints)
	if err != nil {
		return nil, err
	}

	final := make([]Vector2F, totalPoints)
	if len(tuples) == 0 {
		return final, nil
	}

	regionDeltas := make([]Vector2F, totalPoints)
	explicit := make(map[int]Vector2F, totalPoints)

	for _, tv := range tuples {
		scale := RegionScalar(tv.Region, instance)
		if scale == 0 {
			continue
		}

		for i := range regionDeltas {
			regionDeltas[i] = Vector2F{}
		}
		for k := range explicit {
			delete(explicit, k)
		}

		if tv.PointNumbers == nil {
			for i := 0; i < totalPoints && i < len(tv.XDeltas); i++ {
				d := Vector2F{X: float32(tv.XDeltas[i]), Y: float32(tv.YDeltas[i])}
				regionDeltas[i] = d
				explicit[i] = d
			}
		} else {
			for i, pt := range tv.PointNumbers {
				if pt < 0 || pt >= totalPoints || i >= len(tv.XDeltas) {
					return nil, newParseError(KindBadIndex, "point number out of range in tuple variation data")
				}
				d := Vector2F{X: float32(tv.XDeltas[i]), Y: float32(tv.YDeltas[i])}
				regionDeltas[pt] = d
				explicit[pt] = d
			}
		}

		if simpleGlyph != nil && len(explicit) != totalPoints {
			if err := inferUnreferencedPoints(simpleGlyph, explicit, regionDeltas); err != nil {
				return nil, err
			}
		}

		for i := range final {
			final[i] = final[i].Add(regionDeltas[i].Scale(scale))
		}
	}

	return final, nil
}

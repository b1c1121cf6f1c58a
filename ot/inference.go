package ot

// inferUnreferencedPoints fills in deltas for every point of a simple
// glyph that a tuple variation's point-number list didn't reference
// explicitly. It operates per contour: a contour with no explicit
// points is left untouched (stays zero), a contour with exactly one
// explicit point copies that single delta across the whole contour,
// and a fully explicit contour needs no inference at all. Otherwise
// each unreferenced point is interpolated between its nearest explicit
// neighbors on either side, walking the contour cyclically.
func inferUnreferencedPoints(g *SimpleGlyph, explicit map[int]Vector2F, deltas []Vector2F) error {
	start := 0
	for _, endU16 := range g.EndPtsOfContours {
		end := int(endU16)
		if end < start {
			return newParseError(KindMalformedTuple, "contour end point precedes its start")
		}

		count := end - start + 1
		explicitInContour := 0
		var onlyRef int
		for i := start; i <= end; i++ {
			if _, ok := explicit[i]; ok {
				explicitInContour++
				onlyRef = i
			}
		}

		switch {
		case explicitInContour == 0:
			// no reference point: leave deltas zero
		case explicitInContour == count:
			// every point explicit: nothing to infer
		case explicitInContour == 1:
			d := deltas[onlyRef]
			for i := start; i <= end; i++ {
				deltas[i] = d
			}
		default:
			if err := inferContour(g, explicit, deltas, start, end); err != nil {
				return err
			}
		}

		start = end + 1
	}
	return nil
}

// inferContour interpolates every unreferenced point within [start,end]
// from the two nearest explicitly-referenced points, found by walking
// forward (wrapping to the contour's start) and backward (wrapping to
// its end).
func inferContour(g *SimpleGlyph, explicit map[int]Vector2F, deltas []Vector2F, start, end int) error {
	for target := start; target <= end; target++ {
		if _, ok := explicit[target]; ok {
			continue
		}

		next, ok := nextExplicit(explicit, start, end, target)
		if !ok {
			continue
		}
		prev, ok := prevExplicit(explicit, start, end, target)
		if !ok {
			continue
		}

		if target >= len(g.Points) || prev >= len(g.Points) || next >= len(g.Points) {
			return newParseError(KindBadIndex, "contour point index out of range during inference")
		}

		targetPt := g.Points[target]
		prevPt := g.Points[prev]
		nextPt := g.Points[next]
		prevDelta := deltas[prev]
		nextDelta := deltas[next]

		deltas[target] = Vector2F{
			X: inferAxis(float32(prevPt.X), float32(targetPt.X), float32(nextPt.X), prevDelta.X, nextDelta.X),
			Y: inferAxis(float32(prevPt.Y), float32(targetPt.Y), float32(nextPt.Y), prevDelta.Y, nextDelta.Y),
		}
	}
	return nil
}

// nextExplicit walks forward from target (exclusive) to the nearest
// explicitly-referenced point, wrapping from end back to start.
func nextExplicit(explicit map[int]Vector2F, start, end, target int) (int, bool) {
	for i := target + 1; i <= end; i++ {
		if _, ok := explicit[i]; ok {
			return i, true
		}
	}
	for i := start; i < target; i++ {
		if _, ok := explicit[i]; ok {
			return i, true
		}
	}
	return 0, false
}

// prevExplicit walks backward from target (exclusive) to the nearest
// explicitly-referenced point, wrapping from start back to end. It
// scans the same ascending-from-target range as nextExplicit, just
// read from the opposite end, so prev and next agree on which
// neighbor is "nearest" when the contour wraps.
func prevExplicit(explicit map[int]Vector2F, start, end, target int) (int, bool) {
	for i := target - 1; i >= start; i-- {
		if _, ok := explicit[i]; ok {
			return i, true
		}
	}
	for i := end; i > target; i-- {
		if _, ok := explicit[i]; ok {
			return i, true
		}
	}
	return 0, false
}

// inferAxis computes the inferred delta for a single coordinate axis
// of an unreferenced point, given its neighbors' original coordinates
// and deltas.
//
//   - If the neighbors share a coordinate, the point moves with them
//     only if they agree; otherwise it doesn't move at all.
//   - If the target lies at or beyond the nearer neighbor, it takes
//     that neighbor's delta (no extrapolation past the region).
//   - Otherwise it's linearly interpolated between the two deltas in
//     proportion to its position between the neighbor coordinates.
func inferAxis(prevCoord, targetCoord, nextCoord, prevDelta, nextDelta float32) float32 {
	if prevCoord == nextCoord {
		if prevDelta == nextDelta {
			return prevDelta
		}
		return 0
	}

	lo, hi := prevCoord, nextCoord
	loDelta, hiDelta := prevDelta, nextDelta
	if lo > hi {
		lo, hi = hi, lo
		loDelta, hiDelta = hiDelta, loDelta
	}

	switch {
	case targetCoord <= lo:
		return loDelta
	case targetCoord >= hi:
		return hiDelta
	default:
		proportion := (targetCoord - lo) / (hi - lo)
		return loDelta + proportion*(hiDelta-loDelta)
	}
}

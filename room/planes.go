package room

import "math"

// Classify reports whether a surface is horizontal (floor/ceiling) or vertical
// (wall) from |normal.y| as supplied. The detection layer reports unit
// normals; a shorter one is not rescaled.
func Classify(s Surface, threshold float64) Alignment {
	if math.Abs(s.Normal.Y) > threshold {
		return AlignmentHorizontal
	}
	return AlignmentVertical
}

// HorizontalSurfaces returns the horizontal subset, preserving order.
func HorizontalSurfaces(surfaces []Surface, threshold float64) []Surface {
	return filterAlignment(surfaces, threshold, AlignmentHorizontal)
}

// VerticalSurfaces returns the vertical subset, preserving order.
func VerticalSurfaces(surfaces []Surface, threshold float64) []Surface {
	return filterAlignment(surfaces, threshold, AlignmentVertical)
}

func filterAlignment(surfaces []Surface, threshold float64, want Alignment) []Surface {
	var out []Surface
	for _, s := range surfaces {
		if Classify(s, threshold) == want {
			out = append(out, s)
		}
	}
	return out
}

package cv

import (
	"image"
	"math"
)

// MatchResult is the outcome of matching one template against one frame.
// Hit is false whenever the best correlation falls below the template's
// threshold; the confidence and region are still reported for diagnostics.
type MatchResult struct {
	Template   string
	Hit        bool
	Confidence float64
	Region     Region
}

// MatchConfig configures template matching tolerances.
type MatchConfig struct {
	// ScaleTolerance is the fraction of template scale variation tolerated,
	// e.g. 0.05 also tries the template at 95% and 105% of its size.
	// Brightness tolerance needs no parameter: the correlation is normalized,
	// so a uniform brightness or contrast shift does not change the score.
	ScaleTolerance float64
}

// DefaultMatchConfig returns recommended settings
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		ScaleTolerance: 0.0,
	}
}

// FindTemplate locates the single best occurrence of a template in a frame
// using normalized cross-correlation over grayscale intensity. When several
// positions score equally, the top-left-most one (smallest y, then smallest x)
// is reported. Matching never fails: an absent template is a valid result
// with Hit=false.
func FindTemplate(frame *image.RGBA, tpl Template, config *MatchConfig) MatchResult {
	if config == nil {
		config = DefaultMatchConfig()
	}

	result := MatchResult{Template: tpl.Name}
	if frame == nil || tpl.Image == nil {
		return result
	}

	searchBounds := frame.Bounds()
	if tpl.Region != nil {
		searchBounds = tpl.Region.ToImageRectangle().Intersect(searchBounds)
		if searchBounds.Empty() {
			return result
		}
	}

	haystack := toGray(frame)

	base := toGray(tpl.Image)
	for _, scale := range scaleSteps(config.ScaleTolerance) {
		needle := base
		if scale != 1.0 {
			needle = resizeGray(base, scale)
		}
		if needle.w == 0 || needle.h == 0 {
			continue
		}

		score, loc, ok := bestCorrelation(haystack, needle, searchBounds)
		if ok && score > result.Confidence {
			result.Confidence = score
			result.Region = Region{
				X1: loc.X,
				Y1: loc.Y,
				X2: loc.X + needle.w,
				Y2: loc.Y + needle.h,
			}
		}
	}

	result.Hit = result.Confidence >= tpl.Threshold
	return result
}

// scaleSteps returns the template scales to try, smallest first.
func scaleSteps(tolerance float64) []float64 {
	if tolerance <= 0 {
		return []float64{1.0}
	}
	return []float64{1.0 - tolerance, 1.0, 1.0 + tolerance}
}

// grayPlane is a grayscale intensity buffer used for correlation.
type grayPlane struct {
	w, h int
	pix  []float64
}

func (g grayPlane) at(x, y int) float64 {
	return g.pix[y*g.w+x]
}

// toGray converts an RGBA image to a luminance plane.
func toGray(img *image.RGBA) grayPlane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	plane := grayPlane{w: w, h: h, pix: make([]float64, w*h)}

	for y := 0; y < h; y++ {
		row := (bounds.Min.Y+y)*img.Stride + bounds.Min.X*4
		for x := 0; x < w; x++ {
			idx := row + x*4
			r := int(img.Pix[idx])
			g := int(img.Pix[idx+1])
			b := int(img.Pix[idx+2])
			// Luminance formula
			plane.pix[y*w+x] = float64(r*299+g*587+b*114) / 1000.0
		}
	}

	return plane
}

// resizeGray scales a plane by the given factor using nearest neighbor.
// Template scale tolerance does not warrant interpolation quality.
func resizeGray(src grayPlane, scale float64) grayPlane {
	w := int(math.Round(float64(src.w) * scale))
	h := int(math.Round(float64(src.h) * scale))
	if w < 1 || h < 1 {
		return grayPlane{}
	}

	dst := grayPlane{w: w, h: h, pix: make([]float64, w*h)}
	for y := 0; y < h; y++ {
		sy := int(float64(y) / scale)
		if sy >= src.h {
			sy = src.h - 1
		}
		for x := 0; x < w; x++ {
			sx := int(float64(x) / scale)
			if sx >= src.w {
				sx = src.w - 1
			}
			dst.pix[y*w+x] = src.at(sx, sy)
		}
	}

	return dst
}

// bestCorrelation scans the search bounds and returns the highest-scoring
// needle position. The scan runs row-major with a strict improvement test,
// so equal scores resolve to the first (top-left-most) position.
func bestCorrelation(haystack, needle grayPlane, search image.Rectangle) (float64, image.Point, bool) {
	maxX := search.Max.X - needle.w
	maxY := search.Max.Y - needle.h
	if maxX < search.Min.X || maxY < search.Min.Y {
		// Template does not fit in the search region
		return 0, image.Point{}, false
	}
	if search.Min.X < 0 || search.Min.Y < 0 || search.Max.X > haystack.w || search.Max.Y > haystack.h {
		search = search.Intersect(image.Rect(0, 0, haystack.w, haystack.h))
		maxX = search.Max.X - needle.w
		maxY = search.Max.Y - needle.h
		if maxX < search.Min.X || maxY < search.Min.Y {
			return 0, image.Point{}, false
		}
	}

	n := float64(needle.w * needle.h)
	var sumN, sumNN float64
	for _, v := range needle.pix {
		sumN += v
		sumNN += v * v
	}
	needleVar := sumNN - sumN*sumN/n

	bestScore := -1.0
	bestLoc := image.Point{}
	for y := search.Min.Y; y <= maxY; y++ {
		for x := search.Min.X; x <= maxX; x++ {
			score := correlationAt(haystack, needle, x, y, sumN, needleVar, n)
			if score > bestScore {
				bestScore = score
				bestLoc = image.Point{X: x, Y: y}
			}
		}
	}

	if bestScore < 0 {
		bestScore = 0
	}
	return bestScore, bestLoc, true
}

// correlationAt computes the normalized cross-correlation coefficient of the
// needle against the haystack window at (x, y). Negative correlation clamps
// to zero so confidence stays within [0, 1].
func correlationAt(haystack, needle grayPlane, x, y int, sumN, needleVar, n float64) float64 {
	var sumH, sumHH, sumHN float64

	for ny := 0; ny < needle.h; ny++ {
		hRow := (y + ny) * haystack.w
		nRow := ny * needle.w
		for nx := 0; nx < needle.w; nx++ {
			h := haystack.pix[hRow+x+nx]
			sumH += h
			sumHH += h * h
			sumHN += h * needle.pix[nRow+nx]
		}
	}

	hayVar := sumHH - sumH*sumH/n
	if hayVar <= 0 || needleVar <= 0 {
		// Flat window or flat template: correlation undefined. Treat an
		// exact flat-on-flat pixel match as perfect, anything else as zero.
		if hayVar <= 0 && needleVar <= 0 && math.Abs(sumH-sumN) < 1e-9 {
			return 1.0
		}
		return 0
	}

	corr := (sumHN - sumH*sumN/n) / math.Sqrt(hayVar*needleVar)
	if corr < 0 {
		return 0
	}
	if corr > 1 {
		return 1
	}
	return corr
}

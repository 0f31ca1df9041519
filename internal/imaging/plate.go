package imaging

import (
	"image"
	"math"

	"github.com/tphakala/nutritive-go/internal/logger"
)

// Plate detection defaults, in centimetres
const (
	StandardPlateDiameter = 25.0
	MaxPlateDiameter      = 30.0
)

const (
	houghMaxSide       = 160   // working resolution for the circle search
	houghMinRadius     = 50    // native pixels
	houghMaxRadius     = 400   // native pixels
	houghEdgeThreshold = 100.0 // Sobel magnitude on the 0-255 scale
	houghMinScore      = 0.6   // votes per unit of circumference
	plateFrameFactor   = 1.5   // a plate spanning the frame height is 1.5 standard plates
)

// PlateDetector estimates plate diameter with a coarse circle search.
// Detection never fails; when no circle is found the fallback diameter is used.
type PlateDetector struct {
	FallbackDiameter float64
	MaxDiameter      float64
}

// NewPlateDetector returns a detector with the given fallback and cap in cm.
// Non-positive values select the standard 25 cm fallback and 30 cm cap.
func NewPlateDetector(fallback, maxDiameter float64) *PlateDetector {
	if fallback <= 0 {
		fallback = StandardPlateDiameter
	}
	if maxDiameter <= 0 {
		maxDiameter = MaxPlateDiameter
	}
	return &PlateDetector{FallbackDiameter: fallback, MaxDiameter: maxDiameter}
}

// Diameter returns the estimated plate diameter in centimetres.
func (d *PlateDetector) Diameter(img image.Image) float64 {
	if img == nil || img.Bounds().Dy() == 0 {
		return d.FallbackDiameter
	}

	radius, ok := largestCircle(img)
	if !ok {
		return d.FallbackDiameter
	}

	estimated := radius * 2 / float64(img.Bounds().Dy()) * d.FallbackDiameter * plateFrameFactor
	GetLogger().Debug("plate detected",
		logger.Float64("radius_px", radius),
		logger.Float64("diameter_cm", estimated))

	return math.Min(estimated, d.MaxDiameter)
}

// largestCircle runs a gradient-directed Hough transform on a downscaled
// copy of img and returns the radius, in native pixels, of the largest circle
// whose vote density is a local maximum above houghMinScore.
func largestCircle(img image.Image) (float64, bool) {
	small, scale := downscale(img, houghMaxSide)
	gray := blur(toGray(small))
	w, h := gray.w, gray.h

	minR := max(4, int(houghMinRadius/scale))
	maxR := min(int(houghMaxRadius/scale), max(w, h)/2)
	if minR > maxR || w < 3 || h < 3 {
		return 0, false
	}
	nR := maxR - minR + 1
	acc := make([]uint16, nR*w*h)

	edges := 0
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := gray.at(x+1, y-1) + 2*gray.at(x+1, y) + gray.at(x+1, y+1) -
				gray.at(x-1, y-1) - 2*gray.at(x-1, y) - gray.at(x-1, y+1)
			gy := gray.at(x-1, y+1) + 2*gray.at(x, y+1) + gray.at(x+1, y+1) -
				gray.at(x-1, y-1) - 2*gray.at(x, y-1) - gray.at(x+1, y-1)
			mag := math.Hypot(gx, gy)
			if mag < houghEdgeThreshold {
				continue
			}
			edges++
			ux, uy := gx/mag, gy/mag
			for r := minR; r <= maxR; r++ {
				plane := acc[(r-minR)*w*h:]
				for _, sign := range [2]float64{1, -1} {
					cx := int(math.Round(float64(x) + sign*float64(r)*ux))
					cy := int(math.Round(float64(y) + sign*float64(r)*uy))
					if cx >= 0 && cx < w && cy >= 0 && cy < h && plane[cy*w+cx] < math.MaxUint16 {
						plane[cy*w+cx]++
					}
				}
			}
		}
	}
	if edges == 0 {
		return 0, false
	}

	scores := make([]float64, nR)
	for i := range nR {
		plane := acc[i*w*h : (i+1)*w*h]
		best := 0
		for y := 1; y < h-1; y++ {
			for x := 1; x < w-1; x++ {
				sum := 0
				for dy := -1; dy <= 1; dy++ {
					row := (y + dy) * w
					sum += int(plane[row+x-1]) + int(plane[row+x]) + int(plane[row+x+1])
				}
				best = max(best, sum)
			}
		}
		scores[i] = float64(best) / (2 * math.Pi * float64(i+minR))
	}

	for i := nR - 1; i >= 0; i-- {
		if scores[i] < houghMinScore {
			continue
		}
		if (i == 0 || scores[i] >= scores[i-1]) && (i == nR-1 || scores[i] >= scores[i+1]) {
			return float64(i+minR) * scale, true
		}
	}
	return 0, false
}

// blur applies a separable [1 2 1] smoothing kernel with clamped borders
func blur(g *grayImage) *grayImage {
	w, h := g.w, g.h
	tmp := make([]float64, w*h)
	out := &grayImage{w: w, h: h, pix: make([]float64, w*h)}
	clamp := func(v, hi int) int { return min(max(v, 0), hi-1) }

	for y := range h {
		for x := range w {
			tmp[y*w+x] = (g.at(clamp(x-1, w), y) + 2*g.at(x, y) + g.at(clamp(x+1, w), y)) / 4
		}
	}
	for y := range h {
		for x := range w {
			out.pix[y*w+x] = (tmp[clamp(y-1, h)*w+x] + 2*tmp[y*w+x] + tmp[clamp(y+1, h)*w+x]) / 4
		}
	}
	return out
}

package imaging

import (
	"image"
)

// Image quality scores
const (
	QualityTooSmall   = 0.3
	QualityBadExposed = 0.6
	QualityBlurry     = 0.7
	QualityGood       = 0.9
	QualityUnknown    = 0.5
)

const (
	minQualitySide  = 100
	minBrightness   = 50.0
	maxBrightness   = 200.0
	minLaplacianVar = 100.0
)

// AssessQuality scores how suitable img is for recognition. The first failing
// check decides the score: size, then exposure, then sharpness.
func AssessQuality(img image.Image) float64 {
	if img == nil {
		return QualityUnknown
	}

	b := img.Bounds()
	if b.Dx() < minQualitySide || b.Dy() < minQualitySide {
		return QualityTooSmall
	}

	gray := toGray(img)

	var sum float64
	for _, v := range gray.pix {
		sum += v
	}
	brightness := sum / float64(len(gray.pix))
	if brightness < minBrightness || brightness > maxBrightness {
		return QualityBadExposed
	}

	if laplacianVariance(gray) < minLaplacianVar {
		return QualityBlurry
	}

	return QualityGood
}

// laplacianVariance returns the variance of the 4-neighbour Laplacian over
// interior pixels, a standard focus measure.
func laplacianVariance(g *grayImage) float64 {
	if g.w < 3 || g.h < 3 {
		return 0
	}

	var sum, sumSq float64
	n := 0
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			l := g.at(x-1, y) + g.at(x+1, y) + g.at(x, y-1) + g.at(x, y+1) - 4*g.at(x, y)
			sum += l
			sumSq += l * l
			n++
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

package imaging

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// StatsSize is the side of the square resample used for colour statistics
const StatsSize = 224

// ColorStats holds per-channel mean and standard deviation, normalized to [0,1]
type ColorStats struct {
	MeanR, MeanG, MeanB float64
	StdR, StdG, StdB    float64
}

// ComputeColorStats resamples img to 224x224 and returns per-channel statistics.
func ComputeColorStats(img image.Image) ColorStats {
	dst := image.NewRGBA(image.Rect(0, 0, StatsSize, StatsSize))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	var sum, sumSq [3]float64
	n := float64(StatsSize * StatsSize)
	for i := 0; i < len(dst.Pix); i += 4 {
		for c := range 3 {
			v := float64(dst.Pix[i+c]) / 255.0
			sum[c] += v
			sumSq[c] += v * v
		}
	}

	var mean, std [3]float64
	for c := range 3 {
		mean[c] = sum[c] / n
		// population variance, clamped against rounding below zero
		std[c] = math.Sqrt(math.Max(0, sumSq[c]/n-mean[c]*mean[c]))
	}

	return ColorStats{
		MeanR: mean[0], MeanG: mean[1], MeanB: mean[2],
		StdR: std[0], StdG: std[1], StdB: std[2],
	}
}

// grayImage is a float luminance raster in the 0-255 range
type grayImage struct {
	w, h int
	pix  []float64
}

func (g *grayImage) at(x, y int) float64 { return g.pix[y*g.w+x] }

// toGray converts img to luminance using ITU-R BT.601 weights
func toGray(img image.Image) *grayImage {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	g := &grayImage{w: w, h: h, pix: make([]float64, w*h)}
	for y := range h {
		row := rgba.Pix[y*rgba.Stride:]
		for x := range w {
			p := row[x*4:]
			g.pix[y*w+x] = 0.299*float64(p[0]) + 0.587*float64(p[1]) + 0.114*float64(p[2])
		}
	}
	return g
}

// downscale resizes img so its longer side is at most maxSide pixels
func downscale(img image.Image, maxSide int) (image.Image, float64) {
	b := img.Bounds()
	longSide := max(b.Dx(), b.Dy())
	if longSide <= maxSide {
		return img, 1
	}
	scale := float64(longSide) / float64(maxSide)
	w := max(1, int(math.Round(float64(b.Dx())/scale)))
	h := max(1, int(math.Round(float64(b.Dy())/scale)))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}

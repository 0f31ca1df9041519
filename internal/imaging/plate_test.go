package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func diskImage(w, h, cx, cy, r int) *image.RGBA {
	img := solidImage(w, h, color.Black)
	for y := range h {
		for x := range w {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestPlateDetectorFindsDisk(t *testing.T) {
	t.Parallel()
	t.Attr("component", "imaging")

	d := NewPlateDetector(0, 0)

	// radius 80 in a 300 px tall frame: 160/300 * 25 * 1.5 = 20 cm
	got := d.Diameter(diskImage(400, 300, 200, 150, 80))
	assert.InDelta(t, 20.0, got, 2.0)
}

func TestPlateDetectorCapsDiameter(t *testing.T) {
	t.Parallel()

	d := NewPlateDetector(25, 30)
	got := d.Diameter(diskImage(400, 300, 200, 150, 140))
	assert.InDelta(t, 30.0, got, 0)
}

func TestPlateDetectorFallsBack(t *testing.T) {
	t.Parallel()

	d := NewPlateDetector(0, 0)
	assert.InDelta(t, StandardPlateDiameter, d.Diameter(nil), 0)
	assert.InDelta(t, StandardPlateDiameter, d.Diameter(solidImage(300, 300, color.Gray{128})), 0)
	assert.InDelta(t, StandardPlateDiameter, d.Diameter(solidImage(2, 2, color.White)), 0)

	custom := NewPlateDetector(22, 28)
	assert.InDelta(t, 22.0, custom.Diameter(solidImage(50, 50, color.White)), 0)
}

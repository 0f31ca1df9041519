package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/nutritive-go/internal/errors"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h int, a, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			v := a
			if (x+y)%2 == 1 {
				v = b
			}
			img.Set(x, y, color.RGBA{v, v, v, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeFormats(t *testing.T) {
	t.Parallel()
	t.Attr("component", "imaging")

	src := solidImage(32, 24, color.RGBA{200, 100, 50, 255})

	photo, err := Decode(encodePNG(t, src))
	require.NoError(t, err)
	assert.Equal(t, "png", photo.Format)
	assert.Equal(t, "image/png", photo.MIMEType())
	assert.Equal(t, 32, photo.Width())
	assert.Equal(t, 24, photo.Height())

	var jbuf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jbuf, src, nil))
	photo, err = Decode(jbuf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", photo.MIMEType())
}

func TestDecodeRejectsUnreadableInput(t *testing.T) {
	t.Parallel()

	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("definitely not an image"),
		"truncated png": func() []byte {
			b := encodePNG(t, solidImage(10, 10, color.White))
			return b[:len(b)/2]
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Decode(data)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryImageUnreadable))
		})
	}
}

// withPNGDimensions rewrites the IHDR width and height of an encoded PNG
// and fixes up the chunk CRC, leaving the pixel data untouched.
func withPNGDimensions(t *testing.T, data []byte, w, h uint32) []byte {
	t.Helper()
	require.Equal(t, "IHDR", string(data[12:16]))
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecodeRejectsOversizedHeader(t *testing.T) {
	t.Parallel()
	t.Attr("component", "imaging")

	small := encodePNG(t, solidImage(1, 1, color.White))

	tests := []struct {
		name string
		w, h uint32
	}{
		{name: "square bomb", w: 40_000, h: 40_000},
		{name: "just over the budget", w: 10_000, h: 5_001},
		{name: "long strip", w: 1_000_000, h: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, _, err := image.DecodeConfig(bytes.NewReader(withPNGDimensions(t, small, tt.w, tt.h)))
			require.NoError(t, err, "crafted header must stay readable")
			assert.Equal(t, int(tt.w), cfg.Width)

			_, err = Decode(withPNGDimensions(t, small, tt.w, tt.h))
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryImageUnreadable))
			assert.Contains(t, err.Error(), "exceed")
		})
	}
}

func TestDecodeFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meal.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, solidImage(8, 8, color.Black)), 0o600))

	photo, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, photo.Width())

	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.png"))
	assert.True(t, errors.IsCategory(err, errors.CategoryImageUnreadable))
}

func TestComputeColorStatsUniformImage(t *testing.T) {
	t.Parallel()

	stats := ComputeColorStats(solidImage(300, 200, color.RGBA{229, 229, 217, 255}))

	assert.InDelta(t, 229.0/255, stats.MeanR, 0.005)
	assert.InDelta(t, 229.0/255, stats.MeanG, 0.005)
	assert.InDelta(t, 217.0/255, stats.MeanB, 0.005)
	assert.InDelta(t, 0, stats.StdR, 0.005)
	assert.InDelta(t, 0, stats.StdB, 0.005)
}

func TestComputeColorStatsTwoTone(t *testing.T) {
	t.Parallel()

	// left half black, right half white, both sides wide enough to survive resampling
	img := solidImage(448, 448, color.Black)
	for y := range 448 {
		for x := 224; x < 448; x++ {
			img.Set(x, y, color.White)
		}
	}

	stats := ComputeColorStats(img)
	assert.InDelta(t, 0.5, stats.MeanR, 0.01)
	assert.InDelta(t, 0.5, stats.StdG, 0.01)
}

func TestAssessQuality(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		img  image.Image
		want float64
	}{
		{"nil image", nil, QualityUnknown},
		{"too small", solidImage(99, 400, color.Gray{128}), QualityTooSmall},
		{"too dark", solidImage(200, 200, color.Gray{20}), QualityBadExposed},
		{"too bright", solidImage(200, 200, color.Gray{240}), QualityBadExposed},
		{"flat and blurry", solidImage(200, 200, color.Gray{128}), QualityBlurry},
		{"sharp", checkerboard(200, 200, 64, 192), QualityGood},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, AssessQuality(tt.img), 0)
		})
	}
}

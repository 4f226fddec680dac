package similarity

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestImage(t *testing.T, dir, name string, c color.RGBA, stripe color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			if x < 32 {
				img.Set(x, y, c)
			} else {
				img.Set(x, y, stripe)
			}
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestVisualScoreMissingFiles(t *testing.T) {
	dir := t.TempDir()
	real := writeTestImage(t, dir, "real.png",
		color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 128, 255})

	assert.Zero(t, VisualScore(filepath.Join(dir, "nope.png"), real))
	assert.Zero(t, VisualScore(real, filepath.Join(dir, "nope.png")))
	assert.Zero(t, VisualScore(filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")))
}

func TestVisualScoreUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	real := writeTestImage(t, dir, "real.png",
		color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 128, 255})
	garbage := filepath.Join(dir, "garbage.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not a png"), 0o644))

	assert.Zero(t, VisualScore(garbage, real))
}

func TestVisualScoreIdenticalImages(t *testing.T) {
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png",
		color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 128, 255})
	b := writeTestImage(t, dir, "b.png",
		color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 128, 255})

	assert.InDelta(t, 100, VisualScore(a, b), 0.5)
}

func TestVisualScoreDifferentImages(t *testing.T) {
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png",
		color.RGBA{255, 255, 255, 255}, color.RGBA{0, 0, 128, 255})
	b := writeTestImage(t, dir, "b.png",
		color.RGBA{10, 200, 10, 255}, color.RGBA{200, 10, 10, 255})

	same := VisualScore(a, a)
	diff := VisualScore(a, b)
	assert.Less(t, diff, same)
	assert.GreaterOrEqual(t, diff, 0.0)
	assert.LessOrEqual(t, diff, 100.0)
}

package similarity

import (
	"image"
	"math"
	"os"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"

	_ "image/jpeg"
	_ "image/png"
)

const (
	histogramSize = 500 // both frames are resized to histogramSize^2 before binning
	histogramBins = 8   // bins per RGB channel
	maxHashBits   = 64
)

// VisualScore returns the visual similarity (0-100) between two screenshot
// files: the mean of an average-hash distance score and a 3-D color
// histogram correlation. It returns 0, never an error, when either image is
// missing or unreadable.
func VisualScore(candidatePath, referencePath string) float64 {
	candidate, ok := loadImage(candidatePath)
	if !ok {
		return 0
	}
	reference, ok := loadImage(referencePath)
	if !ok {
		return 0
	}

	hashScore, ok := hashSimilarity(candidate, reference)
	if !ok {
		return 0
	}
	histScore := histogramSimilarity(candidate, reference)

	score := (hashScore + histScore) / 2
	return math.Max(0, math.Min(100, score))
}

func loadImage(path string) (image.Image, bool) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, false
	}
	return img, true
}

func hashSimilarity(a, b image.Image) (float64, bool) {
	hashA, err := goimagehash.AverageHash(a)
	if err != nil {
		return 0, false
	}
	hashB, err := goimagehash.AverageHash(b)
	if err != nil {
		return 0, false
	}
	distance, err := hashA.Distance(hashB)
	if err != nil {
		return 0, false
	}
	return 100 - float64(distance)*100/maxHashBits, true
}

// histogramSimilarity bins both frames into an 8x8x8 RGB histogram at a
// common resolution and returns their Pearson correlation scaled to 0-100.
func histogramSimilarity(a, b image.Image) float64 {
	histA := colorHistogram(resize(a))
	histB := colorHistogram(resize(b))
	return correlation(histA, histB) * 100
}

func resize(img image.Image) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, histogramSize, histogramSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func colorHistogram(img *image.RGBA) []float64 {
	hist := make([]float64, histogramBins*histogramBins*histogramBins)
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := img.PixOffset(x, y)
			r := int(img.Pix[i]) * histogramBins / 256
			g := int(img.Pix[i+1]) * histogramBins / 256
			bl := int(img.Pix[i+2]) * histogramBins / 256
			hist[(r*histogramBins+g)*histogramBins+bl]++
		}
	}
	// L2 normalization so frame size does not weight the correlation.
	var norm float64
	for _, v := range hist {
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range hist {
			hist[i] /= norm
		}
	}
	return hist
}

func correlation(a, b []float64) float64 {
	n := float64(len(a))
	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Advisory thresholds; a photo failing them is still processed.
const (
	minBlurScore  = 100
	minBrightness = 0.3
	maxGlare      = 0.2
)

// Quality summarizes how usable a photo is for recognition.
type Quality struct {
	Blur       float64  `json:"blur"`
	Brightness float64  `json:"brightness"`
	Glare      float64  `json:"glare"`
	Issues     []string `json:"issues,omitempty"`
}

// AssessQuality scores blur (variance of the Laplacian), mean brightness and the
// ratio of overexposed pixels.
func AssessQuality(img image.Image) Quality {
	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return Quality{}
	}
	lum := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x*4]) / 255
	}

	var sum, glare float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := lum(x, y)
			sum += v
			if v > 0.95 {
				glare++
			}
		}
	}
	total := float64(w * h)

	var lsum, lsq, n float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			l := -4*lum(x, y) + lum(x-1, y) + lum(x+1, y) + lum(x, y-1) + lum(x, y+1)
			lsum += l
			lsq += l * l
			n++
		}
	}
	var blur float64
	if n > 0 {
		mean := lsum / n
		blur = ((lsq / n) - mean*mean) * 100000
	}

	q := Quality{Blur: blur, Brightness: sum / total, Glare: glare / total}
	if q.Blur < minBlurScore {
		q.Issues = append(q.Issues, "image is blurry")
	}
	if q.Brightness < minBrightness {
		q.Issues = append(q.Issues, "image is too dark")
	}
	if q.Glare > maxGlare {
		q.Issues = append(q.Issues, "image has glare")
	}
	return q
}

package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Filter and remap constants tuned for the laminated Nepal smart-card license.
const (
	filterContrast   = 2.2
	filterBrightness = 1.4
	filterSaturation = 0.5
	filterBlurSigma  = 0.5

	holoDelta       = 40  // blue/green above red by this much is background tint
	holoWhiteBlend  = 0.75
	darkThreshold   = 100 // average luminance below this is text
	darkFactor      = 0.5
	brightThreshold = 180 // average luminance above this is background

	outputJPEGQuality = 95
)

// sharpenKernel counteracts the blur of the filter pass.
var sharpenKernel = [9]float64{
	0, -1, 0,
	-1, 6, -1,
	0, -1, 0,
}

// Preprocess enhances a photographed license for recognition and re-encodes it
// in the input's format. It fails with ErrImageDecode when the bytes are not an
// image and with ErrImageProcessing when the result cannot be encoded.
func Preprocess(in Image) (Image, error) {
	img, format, err := decodeImage(in.Data)
	if err != nil {
		return Image{}, err
	}
	return encodeImage(enhance(img), format)
}

// encodeImage writes img in the encoder matching the decoded format name.
func encodeImage(img image.Image, format string) (Image, error) {
	encFormat, mime := outputFormat(format)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, encFormat, imaging.JPEGQuality(outputJPEGQuality)); err != nil {
		return Image{}, fmt.Errorf("%w: encode %s: %v", ErrImageProcessing, mime, err)
	}
	return Image{Data: buf.Bytes(), MIMEType: mime}, nil
}

// decodeImage returns the decoded image and the registered format name (jpeg, png, webp, ...).
func decodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty input", ErrImageDecode)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return img, format, nil
}

// enhance runs the filter pass, the per-pixel remap and the sharpening convolution.
func enhance(img image.Image) *image.NRGBA {
	out := imaging.AdjustFunc(img, filterPixel)
	out = imaging.Blur(out, filterBlurSigma)
	out = imaging.AdjustFunc(out, remapPixel)
	return imaging.Convolve3x3(out, sharpenKernel, &imaging.ConvolveOptions{Normalize: true})
}

// filterPixel applies contrast, brightness and saturation with CSS filter semantics.
func filterPixel(c color.NRGBA) color.NRGBA {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	r, g, b = contrast(r), contrast(g), contrast(b)
	r, g, b = clamp01(r*filterBrightness), clamp01(g*filterBrightness), clamp01(b*filterBrightness)

	s := filterSaturation
	nr := (0.213+0.787*s)*r + (0.715-0.715*s)*g + (0.072-0.072*s)*b
	ng := (0.213-0.213*s)*r + (0.715+0.285*s)*g + (0.072-0.072*s)*b
	nb := (0.213-0.213*s)*r + (0.715-0.715*s)*g + (0.072+0.928*s)*b

	return color.NRGBA{R: to8(nr), G: to8(ng), B: to8(nb), A: c.A}
}

func contrast(v float64) float64 { return clamp01((v-0.5)*filterContrast + 0.5) }

// remapPixel suppresses the holographic tint, reinforces text and flattens the background.
func remapPixel(c color.NRGBA) color.NRGBA {
	r, g, b := int(c.R), int(c.G), int(c.B)
	if b >= r+holoDelta || g >= r+holoDelta {
		blend := func(v int) uint8 { return uint8(float64(v) + (255-float64(v))*holoWhiteBlend) }
		return color.NRGBA{R: blend(r), G: blend(g), B: blend(b), A: c.A}
	}
	avg := (r + g + b) / 3
	switch {
	case avg < darkThreshold:
		return color.NRGBA{R: uint8(float64(r) * darkFactor), G: uint8(float64(g) * darkFactor), B: uint8(float64(b) * darkFactor), A: c.A}
	case avg > brightThreshold:
		return color.NRGBA{R: 255, G: 255, B: 255, A: c.A}
	}
	return c
}

// outputFormat maps a decoded format name to the encoder and MIME type used for output.
// Formats imaging cannot encode (webp) fall back to PNG.
func outputFormat(name string) (imaging.Format, string) {
	f, err := imaging.FormatFromExtension(name)
	if err != nil {
		return imaging.PNG, "image/png"
	}
	switch f {
	case imaging.JPEG:
		return f, "image/jpeg"
	case imaging.GIF:
		return f, "image/gif"
	case imaging.BMP:
		return f, "image/bmp"
	case imaging.TIFF:
		return f, "image/tiff"
	}
	return imaging.PNG, "image/png"
}

// mimeFormatName returns the short format name of a MIME type ("image/jpeg" -> "jpeg").
func mimeFormatName(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimPrefix(mime, "image/")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 { return uint8(clamp01(v)*255 + 0.5) }

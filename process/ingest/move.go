package ingest

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// MoveToProcessed moves src into dir. Files larger than maxBytes are
// downscaled on the way; anything that cannot be decoded is moved as is.
func MoveToProcessed(src, dir string, maxBytes int64) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	dst := filepath.Join(dir, filepath.Base(src))

	fi, err := os.Stat(src)
	if err != nil {
		return err
	}
	if fi.Size() <= maxBytes {
		return moveFile(src, dst)
	}
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return moveFile(src, dst)
	}
	// size scales roughly with area
	scale := math.Sqrt(float64(maxBytes) / float64(fi.Size()))
	scale = math.Max(0.1, math.Min(scale, 0.95))
	w := int(math.Max(1, math.Round(float64(img.Bounds().Dx())*scale)))
	img = imaging.Resize(img, w, 0, imaging.Lanczos)
	if err := imaging.Save(img, dst, imaging.JPEGQuality(85)); err != nil {
		return moveFile(src, dst)
	}
	return os.Remove(src)
}

// moveFile renames, falling back to copy and remove across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

package ingest

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlscan/models"
	"dlscan/pkg/ocr"
)

const cardText = "D.L. No: 03-06-041605052\nName: Sita Kumari Rai\nB.G: O+"

type textEngine struct{ text string }

func (e textEngine) Configure(ocr.Profile) error { return nil }
func (e textEngine) Recognize(context.Context, []byte) (ocr.RecognitionResult, error) {
	return ocr.RecognitionResult{Text: e.text, Confidence: 0.9}, nil
}
func (e textEngine) Close() error { return nil }

func testExtractor(text string) *ocr.Extractor {
	return ocr.NewExtractor(ocr.WithEngineFactory(func() (ocr.Engine, error) {
		return textEngine{text: text}, nil
	}))
}

// writeCard saves a small image whose shade makes its bytes unique.
func writeCard(t *testing.T, dir, name string, shade uint8) {
	t.Helper()
	img := imaging.New(64, 40, color.NRGBA{shade, shade, shade, 255})
	require.NoError(t, imaging.Save(img, filepath.Join(dir, name)))
}

type collector struct {
	mu  sync.Mutex
	out []Result
}

func (c *collector) add(r Result) {
	c.mu.Lock()
	c.out = append(c.out, r)
	c.mu.Unlock()
}

func TestIsSupportedExt(t *testing.T) {
	for name, want := range map[string]bool{
		"card.jpg":         true,
		"CARD.JPEG":        true,
		"card.png":         true,
		"card.webp":        true,
		"card.preproc.png": false,
		".hidden.png":      false,
		"notes.txt":        false,
		"scan":             false,
	} {
		assert.Equal(t, want, IsSupportedExt(name), name)
	}
}

func TestRunDryRun(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "a.png", 200)
	writeCard(t, dir, "b.png", 180)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0o644))

	files, err := ListImageFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.png"}, files)

	var c collector
	in := New(nil, testExtractor(cardText), Options{Dir: dir, Workers: 2, DryRun: true}, c.add)
	require.NoError(t, in.Preload())
	in.Run(context.Background(), files)

	require.Len(t, c.out, 2)
	for _, r := range c.out {
		require.NoError(t, r.Err)
		assert.Equal(t, models.ScanSuccess, r.State)
		assert.Equal(t, "03-06-041605052", r.Record.LicenseNumber)
		assert.Equal(t, "O+", r.Record.BloodGroup)
	}
	// dry-run leaves the inbox alone
	_, err = os.Stat(filepath.Join(dir, "a.png"))
	assert.NoError(t, err)
}

func TestRunSkipsDuplicatePhotos(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "one.png", 128)
	writeCard(t, dir, "two.png", 128)

	var c collector
	in := New(nil, testExtractor(cardText), Options{Dir: dir, Workers: 4, DryRun: true}, c.add)
	in.Run(context.Background(), []string{"one.png", "two.png"})

	require.Len(t, c.out, 2)
	skipped := 0
	for _, r := range c.out {
		if r.Skipped {
			skipped++
		}
	}
	assert.Equal(t, 1, skipped)
}

func TestProcessFileStates(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "blank.png", 255)
	writeCard(t, dir, "broken.png", 10)

	in := New(nil, testExtractor(""), Options{Dir: dir, DryRun: true}, nil)
	r := in.ProcessFile(context.Background(), "blank.png")
	assert.Equal(t, models.ScanEmpty, r.State)
	assert.True(t, r.Record.Empty())

	failing := ocr.NewExtractor(ocr.WithEngineFactory(func() (ocr.Engine, error) {
		return nil, errors.New("tesseract missing")
	}))
	in = New(nil, failing, Options{Dir: dir, DryRun: true}, nil)
	r = in.ProcessFile(context.Background(), "broken.png")
	assert.Equal(t, models.ScanFailed, r.State)
	assert.ErrorIs(t, r.Err, ocr.ErrRecognition)

	r = in.ProcessFile(context.Background(), "missing.png")
	assert.Equal(t, models.ScanFailed, r.State)
	assert.Error(t, r.Err)
}

func TestMoveToProcessedSmallFile(t *testing.T) {
	dir := t.TempDir()
	writeCard(t, dir, "small.png", 90)
	dst := filepath.Join(dir, "processed")

	require.NoError(t, MoveToProcessed(filepath.Join(dir, "small.png"), dst, 1_000_000))
	_, err := os.Stat(filepath.Join(dir, "small.png"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dst, "small.png"))
	assert.NoError(t, err)
}

func TestMoveToProcessedDownscalesLargeFile(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, 300, 200))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	src := filepath.Join(dir, "noisy.png")
	require.NoError(t, imaging.Save(img, src))

	dst := filepath.Join(dir, "processed")
	require.NoError(t, MoveToProcessed(src, dst, 20_000))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))
	out, err := imaging.Open(filepath.Join(dst, "noisy.png"))
	require.NoError(t, err)
	assert.Less(t, out.Bounds().Dx(), 300)
}

func TestWatchPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	results := make(chan Result, 4)
	in := New(nil, testExtractor(cardText), Options{Dir: dir, Workers: 1, DryRun: true}, func(r Result) { results <- r })

	ctx, cancel := context.WithCancel(context.Background())
	watchErr := make(chan error, 1)
	go func() { watchErr <- in.Watch(ctx) }()
	time.Sleep(200 * time.Millisecond)

	writeCard(t, dir, "new.png", 70)
	select {
	case r := <-results:
		assert.Equal(t, "new.png", r.File)
		assert.Equal(t, models.ScanSuccess, r.State)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not process the new file")
	}
	cancel()
	select {
	case err := <-watchErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

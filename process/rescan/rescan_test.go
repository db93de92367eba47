package rescan

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"sync/atomic"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dlscan/pkg/ocr"
)

// secondTryEngine reads nothing until its extraction number reaches after.
type secondTryEngine struct {
	after int32
	n     int32
}

func (e *secondTryEngine) Configure(ocr.Profile) error { return nil }
func (e *secondTryEngine) Recognize(context.Context, []byte) (ocr.RecognitionResult, error) {
	if e.n < e.after {
		return ocr.RecognitionResult{Confidence: 0.3}, nil
	}
	return ocr.RecognitionResult{Text: "D.L. No: 03-06-041605052", Confidence: 0.9}, nil
}
func (e *secondTryEngine) Close() error { return nil }

func extractorReadingFrom(after int32) *ocr.Extractor {
	var calls atomic.Int32
	return ocr.NewExtractor(ocr.WithEngineFactory(func() (ocr.Engine, error) {
		n := calls.Add(1)
		return &secondTryEngine{after: after, n: n}, nil
	}))
}

func photo(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, imaging.New(80, 50, color.NRGBA{230, 230, 230, 255})))
	return buf.Bytes()
}

func TestRetryFirstAttemptWins(t *testing.T) {
	rep, boosted, err := Retry(context.Background(), extractorReadingFrom(1), photo(t), "image/png")
	require.NoError(t, err)
	assert.False(t, boosted)
	assert.Equal(t, "03-06-041605052", rep.Record.LicenseNumber)
}

func TestRetryUsesAggressiveVariant(t *testing.T) {
	rep, boosted, err := Retry(context.Background(), extractorReadingFrom(2), photo(t), "image/png")
	require.NoError(t, err)
	assert.True(t, boosted)
	assert.Equal(t, "03-06-041605052", rep.Record.LicenseNumber)
}

func TestRetryStillEmpty(t *testing.T) {
	rep, boosted, err := Retry(context.Background(), extractorReadingFrom(99), photo(t), "image/png")
	require.NoError(t, err)
	assert.False(t, boosted)
	assert.True(t, rep.Record.Empty())
}

func TestRetryUndecodable(t *testing.T) {
	_, _, err := Retry(context.Background(), extractorReadingFrom(1), []byte("not an image"), "image/png")
	assert.ErrorIs(t, err, ocr.ErrImageDecode)
}

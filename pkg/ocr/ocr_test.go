package ocr

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blankImage(t *testing.T) Image {
	return Image{Data: encodeTestImage(t, imaging.New(200, 100, color.White), imaging.PNG), MIMEType: "image/png"}
}

func TestExtractBlankImageIsEmptyNotError(t *testing.T) {
	eng := newFakeEngine()
	x := NewExtractor(WithEngineFactory(eng.factory()))

	rep, err := x.Extract(context.Background(), blankImage(t), nil)
	require.NoError(t, err)
	assert.True(t, rep.Record.Empty())
	assert.Empty(t, rep.Record.IssuingAuthority)
	assert.True(t, errors.Is(rep.Err(), ErrNoDataExtracted))
	assert.True(t, rep.Preprocessed)
	require.NotNil(t, rep.Quality)
	assert.Equal(t, 1, eng.closed)
}

func TestExtractGracefulDegradation(t *testing.T) {
	eng := newFakeEngine()
	eng.errs["block"] = errEngine
	eng.errs["word"] = errEngine
	eng.results["line"] = RecognitionResult{Text: "D.L. No: 03-06-041605052", Confidence: 0.7}
	x := NewExtractor(WithEngineFactory(eng.factory()))

	rep, err := x.Extract(context.Background(), blankImage(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "03-06-041605052", rep.Record.LicenseNumber)
	assert.Equal(t, DefaultAuthority, rep.Record.IssuingAuthority)
	assert.Equal(t, "pattern", rep.Sources[FieldLicenseNumber])
	assert.Equal(t, "default", rep.Sources[FieldIssuingAuthority])
	require.Len(t, rep.Passes, 1)
	assert.True(t, rep.LowConfidence())
	assert.NoError(t, rep.Err())
	assert.Equal(t, 1, eng.closed)
}

func TestExtractAllPassesFail(t *testing.T) {
	eng := newFakeEngine()
	for _, p := range DefaultProfiles {
		eng.errs[p.Name] = errEngine
	}
	x := NewExtractor(WithEngineFactory(eng.factory()))

	_, err := x.Extract(context.Background(), blankImage(t), nil)
	assert.True(t, errors.Is(err, ErrRecognition))
	assert.Equal(t, 1, eng.closed)
}

func TestExtractEngineUnavailable(t *testing.T) {
	x := NewExtractor(WithEngineFactory(func() (Engine, error) { return nil, errEngine }))
	_, err := x.Extract(context.Background(), blankImage(t), nil)
	assert.True(t, errors.Is(err, ErrRecognition))
	assert.True(t, errors.Is(err, errEngine))
}

func TestExtractUndecodableImage(t *testing.T) {
	acquired := false
	x := NewExtractor(WithEngineFactory(func() (Engine, error) {
		acquired = true
		return newFakeEngine(), nil
	}))
	_, err := x.Extract(context.Background(), Image{Data: []byte("%PDF-1.4"), MIMEType: "application/pdf"}, nil)
	assert.True(t, errors.Is(err, ErrImageDecode))
	assert.False(t, acquired)
}

func TestExtractWithoutPreprocessingPassesBytesThrough(t *testing.T) {
	eng := newFakeEngine()
	eng.results["block"] = RecognitionResult{Text: sampleCard, Confidence: 0.9}
	x := NewExtractor(WithEngineFactory(eng.factory()), WithoutPreprocessing(), WithDefaultAuthority(""))

	rep, err := x.Extract(context.Background(), Image{Data: []byte("raw bytes")}, nil)
	require.NoError(t, err)
	assert.False(t, rep.Preprocessed)
	assert.Nil(t, rep.Quality)
	assert.Equal(t, "RAM BAHADUR THAPA", rep.Record.HolderName)
	assert.Equal(t, "DEPARTMENT OF TRANSPORT MANAGEMENT", rep.Record.IssuingAuthority)
}

func TestExtractProgressStages(t *testing.T) {
	var stages []string
	x := NewExtractor(WithEngineFactory(newFakeEngine().factory()))
	_, err := x.Extract(context.Background(), blankImage(t), func(s string) { stages = append(stages, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{
		"preprocessing",
		"recognizing pass 1/3",
		"recognizing pass 2/3",
		"recognizing pass 3/3",
		"extracting fields",
		"validating",
	}, stages)
}

func TestExtractIsIdempotent(t *testing.T) {
	eng := newFakeEngine()
	eng.results["block"] = RecognitionResult{Text: sampleCard, Confidence: 0.9}
	eng.results["line"] = RecognitionResult{Text: "NEPAL 21-02-2028", Confidence: 0.4}
	x := NewExtractor(WithEngineFactory(eng.factory()))

	first, err := x.ExtractLicenseData(context.Background(), blankImage(t), nil)
	require.NoError(t, err)
	second, err := x.ExtractLicenseData(context.Background(), blankImage(t), nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, "03-06-041605052", first.LicenseNumber)
	assert.Equal(t, 2, eng.closed)
}

func TestExtractStrategyPanicIsContained(t *testing.T) {
	eng := newFakeEngine()
	eng.results["block"] = RecognitionResult{Text: "Category: B", Confidence: 0.9}
	boom := NewStrategy("boom", func([]RecognitionResult) LicenseRecord { panic("boom") })
	x := NewExtractor(
		WithEngineFactory(eng.factory()),
		WithStrategies(boom, NewStrategy("pattern", extractPatterns)),
		WithProfiles(Profile{Name: "block", Mode: SegBlock}),
	)

	rep, err := x.Extract(context.Background(), blankImage(t), nil)
	require.NoError(t, err)
	assert.Equal(t, "B", rep.Record.Category)
	assert.Equal(t, "pattern", rep.Sources[FieldCategory])
}

func TestExtractCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := newFakeEngine()
	x := NewExtractor(WithEngineFactory(eng.factory()))

	_, err := x.Extract(ctx, blankImage(t), nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, eng.closed)
}

func TestReportLowConfidence(t *testing.T) {
	assert.True(t, (&Report{}).LowConfidence())
	assert.False(t, (&Report{Passes: []PassSummary{{Confidence: 0.9}, {Confidence: 0.86}}}).LowConfidence())
	assert.True(t, (&Report{Passes: []PassSummary{{Confidence: 0.9}, {Confidence: 0.5}}}).LowConfidence())
}

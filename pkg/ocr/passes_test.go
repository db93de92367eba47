package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecognitionPassesSkipsFailures(t *testing.T) {
	eng := newFakeEngine()
	eng.errs["block"] = errEngine
	eng.panics["word"] = true
	eng.results["line"] = RecognitionResult{Text: "D.L. No: 03-06-041605052", Confidence: 0.6}

	res, err := runRecognitionPasses(context.Background(), eng, []byte("img"), DefaultProfiles, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "line", res[0].Profile)
	assert.Equal(t, []string{"block", "word", "line"}, eng.configured)
}

func TestRunRecognitionPassesAllFail(t *testing.T) {
	eng := newFakeEngine()
	for _, p := range DefaultProfiles {
		eng.errs[p.Name] = errEngine
	}
	_, err := runRecognitionPasses(context.Background(), eng, []byte("img"), DefaultProfiles, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecognition))
	assert.True(t, errors.Is(err, errEngine))
}

func TestRunRecognitionPassesNoProfiles(t *testing.T) {
	_, err := runRecognitionPasses(context.Background(), newFakeEngine(), nil, nil, nil)
	assert.True(t, errors.Is(err, ErrRecognition))
}

func TestRunRecognitionPassesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eng := newFakeEngine()
	_, err := runRecognitionPasses(ctx, eng, nil, DefaultProfiles, nil)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, eng.configured)
}

func TestRunRecognitionPassesReportsProgress(t *testing.T) {
	var stages []string
	eng := newFakeEngine()
	_, err := runRecognitionPasses(context.Background(), eng, nil, DefaultProfiles, func(s string) { stages = append(stages, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"recognizing pass 1/3", "recognizing pass 2/3", "recognizing pass 3/3"}, stages)
}

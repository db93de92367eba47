package ocr

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// runRecognitionPasses runs every profile against the same image, one after the
// other on one engine. A failing profile is skipped; the call fails only when
// no profile produced a result.
func runRecognitionPasses(ctx context.Context, eng Engine, img []byte, profiles []Profile, progress ProgressFunc) ([]RecognitionResult, error) {
	var (
		out  []RecognitionResult
		errs []error
	)
	for i, p := range profiles {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		progress.report(fmt.Sprintf("recognizing pass %d/%d", i+1, len(profiles)))

		res, err := runPass(ctx, eng, img, p)
		if err != nil {
			log.Warn().Err(err).Str("profile", p.Name).Msg("OCR pass failed")
			errs = append(errs, fmt.Errorf("profile %s: %w", p.Name, err))
			continue
		}
		log.Debug().
			Str("profile", p.Name).
			Float64("confidence", res.Confidence).
			Int("words", len(res.Words)).
			Int("lines", len(res.Lines)).
			Str("snippet", snippet(res.Text, 160)).
			Msg("OCR pass done")
		out = append(out, res)
	}
	if len(out) == 0 {
		if len(errs) == 0 {
			errs = append(errs, errors.New("no recognition profiles configured"))
		}
		return nil, fmt.Errorf("%w: %w", ErrRecognition, errors.Join(errs...))
	}
	log.Debug().Int("passes", len(out)).Int("failed", len(errs)).Msg("OCR passes summary")
	return out, nil
}

// runPass configures and runs one profile, turning an engine panic into an error.
func runPass(ctx context.Context, eng Engine, img []byte, p Profile) (res RecognitionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	if err := eng.Configure(p); err != nil {
		return RecognitionResult{}, fmt.Errorf("configure: %w", err)
	}
	res, err = eng.Recognize(ctx, img)
	if err != nil {
		return RecognitionResult{}, err
	}
	if res.Profile == "" {
		res.Profile = p.Name
	}
	return res, nil
}

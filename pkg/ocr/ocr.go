package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultAuthority is reported as the issuing authority when the card does not
// print a readable one.
const DefaultAuthority = "Department of Transport Management"

// lowConfidence is the pass confidence below which a result needs extra review.
const lowConfidence = 0.85

// ProgressFunc receives a short label for every pipeline stage. It may be nil.
type ProgressFunc func(stage string)

func (p ProgressFunc) report(stage string) {
	if p != nil {
		p(stage)
	}
}

// PassSummary describes one successful recognition pass.
type PassSummary struct {
	Profile    string  `json:"profile"`
	Confidence float64 `json:"confidence"`
	Words      int     `json:"words"`
	Lines      int     `json:"lines"`
	Snippet    string  `json:"snippet"`
}

// Report is the outcome of one extraction.
type Report struct {
	Record       LicenseRecord    `json:"record"`
	Sources      map[Field]string `json:"sources,omitempty"`
	Dropped      []Field          `json:"dropped,omitempty"`
	Passes       []PassSummary    `json:"passes"`
	Quality      *Quality         `json:"quality,omitempty"`
	Preprocessed bool             `json:"preprocessed"`
	Duration     time.Duration    `json:"duration"`
}

// LowConfidence reports whether any pass fell below the review threshold.
// Extracted data always needs human verification; this only flags photos
// that deserve a closer look.
func (r *Report) LowConfidence() bool {
	if len(r.Passes) == 0 {
		return true
	}
	for _, p := range r.Passes {
		if p.Confidence < lowConfidence {
			return true
		}
	}
	return false
}

// Err returns ErrNoDataExtracted when nothing usable was found.
func (r *Report) Err() error {
	if r.Record.Empty() {
		return ErrNoDataExtracted
	}
	return nil
}

// Extractor runs the extraction pipeline. It holds configuration only and is
// safe for concurrent use; every call acquires its own engine.
type Extractor struct {
	factory    EngineFactory
	profiles   []Profile
	strategies []Strategy
	preprocess bool
	authority  string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithEngineFactory sets how engines are acquired.
func WithEngineFactory(f EngineFactory) Option {
	return func(x *Extractor) { x.factory = f }
}

// WithProfiles replaces the recognition profiles.
func WithProfiles(p ...Profile) Option {
	return func(x *Extractor) { x.profiles = p }
}

// WithStrategies replaces the extraction strategies; order is merge priority.
func WithStrategies(s ...Strategy) Option {
	return func(x *Extractor) { x.strategies = s }
}

// WithoutPreprocessing sends the uploaded bytes to the engine unchanged.
func WithoutPreprocessing() Option {
	return func(x *Extractor) { x.preprocess = false }
}

// WithDefaultAuthority sets the fallback issuing authority; "" disables it.
func WithDefaultAuthority(a string) Option {
	return func(x *Extractor) { x.authority = a }
}

// NewExtractor returns an Extractor using Tesseract with English data unless
// options say otherwise.
func NewExtractor(opts ...Option) *Extractor {
	x := &Extractor{
		factory:    TesseractFactory(TesseractOptions{}),
		profiles:   DefaultProfiles,
		strategies: DefaultStrategies(),
		preprocess: true,
		authority:  DefaultAuthority,
	}
	for _, o := range opts {
		o(x)
	}
	return x
}

// Extract preprocesses the image, runs every recognition profile, applies the
// strategies, merges and validates. An unreadable photo is not an error: the
// report then carries an empty record.
func (x *Extractor) Extract(ctx context.Context, in Image, progress ProgressFunc) (*Report, error) {
	start := time.Now()
	rep := &Report{}

	data := in.Data
	if x.preprocess {
		progress.report("preprocessing")
		img, format, err := decodeImage(in.Data)
		if err != nil {
			return nil, err
		}
		if declared := mimeFormatName(in.MIMEType); declared != "" && declared != format {
			log.Debug().Str("declared", in.MIMEType).Str("decoded", format).Msg("image type differs from upload")
		}
		q := AssessQuality(img)
		rep.Quality = &q
		if len(q.Issues) > 0 {
			log.Info().Strs("issues", q.Issues).Msg("photo quality is poor")
		}
		out, err := encodeImage(enhance(img), format)
		if err != nil {
			log.Warn().Err(err).Msg("preprocessing failed; using original image")
		} else {
			data = out.Data
			rep.Preprocessed = true
		}
	}

	eng, err := x.factory()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire engine: %w", ErrRecognition, err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			log.Warn().Err(err).Msg("close OCR engine")
		}
	}()

	results, err := runRecognitionPasses(ctx, eng, data, x.profiles, progress)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		rep.Passes = append(rep.Passes, PassSummary{
			Profile:    r.Profile,
			Confidence: r.Confidence,
			Words:      len(r.Words),
			Lines:      len(r.Lines),
			Snippet:    snippet(r.Text, 120),
		})
	}

	progress.report("extracting fields")
	merged, sources := Merge(runStrategies(results, x.strategies))

	progress.report("validating")
	rec, dropped := Validate(merged)
	for _, f := range dropped {
		delete(sources, f)
	}
	if !rec.Empty() && x.authority != "" && rec.setIfEmpty(FieldIssuingAuthority, x.authority) {
		sources[FieldIssuingAuthority] = "default"
	}

	rep.Record = rec
	rep.Sources = sources
	rep.Dropped = dropped
	rep.Duration = time.Since(start)
	log.Info().
		Int("fields", rec.Count()).
		Int("dropped", len(dropped)).
		Int("passes", len(results)).
		Dur("took", rep.Duration).
		Msg("license extraction done")
	return rep, nil
}

// ExtractLicenseData returns only the validated record.
func (x *Extractor) ExtractLicenseData(ctx context.Context, in Image, progress ProgressFunc) (LicenseRecord, error) {
	rep, err := x.Extract(ctx, in, progress)
	if err != nil {
		return LicenseRecord{}, err
	}
	return rep.Record, nil
}

var defaultExtractor = NewExtractor()

// ExtractLicenseData runs the default Tesseract extractor.
func ExtractLicenseData(ctx context.Context, in Image, progress ProgressFunc) (LicenseRecord, error) {
	return defaultExtractor.ExtractLicenseData(ctx, in, progress)
}

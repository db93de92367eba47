package ocr

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Strategy turns recognition results into a partial record. Implementations
// must not keep state between calls.
type Strategy interface {
	Name() string
	Extract(results []RecognitionResult) LicenseRecord
}

// StrategyFunc adapts a plain function to Strategy through NewStrategy.
type StrategyFunc func(results []RecognitionResult) LicenseRecord

type namedStrategy struct {
	name string
	fn   StrategyFunc
}

func (s namedStrategy) Name() string { return s.name }

func (s namedStrategy) Extract(results []RecognitionResult) LicenseRecord { return s.fn(results) }

// NewStrategy names fn as a Strategy.
func NewStrategy(name string, fn StrategyFunc) Strategy {
	return namedStrategy{name: name, fn: fn}
}

// DefaultStrategies returns the built-in strategies in merge priority order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewStrategy("pattern", extractPatterns),
		NewStrategy("contextual", extractContextual),
		NewStrategy("lines", extractLines),
		NewStrategy("words", extractWords),
	}
}

// StrategyOutput is the record produced by one strategy.
type StrategyOutput struct {
	Strategy string        `json:"strategy"`
	Record   LicenseRecord `json:"record"`
}

// runStrategies runs every strategy in order. A panicking strategy contributes
// an empty record.
func runStrategies(results []RecognitionResult, strategies []Strategy) []StrategyOutput {
	out := make([]StrategyOutput, 0, len(strategies))
	for _, s := range strategies {
		rec, err := runStrategy(s, results)
		if err != nil {
			log.Warn().Err(err).Str("strategy", s.Name()).Msg("extraction strategy failed")
		}
		log.Debug().Str("strategy", s.Name()).Int("fields", rec.Count()).Msg("strategy done")
		out = append(out, StrategyOutput{Strategy: s.Name(), Record: rec})
	}
	return out
}

func runStrategy(s Strategy, results []RecognitionResult) (rec LicenseRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec = LicenseRecord{}
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()
	return s.Extract(results), nil
}

// combinedText joins every pass's text in profile order and normalizes it.
func combinedText(results []RecognitionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if t := strings.TrimSpace(r.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return normalizeOCRText(strings.Join(parts, "\n"))
}

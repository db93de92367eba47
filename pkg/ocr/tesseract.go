package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine with a gosseract client.
type TesseractEngine struct {
	client  *gosseract.Client
	langs   []string
	profile Profile
}

// TesseractOptions configure the engine; zero values use "eng" and the system tessdata.
// Including "nep" also lets the passes read Devanagari.
type TesseractOptions struct {
	Languages      []string
	TessdataPrefix string
}

// NewTesseractEngine creates a client with the given languages.
func NewTesseractEngine(opts TesseractOptions) (*TesseractEngine, error) {
	client := gosseract.NewClient()
	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	langs := opts.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("set languages %v: %w", langs, err)
	}
	return &TesseractEngine{client: client, langs: langs}, nil
}

// TesseractFactory returns an EngineFactory creating one client per extraction.
func TesseractFactory(opts TesseractOptions) EngineFactory {
	return func() (Engine, error) {
		return NewTesseractEngine(opts)
	}
}

// devanagari is the whole Devanagari block, letters, signs and digits.
var devanagari = func() string {
	var b strings.Builder
	for r := rune(0x0900); r <= 0x097F; r++ {
		b.WriteRune(r)
	}
	return b.String()
}()

// whitelistFor adds Devanagari to a profile's whitelist when Nepali is loaded,
// so the Nepali labels can be recognized. An empty whitelist stays empty.
func whitelistFor(p Profile, langs []string) string {
	if p.Whitelist == "" {
		return ""
	}
	for _, l := range langs {
		if l == "nep" {
			return p.Whitelist + devanagari
		}
	}
	return p.Whitelist
}

func psmFor(m SegMode) gosseract.PageSegMode {
	switch m {
	case SegWord:
		return gosseract.PSM_SINGLE_WORD
	case SegLine:
		return gosseract.PSM_SINGLE_LINE
	}
	return gosseract.PSM_SINGLE_BLOCK
}

// Configure applies a profile to the client.
func (e *TesseractEngine) Configure(p Profile) error {
	if err := e.client.SetPageSegMode(psmFor(p.Mode)); err != nil {
		return fmt.Errorf("set page seg mode %s: %w", p.Mode, err)
	}
	if err := e.client.SetWhitelist(whitelistFor(p, e.langs)); err != nil {
		return fmt.Errorf("set whitelist: %w", err)
	}
	spaces := "0"
	if p.PreserveSpaces {
		spaces = "1"
	}
	if err := e.client.SetVariable("preserve_interword_spaces", spaces); err != nil {
		return fmt.Errorf("set preserve_interword_spaces: %w", err)
	}
	e.profile = p
	return nil
}

// Recognize runs the configured profile over the encoded image.
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte) (RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return RecognitionResult{}, err
	}
	if err := e.client.SetImageFromBytes(img); err != nil {
		return RecognitionResult{}, fmt.Errorf("set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return RecognitionResult{}, fmt.Errorf("recognize text: %w", err)
	}
	words, conf := e.tokens(gosseract.RIL_WORD)
	lines, _ := e.tokens(gosseract.RIL_TEXTLINE)
	return RecognitionResult{
		Profile:    e.profile.Name,
		Text:       strings.TrimSpace(text),
		Words:      words,
		Lines:      lines,
		Confidence: conf,
	}, nil
}

// tokens returns the boxes at level and their mean confidence (0..1).
func (e *TesseractEngine) tokens(level gosseract.PageIteratorLevel) ([]Token, float64) {
	boxes, err := e.client.GetBoundingBoxes(level)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}
	out := make([]Token, 0, len(boxes))
	var sum float64
	for _, b := range boxes {
		t := strings.TrimSpace(b.Word)
		if t == "" {
			continue
		}
		conf := b.Confidence / 100
		sum += conf
		out = append(out, Token{Text: t, Confidence: conf, Box: b.Box})
	}
	if len(out) == 0 {
		return nil, 0
	}
	return out, sum / float64(len(out))
}

// Close releases the underlying Tesseract API handle.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}

package ocr

import "context"

// SegMode is the page layout the engine should assume for a pass.
type SegMode int

const (
	SegBlock SegMode = iota // one uniform block of text
	SegWord                 // a single word
	SegLine                 // a single text line
)

func (m SegMode) String() string {
	switch m {
	case SegWord:
		return "word"
	case SegLine:
		return "line"
	}
	return "block"
}

// licenseWhitelist restricts recognition to what a license actually prints.
const licenseWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-/.,:()+'& "

// Profile is one engine configuration used for a recognition pass.
type Profile struct {
	Name           string
	Mode           SegMode
	Whitelist      string
	PreserveSpaces bool
}

// DefaultProfiles are run in order: whole block, single word, single line.
var DefaultProfiles = []Profile{
	{Name: "block", Mode: SegBlock, Whitelist: licenseWhitelist, PreserveSpaces: true},
	{Name: "word", Mode: SegWord, Whitelist: licenseWhitelist, PreserveSpaces: true},
	{Name: "line", Mode: SegLine, Whitelist: licenseWhitelist, PreserveSpaces: true},
}

// Engine is a text-recognition backend. One instance serves the passes of a
// single extraction and is closed at the end of it.
type Engine interface {
	Configure(p Profile) error
	Recognize(ctx context.Context, image []byte) (RecognitionResult, error)
	Close() error
}

// EngineFactory acquires a fresh engine for one extraction.
type EngineFactory func() (Engine, error)

package ocr

import "errors"

var (
	// ErrImageDecode is returned when the uploaded bytes cannot be decoded as an image.
	ErrImageDecode = errors.New("image could not be decoded")
	// ErrImageProcessing is returned when preprocessing cannot produce an encoded image.
	// The pipeline recovers from it by recognizing the original bytes.
	ErrImageProcessing = errors.New("image preprocessing failed")
	// ErrRecognition is returned when every recognition profile failed.
	ErrRecognition = errors.New("text recognition failed")
	// ErrNoDataExtracted marks a soft failure: recognition worked but no field survived validation.
	// Extract never returns it; see Report.Err.
	ErrNoDataExtracted = errors.New("no license data extracted")
)

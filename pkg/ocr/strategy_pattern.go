package ocr

// extractPatterns applies the field pattern table to the combined text of all passes.
func extractPatterns(results []RecognitionResult) LicenseRecord {
	text := combinedText(results)
	var rec LicenseRecord
	if text == "" {
		return rec
	}
	var dates []dateCandidate
	for _, f := range AllFields {
		v, ok := matchField(f, text)
		if !ok {
			continue
		}
		if k, isDate := dateFields[f]; isDate {
			dates = append(dates, dateCandidate{value: v, kind: k})
			continue
		}
		rec.Set(f, v)
	}
	for i, ln := range splitLines(text) {
		for _, d := range findDates(ln) {
			dates = append(dates, dateCandidate{value: d, line: i})
		}
	}
	assignDates(&rec, dates, 0, false)
	return rec
}

package ocr

// bestPass picks the pass the layout-sensitive strategies read from: highest
// confidence, then more words, then the earlier profile.
func bestPass(results []RecognitionResult) (RecognitionResult, bool) {
	if len(results) == 0 {
		return RecognitionResult{}, false
	}
	best := results[0]
	for _, c := range results[1:] {
		replace := false
		if c.Confidence > best.Confidence {
			replace = true
		} else if c.Confidence == best.Confidence {
			if len(c.Words) > len(best.Words) {
				replace = true
			}
		}
		if replace {
			best = c
		}
	}
	return best, true
}

package ocr

import "strings"

// digitConfusions maps glyphs Tesseract commonly reads in place of digits.
var digitConfusions = map[rune]rune{
	'O': '0', 'o': '0', 'D': '0', 'Q': '0',
	'I': '1', 'l': '1', '|': '1',
	'S': '5', 's': '5',
	'B': '8',
	'Z': '2',
}

// minRealDigits is how many genuine digits a token needs before letters in it
// are treated as misread digits.
const minRealDigits = 6

// repairDigits replaces confusable letters with digits in a mostly numeric token.
// Tokens with fewer than minRealDigits digits are returned unchanged so that
// ordinary words never turn into numbers.
func repairDigits(s string) string {
	if len(onlyDigits(s)) < minRealDigits {
		return s
	}
	return strings.Map(func(r rune) rune {
		if d, ok := digitConfusions[r]; ok {
			return d
		}
		return r
	}, s)
}

package ocr

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// snippet returns a shortened version of text for logging.
func snippet(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "…"
}

var textReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\t", " ",
	"‐", "-", "‑", "-", "‒", "-", "–", "-", "—", "-", "−", "-",
	"\u00a0", " ",
	"०", "0", "१", "1", "२", "2", "३", "3", "४", "4",
	"५", "5", "६", "6", "७", "7", "८", "8", "९", "9",
)

// normalizeOCRText composes Devanagari, maps Devanagari digits and typographic
// dashes to ASCII, collapses spaces inside lines and drops blank lines.
func normalizeOCRText(t string) string {
	t = textReplacer.Replace(norm.NFC.String(t))
	lines := strings.Split(t, "\n")
	out := lines[:0]
	for _, ln := range lines {
		ln = collapseSpaces(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return strings.Join(out, "\n")
}

// collapseSpaces trims s and reduces internal whitespace runs to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// splitLines normalizes t and returns its non-empty lines.
func splitLines(t string) []string {
	t = normalizeOCRText(t)
	if t == "" {
		return nil
	}
	return strings.Split(t, "\n")
}

// groupDigits splits ds into hyphen-joined groups of the given sizes; the last
// group takes the remainder.
func groupDigits(ds string, sizes ...int) string {
	var parts []string
	for _, n := range sizes {
		if len(ds) <= n {
			break
		}
		parts = append(parts, ds[:n])
		ds = ds[n:]
	}
	parts = append(parts, ds)
	return strings.Join(parts, "-")
}

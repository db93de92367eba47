package ocr

import (
	"regexp"
	"strings"
)

// Keywords recognised by the contextual strategy, English and Nepali.
var (
	kwLicense     = []string{"license", "licence", "d.l", "dl no", "लाइसेन्स", "अनुमतिपत्र", "अनुमति पत्र"}
	kwName        = []string{"name", "नाम"}
	kwFather      = []string{"f/h", "father", "husband", "बाबु", "बुवा", "पति"}
	kwAddress     = []string{"address", "ठेगाना"}
	kwBirth       = []string{"d.o.b", "dob", "birth", "जन्म"}
	kwIssue       = []string{"d.o.i", "issue", "issued", "जारी"}
	kwExpiry      = []string{"d.o.e", "expiry", "expires", "valid", "म्याद", "समाप्ति"}
	kwCitizenship = []string{"citizenship", "नागरिकता"}
	kwPassport    = []string{"passport", "राहदानी"}
	kwPhone       = []string{"phone", "mobile", "contact", "फोन", "मोबाइल"}
	kwBlood       = []string{"b.g", "blood", "रक्त"}
	kwCategory    = []string{"category", "वर्ग"}
	kwAuthority   = []string{"office", "authority", "कार्यालय"}
)

var (
	licenseRunRE     = regexp.MustCompile(valLicense)
	citizenshipRunRE = regexp.MustCompile(valCitizenship)
	phoneRunRE       = regexp.MustCompile(valPhone)
	passportRunRE    = regexp.MustCompile(`(?i)\b` + valPassport)
	bloodRunRE       = regexp.MustCompile(`(?i)` + valBlood)
	categoryRunRE    = regexp.MustCompile(`\b` + valCategory)
)

const valuePrefix = " \t:.-"

// extractContextual reads the best pass line by line, using the previous,
// current and next line to decide which field a value belongs to. Unlabeled
// dates fall back to their position in the document.
func extractContextual(results []RecognitionResult) LicenseRecord {
	var rec LicenseRecord
	best, ok := bestPass(results)
	if !ok {
		return rec
	}
	lines := splitLines(best.Text)
	var dates []dateCandidate
	for i, ln := range lines {
		w := window{lines: lines, i: i}

		if w.has(kwLicense) || w.prevHas(kwLicense) {
			for _, m := range licenseRunRE.FindAllString(w.after(kwLicense), -1) {
				if v, ok := plausibleLicenseNumber(m); ok {
					rec.setIfEmpty(FieldLicenseNumber, v)
					break
				}
			}
		}
		if w.has(kwFather) {
			if v, ok := plausibleName(w.value(kwFather), 1); ok {
				rec.setIfEmpty(FieldFatherOrHusbandName, v)
			}
		} else if w.has(kwName) {
			if v, ok := plausibleName(w.value(kwName), 2); ok {
				rec.setIfEmpty(FieldHolderName, v)
			}
		}
		if w.has(kwAddress) {
			if v, ok := plausibleAddress(w.value(kwAddress)); ok {
				rec.setIfEmpty(FieldAddress, v)
			}
		}
		if w.has(kwCitizenship) {
			w.first(&rec, FieldCitizenshipNo, citizenshipRunRE, kwCitizenship)
		}
		if w.has(kwPassport) {
			w.first(&rec, FieldPassportNo, passportRunRE, kwPassport)
		}
		if w.has(kwPhone) {
			w.first(&rec, FieldPhoneNo, phoneRunRE, kwPhone)
		}
		if w.has(kwBlood) {
			w.first(&rec, FieldBloodGroup, bloodRunRE, kwBlood)
		}
		if w.has(kwCategory) {
			w.first(&rec, FieldCategory, categoryRunRE, kwCategory)
		}
		if w.has(kwAuthority) && !w.has(kwAddress) {
			if v, ok := plausibleAuthority(trimTrailingLabel(ln)); ok {
				rec.setIfEmpty(FieldIssuingAuthority, v)
			}
		}

		dates = append(dates, w.dates()...)
	}
	assignDates(&rec, dates, len(lines), true)
	return rec
}

// window is the previous/current/next line view around line i.
type window struct {
	lines []string
	i     int
}

func (w window) line(i int) string {
	if i < 0 || i >= len(w.lines) {
		return ""
	}
	return w.lines[i]
}

func (w window) has(kws []string) bool {
	_, end := keywordIndex(w.line(w.i), kws)
	return end >= 0
}

func (w window) prevHas(kws []string) bool {
	_, end := keywordIndex(w.line(w.i-1), kws)
	return end >= 0
}

// after returns the current line after the first keyword, or the whole line.
func (w window) after(kws []string) string {
	ln := w.line(w.i)
	if _, end := keywordIndex(ln, kws); end >= 0 {
		return ln[end:]
	}
	return ln
}

// value returns the text after the keyword, or the next line when the label
// stands alone.
func (w window) value(kws []string) string {
	ln := w.line(w.i)
	_, end := keywordIndex(ln, kws)
	if end < 0 {
		return ""
	}
	v := strings.TrimLeft(ln[end:], valuePrefix)
	// "Name" of "F/H Name" or "No." of "License No." is part of the label.
	for _, filler := range []string{"name", "no.", "no", "number", "नाम"} {
		if strings.HasPrefix(strings.ToLower(v), filler+" ") || strings.HasPrefix(strings.ToLower(v), filler+":") {
			v = strings.TrimLeft(v[len(filler):], valuePrefix)
			break
		}
	}
	if v == "" {
		return w.line(w.i + 1)
	}
	return v
}

// first stores the first run of re near the keyword that passes the field check.
func (w window) first(rec *LicenseRecord, f Field, re *regexp.Regexp, kws []string) {
	check := checkFor(f)
	for _, m := range re.FindAllString(w.value(kws), -1) {
		if v, ok := check(m); ok {
			rec.setIfEmpty(f, v)
			return
		}
	}
}

// dates classifies every date on the current line by the nearest preceding
// date keyword on the line, else a label-only previous line, else a
// label-only next line.
func (w window) dates() []dateCandidate {
	ln := w.line(w.i)
	var out []dateCandidate
	for _, loc := range dateScanRE.FindAllStringIndex(ln, -1) {
		v, ok := canonicalDate(ln[loc[0]:loc[1]])
		if !ok {
			continue
		}
		kind := nearestDateKind(ln[:loc[0]])
		if kind == dateUnlabeled {
			if prev := w.line(w.i - 1); len(findDates(prev)) == 0 {
				kind = nearestDateKind(prev)
			}
		}
		if kind == dateUnlabeled {
			if next := w.line(w.i + 1); len(findDates(next)) == 0 {
				kind = nearestDateKind(next)
			}
		}
		out = append(out, dateCandidate{value: v, kind: kind, line: w.i})
	}
	return out
}

// nearestDateKind returns the kind of the date keyword ending closest to the end of s.
func nearestDateKind(s string) dateKind {
	kind, best := dateUnlabeled, -1
	for _, c := range []struct {
		kws  []string
		kind dateKind
	}{{kwBirth, dateBirth}, {kwIssue, dateIssue}, {kwExpiry, dateExpiry}} {
		if _, end := lastKeywordIndex(s, c.kws); end > best {
			kind, best = c.kind, end
		}
	}
	return kind
}

// keywordIndex finds the earliest keyword in s, matched case-insensitively and
// at word boundaries. It returns the byte span in s, or -1, -1.
func keywordIndex(s string, kws []string) (int, int) {
	start, end := -1, -1
	for _, kw := range kws {
		if i := findKeyword(s, kw, false); i >= 0 && (start < 0 || i < start) {
			start, end = i, i+len(kw)
		}
	}
	return start, end
}

// lastKeywordIndex is keywordIndex for the last occurrence.
func lastKeywordIndex(s string, kws []string) (int, int) {
	start, end := -1, -1
	for _, kw := range kws {
		if i := findKeyword(s, kw, true); i >= 0 && i+len(kw) > end {
			start, end = i, i+len(kw)
		}
	}
	return start, end
}

func findKeyword(s, kw string, last bool) int {
	low := strings.ToLower(s)
	if len(low) != len(s) {
		low = s
	}
	found := -1
	for off := 0; off <= len(low)-len(kw); {
		i := strings.Index(low[off:], kw)
		if i < 0 {
			break
		}
		i += off
		if wordBoundary(low, i-1) && wordBoundary(low, i+len(kw)) {
			found = i
			if !last {
				return found
			}
		}
		off = i + 1
	}
	return found
}

// wordBoundary reports whether the byte at i is outside s or not an ASCII letter.
func wordBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}

package ocr

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// wordLabels maps a cleaned label token to its field.
var wordLabels = map[string]Field{
	"dl":          FieldLicenseNumber,
	"d.l":         FieldLicenseNumber,
	"license":     FieldLicenseNumber,
	"licence":     FieldLicenseNumber,
	"name":        FieldHolderName,
	"f/h":         FieldFatherOrHusbandName,
	"father":      FieldFatherOrHusbandName,
	"husband":     FieldFatherOrHusbandName,
	"address":     FieldAddress,
	"dob":         FieldDateOfBirth,
	"d.o.b":       FieldDateOfBirth,
	"birth":       FieldDateOfBirth,
	"d.o.i":       FieldIssueDate,
	"issue":       FieldIssueDate,
	"issued":      FieldIssueDate,
	"d.o.e":       FieldExpiryDate,
	"expiry":      FieldExpiryDate,
	"expires":     FieldExpiryDate,
	"citizenship": FieldCitizenshipNo,
	"passport":    FieldPassportNo,
	"phone":       FieldPhoneNo,
	"mobile":      FieldPhoneNo,
	"contact":     FieldPhoneNo,
	"b.g":         FieldBloodGroup,
	"bg":          FieldBloodGroup,
	"blood":       FieldBloodGroup,
	"category":    FieldCategory,
}

// wordFillers sit between a label and its value ("License No.", "Blood Group").
var wordFillers = map[string]bool{
	"no": true, "number": true, "of": true, "date": true, "group": true,
	"name": true, "cert": true, "certificate": true, "holder": true,
	":": true, "-": true, "'s": true,
}

const (
	maxValueWords  = 3
	minFuzzyLength = 5
	minSimilarity  = 0.9
)

var (
	jaroWinkler = metrics.NewJaroWinkler()
	fuzzyLabels = longLabels()
)

// longLabels returns the labels eligible for fuzzy matching, sorted so the
// first match is stable between runs.
func longLabels() []string {
	var out []string
	for label := range wordLabels {
		if len(label) >= minFuzzyLength {
			out = append(out, label)
		}
	}
	sort.Strings(out)
	return out
}

func cleanWord(t string) string {
	t = strings.ToLower(strings.Trim(t, ":;,"))
	return strings.TrimSuffix(t, ".")
}

// labelField reports the field a token labels. Long labels are matched with
// Jaro-Winkler similarity to tolerate single-letter OCR errors.
func labelField(tok string) (Field, bool) {
	w := cleanWord(tok)
	if f, ok := wordLabels[w]; ok {
		return f, true
	}
	if len(w) < minFuzzyLength {
		return "", false
	}
	for _, label := range fuzzyLabels {
		if strutil.Similarity(w, label, jaroWinkler) >= minSimilarity {
			return wordLabels[label], true
		}
	}
	return "", false
}

// isLabelWord reports whether every word of s is a label or filler.
func isLabelWord(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		cw := cleanWord(w)
		if _, ok := wordLabels[cw]; !ok && !wordFillers[cw] {
			return false
		}
	}
	return true
}

// extractWords walks the word tokens of the best pass. A label token consumes
// up to three following non-label tokens, longest candidate first.
func extractWords(results []RecognitionResult) LicenseRecord {
	var rec LicenseRecord
	best, ok := bestPass(results)
	if !ok || len(best.Words) == 0 {
		return rec
	}
	toks := make([]string, 0, len(best.Words))
	for _, w := range best.Words {
		if t := normalizeOCRText(w.Text); t != "" {
			toks = append(toks, t)
		}
	}

	var dates []dateCandidate
	for i := 0; i < len(toks); i++ {
		if d, ok := canonicalDate(toks[i]); ok {
			dates = append(dates, dateCandidate{value: d, line: i})
			continue
		}
		f, ok := labelField(toks[i])
		if !ok {
			continue
		}
		j := i + 1
		for j < len(toks) && wordFillers[cleanWord(toks[j])] {
			j++
		}
		i = j - 1

		var vals []string
		for k := j; k < len(toks) && len(vals) < maxValueWords; k++ {
			if _, isLabel := labelField(toks[k]); isLabel {
				break
			}
			vals = append(vals, toks[k])
		}
		check := checkFor(f)
		for n := len(vals); n > 0; n-- {
			v, ok := check(strings.Join(vals[:n], " "))
			if !ok {
				continue
			}
			if k, isDate := dateFields[f]; isDate {
				dates = append(dates, dateCandidate{value: v, kind: k, line: j})
			} else {
				rec.setIfEmpty(f, v)
			}
			i = j + n - 1
			break
		}
	}
	assignDates(&rec, dates, len(toks), false)
	return rec
}

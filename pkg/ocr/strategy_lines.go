package ocr

import (
	"regexp"
	"strings"
)

// lineRule finds a label anywhere on a line and reads the value right after it,
// or from the following line when nothing follows the label.
type lineRule struct {
	field Field
	label *regexp.Regexp
	value *regexp.Regexp
}

var lineRules = buildLineRules()

func buildLineRules() []lineRule {
	rules := make([]lineRule, 0, len(AllFields))
	for _, f := range AllFields {
		rules = append(rules, lineRule{
			field: f,
			label: regexp.MustCompile(`(?i)\b` + fieldLabels[f] + `\s*[:.\-]?\s*`),
			value: regexp.MustCompile(`(?i)^(` + fieldValues[f] + `)`),
		})
	}
	return rules
}

var fatherLabelRE = regexp.MustCompile(`(?i)\b` + labelFather)

// extractLines works on the line tokens of every pass. It is looser than the
// pattern table: labels need not start a line and a value may sit on the next line.
func extractLines(results []RecognitionResult) LicenseRecord {
	var rec LicenseRecord
	lines := lineTexts(results)
	if len(lines) == 0 {
		return rec
	}
	var dates []dateCandidate
	for i, ln := range lines {
		for _, r := range lineRules {
			// The holder label is a bare "name", also found on father/husband lines.
			if r.field == FieldHolderName && fatherLabelRE.MatchString(ln) {
				continue
			}
			loc := r.label.FindStringIndex(ln)
			if loc == nil {
				continue
			}
			rest := strings.TrimSpace(ln[loc[1]:])
			if rest == "" && i+1 < len(lines) {
				rest = lines[i+1]
			}
			m := r.value.FindStringSubmatch(rest)
			if m == nil {
				continue
			}
			v, ok := checkFor(r.field)(m[1])
			if !ok {
				continue
			}
			if k, isDate := dateFields[r.field]; isDate {
				dates = append(dates, dateCandidate{value: v, kind: k, line: i})
				continue
			}
			rec.setIfEmpty(r.field, v)
		}
		// A line holding nothing but a number is usually the license number,
		// unless it sits under another number's label.
		if v, ok := bareLicenseNumber(ln); ok && !underOtherNumberLabel(lines, i) &&
			!withinOtherNumbers(ln, rec.CitizenshipNo, rec.PassportNo, rec.PhoneNo) {
			rec.setIfEmpty(FieldLicenseNumber, v)
		}
		for _, d := range findDates(ln) {
			dates = append(dates, dateCandidate{value: d, line: i})
		}
	}
	assignDates(&rec, dates, len(lines), false)
	return rec
}

func underOtherNumberLabel(lines []string, i int) bool {
	if otherNumberLabelRE.MatchString(lines[i]) {
		return true
	}
	return i > 0 && otherNumberLabelRE.MatchString(lines[i-1])
}

// lineTexts returns the normalized line tokens of all passes, or the split pass
// texts when the engine reported no lines.
func lineTexts(results []RecognitionResult) []string {
	var out []string
	for _, r := range results {
		for _, t := range r.Lines {
			if ln := normalizeOCRText(t.Text); ln != "" {
				out = append(out, strings.Split(ln, "\n")...)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, r := range results {
		out = append(out, splitLines(r.Text)...)
	}
	return out
}

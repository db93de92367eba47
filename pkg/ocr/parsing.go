package ocr

import (
	"regexp"
	"sort"
	"strconv"
	"time"
)

// dateExpr matches DD-MM-YYYY or YYYY-MM-DD with '-', '/' or '.' separators.
const dateExpr = `\d{1,2}[-/.]\d{1,2}[-/.]\d{4}|\d{4}[-/.]\d{1,2}[-/.]\d{1,2}`

var (
	dateDMYRE  = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})$`)
	dateYMDRE  = regexp.MustCompile(`^(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})$`)
	dateScanRE = regexp.MustCompile(`\b(?:` + dateExpr + `)\b`)
)

const (
	minYear = 1900
	maxYear = 2100
)

// parseDate reads a day-first or year-first date and rejects days that do not
// exist in the Gregorian calendar.
func parseDate(s string) (time.Time, bool) {
	var y, m, d int
	if g := dateDMYRE.FindStringSubmatch(s); g != nil {
		d, _ = strconv.Atoi(g[1])
		m, _ = strconv.Atoi(g[2])
		y, _ = strconv.Atoi(g[3])
	} else if g := dateYMDRE.FindStringSubmatch(s); g != nil {
		y, _ = strconv.Atoi(g[1])
		m, _ = strconv.Atoi(g[2])
		d, _ = strconv.Atoi(g[3])
	} else {
		return time.Time{}, false
	}
	if y < minYear || y > maxYear || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// formatDate renders the canonical DD-MM-YYYY form.
func formatDate(t time.Time) string { return t.Format("02-01-2006") }

// canonicalDate parses s and returns it as DD-MM-YYYY.
func canonicalDate(s string) (string, bool) {
	t, ok := parseDate(s)
	if !ok {
		return "", false
	}
	return formatDate(t), true
}

// findDates returns the canonical form of every valid date in a line, in order.
func findDates(line string) []string {
	var out []string
	for _, m := range dateScanRE.FindAllString(line, -1) {
		if v, ok := canonicalDate(m); ok {
			out = append(out, v)
		}
	}
	return out
}

type dateKind int

const (
	dateUnlabeled dateKind = iota
	dateBirth
	dateIssue
	dateExpiry
)

func (k dateKind) field() Field {
	switch k {
	case dateBirth:
		return FieldDateOfBirth
	case dateIssue:
		return FieldIssueDate
	case dateExpiry:
		return FieldExpiryDate
	}
	return ""
}

// dateCandidate is a date found in the text with the label that introduced it, if any.
type dateCandidate struct {
	value string
	kind  dateKind
	line  int
}

// assignDates applies the date rules in priority order:
//  1. a labeled date goes to its field;
//  2. with no labeled date at all, exactly two distinct unlabeled dates are
//     issue (earlier) and expiry (later);
//  3. when positional is set, remaining unlabeled dates in the first half of
//     the text are issue dates and the rest expiry dates.
//
// Birth dates are only ever taken from a label.
func assignDates(rec *LicenseRecord, cands []dateCandidate, totalLines int, positional bool) {
	labeled := false
	used := map[string]bool{}
	for _, c := range cands {
		if c.kind == dateUnlabeled {
			continue
		}
		labeled = true
		used[c.value] = true
		rec.setIfEmpty(c.kind.field(), c.value)
	}

	var rest []dateCandidate
	seen := map[string]bool{}
	for _, c := range cands {
		if c.kind != dateUnlabeled || used[c.value] || seen[c.value] {
			continue
		}
		seen[c.value] = true
		rest = append(rest, c)
	}

	if !labeled && len(rest) == 2 {
		vals := []string{rest[0].value, rest[1].value}
		sort.Slice(vals, func(i, j int) bool {
			a, _ := parseDate(vals[i])
			b, _ := parseDate(vals[j])
			return a.Before(b)
		})
		rec.setIfEmpty(FieldIssueDate, vals[0])
		rec.setIfEmpty(FieldExpiryDate, vals[1])
		return
	}
	if !positional {
		return
	}
	for _, c := range rest {
		if c.line*2 < totalLines {
			rec.setIfEmpty(FieldIssueDate, c.value)
		} else {
			rec.setIfEmpty(FieldExpiryDate, c.value)
		}
	}
}

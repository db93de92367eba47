package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

// The checks below are shared by every extraction strategy and by the validator,
// so a value accepted during extraction is never judged differently afterwards.
// Each returns the canonical form of the value and whether it is acceptable.

// licenseBoilerplate are header words whose letters OCR likes to turn into digits.
var licenseBoilerplate = []string{"GOVERNMENT", "NEPAL", "FORM", "MINISTRY", "DEPARTMENT", "TRANSPORT"}

var (
	licenseShapes = []*regexp.Regexp{
		regexp.MustCompile(`^\d{2}-\d{2}-\d{5,9}$`),
		regexp.MustCompile(`^\d{2}-\d{3}-\d{6}$`),
	}
	separatorRunRE = regexp.MustCompile(`[\s./\-]+`)
	mobileRE       = regexp.MustCompile(`^(?:\+?977[\s\-]?)?9[678]\d{8}$`)
	// trailingLabelRE cuts a value where the next label printed on the same line begins.
	trailingLabelRE = regexp.MustCompile(`(?i)[\s,;:]+(?:address|dob|d\.\s?o\.\s?[bie]|category|phone|mobile|contact|citizenship|passport|blood|b\.\s?g|f\s?/\s?h|date|issued?|expiry|valid|name)\b.*$`)
	bloodGroupRE    = regexp.MustCompile(`^(AB|A|B|O|0)(\+|-|\+VE|-VE|VE|POSITIVE|NEGATIVE|POS|NEG)$`)
	alnumRE         = regexp.MustCompile(`^[A-Z0-9]+$`)
	categoryRE      = regexp.MustCompile(`^[A-Z]{1,3}$`)
)

// onlyDigits extracts decimal digits from a string.
func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// hasBoilerplate reports whether s contains a license header word.
func hasBoilerplate(s string) bool {
	up := strings.ToUpper(s)
	for _, w := range licenseBoilerplate {
		if strings.Contains(up, w) {
			return true
		}
	}
	return false
}

// plausibleLicenseNumber accepts 9 to 13 digits (after separators are removed and
// common OCR letter/digit confusions repaired) and returns the canonical grouping.
func plausibleLicenseNumber(raw string) (string, bool) {
	if hasBoilerplate(raw) {
		return "", false
	}
	return canonicalLicenseNumber(repairDigits(raw))
}

// bareLicenseNumber is plausibleLicenseNumber for a number seen without its
// label, which must not look like a Nepali mobile number.
func bareLicenseNumber(raw string) (string, bool) {
	if mobileRE.MatchString(strings.TrimSpace(raw)) {
		return "", false
	}
	return plausibleLicenseNumber(raw)
}

// canonicalLicenseNumber keeps an accepted grouping, otherwise regroups the digits
// as NN-NN-<rest>. Anything that is not digits and separators is rejected.
func canonicalLicenseNumber(s string) (string, bool) {
	s = strings.Trim(separatorRunRE.ReplaceAllString(strings.TrimSpace(s), "-"), "-")
	ds := onlyDigits(s)
	if len(ds) != len(strings.ReplaceAll(s, "-", "")) {
		return "", false
	}
	if len(ds) < 9 || len(ds) > 13 {
		return "", false
	}
	for _, re := range licenseShapes {
		if re.MatchString(s) {
			return s, true
		}
	}
	return groupDigits(ds, 2, 2), true
}

// trimTrailingLabel drops a following label (and everything after it) from a value.
func trimTrailingLabel(s string) string {
	return strings.TrimSpace(trailingLabelRE.ReplaceAllString(s, ""))
}

// plausibleName accepts letters and spaces (after removing . - ') with at least
// two letters and minTokens words.
func plausibleName(s string, minTokens int) (string, bool) {
	s = collapseSpaces(trimTrailingLabel(s))
	s = strings.Trim(s, " .,-'")
	if s == "" {
		return "", false
	}
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Mc, r):
		case r == ' ', r == '.', r == '-', r == '\'':
		default:
			return "", false
		}
	}
	if letters < 2 || len(strings.Fields(s)) < minTokens {
		return "", false
	}
	if isLabelWord(s) || hasBoilerplate(s) {
		return "", false
	}
	return s, true
}

// plausibleAddress accepts free text of at least five characters containing a letter.
func plausibleAddress(s string) (string, bool) {
	s = strings.Trim(collapseSpaces(trimTrailingLabel(s)), " ,:;-")
	if len([]rune(s)) < 5 || !strings.ContainsFunc(s, unicode.IsLetter) {
		return "", false
	}
	return s, true
}

// plausiblePhone accepts exactly ten digits, with an optional +977 country prefix.
func plausiblePhone(s string) (string, bool) {
	if strings.ContainsFunc(s, unicode.IsLetter) {
		return "", false
	}
	ds := onlyDigits(s)
	if len(ds) == 13 && strings.HasPrefix(ds, "977") {
		ds = ds[3:]
	}
	if len(ds) != 10 {
		return "", false
	}
	return ds, true
}

// plausibleCitizenship accepts 10 to 15 digits. Eleven digits printed with
// separators keep the district grouping XX-XX-XX-XXXXX.
func plausibleCitizenship(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsFunc(s, unicode.IsLetter) {
		return "", false
	}
	ds := onlyDigits(s)
	if len(ds) < 10 || len(ds) > 15 {
		return "", false
	}
	if len(ds) == 11 && len(ds) != len(s) {
		return groupDigits(ds, 2, 2, 2), true
	}
	return ds, true
}

// plausiblePassport accepts 8 to 15 letters and digits including at least one digit.
func plausiblePassport(s string) (string, bool) {
	s = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
	if len(s) < 8 || len(s) > 15 || !alnumRE.MatchString(s) {
		return "", false
	}
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return "", false
	}
	return s, true
}

// plausibleBloodGroup folds spellings like "b +ve" or "0-" into one of the eight groups.
func plausibleBloodGroup(s string) (string, bool) {
	s = strings.ToUpper(strings.Join(strings.Fields(s), ""))
	s = strings.Trim(s, ".,:;()")
	m := bloodGroupRE.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	group := m[1]
	if group == "0" {
		group = "O"
	}
	sign := "+"
	if strings.HasPrefix(m[2], "-") || strings.HasPrefix(m[2], "NEG") {
		sign = "-"
	}
	return group + sign, true
}

// plausibleCategory takes the first code of a list such as "A, B" and accepts one
// to three uppercase letters that are not a label such as "DOB".
func plausibleCategory(s string) (string, bool) {
	first := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ',' || r == '/' || r == '&' || r == ' ' || r == ';'
	})
	if len(first) == 0 || !categoryRE.MatchString(first[0]) || isLabelWord(first[0]) {
		return "", false
	}
	return first[0], true
}

// plausibleAuthority accepts an office name of letters and light punctuation.
func plausibleAuthority(s string) (string, bool) {
	s = strings.Trim(collapseSpaces(s), " .,:;-")
	letters := 0
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			letters++
		case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Mc, r):
		case strings.ContainsRune(" .,'-()", r):
		default:
			return "", false
		}
	}
	if letters < 3 {
		return "", false
	}
	return s, true
}

// checkFor returns the shared check used for a field.
func checkFor(f Field) func(string) (string, bool) {
	switch f {
	case FieldLicenseNumber:
		return plausibleLicenseNumber
	case FieldHolderName:
		return func(s string) (string, bool) { return plausibleName(s, 2) }
	case FieldFatherOrHusbandName:
		return func(s string) (string, bool) { return plausibleName(s, 1) }
	case FieldAddress:
		return plausibleAddress
	case FieldDateOfBirth, FieldIssueDate, FieldExpiryDate:
		return canonicalDate
	case FieldCitizenshipNo:
		return plausibleCitizenship
	case FieldPassportNo:
		return plausiblePassport
	case FieldPhoneNo:
		return plausiblePhone
	case FieldBloodGroup:
		return plausibleBloodGroup
	case FieldCategory:
		return plausibleCategory
	case FieldIssuingAuthority:
		return plausibleAuthority
	}
	return func(string) (string, bool) { return "", false }
}

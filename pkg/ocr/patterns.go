package ocr

import (
	"regexp"
	"strings"
)

// fieldPattern is one way of finding a field: re's first capture group is the
// candidate value, check accepts and canonicalizes it.
type fieldPattern struct {
	re    *regexp.Regexp
	check func(string) (string, bool)
	// unlabeled candidates give way to numbers labeled as another field.
	unlabeled bool
}

func pat(expr string, f Field) fieldPattern {
	return fieldPattern{re: regexp.MustCompile(expr), check: checkFor(f)}
}

func bare(expr string, check func(string) (string, bool)) fieldPattern {
	return fieldPattern{re: regexp.MustCompile(expr), check: check, unlabeled: true}
}

// digitish is a digit or a glyph OCR confuses with one.
const digitish = `[0-9OoDIlSB|]`

// Label expressions.
const (
	labelLicense     = `(?:d\.?\s?l\.?|licen[cs]e)\s*(?:no|number|num)?\.?`
	labelName        = `(?:holder'?s?\s*)?name`
	labelFather      = `(?:f\s?/\s?h|father(?:'?s)?(?:\s*/\s*husband(?:'?s)?)?|husband(?:'?s)?)\s*(?:name)?`
	labelAddress     = `address`
	labelBirth       = `(?:d\.?\s?o\.?\s?b\.?|date\s+of\s+birth|birth\s*date|dob)`
	labelIssue       = `(?:d\.?\s?o\.?\s?i\.?|date\s+of\s+issue|issued?\s*(?:date|on)?)`
	labelExpiry      = `(?:d\.?\s?o\.?\s?e\.?|date\s+of\s+expiry|expiry\s*(?:date)?|expires?|valid\s+(?:till|until|upto))`
	labelCitizenship = `citizenship\s*(?:cert(?:ificate)?\s*)?(?:no|number)?\.?`
	labelPassport    = `passport\s*(?:no|number)?\.?`
	labelPhone       = `(?:phone|mobile|contact|cell|tel)\s*(?:no|number)?\.?`
	labelBlood       = `(?:b\.?\s?g\.?|blood\s*(?:group)?)`
	labelCategory    = `categor(?:y|ies)`
	labelAuthority   = `(?:issuing\s+authority|issued\s+by|office)`

	sep = `\s*[:.\-]?\s*`
	// sepInline keeps short values on the label's own line.
	sepInline = `[ \t]*[:.\-]?[ \t]*`
)

// Value shapes, used after a label.
const (
	valLicense     = digitish + `[0-9OoDIlSB| .\-]{7,18}` + digitish
	valCitizenship = `[0-9][0-9/\- ]{8,20}[0-9]`
	valPassport    = `[A-Za-z0-9]{8,15}\b`
	valPhone       = `\+?[0-9][0-9\- ]{8,16}[0-9]`
	valBlood       = `(?:AB|A|B|O|0)\s*(?:\+\s*ve|-\s*ve|\+|-|positive|negative|pos|neg|ve)?`
	valCategory    = `[A-Za-z]{1,3}(?:\s*[,/&]\s*[A-Za-z]{1,3})*\b`
	valText        = `.+`
)

// fieldLabels and fieldValues pair every field with its label and value shape.
var (
	fieldLabels = map[Field]string{
		FieldLicenseNumber:       labelLicense,
		FieldHolderName:          labelName,
		FieldFatherOrHusbandName: labelFather,
		FieldAddress:             labelAddress,
		FieldDateOfBirth:         labelBirth,
		FieldIssueDate:           labelIssue,
		FieldExpiryDate:          labelExpiry,
		FieldCitizenshipNo:       labelCitizenship,
		FieldPassportNo:          labelPassport,
		FieldPhoneNo:             labelPhone,
		FieldBloodGroup:          labelBlood,
		FieldCategory:            labelCategory,
		FieldIssuingAuthority:    labelAuthority,
	}
	fieldValues = map[Field]string{
		FieldLicenseNumber:       valLicense,
		FieldHolderName:          valText,
		FieldFatherOrHusbandName: valText,
		FieldAddress:             valText,
		FieldDateOfBirth:         dateExpr,
		FieldIssueDate:           dateExpr,
		FieldExpiryDate:          dateExpr,
		FieldCitizenshipNo:       valCitizenship,
		FieldPassportNo:          valPassport,
		FieldPhoneNo:             valPhone,
		FieldBloodGroup:          valBlood,
		FieldCategory:            valCategory,
		FieldIssuingAuthority:    valText,
	}
)

// fieldPatterns lists, per field, the expressions tried in order over the
// normalized combined text. A label may be followed by its value on the next line.
var fieldPatterns = map[Field][]fieldPattern{
	FieldLicenseNumber: {
		pat(`(?i)\b`+labelLicense+sep+`(`+valLicense+`)`, FieldLicenseNumber),
		bare(`(?m)(?:^|\s)(\d{2}-\d{2}-\d{5,9})\b`, plausibleLicenseNumber),
		bare(`(?m)(?:^|\s)(\d{2}-\d{3}-\d{6})\b`, plausibleLicenseNumber),
		bare(`(?m)(?:^|\s)(`+digitish+`{2}[ .\-]`+digitish+`{2,3}[ .\-]`+digitish+`{5,9})\b`, plausibleLicenseNumber),
		bare(`(?m)^\s*(\d{9,13})\s*$`, bareLicenseNumber),
	},
	FieldHolderName: {
		pat(`(?im)^\s*`+labelName+sep+`(`+valText+`)$`, FieldHolderName),
	},
	FieldFatherOrHusbandName: {
		pat(`(?im)\b`+labelFather+sep+`(`+valText+`)$`, FieldFatherOrHusbandName),
	},
	FieldAddress: {
		pat(`(?im)\b`+labelAddress+sep+`(`+valText+`)$`, FieldAddress),
	},
	FieldDateOfBirth: {
		pat(`(?i)\b`+labelBirth+sep+`(`+dateExpr+`)`, FieldDateOfBirth),
	},
	FieldIssueDate: {
		pat(`(?i)\b`+labelIssue+sep+`(`+dateExpr+`)`, FieldIssueDate),
	},
	FieldExpiryDate: {
		pat(`(?i)\b`+labelExpiry+sep+`(`+dateExpr+`)`, FieldExpiryDate),
	},
	FieldCitizenshipNo: {
		pat(`(?i)\b`+labelCitizenship+sep+`(`+valCitizenship+`)`, FieldCitizenshipNo),
	},
	FieldPassportNo: {
		pat(`(?i)\b`+labelPassport+sep+`(`+valPassport+`)`, FieldPassportNo),
	},
	FieldPhoneNo: {
		pat(`(?i)\b`+labelPhone+sep+`(`+valPhone+`)`, FieldPhoneNo),
		pat(`\b(9[678]\d{8})\b`, FieldPhoneNo),
	},
	FieldBloodGroup: {
		pat(`(?i)\b`+labelBlood+sepInline+`(`+valBlood+`)`, FieldBloodGroup),
	},
	FieldCategory: {
		pat(`(?i)\b`+labelCategory+sepInline+`(`+valCategory+`)`, FieldCategory),
	},
	FieldIssuingAuthority: {
		pat(`(?im)\b`+labelAuthority+sep+`(`+valText+`)$`, FieldIssuingAuthority),
		pat(`(?im)^\s*((?:department|office)\s+of\s+transport\s+management[^\n]*)$`, FieldIssuingAuthority),
	},
}

// dateFields are resolved through assignDates rather than taken directly.
var dateFields = map[Field]dateKind{
	FieldDateOfBirth: dateBirth,
	FieldIssueDate:   dateIssue,
	FieldExpiryDate:  dateExpiry,
}

// otherNumberLabelRE finds the labels of numbers that are not the license number.
var otherNumberLabelRE = regexp.MustCompile(`(?i)\b(?:` + labelCitizenship + `|` + labelPassport + `|` + labelPhone + `)`)

// matchField returns the first candidate for f in text that passes its check.
func matchField(f Field, text string) (string, bool) {
	for _, p := range fieldPatterns[f] {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[2]:m[3]]
			if p.unlabeled && labeledElsewhere(text, m[2], raw) {
				continue
			}
			if v, ok := p.check(raw); ok {
				return v, true
			}
		}
	}
	return "", false
}

// labeledElsewhere reports whether the unlabeled number raw at start sits on or
// under a citizenship, passport or phone label, or repeats one of those values.
func labeledElsewhere(text string, start int, raw string) bool {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	from := lineStart
	if lineStart > 0 {
		from = strings.LastIndexByte(text[:lineStart-1], '\n') + 1
	}
	end := len(text)
	if i := strings.IndexByte(text[start:], '\n'); i >= 0 {
		end = start + i
	}
	if otherNumberLabelRE.MatchString(text[from:end]) {
		return true
	}
	var others []string
	for _, f := range []Field{FieldCitizenshipNo, FieldPassportNo, FieldPhoneNo} {
		if v, ok := matchField(f, text); ok {
			others = append(others, v)
		}
	}
	return withinOtherNumbers(raw, others...)
}

// withinOtherNumbers reports whether the digits of raw occur in any of others.
func withinOtherNumbers(raw string, others ...string) bool {
	ds := onlyDigits(repairDigits(raw))
	if ds == "" {
		return false
	}
	for _, o := range others {
		if o != "" && strings.Contains(onlyDigits(o), ds) {
			return true
		}
	}
	return false
}

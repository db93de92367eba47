package ocr

import "github.com/rs/zerolog/log"

// Validate checks every populated field, rewrites accepted values into their
// canonical form and drops the rest. Dropped fields are returned in canonical
// field order. Validate(Validate(r)) == Validate(r).
func Validate(rec LicenseRecord) (LicenseRecord, []Field) {
	var (
		out     LicenseRecord
		dropped []Field
	)
	for _, f := range AllFields {
		raw := rec.Get(f)
		if raw == "" {
			continue
		}
		v, ok := validatorFor(f)(raw)
		if !ok {
			log.Debug().Str("field", string(f)).Str("value", snippet(raw, 40)).Msg("dropping invalid field")
			dropped = append(dropped, f)
			continue
		}
		out.Set(f, v)
	}
	return out, dropped
}

// validatorFor is checkFor, except that a holder name needs only one word:
// extraction demands two to avoid picking up stray labels, a reviewed record does not.
func validatorFor(f Field) func(string) (string, bool) {
	if f == FieldHolderName {
		return func(s string) (string, bool) { return plausibleName(s, 1) }
	}
	return checkFor(f)
}

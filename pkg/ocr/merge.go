package ocr

// Merge combines strategy outputs field by field. The first strategy in order
// that produced a value for a field wins; later values never overwrite it.
// The second result maps each populated field to the strategy that supplied it.
func Merge(outputs []StrategyOutput) (LicenseRecord, map[Field]string) {
	var rec LicenseRecord
	sources := make(map[Field]string)
	for _, o := range outputs {
		for _, f := range AllFields {
			if rec.setIfEmpty(f, o.Record.Get(f)) {
				sources[f] = o.Strategy
			}
		}
	}
	return rec, sources
}

// MergeRecords is Merge without provenance.
func MergeRecords(records ...LicenseRecord) LicenseRecord {
	outputs := make([]StrategyOutput, len(records))
	for i, r := range records {
		outputs[i] = StrategyOutput{Record: r}
	}
	rec, _ := Merge(outputs)
	return rec
}

package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeFirstWriterWins(t *testing.T) {
	rec, sources := Merge([]StrategyOutput{
		{Strategy: "pattern", Record: LicenseRecord{LicenseNumber: "03-06-041605052"}},
		{Strategy: "contextual", Record: LicenseRecord{LicenseNumber: "01-01-111111111", HolderName: "RAM THAPA"}},
		{Strategy: "words", Record: LicenseRecord{HolderName: "SITA THAPA", Category: "B"}},
	})
	assert.Equal(t, LicenseRecord{LicenseNumber: "03-06-041605052", HolderName: "RAM THAPA", Category: "B"}, rec)
	assert.Equal(t, map[Field]string{
		FieldLicenseNumber: "pattern",
		FieldHolderName:    "contextual",
		FieldCategory:      "words",
	}, sources)
}

func TestMergeRecordsEmpty(t *testing.T) {
	assert.True(t, MergeRecords().Empty())
	assert.True(t, MergeRecords(LicenseRecord{}, LicenseRecord{}).Empty())
	assert.Equal(t, "A+", MergeRecords(LicenseRecord{}, LicenseRecord{BloodGroup: "A+"}).BloodGroup)
}

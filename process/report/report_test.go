package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"dlscan/models"
)

func TestRowsAndPrint(t *testing.T) {
	now := time.Date(2028, 2, 1, 9, 0, 0, 0, time.UTC)
	exp := time.Date(2028, 2, 21, 0, 0, 0, 0, time.UTC)
	rows := Rows([]models.License{
		{ID: 3, LicenseNumber: "03-06-041605052", HolderName: "Ram Bahadur Thapa", Category: "A", ExpiryDate: &exp},
		{ID: 4, LicenseNumber: "01-02-12345678"},
	}, now)
	assert.Len(t, rows, 1)
	assert.Equal(t, 20, rows[0].DaysLeft)

	var buf bytes.Buffer
	Print(&buf, Report{
		Username: "ram",
		From:     time.Date(2028, 2, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2028, 3, 3, 0, 0, 0, 0, time.UTC),
		Rows:     rows,
	}, true)
	assert.Equal(t, "Renewals for user=ram between 01-02-2028 and 02-03-2028 (UTC):\n"+
		"  licenses=1\n"+
		"3|03-06-041605052|Ram Bahadur Thapa|A|21-02-2028|20\n", buf.String())
}

package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDate(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"22-02-2023", "22-02-2023", true},
		{"22/02/2023", "22-02-2023", true},
		{"22.2.2023", "22-02-2023", true},
		{"2023-02-22", "22-02-2023", true},
		{"29-02-2024", "29-02-2024", true},
		{"29-02-2023", "", false},
		{"31-04-2023", "", false},
		{"32-01-2080", "", false},
		{"01-13-2020", "", false},
		{"01-01-1899", "", false},
		{"01-01-2101", "", false},
		{"2023", "", false},
	}
	for _, c := range cases {
		got, ok := canonicalDate(c.in)
		assert.Equal(t, c.ok, ok, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestFindDates(t *testing.T) {
	assert.Equal(t, []string{"22-02-2023", "21-02-2028"}, findDates("D.O.I 22-02-2023 D.O.E 21/02/2028"))
	assert.Empty(t, findDates("123-01-2020"))
	assert.Empty(t, findDates("no dates here"))
}

func TestAssignDatesChronological(t *testing.T) {
	var rec LicenseRecord
	assignDates(&rec, []dateCandidate{
		{value: "21-02-2028", line: 0},
		{value: "22-02-2023", line: 1},
	}, 2, false)
	assert.Equal(t, "22-02-2023", rec.IssueDate)
	assert.Equal(t, "21-02-2028", rec.ExpiryDate)
	assert.Empty(t, rec.DateOfBirth)
}

func TestAssignDatesLabelWins(t *testing.T) {
	var rec LicenseRecord
	assignDates(&rec, []dateCandidate{
		{value: "15-08-1990", kind: dateBirth},
		{value: "21-02-2028", line: 3},
		{value: "22-02-2023", line: 4},
	}, 10, false)
	assert.Equal(t, "15-08-1990", rec.DateOfBirth)
	// A labeled date disables the chronological rule.
	assert.Empty(t, rec.IssueDate)
	assert.Empty(t, rec.ExpiryDate)
}

func TestAssignDatesDuplicateValuesCountOnce(t *testing.T) {
	var rec LicenseRecord
	assignDates(&rec, []dateCandidate{
		{value: "21-02-2028"},
		{value: "22-02-2023"},
		{value: "21-02-2028"},
	}, 3, false)
	assert.Equal(t, "22-02-2023", rec.IssueDate)
	assert.Equal(t, "21-02-2028", rec.ExpiryDate)
}

func TestAssignDatesPositional(t *testing.T) {
	var rec LicenseRecord
	assignDates(&rec, []dateCandidate{
		{value: "01-01-2020", line: 1},
		{value: "05-05-2021", line: 3},
		{value: "01-01-2030", line: 8},
	}, 10, true)
	assert.Equal(t, "01-01-2020", rec.IssueDate)
	assert.Equal(t, "01-01-2030", rec.ExpiryDate)
	assert.Empty(t, rec.DateOfBirth)

	var none LicenseRecord
	assignDates(&none, []dateCandidate{{value: "01-01-2020", line: 1}}, 10, false)
	assert.True(t, none.Empty())
}

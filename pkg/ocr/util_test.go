package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeOCRText(t *testing.T) {
	in := "  D.O.B:\t१५–०८–१९९०  \r\n\r\n Name:   RAM\u00a0THAPA "
	assert.Equal(t, "D.O.B: 15-08-1990\nName: RAM THAPA", normalizeOCRText(in))
}

func TestGroupDigits(t *testing.T) {
	assert.Equal(t, "03-06-041605052", groupDigits("0306041605052", 2, 2))
	assert.Equal(t, "12-34-56-78901", groupDigits("12345678901", 2, 2, 2))
	assert.Equal(t, "12", groupDigits("12", 2, 2))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc", snippet("abc", 5))
	assert.Equal(t, "नाम…", snippet("नामथर", 3))
}

package ocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWhitelistForNepali(t *testing.T) {
	block := DefaultProfiles[0]

	assert.Equal(t, licenseWhitelist, whitelistFor(block, []string{"eng"}))

	wl := whitelistFor(block, []string{"eng", "nep"})
	assert.True(t, strings.HasPrefix(wl, licenseWhitelist))
	for _, r := range "नाम जन्म ०१२" {
		if r != ' ' {
			assert.True(t, strings.ContainsRune(wl, r), string(r))
		}
	}

	assert.Empty(t, whitelistFor(Profile{Name: "free"}, []string{"nep"}))
}

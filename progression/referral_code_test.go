package progression

import (
	"github.com/stretchr/testify/assert"
	"regexp"
	"testing"
)

var generatedCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,8}-[A-Z0-9]{4}$`)

func TestGenerateReferralCode_Format(t *testing.T) {
	code := GenerateReferralCode("Daniel Silva", "kX9aPq2LmZ7w")
	assert.Equal(t, "DANIEL-MZ7W", code)
	assert.Regexp(t, generatedCodePattern, code)
	assert.True(t, IsValidReferralCode(code))
}

func TestGenerateReferralCode_LongAndAccentedNames(t *testing.T) {
	assert.Equal(t, "MAXIMILI-0042", GenerateReferralCode("Maximiliano Gómez", "42"))
	assert.Equal(t, "JOS-ABCD", GenerateReferralCode("José", "ab-cd"))
	assert.Regexp(t, generatedCodePattern, GenerateReferralCode("Ünal", "6f1c2b9e-1d2a-4b9f-9e8a-0c1d2e3f4a5b"))
}

func TestGenerateReferralCode_EmptyName(t *testing.T) {
	assert.Equal(t, "USER-0000", GenerateReferralCode("   ", ""))
	assert.Equal(t, "USER-1234", GenerateReferralCode("!!!", "uid-1234"))
}

func TestIsValidReferralCode(t *testing.T) {
	assert.True(t, IsValidReferralCode("ANNA-7K2P"))
	assert.True(t, IsValidReferralCode("A1B2C3D4E5-0000"))
	assert.False(t, IsValidReferralCode("anna-7k2p"))
	assert.False(t, IsValidReferralCode("ANNA7K2P"))
	assert.False(t, IsValidReferralCode("ANNA-7K2"))
	assert.False(t, IsValidReferralCode("-7K2P"))
	assert.False(t, IsValidReferralCode(""))
}

func TestNormalizeReferralCode(t *testing.T) {
	assert.Equal(t, "ANNA-7K2P", NormalizeReferralCode("  anna-7k2p "))
}

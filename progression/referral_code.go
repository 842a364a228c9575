package progression

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	codePrefixMaxLen = 8
	codeSuffixLen    = 4
	defaultPrefix    = "USER"
)

var referralCodePattern = regexp.MustCompile(`^[A-Z0-9]+-[A-Z0-9]{4}$`)

// GenerateReferralCode builds NAME-XXXX from the first word of the display name
// and the tail of the user id.
func GenerateReferralCode(name, userId string) string {
	prefix := ""
	if fields := strings.Fields(name); len(fields) > 0 {
		prefix = alnumUpper(fields[0])
	}
	if len(prefix) > codePrefixMaxLen {
		prefix = prefix[:codePrefixMaxLen]
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + "-" + CodeSuffix(userId)
}

// CodeSuffix returns the last four alphanumerics of s, uppercased and left-padded with zeros.
func CodeSuffix(s string) string {
	suffix := alnumUpper(s)
	if len(suffix) > codeSuffixLen {
		return suffix[len(suffix)-codeSuffixLen:]
	}
	return strings.Repeat("0", codeSuffixLen-len(suffix)) + suffix
}

func NormalizeReferralCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func IsValidReferralCode(code string) bool {
	return referralCodePattern.MatchString(code)
}

func alnumUpper(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

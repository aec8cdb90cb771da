package validators

import (
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/digimosa/gdpr-scan/internal/models"
	"github.com/digimosa/gdpr-scan/internal/rules"
)

// ChecksumCheck applies the rule's checksum algorithm as a hard gate.
type ChecksumCheck struct{}

func (ChecksumCheck) Name() string { return "checksum" }

func (ChecksumCheck) Apply(c models.RawCandidate, r rules.PatternRule) Verdict {
	if r.Checksum == "" {
		return Pass()
	}
	if VerifyChecksum(r.Checksum, c.MatchedText) {
		return Pass()
	}
	return Fail("checksum_failed")
}

// VerifyChecksum runs the named algorithm on s. Separators are ignored.
func VerifyChecksum(algo, s string) bool {
	switch algo {
	case rules.ChecksumBSN:
		return ValidBSN(s)
	case rules.ChecksumLuhn:
		return ValidLuhn(s)
	case rules.ChecksumIBAN:
		return ValidIBAN(s)
	}
	return false
}

// ValidBSN implements the Dutch 11-proef: the first eight digits weighted
// 9..2 minus the ninth digit must be divisible by 11.
func ValidBSN(s string) bool {
	d := digitsOnly(s)
	if len(d) != 9 {
		return false
	}
	sum := 0
	for i := 0; i < 8; i++ {
		sum += int(d[i]-'0') * (9 - i)
	}
	sum -= int(d[8] - '0')
	return sum%11 == 0
}

// ValidLuhn checks card numbers of 13 to 19 digits.
func ValidLuhn(s string) bool {
	cc := digitsOnly(s)
	if len(cc) < 13 || len(cc) > 19 {
		return false
	}
	sum := 0
	alternate := false
	for i := len(cc) - 1; i >= 0; i-- {
		n := int(cc[i] - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n = (n % 10) + 1
			}
		}
		sum += n
		alternate = !alternate
	}
	return (sum % 10) == 0
}

// ValidIBAN performs the ISO 13616 mod-97 check.
func ValidIBAN(s string) bool {
	iban := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	if len(iban) < 15 || len(iban) > 34 {
		return false
	}

	// Move first 4 characters to the end
	rearranged := iban[4:] + iban[:4]

	var sb strings.Builder
	for _, r := range rearranged {
		switch {
		case r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			// A=10, B=11, ... Z=35
			sb.WriteString(strconv.Itoa(int(r - 'A' + 10)))
		default:
			return false
		}
	}

	n, ok := new(big.Int).SetString(sb.String(), 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(n, big.NewInt(97)).Int64() == 1
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

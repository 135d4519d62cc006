// Package credential generates usernames, temporary passwords and referral codes.
package credential

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"unicode"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MinPasswordLength   = 8
	DefaultReferralLen  = 8
	maxUsernameBaseLen  = 30
	fallbackUsername    = "teacher"
	lowerChars          = "abcdefghijklmnopqrstuvwxyz"
	upperChars          = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars          = "0123456789"
	symbolChars         = "!@#$%^&*()-_=+[]{}?"
	referralCodeCharset = upperChars + digitChars
)

var (
	ErrInvalidLength = errors.New("invalid length")
	// ErrExhausted is returned when a bounded uniqueness loop runs out of attempts.
	ErrExhausted = errors.New("unique value generation exhausted")
)

// GenerateUsername derives a lowercase slug from a display name.
// Accents are folded ("Zoé" -> "zoe") and anything outside [a-z0-9] is dropped.
// The result is deterministic but not unique.
func GenerateUsername(displayName string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		displayName,
	)
	if err != nil {
		folded = displayName
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= maxUsernameBaseLen {
			break
		}
	}
	if b.Len() == 0 {
		return fallbackUsername
	}
	return b.String()
}

// UsernameCandidate returns base for attempt 0, then base1, base2, ...
func UsernameCandidate(base string, attempt int) string {
	if attempt <= 0 {
		return base
	}
	return base + strconv.Itoa(attempt)
}

// GenerateSecurePassword returns a random password with at least one lowercase letter,
// one uppercase letter, one digit and one symbol.
func GenerateSecurePassword(length int) (string, error) {
	if err := vala.BeginValidation().Validate(
		vala.GreaterThan(length, MinPasswordLength-1, "length"),
	).Check(); err != nil {
		return "", errors.Wrap(ErrInvalidLength, err.Error())
	}

	all := lowerChars + upperChars + digitChars + symbolChars
	pwd := make([]byte, 0, length)
	for _, set := range []string{lowerChars, upperChars, digitChars, symbolChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}
	for len(pwd) < length {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		pwd = append(pwd, c)
	}

	// Fisher-Yates so the guaranteed classes are not always in front
	for i := len(pwd) - 1; i > 0; i-- {
		j, err := randomInt(i + 1)
		if err != nil {
			return "", err
		}
		pwd[i], pwd[j] = pwd[j], pwd[i]
	}
	return string(pwd), nil
}

// GenerateReferralCode returns an uppercase alphanumeric code.
// Callers must check the code is unused before persisting it.
func GenerateReferralCode(length int) (string, error) {
	if err := vala.BeginValidation().Validate(
		vala.GreaterThan(length, 0, "length"),
	).Check(); err != nil {
		return "", errors.Wrap(ErrInvalidLength, err.Error())
	}

	code := make([]byte, length)
	for i := range code {
		c, err := randomChar(referralCodeCharset)
		if err != nil {
			return "", err
		}
		code[i] = c
	}
	return string(code), nil
}

// FindUnique calls next for attempts 0..maxAttempts-1 until exists reports the candidate unused.
// It returns ErrExhausted if every candidate is taken.
func FindUnique(maxAttempts int, next func(attempt int) (string, error), exists func(candidate string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate, err := next(attempt)
		if err != nil {
			return "", err
		}
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.Wrapf(ErrExhausted, "after %d attempts", maxAttempts)
}

func randomChar(set string) (byte, error) {
	i, err := randomInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randomInt(max int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, errors.Wrap(err, "reading random source")
	}
	return int(n.Int64()), nil
}

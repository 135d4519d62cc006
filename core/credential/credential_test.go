package credential

import (
	"regexp"
	"strings"
	"testing"
	"unicode"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsername(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "Jane Doe", want: "janedoe"},
		{name: "punctuation", in: "  O'Brien-Smith, Jr. ", want: "obriensmithjr"},
		{name: "accents", in: "Zoé Müller", want: "zoemuller"},
		{name: "digits kept", in: "Agent 007", want: "agent007"},
		{name: "nothing usable", in: "李 !!", want: fallbackUsername},
		{name: "empty", in: "", want: fallbackUsername},
		{name: "truncated", in: strings.Repeat("ab", 40), want: strings.Repeat("ab", 15)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateUsername(tt.in))
			assert.Equal(t, GenerateUsername(tt.in), GenerateUsername(tt.in), "must be deterministic")
		})
	}
}

func TestUsernameCandidate(t *testing.T) {
	assert.Equal(t, "janedoe", UsernameCandidate("janedoe", 0))
	assert.Equal(t, "janedoe1", UsernameCandidate("janedoe", 1))
	assert.Equal(t, "janedoe12", UsernameCandidate("janedoe", 12))
}

func TestGenerateSecurePassword(t *testing.T) {
	for _, length := range []int{MinPasswordLength, 12, 64} {
		pwd, err := GenerateSecurePassword(length)
		require.NoError(t, err)
		assert.Len(t, pwd, length)

		var hasLower, hasUpper, hasDigit, hasSymbol bool
		for _, r := range pwd {
			switch {
			case unicode.IsLower(r):
				hasLower = true
			case unicode.IsUpper(r):
				hasUpper = true
			case unicode.IsDigit(r):
				hasDigit = true
			case strings.ContainsRune(symbolChars, r):
				hasSymbol = true
			default:
				t.Fatalf("unexpected character %q in %q", r, pwd)
			}
		}
		assert.True(t, hasLower && hasUpper && hasDigit && hasSymbol, "password %q misses a character class", pwd)
	}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		pwd, err := GenerateSecurePassword(12)
		require.NoError(t, err)
		assert.False(t, seen[pwd], "duplicate password generated")
		seen[pwd] = true
	}
}

func TestGenerateSecurePassword_invalidLength(t *testing.T) {
	for _, length := range []int{-1, 0, MinPasswordLength - 1} {
		_, err := GenerateSecurePassword(length)
		assert.True(t, errors.Is(err, ErrInvalidLength), "length %d: err = %v", length, err)
	}
}

func TestGenerateReferralCode(t *testing.T) {
	re := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateReferralCode(DefaultReferralLen)
		require.NoError(t, err)
		assert.Regexp(t, re, code)
	}

	_, err := GenerateReferralCode(0)
	assert.True(t, errors.Is(err, ErrInvalidLength))
}

func TestFindUnique(t *testing.T) {
	taken := map[string]bool{"janedoe": true, "janedoe1": true}
	next := func(attempt int) (string, error) { return UsernameCandidate("janedoe", attempt), nil }
	exists := func(c string) (bool, error) { return taken[c], nil }

	got, err := FindUnique(10, next, exists)
	require.NoError(t, err)
	assert.Equal(t, "janedoe2", got)

	calls := 0
	_, err = FindUnique(3, next, func(string) (bool, error) { calls++; return true, nil })
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Equal(t, 3, calls)

	boom := errors.New("boom")
	_, err = FindUnique(3, next, func(string) (bool, error) { return false, boom })
	assert.Equal(t, boom, err)
}

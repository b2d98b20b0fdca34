package shared

import (
	"fmt"
	"regexp"
	"strings"
)

// Compiled regexes for validation (compiled once for performance)
var (
	validHexRegex     = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	validChainIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// StripHexPrefix removes a single leading 0x or 0X
func StripHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// IsValidHex checks if string is non-empty hex (either case, no prefix)
func IsValidHex(s string) bool {
	if s == "" {
		return false
	}
	return validHexRegex.MatchString(s)
}

// IsValidFeltHex checks for an optionally prefixed hex string of at most 64 digits.
// It does not check the value against the field modulus.
func IsValidFeltHex(s string) bool {
	s = StripHexPrefix(s)
	return len(s) <= FeltHexLength && IsValidHex(s)
}

// ValidateChainID validates a chain id that is hashed as a Cairo short string
func ValidateChainID(chainID string) error {
	if chainID == "" {
		return InvalidInput("chain id required")
	}
	if len(chainID) > MaxShortStringLength {
		return InvalidInput(fmt.Sprintf("chain id too long: max %d chars, got %d", MaxShortStringLength, len(chainID)))
	}
	if !validChainIDRegex.MatchString(chainID) {
		return InvalidInput("chain id contains invalid characters (only alphanumeric, dots, hyphens, underscores allowed)")
	}
	return nil
}

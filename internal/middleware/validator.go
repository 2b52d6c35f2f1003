package middleware

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTextRunes bounds one diary entry sent for analysis.
const MaxTextRunes = 2000

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidateUserID validates user ID format
func ValidateUserID(user string) error {
	if user == "" {
		return fmt.Errorf("user ID cannot be empty")
	}
	if !userIDPattern.MatchString(user) {
		return fmt.Errorf("invalid user ID format (alphanumeric, dash, underscore only, max 64 chars)")
	}
	return nil
}

// ValidateText checks the length of text headed for the model. Blank text is left to the
// analysis service, which reports it as empty input.
func ValidateText(text string) error {
	if n := utf8.RuneCountInString(text); n > MaxTextRunes {
		return fmt.Errorf("text too long: %d characters (max %d)", n, MaxTextRunes)
	}
	return nil
}

// SanitizeString removes dangerous characters from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")

	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\t' || r == '\n' {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 50 {
		return 50 // history never holds more
	}
	return limit
}

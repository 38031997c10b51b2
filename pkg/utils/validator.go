package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RequireNonEmpty validates that a required string field is not blank.
func RequireNonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

// ValidateDateRange validates that end, when set, does not precede start.
func ValidateDateRange(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return fmt.Errorf("end_date %s precedes start_date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return nil
}

// SanitizeString removes control characters from free-text input
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}

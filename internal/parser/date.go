package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultDatePattern matches "March 3, 2024", "Sept 12 2025", "dec 1, 2024".
// Day and month values are not validated against a calendar.
const DefaultDatePattern = `(?i)\b(?:Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|` +
	`Jul(?:y)?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)` +
	`\s+\d{1,2},?\s+\d{4}\b`

// DateDetector finds month-name dates in free text.
type DateDetector struct {
	re *regexp.Regexp
}

// NewDateDetector compiles pattern, or DefaultDatePattern when empty.
func NewDateDetector(pattern string) (*DateDetector, error) {
	if pattern == "" {
		pattern = DefaultDatePattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile date pattern: %w", err)
	}
	return &DateDetector{re: re}, nil
}

// MustDateDetector is like NewDateDetector but panics on a bad pattern.
func MustDateDetector(pattern string) *DateDetector {
	d, err := NewDateDetector(pattern)
	if err != nil {
		panic(err)
	}
	return d
}

// Find returns the first date in text, verbatim.
func (d *DateDetector) Find(text string) (string, bool) {
	m := d.re.FindString(text)
	if m == "" {
		return "", false
	}
	return m, true
}

// Match reports whether text contains a date.
func (d *DateDetector) Match(text string) bool {
	return d.re.MatchString(text)
}

// Normalize is the display form used for candidate dates.
func (d *DateDetector) Normalize(date string) string {
	return strings.ToUpper(strings.TrimSpace(date))
}

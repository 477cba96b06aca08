// Package leads contains the lead-magnet domain model: field normalization,
// lead source classification, and the record-store contract.
package leads

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Maximum lengths per field, matching the store schema.
const (
	MaxEmailLength    = 320
	MaxNameLength     = 120
	MaxTokenLength    = 120
	MaxCampaignLength = 180
	MaxPathLength     = 255
)

// ISOLayout is the canonical timestamp serialization for store writes.
const ISOLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	controlCharsPattern = regexp.MustCompile(`[\x00-\x1f\x7f]+`)
	emailPattern        = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	tokenPattern        = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	recordIDPattern     = regexp.MustCompile(`^rec[a-zA-Z0-9]{8,}$`)
	nonAlphanumPattern  = regexp.MustCompile(`[^A-Za-z0-9]+`)
	spacesPattern       = regexp.MustCompile(`\s+`)
)

// NormalizeText strips control characters, trims whitespace, and caps the
// result at maxLength. Returns "" when nothing usable remains.
func NormalizeText(value string, maxLength int) string {
	cleaned := strings.TrimSpace(controlCharsPattern.ReplaceAllString(value, " "))
	if cleaned == "" {
		return ""
	}
	if len(cleaned) > maxLength {
		cleaned = cleaned[:maxLength]
	}
	return cleaned
}

// NormalizeEmail lower-cases and validates an email address against a simple
// local@domain.tld shape. Returns "" when invalid. Idempotent.
func NormalizeEmail(value string) string {
	email := strings.ToLower(NormalizeText(value, MaxEmailLength))
	if email == "" || !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

// NormalizeToken validates an opaque outreach token: letters, digits,
// dash, underscore only. Returns "" when invalid.
func NormalizeToken(value string) string {
	token := NormalizeText(value, MaxTokenLength)
	if token == "" || !tokenPattern.MatchString(token) {
		return ""
	}
	return token
}

// NormalizeFirstName cleans a display name.
func NormalizeFirstName(value string) string {
	return NormalizeText(value, MaxNameLength)
}

// NormalizeRecordID validates a store record identifier. Client-supplied ids
// are never trusted without this format check.
func NormalizeRecordID(value string) string {
	trimmed := strings.TrimSpace(value)
	if !recordIDPattern.MatchString(trimmed) {
		return ""
	}
	return trimmed
}

// NormalizeLeadSource accepts only the four enumerated acquisition channels.
func NormalizeLeadSource(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case SourceOutreach, SourceAd, SourceSocial, SourceOrganic:
		return normalized
	}
	return ""
}

// NormalizeBool accepts native booleans and the literal strings "true" and
// "false". The second return value reports whether a value was present.
func NormalizeBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		if v == "true" {
			return true, true
		}
		if v == "false" {
			return false, true
		}
	}
	return false, false
}

// NormalizeTimestamp parses a timestamp and re-serializes it as UTC in the
// canonical layout. Unparsable input yields "".
func NormalizeTimestamp(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC().Format(ISOLayout)
		}
	}
	return ""
}

// NormalizeDownloadCount coerces numeric-looking input to a non-negative
// integer floor, defaulting to 0.
func NormalizeDownloadCount(value any) int {
	switch v := value.(type) {
	case int:
		if v < 0 {
			return 0
		}
		return v
	case int64:
		if v < 0 {
			return 0
		}
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0
		}
		floored := int(math.Floor(v))
		if floored < 0 {
			return 0
		}
		return floored
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || parsed < 0 {
			return 0
		}
		return parsed
	}
	return 0
}

// DeriveNameFromEmail builds a fallback display name from the email's local
// part: non-alphanumerics become spaces, runs collapse, "Lead" when empty.
func DeriveNameFromEmail(email string) string {
	localPart, _, _ := strings.Cut(email, "@")
	name := nonAlphanumPattern.ReplaceAllString(localPart, " ")
	name = strings.TrimSpace(spacesPattern.ReplaceAllString(name, " "))
	if name == "" {
		return "Lead"
	}
	return name
}

// NowISO returns the current UTC time in the canonical layout.
func NowISO() string {
	return time.Now().UTC().Format(ISOLayout)
}

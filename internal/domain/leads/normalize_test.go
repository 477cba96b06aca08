package leads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "anna@example.com", NormalizeEmail("  Anna@Example.COM  "))
	assert.Equal(t, "a.b+c@mail.example.de", NormalizeEmail("a.b+c@mail.example.de"))

	assert.Empty(t, NormalizeEmail(""))
	assert.Empty(t, NormalizeEmail("not-an-email"))
	assert.Empty(t, NormalizeEmail("two words@example.com"))
	assert.Empty(t, NormalizeEmail("missing@tld"))
	assert.Empty(t, NormalizeEmail("@example.com"))

	tooLong := strings.Repeat("a", MaxEmailLength) + "@example.com"
	assert.Empty(t, NormalizeEmail(tooLong))
}

func TestNormalizeEmailStripsControlChars(t *testing.T) {
	assert.Equal(t, "anna@example.com", NormalizeEmail("anna@example.com\x00"))
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc_DEF-123", NormalizeToken(" abc_DEF-123 "))

	assert.Empty(t, NormalizeToken(""))
	assert.Empty(t, NormalizeToken("has space"))
	assert.Empty(t, NormalizeToken("emoji🎉"))
	assert.Empty(t, NormalizeToken("semi;colon"))
	assert.Empty(t, NormalizeToken(strings.Repeat("x", MaxTokenLength+1)))
}

func TestNormalizeRecordID(t *testing.T) {
	assert.Equal(t, "recAbc12345Xyz", NormalizeRecordID(" recAbc12345Xyz "))

	assert.Empty(t, NormalizeRecordID("rec123"), "too short after prefix")
	assert.Empty(t, NormalizeRecordID("id_recAbc12345"), "wrong prefix")
	assert.Empty(t, NormalizeRecordID("recAbc_12345"), "underscore not allowed")
	assert.Empty(t, NormalizeRecordID(""))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "hello", NormalizeText("  hello\x01\x02  ", 40))
	assert.Equal(t, "abcde", NormalizeText("abcdefgh", 5))
	assert.Empty(t, NormalizeText("\x00\x1f", 40))
}

func TestNormalizeTextIdempotent(t *testing.T) {
	inputs := []string{"  Hello World  ", "abc\x07def", strings.Repeat("z", 500)}
	for _, input := range inputs {
		once := NormalizeText(input, MaxNameLength)
		assert.Equal(t, once, NormalizeText(once, MaxNameLength))
	}
}

func TestNormalizeBool(t *testing.T) {
	cases := []struct {
		value any
		want  bool
		ok    bool
	}{
		{true, true, true},
		{false, false, true},
		{"true", true, true},
		{"false", false, true},
		{nil, false, false},
		{"yes", false, false},
		{float64(1), false, false},
	}
	for _, tc := range cases {
		got, ok := NormalizeBool(tc.value)
		assert.Equal(t, tc.ok, ok, "value %v", tc.value)
		assert.Equal(t, tc.want, got, "value %v", tc.value)
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	assert.Equal(t, "2026-03-01T10:30:00.000Z", NormalizeTimestamp("2026-03-01T10:30:00Z"))
	assert.Equal(t, "2026-03-01T09:30:00.000Z", NormalizeTimestamp("2026-03-01T10:30:00+01:00"))
	assert.Equal(t, "2026-03-01T00:00:00.000Z", NormalizeTimestamp("2026-03-01"))
	assert.Empty(t, NormalizeTimestamp("yesterday"))
	assert.Empty(t, NormalizeTimestamp(""))
}

func TestNormalizeDownloadCount(t *testing.T) {
	assert.Equal(t, 3, NormalizeDownloadCount(3))
	assert.Equal(t, 3, NormalizeDownloadCount(int64(3)))
	assert.Equal(t, 3, NormalizeDownloadCount(3.9))
	assert.Equal(t, 3, NormalizeDownloadCount("3"))
	assert.Equal(t, 0, NormalizeDownloadCount(-2))
	assert.Equal(t, 0, NormalizeDownloadCount("abc"))
	assert.Equal(t, 0, NormalizeDownloadCount(nil))
}

func TestDeriveNameFromEmail(t *testing.T) {
	assert.Equal(t, "anna schmidt", DeriveNameFromEmail("anna.schmidt@example.com"))
	assert.Equal(t, "max 99", DeriveNameFromEmail("max_99@example.com"))
	assert.Equal(t, "Lead", DeriveNameFromEmail("...@example.com"))
	assert.Equal(t, "Lead", DeriveNameFromEmail(""))
}

func TestBuildFieldsOmitsAbsentValues(t *testing.T) {
	fields := BuildFields(FieldInput{
		Email:      "anna@example.com",
		LeadSource: SourceOrganic,
	})

	assert.Equal(t, "anna@example.com", fields[FieldEmail])
	assert.Equal(t, SourceOrganic, fields[FieldLeadSource])
	assert.NotContains(t, fields, FieldToken)
	assert.NotContains(t, fields, FieldUtmSource)
	assert.NotContains(t, fields, FieldDownloadCount)
	assert.Contains(t, fields, FieldLastSeenAt, "last_seen_at is always written")
}

func TestBuildFieldsConsentAndCount(t *testing.T) {
	count := 2
	fields := BuildFields(FieldInput{
		Email:            "anna@example.com",
		ConsentMarketing: "true",
		DownloadCount:    &count,
	})

	assert.Equal(t, true, fields[FieldConsentMarketing])
	assert.Equal(t, 2, fields[FieldDownloadCount])

	fields = BuildFields(FieldInput{Email: "anna@example.com", ConsentMarketing: "maybe"})
	assert.NotContains(t, fields, FieldConsentMarketing, "unparseable consent is omitted, not defaulted")
}

package leads

import "strings"

// Acquisition channels, coarsest useful granularity for attribution.
const (
	SourceOutreach = "outreach"
	SourceAd       = "ad"
	SourceSocial   = "social"
	SourceOrganic  = "organic"
)

var adMediums = map[string]struct{}{
	"cpc":         {},
	"ppc":         {},
	"paid":        {},
	"paid_social": {},
	"display":     {},
}

var socialMediums = map[string]struct{}{
	"social":         {},
	"organic_social": {},
}

var socialSources = map[string]struct{}{
	"linkedin":  {},
	"facebook":  {},
	"instagram": {},
	"x":         {},
	"twitter":   {},
	"tiktok":    {},
}

// DeriveLeadSource classifies the acquisition channel from a token and UTM
// hints. A valid token always wins: outreach links identify a pre-known
// contact regardless of how the URL was decorated. Never fails; the fallback
// is organic.
func DeriveLeadSource(token, utmSource, utmMedium string) string {
	if NormalizeToken(token) != "" {
		return SourceOutreach
	}

	medium := lowered(utmMedium)
	source := lowered(utmSource)

	if _, ok := adMediums[medium]; ok {
		return SourceAd
	}
	if _, ok := socialMediums[medium]; ok {
		return SourceSocial
	}
	if _, ok := socialSources[source]; ok {
		return SourceSocial
	}
	return SourceOrganic
}

func lowered(value string) string {
	return strings.ToLower(NormalizeText(value, MaxNameLength))
}

package leads

// Store field names. The map between the domain and the external record
// store is deliberately one file so schema renames touch a single place.
const (
	FieldEmail            = "email"
	FieldToken            = "token"
	FieldFirstName        = "name"
	FieldConsentMarketing = "consent_marketing"
	FieldLeadSource       = "lead_source"
	FieldAssetID          = "asset_id"
	FieldUtmSource        = "utm_source"
	FieldUtmMedium        = "utm_medium"
	FieldUtmCampaign      = "utm_campaign"
	FieldUtmContent       = "utm_content"
	FieldTsSubmitted      = "ts_submitted"
	FieldTsDownloaded     = "ts_downloaded"
	FieldDownloadCount    = "download_count"
	FieldFlowType         = "flow_type"
	FieldStateRequested   = "state_requested"
	FieldTokenMatchStatus = "token_match_status"
	FieldPagePath         = "page_path"
	FieldLastSeenAt       = "last_seen_at"
)

// Flow types: how the session entered the funnel.
const (
	FlowKnown = "known"
	FlowGated = "gated"
)

// Token match statuses recorded on store writes.
const (
	TokenMatched       = "matched"
	TokenUnmatched     = "unmatched"
	TokenNotApplicable = "not_applicable"
	TokenUnknown       = "unknown"
)

// FieldInput carries raw values destined for a store write. Empty strings
// mean absent; ConsentMarketing and DownloadCount distinguish absent from
// false/zero explicitly.
type FieldInput struct {
	Email            string
	Token            string
	FirstName        string
	ConsentMarketing any
	LeadSource       string
	AssetID          string
	UtmSource        string
	UtmMedium        string
	UtmCampaign      string
	UtmContent       string
	TsSubmitted      string
	TsDownloaded     string
	FlowType         string
	StateRequested   string
	TokenMatchStatus string
	PagePath         string
	LastSeenAt       string
	DownloadCount    *int
}

// BuildFields normalizes input into a store write payload. Absent fields are
// omitted entirely, never nulled, so existing store data is not clobbered.
// last_seen_at always gets a value so every write refreshes recency.
func BuildFields(input FieldInput) map[string]any {
	fields := make(map[string]any)

	setIf(fields, FieldEmail, NormalizeEmail(input.Email))
	setIf(fields, FieldToken, NormalizeToken(input.Token))
	setIf(fields, FieldFirstName, NormalizeFirstName(input.FirstName))
	setIf(fields, FieldLeadSource, NormalizeText(input.LeadSource, 80))
	setIf(fields, FieldAssetID, NormalizeText(input.AssetID, MaxNameLength))
	setIf(fields, FieldUtmSource, NormalizeText(input.UtmSource, MaxNameLength))
	setIf(fields, FieldUtmMedium, NormalizeText(input.UtmMedium, MaxNameLength))
	setIf(fields, FieldUtmCampaign, NormalizeText(input.UtmCampaign, MaxCampaignLength))
	setIf(fields, FieldUtmContent, NormalizeText(input.UtmContent, MaxCampaignLength))
	setIf(fields, FieldTsSubmitted, NormalizeTimestamp(input.TsSubmitted))
	setIf(fields, FieldTsDownloaded, NormalizeTimestamp(input.TsDownloaded))
	setIf(fields, FieldFlowType, NormalizeText(input.FlowType, 40))
	setIf(fields, FieldStateRequested, NormalizeText(input.StateRequested, 40))
	setIf(fields, FieldTokenMatchStatus, NormalizeText(input.TokenMatchStatus, 40))
	setIf(fields, FieldPagePath, NormalizeText(input.PagePath, MaxPathLength))

	if consent, ok := NormalizeBool(input.ConsentMarketing); ok {
		fields[FieldConsentMarketing] = consent
	}

	if lastSeen := NormalizeTimestamp(input.LastSeenAt); lastSeen != "" {
		fields[FieldLastSeenAt] = lastSeen
	} else {
		fields[FieldLastSeenAt] = NowISO()
	}

	if input.DownloadCount != nil {
		count := *input.DownloadCount
		if count < 0 {
			count = 0
		}
		fields[FieldDownloadCount] = count
	}

	return fields
}

func setIf(fields map[string]any, key, value string) {
	if value != "" {
		fields[key] = value
	}
}

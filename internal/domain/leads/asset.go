package leads

// Asset describes a gated download offered on the marketing site.
type Asset struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	PageCount   int    `json:"pageCount"`
	ReadMinutes int    `json:"readMinutes"`
	FileType    string `json:"fileType"`
	DownloadURL string `json:"downloadUrl"`
}

// ReportingPlaybookAsset is the currently offered lead magnet. The id is a
// stable constant carried on every capture and download event.
var ReportingPlaybookAsset = Asset{
	ID:          "reporting-example-pdf-v1",
	Title:       "CRM Print-Mailing Playbook 2026 für D2C Retention",
	PageCount:   24,
	ReadMinutes: 18,
	FileType:    "PDF",
	DownloadURL: "/downloads/9 Print Kampagnen die jede Brand nutzen sollte_v0.5.pdf",
}

// StoredPayload is the browser-session cache of the last successful capture.
// It pre-fills UI and avoids redundant known-lead lookups; it is never
// authoritative, the external store is.
type StoredPayload struct {
	Email            string `json:"email"`
	Name             string `json:"name,omitempty"`
	ConsentMarketing bool   `json:"consent_marketing"`
	LeadSource       string `json:"lead_source"`
	AssetID          string `json:"asset_id"`
	UtmSource        string `json:"utm_source,omitempty"`
	UtmMedium        string `json:"utm_medium,omitempty"`
	UtmCampaign      string `json:"utm_campaign,omitempty"`
	UtmContent       string `json:"utm_content,omitempty"`
	TsSubmitted      string `json:"ts_submitted"`
	Token            string `json:"token,omitempty"`
	TokenMatched     bool   `json:"token_matched"`
	LeadRecordID     string `json:"lead_record_id,omitempty"`
	CapturedAt       string `json:"captured_at"`
}

// Package analytics defines the lead-magnet analytics event model and the
// sink capability endpoints emit through.
package analytics

import "time"

// Event names pushed by the lead-magnet flow. These are the wire names the
// marketing site's tag manager expects; do not rename casually.
const (
	EventView              = "lead_magnet_view"
	EventFormSubmit        = "lead_magnet_form_submit"
	EventDownloadClick     = "lead_magnet_download_click"
	EventKnownUnlockView   = "lead_magnet_known_unlock_view"
	EventSecondaryCtaClick = "lead_magnet_secondary_cta_click"
)

// Attribute keys extracted into their own event-log columns for cheap
// aggregation.
const (
	AttrSessionID        = "session_id"
	AttrState            = "state"
	AttrAssetID          = "asset_id"
	AttrLeadSource       = "lead_source"
	AttrTokenMatchStatus = "token_match_status"
	AttrToken            = "token"
	AttrConsentMarketing = "consent_marketing"
)

// Event is one recorded analytics event.
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// EventSink receives emitted events. Implementations must be best-effort:
// emission never fails the calling request.
type EventSink interface {
	Emit(name string, attributes map[string]any)
}

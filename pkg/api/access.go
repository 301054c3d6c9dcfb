package api

// JoinEventRequest exchanges an invite code for an access token.
type JoinEventRequest struct {
	InviteCode string `json:"invite_code"`
}

type JoinEventResponse struct {
	Token        string         `json:"token"`
	ExpiresAt    int64          `json:"expires_at"`
	EventID      string         `json:"event_id"`
	EventName    string         `json:"event_name"`
	BaseCurrency string         `json:"base_currency"`
	Participants []*Participant `json:"participants"`
}

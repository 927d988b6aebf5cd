package extract

import "encoding/json"

// SessionInfo holds descriptive fields about a shared conversation.
// All fields are best-effort: absence is represented by empty strings.
type SessionInfo struct {
	Country string `json:"country"`
	City    string `json:"city"`
	Title   string `json:"title"`
}

// sessionPayload mirrors the two payload objects session fields live under.
type sessionPayload struct {
	ChatPageProps struct {
		UserCountry string `json:"userCountry"`
		CfIPCity    string `json:"cfIpCity"`
	} `json:"chatPageProps"`
	Meta struct {
		Title string `json:"title"`
	} `json:"meta"`
}

// Session reads session metadata out of the extracted payload text.
// Metadata must never fail the pipeline: bad JSON, wrong shapes, and missing
// objects all yield an all-empty SessionInfo.
func Session(payload string) SessionInfo {
	var p sessionPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return SessionInfo{}
	}
	return SessionInfo{
		Country: p.ChatPageProps.UserCountry,
		City:    p.ChatPageProps.CfIPCity,
		Title:   p.Meta.Title,
	}
}

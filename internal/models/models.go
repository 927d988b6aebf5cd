// Package models holds persisted row types shared between db and api.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is one stored analysis summary. The full packaged result lives in
// object storage under StorageKey; this row carries the queryable summary.
type Analysis struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Title   string `json:"title"`
	Country string `json:"country"`
	City    string `json:"city"`

	// Submitter survey data; optional and self-reported.
	ChatType    string `json:"chat_type,omitempty"`
	ChatPurpose string `json:"chat_purpose,omitempty"`
	Consent     bool   `json:"consent"`

	Questions      int `json:"questions"`
	Responses      int `json:"responses"`
	ToolsCalled    int `json:"tools_called"`
	AssistantCount int `json:"assistant_count"`
	SystemCount    int `json:"system_count"`
	WebSearches    int `json:"web_searches"`
	Citations      int `json:"citations"`
	Images         int `json:"images"`
	UserTokens     int `json:"user_tokens"`
	ResponseTokens int `json:"response_tokens"`

	// Statistics is the raw global statistics JSON as produced by the
	// pipeline, kept verbatim alongside the flattened columns.
	Statistics []byte `json:"-"`

	StorageKey string `json:"-"`
}

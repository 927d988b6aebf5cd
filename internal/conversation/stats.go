package conversation

import "strings"

// TurnStatistics are counts scoped to one unit's responses.
//
// SystemTokens keeps its historical name but sums token counts over every
// response with a non-empty first content part, whatever the author role.
// Callers should read it as "response tokens".
type TurnStatistics struct {
	Responses    int `json:"responses"`
	ToolsCalled  int `json:"toolsCalled"`
	Assistant    int `json:"assistant"`
	SystemCount  int `json:"systemCount"`
	WebSearches  int `json:"webSearches"`
	Citations    int `json:"citations"`
	Images       int `json:"images"`
	SystemTokens int `json:"systemTokens"`
	UserTokens   int `json:"userTokens,omitempty"`
}

// Reference is one cited search result. Only entries with a non-blank title
// are collected.
type Reference struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Summarize computes a unit's statistics and references in one linear scan
// over its responses.
func Summarize(responses []Record) (TurnStatistics, []Reference) {
	var stats TurnStatistics
	references := []Reference{}

	for _, resp := range responses {
		stats.Responses++

		switch resp.Role() {
		case RoleTool:
			stats.ToolsCalled++
		case RoleAssistant:
			stats.Assistant++
		case RoleSystem:
			stats.SystemCount++
		}

		// Token counts accumulate for any response whose first content part
		// is present and non-empty. A count that fails to parse adds 0.
		if first := resp.FirstPart(); first != nil {
			if s, isString := first.(string); !isString || s != "" {
				if tokens, ok := resp.Tokens(); ok {
					stats.SystemTokens += tokens
				}
			}
		}

		for _, g := range resp.SearchResultGroups() {
			stats.WebSearches++
			group, ok := g.(map[string]interface{})
			if !ok {
				continue
			}
			entries, ok := group["entries"].([]interface{})
			if !ok {
				continue
			}
			for _, e := range entries {
				entry, ok := e.(map[string]interface{})
				if !ok {
					continue
				}
				title, _ := entry["title"].(string)
				if strings.TrimSpace(title) == "" {
					continue
				}
				url, _ := entry["url"].(string)
				stats.Citations++
				references = append(references, Reference{URL: url, Title: title})
			}
		}

		for _, p := range resp.Parts() {
			part, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			if ct, _ := part["content_type"].(string); ct != "image_asset_pointer" {
				continue
			}
			if truthy(part["asset_pointer"]) {
				stats.Images++
			}
		}
	}

	return stats, references
}

// truthy mirrors loose JS truthiness for the few scalar shapes the payload
// actually carries in pointer fields.
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case string:
		return val != ""
	case float64:
		return val != 0
	case bool:
		return val
	case nil:
		return false
	default:
		return true
	}
}

// Package conversation reconstructs a question/response structure from the
// flat message list recovered out of a share-page payload, and derives the
// per-turn and session-wide statistics the dashboards are built on.
package conversation

import (
	"strconv"
	"strings"
)

// Author roles observed in share payloads. Roles are mutually exclusive;
// a record matching none of them simply doesn't count toward role totals.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleTool      = "tool"
)

// Record is one message record as decoded from the payload. The payload
// schema is versioned and drifts, so Record stays a raw map with lenient
// typed accessors rather than a rigid struct: a field that is missing or has
// an unexpected type reads as its zero value, never as a panic.
type Record map[string]interface{}

// AsRecord converts a decoded JSON value into a Record.
// Non-object values yield nil.
func AsRecord(v interface{}) Record {
	if m, ok := v.(map[string]interface{}); ok {
		return Record(m)
	}
	return nil
}

// Role returns the author role. Minimized records carry the role at the top
// level instead of under author, so both shapes are read.
func (r Record) Role() string {
	if author, ok := r["author"].(map[string]interface{}); ok {
		if role, ok := author["role"].(string); ok {
			return role
		}
	}
	if role, ok := r["role"].(string); ok {
		return role
	}
	return ""
}

// CreateTime returns the record's creation timestamp as a dedup key.
// The payload carries it as a float of epoch seconds, but strings survive
// too. The second return is false when the field is missing, null, zero, or
// blank; such records cannot be deduplicated safely and are dropped.
func (r Record) CreateTime() (string, bool) {
	switch v := r["create_time"].(type) {
	case float64:
		if v == 0 {
			return "", false
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case string:
		if strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	default:
		return "", false
	}
}

// content returns the content object, if present.
func (r Record) content() map[string]interface{} {
	c, _ := r["content"].(map[string]interface{})
	return c
}

// Parts returns the ordered content parts. Full records keep them under
// content.parts; minimized records hoist them to the top level.
func (r Record) Parts() []interface{} {
	if c := r.content(); c != nil {
		if parts, ok := c["parts"].([]interface{}); ok {
			return parts
		}
	}
	parts, _ := r["parts"].([]interface{})
	return parts
}

// FirstPart returns the first content part, or nil if there are none.
func (r Record) FirstPart() interface{} {
	parts := r.Parts()
	if len(parts) == 0 {
		return nil
	}
	return parts[0]
}

// FirstPartText returns the first content part when it is a string.
func (r Record) FirstPartText() (string, bool) {
	s, ok := r.FirstPart().(string)
	return s, ok
}

// SetFirstPart replaces the first content part in place.
func (r Record) SetFirstPart(v interface{}) {
	if c := r.content(); c != nil {
		if parts, ok := c["parts"].([]interface{}); ok && len(parts) > 0 {
			parts[0] = v
			return
		}
	}
	if parts, ok := r["parts"].([]interface{}); ok && len(parts) > 0 {
		parts[0] = v
	}
}

// Tokens reads the numeric token count at content.tokens.
// Non-numeric values read as 0 so a malformed count can never poison a sum.
func (r Record) Tokens() (int, bool) {
	c := r.content()
	if c == nil {
		return 0, false
	}
	switch v := c["tokens"].(type) {
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// SetTokens writes the token count (or raw token sequence) at content.tokens,
// creating the content object when the record lacks one.
func (r Record) SetTokens(v interface{}) {
	c := r.content()
	if c == nil {
		c = map[string]interface{}{}
		r["content"] = c
	}
	c["tokens"] = v
}

// metadata returns the auxiliary metadata object. Minimized records keep the
// curated subset under "other" instead.
func (r Record) metadata() map[string]interface{} {
	if m, ok := r["metadata"].(map[string]interface{}); ok {
		return m
	}
	m, _ := r["other"].(map[string]interface{})
	return m
}

// SearchResultGroups returns metadata.search_result_groups when it is an
// array, nil otherwise.
func (r Record) SearchResultGroups() []interface{} {
	m := r.metadata()
	if m == nil {
		return nil
	}
	groups, _ := m["search_result_groups"].([]interface{})
	return groups
}

package conversation

import "testing"

func TestSummarize_TokenCondition(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want int
	}{
		{
			name: "non-empty string part counts",
			rec:  withTokens(rec(1.0, "assistant", "hello"), 5),
			want: 5,
		},
		{
			name: "empty string part does not count",
			rec:  withTokens(rec(1.0, "assistant", ""), 5),
			want: 0,
		},
		{
			name: "non-string part counts",
			rec: func() Record {
				r := Record{
					"author": map[string]interface{}{"role": "assistant"},
					"content": map[string]interface{}{
						"parts":  []interface{}{map[string]interface{}{"content_type": "image_asset_pointer"}},
						"tokens": 7.0,
					},
				}
				return r
			}(),
			want: 7,
		},
		{
			name: "no parts does not count",
			rec: Record{
				"author":  map[string]interface{}{"role": "assistant"},
				"content": map[string]interface{}{"tokens": 5.0},
			},
			want: 0,
		},
		{
			name: "string token count parses",
			rec: Record{
				"author": map[string]interface{}{"role": "system"},
				"content": map[string]interface{}{
					"parts":  []interface{}{"ok"},
					"tokens": "12",
				},
			},
			want: 12,
		},
		{
			name: "unparseable token count adds zero",
			rec: Record{
				"author": map[string]interface{}{"role": "assistant"},
				"content": map[string]interface{}{
					"parts":  []interface{}{"ok"},
					"tokens": "not a number",
				},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, _ := Summarize([]Record{tt.rec})
			if stats.SystemTokens != tt.want {
				t.Errorf("systemTokens = %d, want %d", stats.SystemTokens, tt.want)
			}
		})
	}
}

func TestSummarize_TokensCountRegardlessOfRole(t *testing.T) {
	responses := []Record{
		withTokens(rec(1.0, "assistant", "a"), 3),
		withTokens(rec(2.0, "tool", "b"), 4),
		withTokens(rec(3.0, "system", "c"), 5),
	}

	stats, _ := Summarize(responses)
	if stats.SystemTokens != 12 {
		t.Errorf("systemTokens = %d, want 12 (sums across roles)", stats.SystemTokens)
	}
}

func TestSummarize_Images(t *testing.T) {
	makeImage := func(pointer interface{}) Record {
		part := map[string]interface{}{"content_type": "image_asset_pointer"}
		if pointer != nil {
			part["asset_pointer"] = pointer
		}
		return Record{
			"author":  map[string]interface{}{"role": "assistant"},
			"content": map[string]interface{}{"parts": []interface{}{part}},
		}
	}

	responses := []Record{
		makeImage("file-service://abc"),
		makeImage(""),
		makeImage(nil),
		makeImage(true),
	}

	stats, _ := Summarize(responses)
	if stats.Images != 2 {
		t.Errorf("images = %d, want 2 (empty and missing pointers excluded)", stats.Images)
	}
}

func TestSummarize_EmptyReferences(t *testing.T) {
	stats, refs := Summarize(nil)
	if stats.Responses != 0 {
		t.Errorf("responses = %d, want 0", stats.Responses)
	}
	if refs == nil {
		t.Error("references should be an empty slice, not nil")
	}
	if len(refs) != 0 {
		t.Errorf("references = %v, want empty", refs)
	}
}

func TestAggregate(t *testing.T) {
	units := []Unit{
		{
			User: rec(1.0, "user", "q1"),
			Statistics: TurnStatistics{
				Responses: 2, Assistant: 1, ToolsCalled: 1,
				WebSearches: 1, Citations: 2, SystemTokens: 10, UserTokens: 4,
			},
		},
		{
			User: rec(2.0, "user", "q2"),
			Statistics: TurnStatistics{
				Responses: 1, Assistant: 1, Images: 1, SystemTokens: 5,
			},
		},
	}

	g := Aggregate(units)
	if g.Questions != 2 {
		t.Errorf("questions = %d, want 2", g.Questions)
	}
	if g.Responses != 3 {
		t.Errorf("responses = %d, want 3", g.Responses)
	}
	if g.Assistant != 2 {
		t.Errorf("assistant = %d, want 2", g.Assistant)
	}
	if g.SystemTokens != 15 {
		t.Errorf("systemTokens = %d, want 15", g.SystemTokens)
	}
	if g.UserTokens != 4 {
		t.Errorf("userTokens = %d, want 4", g.UserTokens)
	}
	if g.Citations != 2 || g.WebSearches != 1 || g.Images != 1 || g.ToolsCalled != 1 {
		t.Errorf("aggregate = %+v", g)
	}
}

func TestAggregate_Empty(t *testing.T) {
	g := Aggregate(nil)
	if g != (GlobalStatistics{}) {
		t.Errorf("Aggregate(nil) = %+v, want zero value", g)
	}
}

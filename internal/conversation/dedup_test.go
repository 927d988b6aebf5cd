package conversation

import (
	"reflect"
	"testing"
)

func rec(createTime interface{}, role string, text string) Record {
	r := Record{
		"author":  map[string]interface{}{"role": role},
		"content": map[string]interface{}{"parts": []interface{}{text}},
	}
	if createTime != nil {
		r["create_time"] = createTime
	}
	return r
}

func firstTexts(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		s, _ := r.FirstPartText()
		out = append(out, s)
	}
	return out
}

func TestDeduplicate_LastWinsFirstPosition(t *testing.T) {
	records := []Record{
		rec(1.0, "user", "first"),
		rec(2.0, "assistant", "second"),
		rec(1.0, "user", "updated first"),
		rec(3.0, "assistant", "third"),
	}

	got := firstTexts(Deduplicate(records))
	want := []string{"updated first", "second", "third"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Deduplicate() order = %v, want %v", got, want)
	}
}

func TestDeduplicate_DropsUnusableKeys(t *testing.T) {
	records := []Record{
		rec(nil, "user", "no create_time"),
		rec(0.0, "user", "zero create_time"),
		rec("  ", "user", "blank create_time"),
		rec(5.5, "user", "kept"),
		nil,
	}

	got := firstTexts(Deduplicate(records))
	want := []string{"kept"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Deduplicate() = %v, want %v", got, want)
	}
}

func TestDeduplicate_FloatKeyFormatting(t *testing.T) {
	// A float 7 and the string "7" format to the same key text
	records := []Record{
		rec(7.0, "user", "float"),
		rec("7", "user", "string"),
	}

	got := firstTexts(Deduplicate(records))
	want := []string{"string"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Deduplicate() = %v, want %v", got, want)
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	records := []Record{
		rec(1.0, "user", "a"),
		rec(2.0, "assistant", "b"),
		rec(1.0, "user", "c"),
	}

	once := Deduplicate(records)
	twice := Deduplicate(once)
	if !reflect.DeepEqual(firstTexts(once), firstTexts(twice)) {
		t.Errorf("Deduplicate() not idempotent: %v then %v", firstTexts(once), firstTexts(twice))
	}
}

func TestRemoveNulls(t *testing.T) {
	in := map[string]interface{}{
		"keep":  "value",
		"drop":  nil,
		"zero":  0.0,
		"empty": "",
		"nested": map[string]interface{}{
			"inner_drop": nil,
			"inner_keep": false,
		},
		"list": []interface{}{
			map[string]interface{}{"gone": nil, "here": 1.0},
		},
	}

	got := RemoveNulls(in).(map[string]interface{})

	if _, ok := got["drop"]; ok {
		t.Error("top-level null key survived")
	}
	if got["zero"] != 0.0 || got["empty"] != "" {
		t.Error("falsy non-null values should survive")
	}
	nested := got["nested"].(map[string]interface{})
	if _, ok := nested["inner_drop"]; ok {
		t.Error("nested null key survived")
	}
	if nested["inner_keep"] != false {
		t.Error("nested false value should survive")
	}
	item := got["list"].([]interface{})[0].(map[string]interface{})
	if _, ok := item["gone"]; ok {
		t.Error("null key inside list element survived")
	}
}

func TestNormalize_Minimize(t *testing.T) {
	r := Record{
		"id":          "secret-id",
		"create_time": 12.0,
		"author": map[string]interface{}{
			"role":     "assistant",
			"name":     "should drop",
			"metadata": map[string]interface{}{"real_author": "tool:web"},
		},
		"content": map[string]interface{}{
			"parts":  []interface{}{"hello"},
			"tokens": 42.0,
		},
		"metadata": map[string]interface{}{
			"model_slug":   "gpt-4o",
			"request_id":   "should drop",
			"message_type": nil,
			"citations":    []interface{}{},
		},
	}

	out := Normalize([]Record{r}, true)
	if len(out) != 1 {
		t.Fatalf("Normalize() returned %d records, want 1", len(out))
	}
	min := out[0]

	if min.Role() != "assistant" {
		t.Errorf("Role() = %q, want assistant", min.Role())
	}
	if min["real_author"] != "tool:web" {
		t.Errorf("real_author = %v, want tool:web", min["real_author"])
	}
	if _, ok := min["id"]; ok {
		t.Error("id should not survive minimization")
	}
	if _, ok := min["create_time"]; ok {
		t.Error("create_time should not survive minimization")
	}

	other := min["other"].(map[string]interface{})
	if other["model_slug"] != "gpt-4o" {
		t.Errorf("other.model_slug = %v, want gpt-4o", other["model_slug"])
	}
	if _, ok := other["request_id"]; ok {
		t.Error("uncurated metadata key survived minimization")
	}

	if s, _ := min.FirstPartText(); s != "hello" {
		t.Errorf("FirstPartText() = %q, want hello", s)
	}
	if tokens, ok := min.Tokens(); !ok || tokens != 42 {
		t.Errorf("Tokens() = %d, %v, want 42, true", tokens, ok)
	}
}

func TestNormalize_WithoutMinimizeKeepsShape(t *testing.T) {
	r := rec(1.0, "user", "hi")
	r["metadata"] = map[string]interface{}{"request_id": "keep-me", "gone": nil}

	out := Normalize([]Record{r}, false)
	meta := out[0]["metadata"].(map[string]interface{})
	if meta["request_id"] != "keep-me" {
		t.Error("full record metadata should survive without minimize")
	}
	if _, ok := meta["gone"]; ok {
		t.Error("null metadata key should be stripped")
	}
}

package extract

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// wrapPayload embeds a loader-data object the way share pages do: the route
// key, the object itself, a closing brace for the surrounding loaderData map,
// then the actionData key.
func wrapPayload(data string) string {
	return `<script>window.__ctx = {"state":{"loaderData":{"routes/share.$shareId.($action)":` +
		data + `},"actionData":null}};</script>`
}

func TestPayload_RoundTrip(t *testing.T) {
	data := `{"meta":{"title":"Trip planning"},"serverResponse":{"data":{"mapping":{}}}}`

	payload, err := Payload(wrapPayload(data))
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}

	var got, want interface{}
	if err := json.Unmarshal([]byte(payload), &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(data), &want); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	gotJSON, _ := json.Marshal(got)
	wantJSON, _ := json.Marshal(want)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("Payload() = %s, want %s", gotJSON, wantJSON)
	}
}

func TestPayload_ToleratesTrailingCommas(t *testing.T) {
	// The embedded block is JSON5, not strict JSON
	data := `{"meta":{"title":"Hello",},}`

	payload, err := Payload(wrapPayload(data))
	if err != nil {
		t.Fatalf("Payload() error = %v", err)
	}
	if !strings.Contains(payload, `"Hello"`) {
		t.Errorf("payload lost content: %s", payload)
	}
}

func TestPayload_MissingStartMarker(t *testing.T) {
	_, err := Payload(`<html><body>no payload here</body></html>`)
	if !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("Payload() error = %v, want ErrBlockNotFound", err)
	}
}

func TestPayload_MissingEndMarker(t *testing.T) {
	content := `{"routes/share.$shareId.($action)":{"meta":{}}}`
	_, err := Payload(content)
	if !errors.Is(err, ErrBlockNotFound) {
		t.Errorf("Payload() error = %v, want ErrBlockNotFound", err)
	}
}

func TestPayload_UnparseableBlock(t *testing.T) {
	content := `routes/share.$shareId.($action)": this is not json }},"actionData"`
	_, err := Payload(content)
	if !errors.Is(err, ErrParseFailed) {
		t.Errorf("Payload() error = %v, want ErrParseFailed", err)
	}
}

func TestSession(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    SessionInfo
	}{
		{
			name:    "all fields present",
			payload: `{"chatPageProps":{"userCountry":"US","cfIpCity":"Austin"},"meta":{"title":"Trip planning"}}`,
			want:    SessionInfo{Country: "US", City: "Austin", Title: "Trip planning"},
		},
		{
			name:    "missing objects yield empty fields",
			payload: `{"serverResponse":{}}`,
			want:    SessionInfo{},
		},
		{
			name:    "invalid json yields empty info",
			payload: `{broken`,
			want:    SessionInfo{},
		},
		{
			name:    "wrong shape yields empty info",
			payload: `{"chatPageProps":"not an object"}`,
			want:    SessionInfo{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Session(tt.payload); got != tt.want {
				t.Errorf("Session() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMessages_CollectsAllDepths(t *testing.T) {
	payload := `{
		"mapping": {
			"a": {"message": {"id": "m1"}},
			"b": {"children": [{"message": {"id": "m2"}}]}
		},
		"message": {"id": "m0"}
	}`

	msgs, err := Messages(payload)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("Messages() returned %d messages, want 3", len(msgs))
	}

	var ids []string
	for _, m := range msgs {
		obj := m.(map[string]interface{})
		ids = append(ids, obj["id"].(string))
	}
	// A node's own message is appended before descending and sibling keys
	// are visited in sorted order, so the root message comes first, then
	// mapping/a, then mapping/b.
	want := []string{"m0", "m1", "m2"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("message[%d] = %s, want %s (order %v)", i, ids[i], want[i], ids)
		}
	}
}

func TestMessages_Deterministic(t *testing.T) {
	payload := `{"z":{"message":{"id":"z"}},"a":{"message":{"id":"a"}},"m":{"message":{"id":"m"}}}`

	first, err := Messages(payload)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Messages(payload)
		if err != nil {
			t.Fatalf("Messages() error = %v", err)
		}
		for j := range first {
			a := first[j].(map[string]interface{})["id"]
			b := again[j].(map[string]interface{})["id"]
			if a != b {
				t.Fatalf("run %d: message[%d] = %v, want %v", i, j, b, a)
			}
		}
	}
}

func TestMessages_InvalidJSON(t *testing.T) {
	_, err := Messages(`{not json`)
	if !errors.Is(err, ErrParseFailed) {
		t.Errorf("Messages() error = %v, want ErrParseFailed", err)
	}
}

func TestMessages_NoMessages(t *testing.T) {
	msgs, err := Messages(`{"mapping":{"a":{"content":"x"}}}`)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("Messages() returned %d messages, want 0", len(msgs))
	}
}

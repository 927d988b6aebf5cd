package extract

import (
	"encoding/json"
	"fmt"
	"sort"
)

// maxFlattenDepth caps the traversal. JSON off the wire cannot be cyclic,
// but hostile input can still nest deeply enough to blow the stack.
const maxFlattenDepth = 1000

// Messages walks the payload's object graph and collects the value of every
// key literally named "message", at any depth, in discovery order. For each
// object the message value is appended before descending; sibling keys are
// visited in sorted order so repeated runs over the same input produce the
// same sequence. No filtering or deduplication happens here.
func Messages(payload string) ([]interface{}, error) {
	var root interface{}
	if err := json.Unmarshal([]byte(payload), &root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	messages := make([]interface{}, 0)
	flatten(root, 0, &messages)
	return messages, nil
}

func flatten(v interface{}, depth int, out *[]interface{}) {
	if depth > maxFlattenDepth {
		return
	}

	switch node := v.(type) {
	case map[string]interface{}:
		if msg, ok := node["message"]; ok {
			*out = append(*out, msg)
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flatten(node[k], depth+1, out)
		}
	case []interface{}:
		for _, item := range node {
			flatten(item, depth+1, out)
		}
	}
}

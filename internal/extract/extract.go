// Package extract locates and repairs the conversation payload that ChatGPT
// share pages embed inside a script block. The block is not valid JSON as
// shipped: it is bounded by two route-loader markers and wrapped in escaping
// that has to be sliced off before a JSON5-tolerant parse succeeds.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Sentinel errors for payload extraction.
var (
	// ErrBlockNotFound indicates one of the bounding markers is missing.
	// This is an expected failure mode: it happens whenever the share page
	// layout changes upstream, not when our input handling is wrong.
	ErrBlockNotFound = errors.New("payload block not found")

	// ErrParseFailed indicates the repaired block was rejected by the parser.
	ErrParseFailed = errors.New("payload parse failed")
)

// Markers bounding the embedded payload inside the share page source.
const (
	startMarker = "routes/share.$shareId.($action)"
	endMarker   = "actionData"
)

// trailingTrims is how many trailing characters get sliced off (with a trim
// between each slice) to peel the wrapping syntax from the raw block.
const trailingTrims = 4

// Payload extracts the embedded conversation payload from raw page content
// and returns it as canonical JSON text.
//
// The block starts one character before the end of the start marker (the
// brace that opens the loader object) and runs through the first occurrence
// of the end marker. The extracted text is repaired by dropping the first
// three characters and then repeatedly dropping the trailing character,
// trimming whitespace at each step, before being handed to a JSON5 parser
// that tolerates trailing commas and unquoted keys.
func Payload(content string) (string, error) {
	start := strings.Index(content, startMarker)
	if start == -1 {
		return "", fmt.Errorf("%w: start marker missing", ErrBlockNotFound)
	}

	objectStart := start + len(startMarker) - 1
	rel := strings.Index(content[objectStart:], endMarker)
	if rel == -1 {
		return "", fmt.Errorf("%w: end marker missing", ErrBlockNotFound)
	}

	block := repairBlock(content[objectStart : objectStart+rel+1])

	var value interface{}
	if err := json5.Unmarshal([]byte(block), &value); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	canonical, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	return string(canonical), nil
}

// repairBlock strips the wrapping syntax around the embedded object literal.
// The slice offsets mirror the share page's escaping exactly; changing them
// breaks extraction even when both markers are present.
func repairBlock(block string) string {
	if len(block) > 3 {
		block = block[3:]
	} else {
		block = ""
	}
	block = strings.TrimSpace(block)

	for i := 0; i < trailingTrims; i++ {
		if block == "" {
			break
		}
		block = strings.TrimSpace(block[:len(block)-1])
	}

	return block
}

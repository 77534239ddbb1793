// Package codec decodes semi-structured model output into JSON objects.
//
// Models are asked for bare JSON but frequently wrap it in a markdown code
// fence. DecodeObject strips one leading fence (optionally tagged "json"),
// cuts at the first bare closing fence, and parses the remainder strictly.
package codec

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/AJlearner46/Health-Call-Failure-Analyzer/internal/domain"
)

const fence = "```"

var (
	errNotObject    = errors.New("top-level value is not an object")
	errTrailingData = errors.New("unexpected data after top-level object")
)

// StripFence returns the payload of a fenced block, or the trimmed text when
// it does not start with a fence. The opening line ("```" or "```json") is
// dropped and the payload ends at the next line that is a bare fence, or at
// the end of the text when the block is unterminated.
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	lines := strings.Split(text, "\n")
	end := len(lines)
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == fence {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// DecodeObject extracts a JSON object from raw model output.
// Any parse failure is reported as a *domain.MalformedResponseError carrying
// the raw text. When a key repeats, the last occurrence wins.
func DecodeObject(raw string) (Object, error) {
	payload := StripFence(raw)

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return Object{}, &domain.MalformedResponseError{Raw: raw, Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return Object{}, &domain.MalformedResponseError{Raw: raw, Err: errTrailingData}
	}
	fields, ok := value.(map[string]any)
	if !ok {
		return Object{}, &domain.MalformedResponseError{Raw: raw, Err: errNotObject}
	}

	canonical, err := json.Marshal(fields)
	if err != nil {
		return Object{}, &domain.MalformedResponseError{Raw: raw, Err: err}
	}
	return newObject(raw, payload, canonical), nil
}

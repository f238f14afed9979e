package providers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

// ErrNoJSONObject is wrapped when model output contains no {...} span.
var ErrNoJSONObject = errors.New("no JSON object in model output")

// ExtractJSONObject returns the substring between the first '{' and the last
// '}' of raw. Code fences and surrounding prose are discarded.
func ExtractJSONObject(raw string) (string, error) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", malformed("text", ErrNoJSONObject)
	}
	return raw[start : end+1], nil
}

// DecodeObject extracts the JSON object from raw model output and decodes it
// into T. Partial or invalid JSON is a KindMalformed error.
func DecodeObject[T any](raw string) (T, error) {
	var out T
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return out, malformed("text", fmt.Errorf("decode model JSON: %w", err))
	}
	return out, nil
}

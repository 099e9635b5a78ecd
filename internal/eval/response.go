package eval

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse marks candidate output that is not parseable
// structured data. Parse failures are reported, never silently defaulted.
var ErrMalformedResponse = errors.New("malformed candidate response")

// Envelope is the decoded candidate response. This is the only boundary
// where untrusted external text enters the grader.
type Envelope map[string]interface{}

// ParseEnvelope decodes the raw candidate payload. Strict JSON is tried
// first; models that wrap their answer in prose get one more chance via
// extraction of the outermost object or array literal.
func ParseEnvelope(raw string) (Envelope, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}

	if env, err := decodeEnvelope(candidate); err == nil {
		return env, nil
	}

	if inner, ok := sliceOutermost(candidate, '{', '}'); ok {
		if env, err := decodeEnvelope(inner); err == nil {
			return env, nil
		}
	}
	if inner, ok := sliceOutermost(candidate, '[', ']'); ok {
		if env, err := decodeEnvelope(inner); err == nil {
			return env, nil
		}
	}

	return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedResponse)
}

func decodeEnvelope(s string) (Envelope, error) {
	var decoded interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, err
	}
	switch v := decoded.(type) {
	case map[string]interface{}:
		return Envelope(v), nil
	case []interface{}:
		// A bare array is treated as a results list without a wrapper.
		return Envelope{"results": v}, nil
	default:
		return nil, fmt.Errorf("top-level %T is not structured data", decoded)
	}
}

func sliceOutermost(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, close)
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

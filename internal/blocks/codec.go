package blocks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidContent is returned when stored content is not a JSON object of
// the expected shape.
var ErrInvalidContent = errors.New("invalid content format")

// Decode parses raw as the payload for contentType. A nil or blank raw is not
// an error and yields the empty payload. On failure the empty payload is
// returned together with an error wrapping ErrInvalidContent.
func Decode(contentType string, raw *string) (Payload, error) {
	p := Empty(contentType)
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return p, nil
	}
	data := []byte(*raw)

	if u, ok := p.(*Unknown); ok {
		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			return &Unknown{Type: contentType}, fmt.Errorf("%w: %s: %v", ErrInvalidContent, contentType, err)
		}
		u.Fields = fields
		return u, nil
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return p, fmt.Errorf("%w: %s: not a JSON object", ErrInvalidContent, contentType)
	}
	if err := json.Unmarshal(trimmed, p); err != nil {
		return Empty(contentType), fmt.Errorf("%w: %s: %v", ErrInvalidContent, contentType, err)
	}
	return p, nil
}

// Parse is Decode without the error: it never fails and falls back to the
// empty payload.
func Parse(contentType string, raw *string) Payload {
	p, _ := Decode(contentType, raw)
	return p
}

// Serialize returns the JSON text for p.
func Serialize(p Payload) string {
	if p == nil {
		return "{}"
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SerializePtr is Serialize for callers that store nullable content.
func SerializePtr(p Payload) *string {
	s := Serialize(p)
	return &s
}

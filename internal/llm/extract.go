package llm

import (
	"encoding/json"
	"strings"
)

// OutcomeKind classifies what could be recovered from a completion.
type OutcomeKind int

const (
	// OutcomeOK means a JSON object was found and decoded.
	OutcomeOK OutcomeKind = iota
	// OutcomeMalformed means text came back but no usable JSON object.
	OutcomeMalformed
	// OutcomeEmpty means the completion was blank.
	OutcomeEmpty
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "empty"
	}
}

// Outcome is the tagged result of parsing a completion.
// Payload is set only for OutcomeOK; Raw always holds the trimmed completion.
type Outcome struct {
	Kind    OutcomeKind
	Payload map[string]interface{}
	Raw     string
}

// Extract locates the first balanced {...} substring of text and decodes it.
func Extract(text string) Outcome {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return Outcome{Kind: OutcomeEmpty}
	}

	obj, ok := firstObject(raw)
	if !ok {
		return Outcome{Kind: OutcomeMalformed, Raw: raw}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(obj), &payload); err != nil || payload == nil {
		return Outcome{Kind: OutcomeMalformed, Raw: raw}
	}
	return Outcome{Kind: OutcomeOK, Payload: payload, Raw: raw}
}

// firstObject returns the substring from the first '{' to its matching '}'.
// Braces inside JSON string literals are ignored.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

package estimator

// reply.go recovers the JSON object from a model reply. The prompt asks for
// bare JSON, but vision models routinely fence their output or wrap it in
// prose anyway, so decoding tolerates both.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// stripReplyFences unwraps a ```json ... ``` (or bare ```) code fence. Text
// without an opening fence passes through unchanged.
func stripReplyFences(text string) string {
	text = strings.TrimSpace(text)
	body, fenced := strings.CutPrefix(text, "```")
	if !fenced {
		return text
	}
	// Drop the info string ("json") along with the opening fence line.
	if _, rest, ok := strings.Cut(body, "\n"); ok {
		body = rest
	}
	if i := strings.LastIndex(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

// extractReplyObject returns the first balanced JSON object in the reply.
// Braces inside string values do not count toward balance, so trailing
// prose or a truncated reply is detected instead of mis-sliced.
func extractReplyObject(raw string) (string, error) {
	text := stripReplyFences(raw)
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", errors.New("pose reply contains no JSON object")
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}
	return "", errors.New("pose reply JSON object is unterminated")
}

// decodePoseReply extracts and unmarshals the model's keypoint object.
func decodePoseReply(raw string) (geminiPoseResponse, error) {
	var reply geminiPoseResponse

	obj, err := extractReplyObject(raw)
	if err != nil {
		return reply, fmt.Errorf("%w (reply length: %d)", err, len(raw))
	}

	if err := json.Unmarshal([]byte(obj), &reply); err != nil {
		preview := obj
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return reply, fmt.Errorf("malformed pose reply: %w (payload: %s)", err, preview)
	}
	return reply, nil
}

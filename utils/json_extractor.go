package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSONFound is returned when no valid JSON object/array is found in the input
var ErrNoJSONFound = errors.New("no valid JSON object or array found in response")

var markdownFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")

// ExtractJSON pulls a valid JSON document out of a model response that
// may wrap it in markdown fences, prose, or stray characters. It tries
// progressively looser strategies and returns the first candidate that
// parses.
func ExtractJSON(response string) (string, error) {
	if response == "" {
		return "", ErrNoJSONFound
	}

	cleaned := stripMarkdown(response)

	if candidate := matchBrackets(cleaned); candidate != "" && json.Valid([]byte(candidate)) {
		return candidate, nil
	}

	if json.Valid([]byte(cleaned)) {
		return cleaned, nil
	}

	if candidate := outermostSpan(response); candidate != "" {
		return candidate, nil
	}

	return "", fmt.Errorf("%w: response length=%d", ErrNoJSONFound, len(response))
}

// ExtractJSONTo extracts JSON from response and unmarshals it into target
func ExtractJSONTo(response string, target interface{}) error {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(jsonStr), target)
}

// stripMarkdown removes code-fence formatting around the payload
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if matches := markdownFence.FindStringSubmatch(s); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// matchBrackets finds the first complete top-level JSON object or array
// by depth-counting brackets, honoring string literals and escapes.
func matchBrackets(s string) string {
	startObj := strings.Index(s, "{")
	startArr := strings.Index(s, "[")

	var start int
	var open, close byte

	switch {
	case startObj == -1 && startArr == -1:
		return ""
	case startArr == -1 || (startObj != -1 && startObj < startArr):
		start, open, close = startObj, '{', '}'
	default:
		start, open, close = startArr, '[', ']'
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == open {
			depth++
		} else if c == close {
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

// outermostSpan is the last resort: the span from the first opening to
// the last closing bracket, kept only if it happens to parse.
func outermostSpan(s string) string {
	for _, pair := range [][2]string{{"{", "}"}, {"[", "]"}} {
		first := strings.Index(s, pair[0])
		last := strings.LastIndex(s, pair[1])
		if first != -1 && last > first {
			candidate := s[first : last+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}
	return ""
}

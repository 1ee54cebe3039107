// Package formatting recovers structured JSON documents from free-form model output.
package formatting

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when no JSON object can be recovered from content
// or the recovered object does not decode into the target type.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Extract returns the JSON object carried by content. It tries, in order,
// the whole content, a markdown code fence, and the first balanced object
// embedded in surrounding prose. The returned document is compacted.
func Extract(content string) ([]byte, error) {
	content = strings.TrimSpace(content)

	if doc, ok := object(content); ok {
		return doc, nil
	}

	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		if doc, ok := object(strings.TrimSpace(matches[1])); ok {
			return doc, nil
		}
	}

	for start := strings.IndexByte(content, '{'); start >= 0; {
		end := balancedEnd(content, start)
		if end > start {
			if doc, ok := object(content[start : end+1]); ok {
				return doc, nil
			}
		}

		next := strings.IndexByte(content[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, fmt.Errorf("%w: no JSON object in response", ErrParseFailed)
}

// Decode unmarshals a JSON document into T, wrapping failures in ErrParseFailed.
func Decode[T any](doc []byte) (T, error) {
	var result T
	if err := json.Unmarshal(doc, &result); err != nil {
		return result, fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return result, nil
}

// Parse extracts the JSON object carried by content and decodes it into T.
func Parse[T any](content string) (T, error) {
	doc, err := Extract(content)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode[T](doc)
}

func object(s string) ([]byte, bool) {
	if !strings.HasPrefix(s, "{") || !json.Valid([]byte(s)) {
		return nil, false
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, false
	}
	return buf.Bytes(), true
}

// balancedEnd returns the index of the brace closing the object opened at
// start, honoring string literals and escapes, or -1 when unbalanced.
func balancedEnd(s string, start int) int {
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
				return i
			}
		}
	}

	return -1
}

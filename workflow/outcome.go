package workflow

import (
	"encoding/json"
	"fmt"
)

// OutcomeKind tags how a stage result was obtained.
type OutcomeKind string

// Outcome kinds.
const (
	OutcomeParsed   OutcomeKind = "parsed"
	OutcomeFallback OutcomeKind = "fallback"
)

// Outcome is a stage result: either a parsed value or the raw model text
// that could not be parsed. A fallback is not an error; later stages
// receive it as-is.
type Outcome[T any] struct {
	Kind  OutcomeKind
	Value T
	// Document is the JSON object the value was decoded from.
	Document json.RawMessage
	Raw      string
}

// Parsed wraps a decoded stage value and the document it came from.
func Parsed[T any](value T, doc json.RawMessage) Outcome[T] {
	return Outcome[T]{Kind: OutcomeParsed, Value: value, Document: doc}
}

// Fallback wraps model text that did not yield a valid document.
func Fallback[T any](raw string) Outcome[T] {
	return Outcome[T]{Kind: OutcomeFallback, Raw: raw}
}

// Ok reports whether the outcome carries a parsed value.
func (o Outcome[T]) Ok() bool {
	return o.Kind == OutcomeParsed
}

// MarshalJSON emits the parsed document, or {"raw": text} for a fallback.
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	switch o.Kind {
	case OutcomeParsed:
		if len(o.Document) > 0 {
			return o.Document, nil
		}
		return json.Marshal(o.Value)
	case OutcomeFallback:
		return json.Marshal(struct {
			Raw string `json:"raw"`
		}{o.Raw})
	default:
		return nil, fmt.Errorf("unknown outcome kind %q", o.Kind)
	}
}

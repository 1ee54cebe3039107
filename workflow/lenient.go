package workflow

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Model output fields the pipeline only records decode through these types.
// A value of the wrong shape decodes as unset instead of failing the stage.

// Number accepts JSON numbers and numeric strings such as "8.5%" or
// "$50,000". Anything else leaves it unset.
type Number struct {
	decimal.NullDecimal
}

func (n *Number) UnmarshalJSON(b []byte) error {
	n.NullDecimal = decimal.NullDecimal{}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}

	var src string
	switch x := v.(type) {
	case float64:
		src = string(bytes.TrimSpace(b))
	case string:
		src = strings.Map(func(r rune) rune {
			switch r {
			case '$', ',', '%', ' ':
				return -1
			}
			return r
		}, x)
	default:
		return nil
	}

	if d, err := decimal.NewFromString(src); err == nil {
		n.NullDecimal = decimal.NewNullDecimal(d)
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(n.Decimal.String()), nil
}

// Text accepts a JSON string. Other values keep their JSON text.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}

	if trimmed := bytes.TrimSpace(b); !bytes.Equal(trimmed, []byte("null")) {
		*t = Text(trimmed)
	} else {
		*t = ""
	}
	return nil
}

// Strings accepts a list or a single value. Non-string items keep their JSON text.
type Strings []string

func (s *Strings) UnmarshalJSON(b []byte) error {
	*s = nil

	var items []json.RawMessage
	if err := json.Unmarshal(b, &items); err != nil {
		var one Text
		_ = one.UnmarshalJSON(b)
		if one != "" {
			*s = Strings{string(one)}
		}
		return nil
	}
	if items == nil {
		return nil
	}

	out := make(Strings, 0, len(items))
	for _, item := range items {
		var t Text
		_ = t.UnmarshalJSON(item)
		out = append(out, string(t))
	}
	*s = out
	return nil
}

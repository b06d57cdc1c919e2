package protocol

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/csvclean/internal/core"
)

type scalarKind int

const (
	scalarNull scalarKind = iota
	scalarString
	scalarNumber
	scalarBool
	scalarOther // object or array
)

// scalarText renders a JSON scalar as text. Booleans render as "True" and
// "False", matching how the engine writes boolean cells.
func scalarText(raw json.RawMessage) (string, scalarKind) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", scalarNull
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", scalarOther
		}
		return s, scalarString
	case 't':
		return "True", scalarBool
	case 'f':
		return "False", scalarBool
	case '{', '[':
		return "", scalarOther
	default:
		return string(raw), scalarNumber
	}
}

// DecodeValue interprets the "value" field: null or absent is no value, a
// scalar is a fill value, an object is a replacement pair, and anything else
// is an invalid value.
func DecodeValue(raw json.RawMessage) core.Value {
	s, kind := scalarText(raw)
	switch kind {
	case scalarNull:
		return core.Value{Kind: core.ValueNone}
	case scalarString, scalarNumber, scalarBool:
		return core.ScalarValue(s)
	}

	var pair map[string]json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil {
		return core.Value{Kind: core.ValueInvalid}
	}
	return core.PairValue(pairMember(pair, "oldVal"), pairMember(pair, "newVal"))
}

// pairMember returns nil when the key is absent. A present member that is
// null or not a scalar reads as blank text.
func pairMember(pair map[string]json.RawMessage, key string) *string {
	raw, ok := pair[key]
	if !ok {
		return nil
	}
	s, kind := scalarText(raw)
	if kind == scalarOther {
		s = ""
	}
	return &s
}

// limitText renders the ffill/bfill limit. An integral JSON number such as
// 2.0 is accepted as 2; any other value is passed through for the engine to
// reject.
func limitText(raw json.RawMessage) string {
	s, kind := scalarText(raw)
	switch kind {
	case scalarNull:
		return ""
	case scalarNumber:
		if d, err := decimal.NewFromString(s); err == nil && d.IsInteger() {
			return d.Truncate(0).String()
		}
		return s
	case scalarOther:
		return string(bytes.TrimSpace(raw))
	}
	return s
}

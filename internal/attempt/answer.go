package attempt

import (
	"encoding/json"
	"strings"

	"github.com/mind-engage/videoquiz/internal/jsonx"
)

// Value is the resolved shape of one answers entry. The stored form is an
// untagged object whose fields decide the variant; Resolve makes that
// explicit for readers.
type Value interface {
	// Kind is the explicit "kind" tag of the entry, lower-cased, or "".
	Kind() string
}

type tag string

func (t tag) Kind() string { return string(t) }

// ChoiceAnswer carries the selected choice ids of an mcq, checkbox or poll
// item, in submission order.
type ChoiceAnswer struct {
	tag
	Selected []string
}

// TextAnswer is a free-response or fill-in-blank learner value.
type TextAnswer struct {
	tag
	Text   string
	MaxLen int
}

// AcceptAnswer is an authoring-style list of accepted fill-in-blank values.
type AcceptAnswer struct {
	tag
	Accept []string
}

// OtherAnswer covers objects with none of the known fields and non-object
// values.
type OtherAnswer struct {
	tag
	Raw json.RawMessage
}

// Resolve classifies raw. Field precedence is selected, then text, then
// accept.
func Resolve(raw json.RawMessage) Value {
	obj, ok := jsonx.Object(raw)
	if !ok {
		return OtherAnswer{Raw: raw}
	}
	var t tag
	if k, ok := jsonx.String(obj["kind"]); ok {
		t = tag(strings.ToLower(k))
	}
	if arr, ok := jsonx.Array(obj["selected"]); ok {
		return ChoiceAnswer{tag: t, Selected: scalars(arr)}
	}
	if txt, ok := obj["text"]; ok {
		s, _ := jsonx.String(txt)
		n, _ := jsonx.Int(obj["maxLen"])
		return TextAnswer{tag: t, Text: s, MaxLen: n}
	}
	if arr, ok := jsonx.Array(obj["accept"]); ok {
		return AcceptAnswer{tag: t, Accept: scalars(arr)}
	}
	return OtherAnswer{tag: t, Raw: raw}
}

// Selected returns the selected ids of v, or nil when v is not a choice.
func Selected(v Value) []string {
	if c, ok := v.(ChoiceAnswer); ok {
		return c.Selected
	}
	return nil
}

// scalars keeps non-null elements, rendered as strings.
func scalars(arr []json.RawMessage) []string {
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if jsonx.IsNull(e) {
			continue
		}
		s, ok := jsonx.String(e)
		if !ok {
			s = string(e)
		}
		out = append(out, s)
	}
	return out
}

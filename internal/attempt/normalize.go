package attempt

import (
	"encoding/json"

	"github.com/mind-engage/videoquiz/internal/jsonx"
)

// Normalize sanitizes raw answers for storage. Object values get their
// "text" control-stripped and truncated to the item's limit (maxLens first,
// then the value's own maxLen, then DefaultMaxLen) with the limit echoed
// back as maxLen; "selected" and "accept" arrays become string arrays
// without nulls. Everything else passes through untouched.
//
// Normalizing an already normalized mapping returns an equal mapping.
func Normalize(raw Answers, maxLens map[string]int) Answers {
	out := make(Answers, len(raw))
	for id, val := range raw {
		obj, ok := jsonx.Object(val)
		if !ok {
			out[id] = val
			continue
		}

		if txt, ok := obj["text"]; ok {
			lim, ok := maxLens[id]
			if !ok {
				lim, _ = jsonx.Int(obj["maxLen"])
				if lim == 0 {
					lim = DefaultMaxLen
				}
			}
			s, _ := jsonx.String(txt)
			obj["text"] = mustMarshal(SanitizeText(s, lim))
			obj["maxLen"] = mustMarshal(lim)
		}
		for _, field := range []string{"selected", "accept"} {
			if arr, ok := jsonx.Array(obj[field]); ok {
				obj[field] = mustMarshal(scalars(arr))
			}
		}

		b, err := jsonx.Marshal(obj)
		if err != nil {
			out[id] = val
			continue
		}
		out[id] = b
	}
	return out
}

func mustMarshal(v any) json.RawMessage {
	b, err := jsonx.Marshal(v)
	if err != nil {
		panic(err) // strings, ints and string slices always encode
	}
	return b
}

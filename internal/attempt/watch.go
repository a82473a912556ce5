package attempt

import (
	"encoding/json"
	"strconv"

	"github.com/mind-engage/videoquiz/internal/jsonx"
)

// WatchMeta projects __meta.watchPercent and __meta.watchSeconds as strings
// with two decimals; absent or non-numeric values become "".
func WatchMeta(a Answers) (percent, seconds string) {
	meta, ok := jsonx.Object(a[MetaKey])
	if !ok {
		return "", ""
	}
	return twoDecimals(meta["watchPercent"]), twoDecimals(meta["watchSeconds"])
}

// WatchMetaJSON is WatchMeta over a serialized answers document.
func WatchMetaJSON(s string) (percent, seconds string) {
	var a Answers
	if err := json.Unmarshal([]byte(s), &a); err != nil {
		return "", ""
	}
	return WatchMeta(a)
}

func twoDecimals(raw json.RawMessage) string {
	if jsonx.IsNull(raw) {
		return ""
	}
	f, ok := jsonx.Float(raw)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

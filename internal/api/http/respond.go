package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/jsonx"
)

// maxBody bounds request bodies read by handlers.
const maxBody = 2 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

// attemptMode reads ?attempt=. The requested spelling (or def) is kept for
// file names; anything but latest or best reads as all.
func attemptMode(r *http.Request, def attempt.Mode) (string, attempt.Mode) {
	raw := strings.ToLower(r.URL.Query().Get("attempt"))
	if raw == "" {
		raw = string(def)
	}
	return raw, attempt.ParseMode(raw, attempt.ModeAll)
}

// bodyObject decodes a JSON object body. Missing or malformed bodies give an
// empty object.
func bodyObject(r *http.Request) map[string]json.RawMessage {
	if r.Body == nil {
		return map[string]json.RawMessage{}
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return map[string]json.RawMessage{}
	}
	obj, ok := jsonx.Object(b)
	if !ok {
		return map[string]json.RawMessage{}
	}
	return obj
}

// field takes the query parameter when set, else the body member.
func field(r *http.Request, body map[string]json.RawMessage, name string) string {
	if v := r.URL.Query().Get(name); v != "" {
		return strings.TrimSpace(v)
	}
	s, _ := jsonx.String(body[name])
	return strings.TrimSpace(s)
}

func csvResponse(w http.ResponseWriter, filename string, body []byte) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

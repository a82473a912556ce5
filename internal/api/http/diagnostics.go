package http

import (
	"context"
	"net/http"
	"slices"
	"strconv"

	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/audit"
	"github.com/mind-engage/videoquiz/internal/quiz"
)

// recentDeletes is how many audit events dbinfo shows.
const recentDeletes = 10

// AuditTrail lists recorded delete events, newest first.
type AuditTrail interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// GET /api/selftest
// Reports whether quiz content is reachable and the attempts table carries
// the required columns. Always 200; "ok" carries the verdict.
func SelftestHandler(qr *quiz.Reader, insp attempt.Inspector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok := true
		notes := []string{}

		if n, err := qr.Count(r.Context()); err != nil {
			ok = false
			notes = append(notes, "content missing: "+err.Error())
		} else {
			notes = append(notes, strconv.Itoa(n)+" quiz file(s) visible")
		}

		if insp != nil {
			cols, err := insp.Columns(r.Context())
			if err != nil {
				ok = false
				notes = append(notes, "DB error: "+err.Error())
			}
			for _, c := range attempt.RequiredColumns {
				if err == nil && !slices.Contains(cols, c) {
					ok = false
					notes = append(notes, "missing column: "+c)
				}
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": ok, "notes": notes})
	}
}

// GET /api/debug/dbinfo
// With an audit trail the recent delete events are included.
func DBInfoHandler(insp attempt.Inspector, trail AuditTrail) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if insp == nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "store has no diagnostics"})
			return
		}
		info, err := insp.Info(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error(), "db_path": info.Location})
			return
		}
		out := map[string]any{
			"ok":               true,
			"driver":           info.Driver,
			"db_path":          info.Location,
			"attempts_columns": info.Columns,
			"attempts_count":   info.Count,
			"attempts_recent":  info.Recent,
		}
		if trail != nil {
			if events, err := trail.Recent(r.Context(), recentDeletes); err != nil {
				out["recent_deletes_error"] = err.Error()
			} else {
				out["recent_deletes"] = events
			}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

package access

import (
	"encoding/json"
	"net/http"
)

// Gate holds the view and delete keys.
type Gate struct {
	View   Key
	Delete Key
}

func NewGate(viewSecret, deleteSecret string) Gate {
	return Gate{View: ViewKey(viewSecret), Delete: DeleteKey(deleteSecret)}
}

// RequireView admits requests presenting the view key.
func (g Gate) RequireView(next http.Handler) http.Handler { return Require(g.View)(next) }

// RequireDelete admits requests presenting the delete key.
func (g Gate) RequireDelete(next http.Handler) http.Handler { return Require(g.Delete)(next) }

// Require rejects requests without k's secret before the handler runs.
func Require(k Key) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !k.Allow(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": ErrUnauthorized.Error()})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

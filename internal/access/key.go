// Package access guards instructor and destructive endpoints with two shared
// secrets. There are no identities: a request either presents the secret or
// it does not.
package access

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

var ErrUnauthorized = errors.New("unauthorized")

// maxPeek bounds how much of a request body is inspected for a credential.
const maxPeek = 1 << 20

// Key is one shared secret and where a request may present it.
type Key struct {
	Secret string
	Header string // e.g. X-View-Key
	Param  string // query parameter and JSON body field, e.g. view_key
}

func ViewKey(secret string) Key {
	return Key{Secret: secret, Header: "X-View-Key", Param: "view_key"}
}

func DeleteKey(secret string) Key {
	return Key{Secret: secret, Header: "X-Delete-Key", Param: "delete_key"}
}

// Configured reports whether a secret is set. An unconfigured key denies
// every request.
func (k Key) Configured() bool { return k.Secret != "" }

// Allow grants when the header carries the secret. Otherwise the query
// parameter is the credential, or the JSON body field when the query
// parameter is absent or empty. The body is restored for the handler.
func (k Key) Allow(r *http.Request) bool {
	if !k.Configured() {
		return false
	}
	if k.match(r.Header.Get(k.Header)) {
		return true
	}
	cred := r.URL.Query().Get(k.Param)
	if cred == "" {
		cred = bodyField(r, k.Param)
	}
	return k.match(cred)
}

func (k Key) match(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(v), []byte(k.Secret)) == 1
}

// bodyField reads a string member of a JSON object body without consuming
// it. Missing or malformed bodies yield "".
func bodyField(r *http.Request, name string) string {
	if r.Body == nil || r.Body == http.NoBody {
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(r.Body, maxPeek))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(b), r.Body), r.Body}
	if err != nil || len(b) == 0 {
		return ""
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(b, &obj) != nil {
		return ""
	}
	var s string
	if json.Unmarshal(obj[name], &s) != nil {
		return ""
	}
	return s
}

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mind-engage/videoquiz/internal/access"
	api "github.com/mind-engage/videoquiz/internal/api/http"
	"github.com/mind-engage/videoquiz/internal/attempt"
	"github.com/mind-engage/videoquiz/internal/audit"
	"github.com/mind-engage/videoquiz/internal/db"
	"github.com/mind-engage/videoquiz/internal/metrics"
	"github.com/mind-engage/videoquiz/internal/quiz"
	"github.com/mind-engage/videoquiz/internal/storage"
)

const pollQuiz = `{
  "title": "Colours",
  "items": [
    {"id": "m1", "type": "mcq", "choices": [{"id": "a"}, {"id": "b"}]},
    {"id": "p1", "type": "poll", "prompt": "Favourite?", "choices": [{"id": "red", "text": "Red"}, {"id": "blue", "text": "Blue"}]},
    {"id": "f1", "type": "fr", "maxLen": 5}
  ]
}`

type env struct {
	srv      *httptest.Server
	frontend string
}

func newEnv(t *testing.T, mutate func(*api.Deps)) *env {
	t.Helper()
	content := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(content, "colours.json"), []byte(pollQuiz), 0o644))
	blobs, err := storage.NewFSStore(content)
	require.NoError(t, err)
	quizzes := quiz.NewReader(blobs, nil)

	store := attempt.NewInMemoryStore()
	m := metrics.New(nil)
	frontend := t.TempDir()
	deps := api.Deps{
		Attempts:  attempt.NewService(store, quizzes, nil, attempt.WithObserver(m)),
		Inspector: store.(attempt.Inspector),
		Quizzes:   quizzes,
		Gate:      access.NewGate("view", "del"),
		Metrics:   m,
		Frontend:  api.Frontend{Dir: frontend, StaticRoots: []string{frontend}},
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)
	return &env{srv: srv, frontend: frontend}
}

func (e *env) do(t *testing.T, method, path, body string, headers ...string) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, b
}

func (e *env) submit(t *testing.T, quizID, body string) map[string]any {
	t.Helper()
	resp, b := e.do(t, http.MethodPost, "/api/attempt/"+quizID, body, "Content-Type", "application/json")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestQuizEndpoints(t *testing.T) {
	e := newEnv(t, nil)

	resp, b := e.do(t, http.MethodGet, "/api/quizzes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"quizzes":[{"id":"colours","title":"Colours","category":null,"group":null}]}`, string(b))

	resp, b = e.do(t, http.MethodGet, "/api/quiz/colours", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Equal(t, "colours", doc["id"])
	require.Equal(t, "Colours", doc["title"])

	resp, b = e.do(t, http.MethodGet, "/api/quiz/nope", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"error":"quiz not found"}`, string(b))
}

func TestSubmitAndList(t *testing.T) {
	e := newEnv(t, nil)

	out := e.submit(t, "colours", `{"viewer":" Ann Lee ","points":1,"max_points":3,"answers":{"f1":{"text":"abcdefgh"},"p1":{"selected":["red"]}}}`)
	require.Equal(t, true, out["ok"])
	require.Equal(t, "AnnLee", out["viewer"])
	require.Equal(t, 33.33, out["score_percent"])
	require.EqualValues(t, 1, out["id"])

	resp, b := e.do(t, http.MethodPost, "/api/attempt/colours", `{"viewer":`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(b))
	resp, _ = e.do(t, http.MethodPost, "/api/attempt/colours", `{"points":-4}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, b = e.do(t, http.MethodGet, "/api/attempts?quiz_id=colours", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.JSONEq(t, `{"error":"unauthorized"}`, string(b))

	resp, b = e.do(t, http.MethodGet, "/api/attempts?quiz_id=colours", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Attempts []attempt.Attempt `json:"attempts"`
	}
	require.NoError(t, json.Unmarshal(b, &list))
	require.Len(t, list.Attempts, 1)

	var fr map[string]any
	require.NoError(t, json.Unmarshal(list.Attempts[0].Answers["f1"], &fr))
	require.Equal(t, "abcde", fr["text"], "free response capped by the quiz's maxLen")
	require.EqualValues(t, 5, fr["maxLen"])

	resp, b = e.do(t, http.MethodGet, "/api/attempts?quiz_id=other&view_key=view", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"attempts":[]}`, string(b))
}

func TestUnconfiguredKeysDenyEverything(t *testing.T) {
	e := newEnv(t, func(d *api.Deps) { d.Gate = access.NewGate("", "") })

	resp, _ := e.do(t, http.MethodGet, "/api/attempts", "", "X-View-Key", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPost, "/api/attempts/delete_all", `{"quiz_id":"colours","delete_key":""}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// public surfaces still work
	resp, _ = e.do(t, http.MethodGet, "/api/quizzes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPollsAndResponses(t *testing.T) {
	e := newEnv(t, nil)
	e.submit(t, "colours", `{"viewer":"ann","answers":{"p1":{"selected":["red"]}}}`)
	e.submit(t, "colours", `{"viewer":"ann","answers":{"p1":{"selected":["blue"]},"f1":{"text":"hi"}}}`)
	e.submit(t, "colours", `{"viewer":"bob","answers":{"p1":{"selected":["blue"]},"m1":{"selected":["a"]}}}`)

	resp, b := e.do(t, http.MethodGet, "/api/polls/aggregate?quiz_id=colours", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"quiz_id":"colours","polls":{"p1":{"prompt":"Favourite?","choices":{
		"red":{"text":"Red","count":0},
		"blue":{"text":"Blue","count":2}}}}}`, string(b))

	resp, b = e.do(t, http.MethodGet, "/api/polls/aggregate?quiz_id=colours&attempt=all", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(b), `"red":{"text":"Red","count":1}`)

	resp, b = e.do(t, http.MethodGet, "/api/polls/aggregate?quiz_id=missing", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"quiz_id":"missing","polls":{}}`, string(b))

	resp, _ = e.do(t, http.MethodGet, "/api/polls/aggregate", "", "X-View-Key", "view")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, b = e.do(t, http.MethodGet, "/api/responses?quiz_id=colours&type=fr", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Responses []map[string]any `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out.Responses, 1)
	require.Equal(t, "hi", out.Responses[0]["text"])
	require.Equal(t, "ann", out.Responses[0]["viewer"])

	resp, b = e.do(t, http.MethodGet, "/api/responses?quiz_id=colours", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out.Responses, 4, "three polls and one free response; mcq is never listed")
}

func TestExports(t *testing.T) {
	e := newEnv(t, nil)
	e.submit(t, "colours", `{"viewer":"ann","points":1,"max_points":2,"answers":{"p1":{"selected":["red","blue"]},"__meta":{"watchPercent":90}}}`)
	e.submit(t, "colours", `{"viewer":"ann","points":2,"max_points":2,"answers":{"f1":{"text":"ok"}}}`)

	resp, b := e.do(t, http.MethodGet, "/api/export/attempts", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="attempts_all_latest.csv"`, resp.Header.Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/csv"))
	lines := strings.Split(strings.TrimSuffix(string(b), "\r\n"), "\r\n")
	require.Len(t, lines, 2)
	require.Equal(t, "id,created_at,quiz_id,viewer,points,max_points,score_percent,watch_percent,watch_seconds", lines[0])
	require.True(t, strings.HasPrefix(lines[1], "2,"))

	resp, b = e.do(t, http.MethodGet, "/api/export/attempts?quiz_id=colours&attempt=Whatever&include_answers=yes", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="attempts_colours_whatever.csv"`, resp.Header.Get("Content-Disposition"))
	lines = strings.Split(strings.TrimSuffix(string(b), "\r\n"), "\r\n")
	require.Len(t, lines, 3, "unknown modes export every attempt")
	require.True(t, strings.HasSuffix(lines[0], ",answers_json"))

	resp, b = e.do(t, http.MethodGet, "/api/export/poll_fr?quiz_id=colours&attempt=all", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="poll_fr_colours_all.csv"`, resp.Header.Get("Content-Disposition"))
	lines = strings.Split(strings.TrimSuffix(string(b), "\r\n"), "\r\n")
	require.Equal(t, "viewer,quiz_id,created_at,points,max_points,score_percent,watch_percent,watch_seconds,poll:p1,fr:f1", lines[0])
	require.True(t, strings.HasSuffix(lines[1], ",90.00,,red|blue,"))
	require.True(t, strings.HasSuffix(lines[2], ",,,,ok"))

	resp, b = e.do(t, http.MethodGet, "/api/export/poll_fr?quiz_id=colours&name_mode=prompt&limit_prompt=5", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.HasPrefix(string(b), "viewer,quiz_id,created_at,points,max_points,score_percent,watch_percent,watch_seconds,poll:Favo…,fr:f1\r\n"))

	_, b = e.do(t, http.MethodGet, "/api/export/poll_fr?quiz_id=colours&name_mode=prompt&limit_prompt=0", "", "X-View-Key", "view")
	require.True(t, strings.HasSuffix(strings.SplitN(string(b), "\r\n", 2)[0], ",poll:Favourite?,fr:f1"), "a zero limit uses the default")

	resp, _ = e.do(t, http.MethodGet, "/api/export/poll_fr", "", "X-View-Key", "view")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/export/poll_fr?quiz_id=nope", "", "X-View-Key", "view")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeletes(t *testing.T) {
	e := newEnv(t, nil)
	e.submit(t, "colours", `{"viewer":"ann"}`)
	e.submit(t, "colours", `{"viewer":"ann"}`)
	e.submit(t, "colours", `{"viewer":"bob"}`)
	e.submit(t, "other", `{"viewer":"bob"}`)

	resp, _ := e.do(t, http.MethodDelete, "/api/attempt/1", "", "X-View-Key", "view")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, b := e.do(t, http.MethodDelete, "/api/attempt/1", "", "X-Delete-Key", "del")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"deleted":1,"rows":1}`, string(b))

	resp, b = e.do(t, http.MethodDelete, "/api/attempt/1?delete_key=del", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"deleted":1,"rows":0}`, string(b))

	resp, b = e.do(t, http.MethodPost, "/api/attempts/delete_by_viewer?quiz_id=colours", `{"viewer":"ann","delete_key":"del"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"deleted_viewer":"ann","quiz_id":"colours","rows":1}`, string(b))

	resp, _ = e.do(t, http.MethodPost, "/api/attempts/delete_by_viewer", `{"quiz_id":"colours"}`, "X-Delete-Key", "del")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.do(t, http.MethodPost, "/api/attempts/delete_all?quiz_id=colours", ``, "X-Delete-Key", "del")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, "delete_all reads quiz_id from the body only")

	resp, b = e.do(t, http.MethodPost, "/api/attempts/delete_all", `{"quiz_id":"colours"}`, "X-Delete-Key", "del")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"deleted_quiz":"colours","rows":1}`, string(b))

	resp, b = e.do(t, http.MethodGet, "/api/attempts", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(b), `"quiz_id":"other"`)
	require.NotContains(t, string(b), `"quiz_id":"colours"`)
}

func TestDiagnostics(t *testing.T) {
	e := newEnv(t, nil)
	e.submit(t, "colours", `{"viewer":"ann"}`)

	resp, b := e.do(t, http.MethodGet, "/api/selftest", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"ok":true,"notes":["1 quiz file(s) visible"]}`, string(b))

	resp, _ = e.do(t, http.MethodGet, "/api/debug/dbinfo", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, b = e.do(t, http.MethodGet, "/api/debug/dbinfo", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var info map[string]any
	require.NoError(t, json.Unmarshal(b, &info))
	require.Equal(t, true, info["ok"])
	require.EqualValues(t, 1, info["attempts_count"])
	require.NotContains(t, info, "recent_deletes", "no audit trail without a SQL store")

	for i := range 3 {
		e.submit(t, fmt.Sprintf("junk%d", i), `{"viewer":"ann"}`)
	}
	resp, b = e.do(t, http.MethodGet, "/metrics", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(b), `videoquiz_attempts_submitted_total{quiz_id="colours"} 1`)
	require.Contains(t, string(b), `videoquiz_attempts_submitted_total{quiz_id="unknown"} 3`)
	require.NotContains(t, string(b), `quiz_id="junk`)

	resp, _ = e.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFrontend(t *testing.T) {
	e := newEnv(t, nil)

	resp, b := e.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"ok":false,"error":"index.html not found"}`, string(b))

	resp, _ = e.do(t, http.MethodGet, "/favicon.ico", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.NoError(t, os.WriteFile(filepath.Join(e.frontend, "index.html"), []byte("<h1>quiz</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.frontend, "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.frontend, "favicon.svg"), []byte("<svg/>"), 0o644))

	resp, b = e.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<h1>quiz</h1>", string(b))

	resp, b = e.do(t, http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "console.log(1)", string(b))

	resp, _ = e.do(t, http.MethodGet, "/static/missing.js", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, b = e.do(t, http.MethodGet, "/favicon.ico", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "<svg/>", string(b))
}

func TestSubmitRateLimit(t *testing.T) {
	e := newEnv(t, func(d *api.Deps) { d.SubmitRatePerMin = 1 })
	e.submit(t, "colours", `{"viewer":"ann"}`)

	resp, b := e.do(t, http.MethodPost, "/api/attempt/colours", `{"viewer":"ann"}`)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.JSONEq(t, `{"error":"too many requests"}`, string(b))

	// reads are not limited
	resp, _ = e.do(t, http.MethodGet, "/api/quizzes", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDBInfo_RecentDeletes(t *testing.T) {
	ctx := context.Background()
	dsn, err := db.SQLiteDSN(filepath.Join(t.TempDir(), "vq.sqlite3"))
	require.NoError(t, err)
	dbh, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })
	store, err := attempt.NewSQLStore(ctx, dbh, db.DriverSQLite, "vq.sqlite3")
	require.NoError(t, err)
	events := audit.NewEventRepo(dbh, db.DriverSQLite, "room-1")

	e := newEnv(t, func(d *api.Deps) {
		d.Attempts = attempt.NewService(store, d.Quizzes, nil, attempt.WithAuditor(events))
		d.Inspector = store
		d.Audit = events
	})
	e.submit(t, "colours", `{"viewer":"ann"}`)
	resp, _ := e.do(t, http.MethodDelete, "/api/attempt/1", "", "X-Delete-Key", "del")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, b := e.do(t, http.MethodGet, "/api/debug/dbinfo", "", "X-View-Key", "view")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(b))
	var info struct {
		Driver  string        `json:"driver"`
		Count   int64         `json:"attempts_count"`
		Deletes []audit.Event `json:"recent_deletes"`
	}
	require.NoError(t, json.Unmarshal(b, &info))
	require.Equal(t, "sqlite", info.Driver)
	require.Zero(t, info.Count)
	require.Len(t, info.Deletes, 1)
	require.Equal(t, "AttemptsDeleted", info.Deletes[0].Type)
	require.Equal(t, "attempt:1", info.Deletes[0].Key)
	require.Equal(t, "room-1", info.Deletes[0].SiteID)
	require.JSONEq(t, `{"id":1,"rows":1}`, info.Deletes[0].DataJSON)
}

func TestSubmitRateLimit_IgnoresForwardedHeaders(t *testing.T) {
	e := newEnv(t, func(d *api.Deps) { d.SubmitRatePerMin = 2 })

	accepted := 0
	for i := range 6 {
		resp, _ := e.do(t, http.MethodPost, "/api/attempt/colours", `{"viewer":"ann"}`,
			"X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i), "X-Real-IP", fmt.Sprintf("10.0.1.%d", i))
		if resp.StatusCode == http.StatusOK {
			accepted++
		}
	}
	require.Equal(t, 2, accepted, "rotating forwarding headers does not reset the limit")
}

func TestSubmitRateLimit_TrustProxy(t *testing.T) {
	e := newEnv(t, func(d *api.Deps) {
		d.SubmitRatePerMin = 1
		d.TrustProxy = true
	})

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		resp, _ := e.do(t, http.MethodPost, "/api/attempt/colours", `{"viewer":"ann"}`, "X-Real-IP", ip)
		require.Equal(t, http.StatusOK, resp.StatusCode, ip)
	}
	resp, _ := e.do(t, http.MethodPost, "/api/attempt/colours", `{"viewer":"ann"}`, "X-Real-IP", "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

package playground

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func newTestServer(t *testing.T, opt *Options) (*httptest.Server, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	if opt == nil {
		opt = &Options{}
	}
	opt.Logger = log.New(&logs, "", 0)
	srv := httptest.NewServer(New(opt))
	t.Cleanup(srv.Close)
	return srv, &logs
}

func post(t *testing.T, srv *httptest.Server, body string) (*http.Response, runResponse) {
	t.Helper()
	res, err := http.Post(srv.URL+"/run", "application/json", strings.NewReader(body))
	be.Err(t, err, nil)
	defer res.Body.Close()
	var out runResponse
	if res.StatusCode == http.StatusOK {
		be.Err(t, json.NewDecoder(res.Body).Decode(&out), nil)
	}
	return res, out
}

func TestIndexShowsExample(t *testing.T) {
	srv, _ := newTestServer(t, &Options{Example: "fn main() { 1 < 2; }"})
	res, err := http.Get(srv.URL + "/")
	be.Err(t, err, nil)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	be.Err(t, err, nil)

	be.Equal(t, res.StatusCode, http.StatusOK)
	be.Equal(t, res.Header.Get("Content-Type"), "text/html; charset=utf-8")
	// the program is escaped into the textarea
	be.True(t, strings.Contains(string(body), "fn main() { 1 &lt; 2; }"))
}

func TestIndexDefaultsToDemo(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	res, err := http.Get(srv.URL + "/")
	be.Err(t, err, nil)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	be.Err(t, err, nil)
	be.True(t, strings.Contains(string(body), "while (x &lt; 5)"))
}

func TestUnknownPath(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	res, err := http.Get(srv.URL + "/nope")
	be.Err(t, err, nil)
	res.Body.Close()
	be.Equal(t, res.StatusCode, http.StatusNotFound)
}

func TestRunMode(t *testing.T) {
	srv, logs := newTestServer(t, nil)
	res, out := post(t, srv, `{"src": "fn main() { let x = 2; x * 21; }", "mode": "run"}`)
	be.Equal(t, res.StatusCode, http.StatusOK)
	be.Equal(t, out.Stderr, "")
	be.True(t, strings.HasPrefix(out.Stdout, "=== Interpreter ===\nlet x = 2\nexpr => 42\nresult: 42\n=== IR ===\n"))
	be.True(t, strings.Contains(out.Stdout, "%1 = mul i64 %0, 21\n  ret i64 %1\n"))
	be.True(t, strings.Contains(logs.String(), "run: mode=run"))
}

func TestIRMode(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	res, out := post(t, srv, `{"src": "fn main() { 7; }", "mode": "ir"}`)
	be.Equal(t, res.StatusCode, http.StatusOK)
	be.Equal(t, out.Stdout, "=== IR ===\n; module main\n\ndefine i64 @main() {\nentry:\n  ret i64 7\n}\n")
	be.Equal(t, out.Stderr, "")
}

func TestRunReportsErrorsInStderr(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	res, out := post(t, srv, `{"src": "fn main() { let = 1; }", "mode": "run"}`)
	be.Equal(t, res.StatusCode, http.StatusOK)
	be.Equal(t, out.Stdout, "")
	be.True(t, strings.HasPrefix(out.Stderr, "parse error: syntax error"))

	res, out = post(t, srv, `{"src": "fn main() { y = 1; }", "mode": "run"}`)
	be.Equal(t, res.StatusCode, http.StatusOK)
	be.True(t, strings.Contains(out.Stderr, "run error: main: assignment to y: undefined variable"))
	be.True(t, strings.Contains(out.Stderr, "ir error: main: assignment to y: undefined variable"))
}

func TestRunStepLimit(t *testing.T) {
	srv, _ := newTestServer(t, &Options{MaxSteps: 100})
	res, out := post(t, srv, `{"src": "fn main() { let x = 1; while (x) { } }", "mode": "run"}`)
	be.Equal(t, res.StatusCode, http.StatusOK)
	be.True(t, strings.Contains(out.Stderr, "step limit exceeded"))
	// lowering does not execute, so the IR is still produced
	be.True(t, strings.Contains(out.Stdout, "loop.cond:"))
}

func TestRunBadRequests(t *testing.T) {
	srv, logs := newTestServer(t, nil)
	for _, body := range []string{`not json`, `{"src": "fn main() {}", "mode": "asm"}`, `{"src": "fn main() {}"}`} {
		res, _ := post(t, srv, body)
		be.Equal(t, res.StatusCode, http.StatusBadRequest)
	}
	be.True(t, strings.Contains(logs.String(), `unknown mode "asm"`))
}

func TestRunRejectsGet(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	res, err := http.Get(srv.URL + "/run")
	be.Err(t, err, nil)
	res.Body.Close()
	be.Equal(t, res.StatusCode, http.StatusMethodNotAllowed)
}

func TestRunRejectsOversizedBody(t *testing.T) {
	srv, logs := newTestServer(t, &Options{MaxBodyBytes: 64})
	src := "fn main() { " + strings.Repeat("1; ", 100) + "}"
	res, _ := post(t, srv, `{"src": "`+src+`", "mode": "run"}`)
	be.Equal(t, res.StatusCode, http.StatusRequestEntityTooLarge)
	be.True(t, strings.Contains(logs.String(), "body over 64 bytes"))

	// a body under the limit is still served
	res, out := post(t, srv, `{"src": "fn main() { 1; }", "mode": "ir"}`)
	be.Equal(t, res.StatusCode, http.StatusOK)
	be.True(t, strings.Contains(out.Stdout, "ret i64 1"))
}

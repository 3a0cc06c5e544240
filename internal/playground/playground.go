// Package playground serves a small web page for editing a program and
// viewing its interpreter trace and IR.
package playground

import (
	"bytes"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/tinyrange/minilang/internal/driver"
)

const (
	ModeRun = "run"
	ModeIR  = "ir"
)

type Options struct {
	// MaxSteps is passed to both backends. Zero means unlimited, which lets
	// a looping program hang its request.
	MaxSteps int
	// MaxBodyBytes caps the size of a /run request body. Defaults to 1 MiB.
	MaxBodyBytes int64
	// Example is the program shown when the page loads.
	Example string
	// Logger receives one line per request. Defaults to the standard logger's
	// output with a "playground: " prefix.
	Logger *log.Logger
}

func (o *Options) normalize() Options {
	var out Options
	if o != nil {
		out = *o
	}
	if out.MaxSteps < 0 {
		out.MaxSteps = 0
	}
	if out.MaxBodyBytes <= 0 {
		out.MaxBodyBytes = 1 << 20
	}
	if out.Example == "" {
		out.Example = driver.Demo
	}
	if out.Logger == nil {
		out.Logger = log.New(log.Writer(), "playground: ", log.LstdFlags)
	}
	return out
}

type runRequest struct {
	Src  string `json:"src"`
	Mode string `json:"mode"`
}

type runResponse struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

type Server struct {
	opt Options
	mux *http.ServeMux
}

func New(opt *Options) *Server {
	s := &Server{opt: opt.normalize(), mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /run", s.handleRun)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, s.opt.Example); err != nil {
		s.opt.Logger.Printf("render page: %v", err)
	}
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req runRequest
	body := http.MaxBytesReader(w, r.Body, s.opt.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			s.opt.Logger.Printf("run: body over %d bytes", tooBig.Limit)
			return
		}
		http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
		s.opt.Logger.Printf("run: bad request: %v", err)
		return
	}

	var sections []string
	switch req.Mode {
	case ModeRun:
		sections = []string{driver.SectionRun, driver.SectionIR}
	case ModeIR:
		sections = []string{driver.SectionIR}
	default:
		http.Error(w, "unknown mode "+req.Mode, http.StatusBadRequest)
		s.opt.Logger.Printf("run: unknown mode %q", req.Mode)
		return
	}

	var stdout, stderr bytes.Buffer
	rep, err := driver.Compile(r.Context(), req.Src, &driver.Options{MaxSteps: s.opt.MaxSteps})
	if err != nil {
		stderr.WriteString(err.Error() + "\n")
	} else {
		rep.WriteSections(&stdout, &stderr, sections...)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(runResponse{Stdout: stdout.String(), Stderr: stderr.String()}); err != nil {
		s.opt.Logger.Printf("run: write response: %v", err)
		return
	}
	s.opt.Logger.Printf("run: mode=%s bytes=%d failed=%t in %s", req.Mode, len(req.Src), stderr.Len() > 0, time.Since(start))
}

var page = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>minilang playground</title>
  <style>
    body { font-family: sans-serif; margin: 16px; }
    textarea { width: 100%; height: 300px; font-family: monospace; }
    pre { background: #111; color: #eee; padding: 12px; white-space: pre-wrap; max-height: 400px; overflow: auto; }
    .row { display: flex; gap: 8px; margin-top: 8px; }
  </style>
</head>
<body>
  <h2>minilang playground</h2>
  <textarea id="code">{{.}}</textarea>
  <div class="row">
    <button type="button" onclick="send('run')">Run (interpreter + IR)</button>
    <button type="button" onclick="send('ir')">IR only</button>
  </div>
  <h3>Output</h3>
  <pre id="out"></pre>
<script>
async function send(mode) {
  const src = document.getElementById("code").value;
  const res = await fetch("/run", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({src: src, mode: mode})
  });
  const out = document.getElementById("out");
  if (!res.ok) {
    out.textContent = await res.text();
    return;
  }
  const j = await res.json();
  out.textContent = j.stdout + (j.stderr ? "\n" + j.stderr : "");
}
</script>
</body>
</html>
`))

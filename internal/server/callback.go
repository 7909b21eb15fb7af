package server

import (
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/topgenres/internal/auth"
	"github.com/desertthunder/topgenres/internal/models"
	"github.com/desertthunder/topgenres/internal/shared"
)

const (
	CallbackPath = "/callback"
	TokenPath    = "/callback/token"

	maxFragmentBytes = 8 << 10
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #1DB954; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
        p.err { color: #c0392b; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p id="status"{{if .Failed}} class="err"{{end}}>{{.Message}}</p>
    </div>
{{- if .Capture}}
    <script>
    (function () {
        var status = document.getElementById("status");
        var fragment = window.location.hash;
        history.replaceState(null, "", window.location.pathname);
        fetch("{{.TokenPath}}", {
            method: "POST",
            headers: { "Content-Type": "application/x-www-form-urlencoded" },
            body: new URLSearchParams({ fragment: fragment })
        }).then(function (res) {
            return res.text().then(function (text) {
                status.textContent = text;
                status.className = res.ok ? "" : "err";
            });
        }).catch(function () {
            status.textContent = "Could not reach topgenres. Return to the terminal.";
            status.className = "err";
        });
    })();
    </script>
{{- end}}
</body>
</html>
`))

type page struct {
	Title     string
	Message   string
	Failed    bool
	Capture   bool
	TokenPath string
}

// CallbackResult is the outcome of an implicit-grant redirect.
type CallbackResult struct {
	Credential *models.Credential
	err        error
}

func (c *CallbackResult) Error() error {
	return c.err
}

// CallbackHandler captures the credential from the implicit-grant redirect.
type CallbackHandler struct {
	codec   *auth.Codec
	state   string
	logger  *log.Logger
	results chan CallbackResult
	once    sync.Once

	mu          sync.Mutex
	callbackHit bool
}

// NewCallbackHandler creates a handler that parses fragments with codec.
//
// When state is non-empty the fragment must echo it.
func NewCallbackHandler(codec *auth.Codec, state string, logger *log.Logger) *CallbackHandler {
	return &CallbackHandler{
		codec:   codec,
		state:   state,
		logger:  logger,
		results: make(chan CallbackResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"GET " + CallbackPath, "POST " + TokenPath}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case CallbackPath:
		h.servePage(w, r)
	case TokenPath:
		h.receive(w, r)
	default:
		http.NotFound(w, r)
	}
}

// servePage answers the browser redirect. Provider errors sent in the query end the flow immediately.
func (h *CallbackHandler) servePage(w http.ResponseWriter, r *http.Request) {
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		if !h.claim() {
			http.Error(w, "Callback already processed", http.StatusConflict)
			return
		}
		h.Send(CallbackResult{err: fmt.Errorf("%w: %s", shared.ErrAuthFailed, errParam)})
		h.render(w, http.StatusBadRequest, page{
			Title:   "Authorization Failed",
			Message: fmt.Sprintf("Spotify returned %q. You can close this window.", errParam),
			Failed:  true,
		})
		return
	}

	h.render(w, http.StatusOK, page{
		Title:     "Completing Authorization",
		Message:   "Sending the token to topgenres…",
		Capture:   true,
		TokenPath: TokenPath,
	})
}

// receive accepts the fragment posted by the capture page.
func (h *CallbackHandler) receive(w http.ResponseWriter, r *http.Request) {
	if !h.claim() {
		http.Error(w, "Callback already processed", http.StatusConflict)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFragmentBytes)
	if err := r.ParseForm(); err != nil {
		h.Send(CallbackResult{err: fmt.Errorf("%w: %v", shared.ErrInvalidRedirect, err)})
		http.Error(w, "Malformed callback", http.StatusBadRequest)
		return
	}
	fragment := r.PostForm.Get("fragment")

	if h.state != "" && auth.FragmentState(fragment) != h.state {
		h.Send(CallbackResult{err: fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed)})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	cred, err := h.codec.Parse(fragment)
	if err != nil {
		h.Send(CallbackResult{err: err})
		http.Error(w, "Authorization failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Debug("credential captured", "expires_at", cred.ExpiresAt)
	h.Send(CallbackResult{Credential: cred})

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "✓ Authorization successful. You can close this window and return to the terminal.")
}

// claim reports whether this is the first completing callback.
func (h *CallbackHandler) claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.callbackHit {
		return false
	}
	h.callbackHit = true
	return true
}

func (h *CallbackHandler) render(w http.ResponseWriter, status int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, p); err != nil {
		h.logger.Error("failed to render callback page", "error", err)
	}
}

// Send delivers result once. Later calls are ignored.
func (h *CallbackHandler) Send(result CallbackResult) {
	h.once.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result receives exactly one result and is then closed.
func (h *CallbackHandler) Result() <-chan CallbackResult {
	return h.results
}

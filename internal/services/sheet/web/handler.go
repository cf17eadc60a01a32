// Package web serves the browser-facing sheet: the page, HTMX actions, and
// a pass-through proxy to the character API.
package web

import (
	"errors"
	"log"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/swnsheet/internal/platform/httpx"
	"github.com/louisbranch/swnsheet/internal/platform/i18n"
	"github.com/louisbranch/swnsheet/internal/services/sheet/client"
	"github.com/louisbranch/swnsheet/internal/services/sheet/view"
)

const maxUploadBytes = 1 << 20

// Handler routes sheet requests.
type Handler struct {
	sessions *SessionRegistry
	mux      *http.ServeMux
}

// NewHandler builds the sheet router. apiTarget, when set, receives /api
// requests unchanged.
func NewHandler(sessions *SessionRegistry, apiTarget *url.URL) (*Handler, error) {
	if sessions == nil {
		return nil, errors.New("session registry is required")
	}
	h := &Handler{sessions: sessions, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /{$}", h.handlePage)
	h.mux.HandleFunc("POST /actions/new", h.withSession(h.handleNew))
	h.mux.HandleFunc("POST /actions/roll", h.withSession(h.handleRoll))
	h.mux.HandleFunc("POST /actions/attribute", h.withSession(h.handleAttribute))
	h.mux.HandleFunc("POST /actions/detail", h.withSession(h.handleDetail))
	h.mux.HandleFunc("POST /actions/retry", h.withSession(h.handleRetry))
	h.mux.HandleFunc("POST /actions/upload", h.withSession(h.handleUpload))
	h.mux.HandleFunc("GET /actions/download", h.handleDownload)
	h.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	if apiTarget != nil {
		h.mux.Handle("/api/", NewAPIProxy(apiTarget))
	}
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// NewAPIProxy forwards requests to target, keeping path and query.
func NewAPIProxy(target *url.URL) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = target.Host
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("api proxy %s %s: %v", r.Method, r.URL.Path, err)
			_ = httpx.WriteJSONError(w, http.StatusBadGateway, http.StatusText(http.StatusBadGateway))
		},
	}
}

type sessionAction func(w http.ResponseWriter, r *http.Request, session *Session) error

func (h *Handler) withSession(action sessionAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.sessions.Resolve(w, r)
		if err != nil {
			log.Printf("resolve sheet session: %v", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		// Failures are recorded in controller state and rendered.
		_ = action(w, r, session)
		h.respond(w, r, session)
	}
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Resolve(w, r)
	if err != nil {
		log.Printf("resolve sheet session: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	session.Mount(r.Context())
	h.render(w, r, session, view.Page)
}

func (h *Handler) handleNew(_ http.ResponseWriter, r *http.Request, session *Session) error {
	return session.Controller.NewCharacter(r.Context())
}

func (h *Handler) handleRoll(_ http.ResponseWriter, r *http.Request, session *Session) error {
	return session.Attributes.Roll(r.Context())
}

func (h *Handler) handleAttribute(_ http.ResponseWriter, r *http.Request, session *Session) error {
	value := strings.TrimSpace(r.FormValue("attribute"))
	if value == "" {
		value = strings.TrimSpace(r.FormValue(view.SetTo14Group))
	}
	if value == "" {
		return nil
	}
	return session.Attributes.Select(r.Context(), client.Attribute(strings.ToUpper(value)))
}

func (h *Handler) handleDetail(_ http.ResponseWriter, r *http.Request, session *Session) error {
	detail := client.Detail(strings.ToUpper(strings.TrimSpace(r.FormValue("detail"))))
	value := r.FormValue("value")
	if detail == "" || detail == client.DetailName {
		_, err := session.Details.Blur(r.Context(), value)
		return err
	}
	return session.Controller.SetDetail(r.Context(), detail, value)
}

func (h *Handler) handleRetry(_ http.ResponseWriter, r *http.Request, session *Session) error {
	return session.Controller.Retry(r.Context())
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, session *Session) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil
		}
		log.Printf("read upload form: %v", err)
		session.Controller.UploadUnreadable()
		return err
	}
	defer r.MultipartForm.RemoveAll()

	// No file chosen: the form was submitted empty, nothing to do.
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil
	}
	if err != nil {
		log.Printf("read upload file: %v", err)
		session.Controller.UploadUnreadable()
		return err
	}
	defer file.Close()
	if header.Filename == "" {
		return nil
	}
	return session.Controller.Upload(r.Context(), header.Filename, file)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Resolve(w, r)
	if err != nil {
		log.Printf("resolve sheet session: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	download, err := session.Controller.Download(r.Context())
	if err != nil {
		// The download link is a plain navigation, so the failure is shown
		// as a page in place of the file.
		if httpx.IsHTMXRequest(r) {
			h.render(w, r, session, view.Sheet)
			return
		}
		h.render(w, r, session, view.Page)
		return
	}
	contentType := download.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": download.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(download.Body)
}

// respond renders the sheet fragment for HTMX and redirects full-page posts
// back to the sheet.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, session *Session) {
	if !httpx.IsHTMXRequest(r) {
		session.Sync()
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.render(w, r, session, view.Sheet)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, session *Session, component func(view.PageModel) templ.Component) {
	state := session.Sync()
	tag := i18n.ResolveTag(r)
	model := view.PageModel{
		State:      state,
		Attributes: session.Attributes,
		Details:    session.Details,
		Printer:    i18n.Printer(tag),
		Lang:       tag.String(),
	}
	w.Header().Set("Cache-Control", "no-store")
	templ.Handler(component(model)).ServeHTTP(w, r)
}

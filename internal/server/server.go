// Package server serves the booking and itinerary pages. Add and remove
// buttons submit the form, so every operation also works without scripting.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-formcollection"
	"github.com/goliatone/go-formcollection/pkg/collection"
	"github.com/goliatone/go-formcollection/pkg/page"
)

// maxFormBytes bounds posted form bodies.
const maxFormBytes = 1 << 20

// CSRFCookie holds the token the posted CSRF field must match.
const CSRFCookie = "formcollection_csrf"

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPage mounts def at def.Path, replacing any page already there.
func WithPage(def page.Definition) Option {
	return func(s *Server) {
		s.pages[def.Path] = def
	}
}

// WithSeed pre-fills the named page's collection on GET, as an update page
// would for stored items.
func WithSeed(pageName string, rows []map[string]string) Option {
	return func(s *Server) {
		s.seeds[pageName] = rows
	}
}

// WithHiddenFields emits fields in every page form, for example the revision
// of the itinerary being edited.
func WithHiddenFields(fields ...page.HiddenField) Option {
	return func(s *Server) {
		s.hidden = append(s.hidden, fields...)
	}
}

// WithCSRFField protects posts with a double-submit token: GET issues a
// CSRFCookie and a hidden field named name, and POST must echo it.
func WithCSRFField(name string) Option {
	return func(s *Server) {
		s.csrfField = strings.TrimSpace(name)
	}
}

// Server serves the collection pages with and without scripting.
type Server struct {
	renderer  *page.Renderer
	pages     map[string]page.Definition
	seeds     map[string][]map[string]string
	hidden    []page.HiddenField
	csrfField string
	logger    *slog.Logger
}

// New serves the booking and itinerary pages unless options replace them.
func New(renderer *page.Renderer, options ...Option) *Server {
	s := &Server{
		renderer: renderer,
		pages:    make(map[string]page.Definition),
		seeds:    make(map[string][]map[string]string),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, def := range []page.Definition{page.Booking(), page.Itinerary()} {
		s.pages[def.Path] = def
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Handler returns the routed, request-logged handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	for path, def := range s.pages {
		mux.Handle(path, s.pageHandler(def))
	}
	mux.Handle("/runtime/", http.StripPrefix("/runtime/", http.FileServerFS(formcollection.RuntimeAssetsFS())))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return requestLogger(s.logger, mux)
}

func (s *Server) pageHandler(def page.Definition) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := loggerFrom(r.Context(), s.logger)

		switch r.Method {
		case http.MethodGet, http.MethodHead:
			hidden := s.hiddenFields(s.issueCSRF(w))
			p, err := s.renderer.Build(def, hidden...)
			if err != nil {
				s.fail(w, logger, "build page", err, http.StatusInternalServerError)
				return
			}
			if rows := s.seeds[def.Name]; len(rows) > 0 {
				page.Hydrate(p.Editor, page.RowsToValues(def.Schema, rows))
			}
			s.writePage(w, logger, p)

		case http.MethodPost:
			r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
			if err := r.ParseForm(); err != nil {
				http.Error(w, "invalid form payload", http.StatusBadRequest)
				return
			}

			token, err := s.checkCSRF(r)
			if err != nil {
				s.fail(w, logger, "check csrf", err, http.StatusForbidden)
				return
			}

			action, ok := page.ParseAction(r.PostForm)
			if !ok {
				s.writeEcho(w, logger, def, r.PostForm)
				return
			}

			p, err := s.renderer.Build(def, s.hiddenFields(token)...)
			if err != nil {
				s.fail(w, logger, "build page", err, http.StatusInternalServerError)
				return
			}
			count := page.Hydrate(p.Editor, r.PostForm)
			if err := p.Apply(action); err != nil {
				status := http.StatusBadRequest
				if action.Kind == page.ActionAdd && !errors.Is(err, page.ErrUnknownAction) {
					status = http.StatusInternalServerError
				}
				s.fail(w, logger, "apply action", err, status)
				return
			}
			logger.Info("collection action applied",
				"page", def.Name,
				"action", string(action.Kind),
				"index", action.Index,
				"hydrated", count,
				"items", p.Editor.Len(),
			)
			s.writePage(w, logger, p)

		default:
			w.Header().Set("Allow", strings.Join([]string{http.MethodGet, http.MethodHead, http.MethodPost}, ", "))
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) writePage(w http.ResponseWriter, logger *slog.Logger, p *page.Page) {
	markup, err := p.HTML()
	if err != nil {
		s.fail(w, logger, "serialise page", err, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := io.WriteString(w, markup); err != nil {
		logger.Error("write response", "error", err)
	}
}

// echoPayload reports the indexed names a plain submit carried.
type echoPayload struct {
	Page       string            `json:"page"`
	Collection string            `json:"collection"`
	Names      []string          `json:"names"`
	Values     map[string]string `json:"values"`
}

func (s *Server) writeEcho(w http.ResponseWriter, logger *slog.Logger, def page.Definition, form url.Values) {
	payload := echoPayload{
		Page:       def.Name,
		Collection: def.Schema.Name,
		Names:      []string{},
		Values:     map[string]string{},
	}
	for name, values := range form {
		owner, _, _, ok := collection.ParseFieldName(name)
		if !ok || owner != def.Schema.Name {
			continue
		}
		payload.Names = append(payload.Names, name)
		if len(values) > 0 {
			payload.Values[name] = values[0]
		}
	}
	slices.Sort(payload.Names)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("write json response", "error", err)
	}
}

// fail logs the detail and sends only the status text to the client.
func (s *Server) fail(w http.ResponseWriter, logger *slog.Logger, stage string, err error, status int) {
	logger.Error(stage, "error", err, "status", status)
	http.Error(w, http.StatusText(status), status)
}

func (s *Server) hiddenFields(csrfToken string) []page.HiddenField {
	fields := append([]page.HiddenField(nil), s.hidden...)
	if s.csrfField != "" && csrfToken != "" {
		fields = append(fields, page.CSRFToken(s.csrfField, csrfToken))
	}
	return fields
}

func (s *Server) issueCSRF(w http.ResponseWriter) string {
	if s.csrfField == "" {
		return ""
	}
	token := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	return token
}

// checkCSRF returns the token to carry into a re-rendered page.
func (s *Server) checkCSRF(r *http.Request) (string, error) {
	if s.csrfField == "" {
		return "", nil
	}
	cookie, err := r.Cookie(CSRFCookie)
	if err != nil || cookie.Value == "" {
		return "", errors.New("missing csrf cookie")
	}
	if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(r.PostForm.Get(s.csrfField))) != 1 {
		return "", errors.New("csrf token mismatch")
	}
	return cookie.Value, nil
}

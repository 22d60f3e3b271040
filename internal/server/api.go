package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/matzehuels/flowguide/pkg/errors"
	"github.com/matzehuels/flowguide/pkg/navigate"
	"github.com/matzehuels/flowguide/pkg/observability"
	"github.com/matzehuels/flowguide/pkg/pipeline"
	"github.com/matzehuels/flowguide/pkg/render"
	"github.com/matzehuels/flowguide/pkg/session"
)

// =============================================================================
// Request bodies
// =============================================================================

type routeRequest struct {
	Path string `json:"path"`
}

type selectRequest struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// =============================================================================
// Event handlers
// =============================================================================

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, navigate.Refresh{})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, navigate.Reset{})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	// Malformed paths resolve to the not-found page like any unknown route.
	if err := errors.ValidateRoute(req.Path); err != nil {
		s.logger.Debug("unroutable path", "path", req.Path, "reason", errors.UserMessage(err))
	}
	s.apply(w, r, navigate.RouteChanged{Path: req.Path})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	// No graph node fails ValidateNodeID, so such ids fall through to the
	// unknown-node no-op.
	if err := errors.ValidateNodeID(req.ID); err != nil {
		s.logger.Debug("ignoring select", "reason", errors.UserMessage(err))
	}
	s.apply(w, r, navigate.Select{NodeID: req.ID})
}

// apply runs ev against the caller's session and responds with the new view.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, ev navigate.Event) {
	ctx := r.Context()

	id := s.cookieID(r)
	if id == "" {
		id = session.GenerateID()
	}
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
		return
	}
	if sess == nil {
		sess = session.New(s.runner.Init(), s.ttl)
		s.logger.Debug("new session", "session", sess.ID)
	}

	res, err := s.runner.Handle(ctx, sess.State, ev)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess.State = res.State
	sess.Touch(s.ttl)
	if err := s.store.Set(ctx, sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "save session"))
		return
	}

	s.setCookie(w, sess)
	writeJSON(w, http.StatusOK, res.View)
}

// =============================================================================
// Artifacts
// =============================================================================

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	if (format == pipeline.FormatPNG || format == pipeline.FormatPDF) && !render.ConverterAvailable() {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "%s export requires rsvg-convert", format))
		return
	}

	opts := pipeline.ArtifactOptions{Format: format}
	if v := r.URL.Query().Get("detailed"); v != "" {
		opts.Detailed, _ = strconv.ParseBool(v)
	}
	if v := r.URL.Query().Get("scale"); v != "" {
		scale, err := strconv.ParseFloat(v, 64)
		if err != nil {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid scale %q", v))
			return
		}
		opts.Scale = scale
	}

	state := s.runner.Init()
	if id := s.cookieID(r); id != "" {
		sess, err := s.store.Get(ctx, id)
		if err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "load session"))
			return
		}
		if sess != nil {
			state = sess.State
		}
	}

	data, err := s.runner.Artifact(ctx, state, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// Helpers
// =============================================================================

// cookieID returns the session id from the request cookie, or "" when the
// cookie is absent or malformed.
func (s *Server) cookieID(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil || !session.ValidID(c.Value) {
		return ""
	}
	return c.Value
}

func (s *Server) setCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps coded errors to HTTP statuses. Internal errors are logged
// and reported to the HTTP hooks.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidNodeID, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

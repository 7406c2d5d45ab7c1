package sandbox

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/idilsaglam/records/internal/logging"
	"github.com/idilsaglam/records/internal/model"
)

// Options tune the sandbox behaviour.
type Options struct {
	// BasePath prefixes every route (default "/api").
	BasePath string
	// Latency is slept before each request is handled.
	Latency time.Duration
	// FailStatus, when non-zero, makes every records request fail with it.
	FailStatus int
	// Token, when set, is required as a bearer credential.
	Token string
}

type errorBody struct {
	Message string `json:"message"`
}

// NewRouter returns the records API for store.
func NewRouter(store *Store, opts Options) http.Handler {
	base := "/" + strings.Trim(opts.BasePath, "/")
	if base == "/" {
		base = "/api"
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	h := &handlers{store: store}
	r.Route(base, func(r chi.Router) {
		r.Use(latency(opts.Latency))
		r.Use(requireToken(opts.Token))
		r.Use(failWith(opts.FailStatus))
		r.Get("/records", h.list)
		r.Post("/records", h.create)
		r.Put("/records/{id}", h.update)
		r.Delete("/records/{id}", h.delete)
	})
	return r
}

type handlers struct {
	store *Store
}

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.List())
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	var p model.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid JSON body"})
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "name is required"})
		return
	}
	writeJSON(w, http.StatusCreated, h.store.Create(p))
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	var p model.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid JSON body"})
		return
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "name cannot be empty"})
		return
	}
	rec, err := h.store.Update(recordID(r), p)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *handlers) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(recordID(r)); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recordID returns the decoded {id} segment. chi routes on RawPath when the
// request carries escaped slashes, leaving the parameter escaped.
func recordID(r *http.Request) string {
	id := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return id
	}
	if dec, err := url.PathUnescape(id); err == nil {
		return dec
	}
	return id
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, errNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func latency(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-r.Context().Done():
				return
			case <-t.C:
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				writeJSON(w, http.StatusUnauthorized, errorBody{Message: "missing or invalid token"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func failWith(status int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if status == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, errorBody{Message: "injected failure"})
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.FromContext(r.Context()).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

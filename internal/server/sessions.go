// Package server exposes editing sessions over HTTP. Each session is edited
// by posting command scripts and read back as PNG renderings.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/wallpaint/internal/gallery"
	"github.com/MeKo-Tech/wallpaint/internal/imageio"
	"github.com/MeKo-Tech/wallpaint/internal/overlay"
	"github.com/MeKo-Tech/wallpaint/internal/paint"
	"github.com/MeKo-Tech/wallpaint/internal/script"
	"github.com/MeKo-Tech/wallpaint/internal/session"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ErrTooManySessions is returned when MaxSessions sessions are already open.
var ErrTooManySessions = errors.New("too many open sessions")

type Config struct {
	// Gallery, when set, enables POST /sessions/{id}/archive.
	Gallery        *gallery.Store
	CacheControl   string
	MaxWidth       int
	MaxHeight      int
	MaxSessions    int
	MaxUploadBytes int64
	CommandTimeout time.Duration
	Compression    png.CompressionLevel
}

// Sessions holds the open editing sessions.
type Sessions struct {
	logger   *slog.Logger
	sessions map[uuid.UUID]*entry
	cfg      Config
	mu       sync.RWMutex

	created  atomic.Int64
	commands atomic.Int64
}

// entry serializes all access to one session; the core is single-threaded.
type entry struct {
	session  *session.Session
	name     string
	created  time.Time
	lastUsed time.Time
	mu       sync.Mutex
}

// Status describes a session after a request.
type Status struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Tool      string    `json:"tool"`
	Error     string    `json:"error,omitempty"`
	FailedAt  *int      `json:"failed_at,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Radius    int       `json:"radius"`
	Selected  int       `json:"selected"`
	Vertices  int       `json:"vertices"`
	Changed   int       `json:"changed"`
	ArchiveID int64     `json:"archive_id,omitempty"`
	Drawing   bool      `json:"drawing"`
}

// Stats is served on GET /status.
type Stats struct {
	Open     int   `json:"open"`
	Created  int64 `json:"created"`
	Commands int64 `json:"commands"`
}

func NewSessions(cfg Config, logger *slog.Logger) *Sessions {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 32 << 20
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	return &Sessions{
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[uuid.UUID]*entry),
	}
}

// Handler returns the HTTP handler for all session routes.
func (h *Sessions) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /status", h.handleStats)
	mux.HandleFunc("POST /sessions", h.handleCreate)
	mux.HandleFunc("GET /sessions/{id}", h.withSession(h.handleStatus))
	mux.HandleFunc("DELETE /sessions/{id}", h.handleDelete)
	mux.HandleFunc("POST /sessions/{id}/commands", h.withSession(h.handleCommands))
	mux.HandleFunc("POST /sessions/{id}/archive", h.withSession(h.handleArchive))
	mux.HandleFunc("GET /sessions/{id}/image.png", h.withSession(h.handleImage))
	mux.HandleFunc("GET /sessions/{id}/original.png", h.withSession(h.handleOriginal))
	mux.HandleFunc("GET /sessions/{id}/overlay.png", h.withSession(h.handleOverlay))
	return withCORS(mux)
}

// Len returns the number of open sessions.
func (h *Sessions) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Evict closes sessions idle for longer than maxIdle and returns how many.
func (h *Sessions) Evict(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for id, e := range h.sessions {
		e.mu.Lock()
		idle := e.lastUsed.Before(cutoff)
		e.mu.Unlock()
		if idle {
			delete(h.sessions, id)
			n++
		}
	}
	if n > 0 {
		h.log().Info("evicted idle sessions", "count", n, "open", len(h.sessions))
	}
	return n
}

// RunEvictor calls Evict every interval until ctx is done.
func (h *Sessions) RunEvictor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Evict(maxIdle)
		}
	}
}

func (h *Sessions) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Stats{
		Open:     h.Len(),
		Created:  h.created.Load(),
		Commands: h.commands.Load(),
	})
}

func (h *Sessions) handleCreate(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	img, format, err := imageio.Decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s := session.New(h.log())
	if err := s.Load(imageio.Fit(img, h.cfg.MaxWidth, h.cfg.MaxHeight)); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	now := time.Now()
	e := &entry{
		session:  s,
		name:     r.URL.Query().Get("name"),
		created:  now,
		lastUsed: now,
	}

	id := uuid.New()
	h.mu.Lock()
	if h.cfg.MaxSessions > 0 && len(h.sessions) >= h.cfg.MaxSessions {
		h.mu.Unlock()
		writeError(w, http.StatusServiceUnavailable, ErrTooManySessions)
		return
	}
	h.sessions[id] = e
	h.mu.Unlock()
	h.created.Add(1)

	b := s.Current().Bounds()
	h.log().Info("session created", "id", id, "format", format, "width", b.Dx(), "height", b.Dy())

	w.Header().Set("Location", "/sessions/"+id.String())
	writeJSON(w, http.StatusCreated, statusOf(id, e))
}

func (h *Sessions) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h.log().Info("session closed", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Sessions) handleStatus(w http.ResponseWriter, r *http.Request, id uuid.UUID, e *entry) {
	writeJSON(w, http.StatusOK, statusOf(id, e))
}

// handleCommands runs a script against the session. Commands before a failing
// step stay applied; the response reports the failing step index.
func (h *Sessions) handleCommands(w http.ResponseWriter, r *http.Request, id uuid.UUID, e *entry) {
	sc, err := script.Parse(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if h.cfg.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.CommandTimeout)
		defer cancel()
	}

	start := time.Now()
	runErr := sc.Run(ctx, e.session, h.log().With("session", id))
	h.commands.Add(int64(len(sc.Commands)))

	st := statusOf(id, e)
	if runErr != nil {
		failed := -1
		var stepErr *script.StepError
		if errors.As(runErr, &stepErr) {
			failed = stepErr.Step
		}
		st.FailedAt = &failed
		st.Error = runErr.Error()
		code := http.StatusUnprocessableEntity
		if errors.Is(runErr, context.DeadlineExceeded) || errors.Is(runErr, context.Canceled) {
			code = http.StatusServiceUnavailable
		}
		h.log().Warn("command failed", "session", id, "step", failed, "error", runErr)
		writeJSON(w, code, st)
		return
	}

	h.log().Debug("commands applied", "session", id, "count", len(sc.Commands), "elapsed", time.Since(start))
	writeJSON(w, http.StatusOK, st)
}

func (h *Sessions) handleArchive(w http.ResponseWriter, r *http.Request, id uuid.UUID, e *entry) {
	if h.cfg.Gallery == nil {
		writeError(w, http.StatusNotImplemented, errors.New("gallery not configured"))
		return
	}

	var buf bytes.Buffer
	if err := imageio.EncodePNG(&buf, e.session.Current(), h.cfg.Compression); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	name := e.name
	if name == "" {
		name = id.String()
	}
	b := e.session.Current().Bounds()
	archiveID, err := h.cfg.Gallery.Save(r.Context(), gallery.Entry{
		Name:   name,
		Color:  strings.ToUpper(r.URL.Query().Get("color")),
		Width:  b.Dx(),
		Height: b.Dy(),
		PNG:    buf.Bytes(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.log().Info("session archived", "session", id, "archive_id", archiveID, "size", humanize.Bytes(uint64(buf.Len())))
	st := statusOf(id, e)
	st.ArchiveID = archiveID
	writeJSON(w, http.StatusCreated, st)
}

func (h *Sessions) handleImage(w http.ResponseWriter, r *http.Request, id uuid.UUID, e *entry) {
	h.writePNG(w, e.session.Current())
}

func (h *Sessions) handleOriginal(w http.ResponseWriter, r *http.Request, id uuid.UUID, e *entry) {
	h.writePNG(w, e.session.Original())
}

// handleOverlay renders the current image with the selection tint and the
// open polygon. ?cursor=x,y adds the rubber-band segment to that point.
func (h *Sessions) handleOverlay(w http.ResponseWriter, r *http.Request, id uuid.UUID, e *entry) {
	var cursor *image.Point
	if c := r.URL.Query().Get("cursor"); c != "" {
		p, err := parsePoint(c)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cursor = &p
	}

	img, err := overlay.Preview(e.session.Current(), e.session.Mask(), e.session.Polygon(), cursor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writePNG(w, img)
}

// withSession resolves {id} and holds the session lock for the handler.
func (h *Sessions) withSession(fn func(http.ResponseWriter, *http.Request, uuid.UUID, *entry)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			http.NotFound(w, r)
			return
		}

		h.mu.RLock()
		e, ok := h.sessions[id]
		h.mu.RUnlock()
		if !ok {
			http.NotFound(w, r)
			return
		}

		e.mu.Lock()
		defer e.mu.Unlock()
		e.lastUsed = time.Now()
		fn(w, r, id, e)
	}
}

func (h *Sessions) writePNG(w http.ResponseWriter, img image.Image) {
	var buf bytes.Buffer
	if err := imageio.EncodePNG(&buf, img, h.cfg.Compression); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Cache-Control", h.cfg.CacheControl)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := io.Copy(w, &buf); err != nil {
		h.log().Error("Failed to write response", "error", err)
	}
}

func (h *Sessions) log() *slog.Logger {
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}

func statusOf(id uuid.UUID, e *entry) Status {
	s := e.session
	b := s.Current().Bounds()
	return Status{
		CreatedAt: e.created,
		ID:        id.String(),
		Name:      e.name,
		Tool:      s.Tool().String(),
		Width:     b.Dx(),
		Height:    b.Dy(),
		Radius:    s.BrushRadius(),
		Selected:  s.Mask().Count(),
		Vertices:  len(s.Polygon()),
		Changed:   paint.ChangedPixels(s),
		Drawing:   s.Drawing(),
	}
}

// parsePoint parses "x,y".
func parsePoint(s string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("invalid point %q: expected x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return image.Point{}, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return image.Pt(x, y), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

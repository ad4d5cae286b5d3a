// Package preview serves a built site locally and rebuilds it when sources change.
package preview

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 300 * time.Millisecond

// StatusPath reports the state of the last build as JSON.
const StatusPath = "/_docsite/status"

// Builder is the build surface the preview needs.
type Builder interface {
	Build(ctx context.Context) (*site.BuildReport, error)
	OutputDir() string
	WatchDirs() []string
}

type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	lastBuild    string
	hasGoodBuild bool
}

func (bs *buildStatus) set(report *site.BuildReport, err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
	if report != nil {
		bs.lastBuild = report.BuildID
	}
	if err == nil {
		bs.hasGoodBuild = true
	}
}

func (bs *buildStatus) get() (lastErr error, lastBuild string, hasGoodBuild bool) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError, bs.lastBuild, bs.hasGoodBuild
}

// Server is a local preview server.
type Server struct {
	builder  Builder
	base     string
	addr     string
	debounce time.Duration
	poll     time.Duration
	status   buildStatus
	logger   *slog.Logger

	rebuildReq chan struct{}
	mu         sync.Mutex
	timer      *time.Timer
	builds     sync.WaitGroup
}

// New creates a preview server for b listening on addr. base is the URL
// path the site is published under; requests outside it are not found.
func New(b Builder, base, addr string) *Server {
	if base == "" {
		base = "/"
	}
	return &Server{
		builder:    b,
		base:       base,
		addr:       addr,
		debounce:   DefaultDebounce,
		logger:     slog.Default(),
		rebuildReq: make(chan struct{}, 1),
	}
}

// WithPollInterval additionally requests a rebuild every d. Zero disables polling.
func (s *Server) WithPollInterval(d time.Duration) *Server {
	s.poll = d
	return s
}

// Run builds once, serves the output and rebuilds on change until ctx is done.
// A failed build is logged; the last good site keeps being served.
func (s *Server) Run(ctx context.Context) error {
	s.rebuild(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.InternalError("failed to create file watcher").WithCause(err).Build()
	}
	defer func() { _ = watcher.Close() }()
	for _, dir := range s.builder.WatchDirs() {
		s.addDirsRecursive(watcher, dir)
	}

	if s.poll > 0 {
		poller, err := newPollScheduler(s.poll, s.trigger)
		if err != nil {
			return errors.InternalError("failed to start poll scheduler").WithCause(err).Build()
		}
		poller.Start()
		defer poller.Stop()
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.ConfigError("failed to listen").WithCause(err).WithContext("addr", s.addr).Build()
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Preview server failed", logfields.Error(err))
		}
	}()
	s.logger.Info("Preview server listening", "url", "http://"+ln.Addr().String()+s.base)

	s.startRebuildWorker(ctx)
	defer s.builds.Wait()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Shutting down preview server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("HTTP server shutdown error", logfields.Error(err))
			}
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			s.handleFileEvent(watcher, ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (s *Server) rebuild(ctx context.Context) {
	report, err := s.builder.Build(ctx)
	s.status.set(report, err)
	if err != nil {
		s.logger.Warn("Preview build failed; serving last good site", logfields.Error(err))
		return
	}
	s.logger.Info("Preview rebuilt", logfields.BuildID(report.BuildID), logfields.Count(report.Pages))
}

// trigger schedules a rebuild after the debounce period; further triggers
// within the period restart it.
func (s *Server) trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, func() {
		select {
		case s.rebuildReq <- struct{}{}:
		default:
		}
	})
}

// startRebuildWorker runs rebuilds one at a time. A request arriving during
// a build is remembered and served once the build finishes.
func (s *Server) startRebuildWorker(ctx context.Context) {
	s.builds.Add(1)
	go func() {
		defer s.builds.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.rebuildReq:
				s.logger.Info("Change detected; rebuilding site")
				s.rebuild(ctx)
			}
		}
	}()
}

func (s *Server) handleFileEvent(w *fsnotify.Watcher, ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) || s.insideOutput(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			s.addDirsRecursive(w, ev.Name)
		}
	}
	s.logger.Debug("File change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	s.trigger()
}

func (s *Server) insideOutput(p string) bool {
	out := filepath.Clean(s.builder.OutputDir())
	p = filepath.Clean(p)
	for _, dir := range []string{out, out + "_stage", out + ".prev"} {
		if p == dir || strings.HasPrefix(p, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (s *Server) addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != root && (strings.HasPrefix(d.Name(), ".") || s.insideOutput(p)) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			s.logger.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

func shouldIgnoreEvent(p string) bool {
	base := filepath.Base(p)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}

// Handler serves the output directory below the site base, resolving
// extensionless page URLs to their .html file and falling back to 404.html.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(StatusPath, s.serveStatus)
	mux.HandleFunc("/", s.serveSite)
	return mux
}

func (s *Server) serveStatus(w http.ResponseWriter, _ *http.Request) {
	lastErr, lastBuild, good := s.status.get()
	body := map[string]any{"status": "ok", "build_id": lastBuild, "has_good_build": good}
	if lastErr != nil {
		body["status"] = "error"
		body["error"] = lastErr.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	lastErr, _, good := s.status.get()
	if !good && lastErr != nil {
		http.Error(w, "build failed: "+lastErr.Error(), http.StatusServiceUnavailable)
		return
	}

	rel, ok := strings.CutPrefix(r.URL.Path, strings.TrimSuffix(s.base, "/"))
	if !ok || (rel != "" && !strings.HasPrefix(rel, "/")) {
		s.notFound(w, r)
		return
	}
	clean := path.Clean("/" + rel)
	if strings.HasSuffix(rel, "/") || rel == "" {
		clean = path.Join(clean, "index.html")
	}
	for _, candidate := range []string{clean, clean + ".html", path.Join(clean, "index.html")} {
		if s.serveFile(w, r, candidate, http.StatusOK) {
			return
		}
	}
	s.notFound(w, r)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	if !s.serveFile(w, r, "/404.html", http.StatusNotFound) {
		http.NotFound(w, r)
	}
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, rel string, status int) bool {
	full := filepath.Join(s.builder.OutputDir(), filepath.FromSlash(rel))
	// #nosec G304 -- rel is cleaned and rooted at the output directory
	f, err := os.Open(full)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		return false
	}
	if status != http.StatusOK {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		_, _ = io.Copy(w, f)
		return true
	}
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
	return true
}

package spectate

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mpapenbr/snailrace/log"
	"github.com/mpapenbr/snailrace/pkg/model"
	"github.com/mpapenbr/snailrace/pkg/utils/broadcast"
)

const (
	SnapshotPath = "/snapshot"
	EventsPath   = "/events"

	// DefaultInterval limits the rate of snapshots forwarded to subscribers
	DefaultInterval   = 100 * time.Millisecond
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
)

type (
	// Server provides read-only access to the running race. The latest
	// snapshot is served as JSON, a stream of snapshots is available as
	// server-sent events.
	Server struct {
		interval  time.Duration
		log       *log.Logger
		tlsConfig *tls.Config

		mu       sync.RWMutex
		latest   *model.RaceSnapshot
		lastSent time.Duration
		hasSent  bool

		source chan model.RaceSnapshot
		hub    *broadcast.Hub[model.RaceSnapshot]
	}
	Option func(s *Server)
)

// WithInterval sets the minimum simulation time between streamed snapshots
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		s.interval = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithTLS serves https using cfg
func WithTLS(cfg *tls.Config) Option {
	return func(s *Server) {
		s.tlsConfig = cfg
	}
}

func NewServer(opts ...Option) *Server {
	ret := &Server{
		interval: DefaultInterval,
		log:      log.Default().Named("spectate"),
		source:   make(chan model.RaceSnapshot, 1),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.hub = broadcast.New("spectate", ret.source,
		broadcast.WithTelemetry[model.RaceSnapshot]("snapshot"),
		broadcast.WithLogger[model.RaceSnapshot](ret.log.Named("broadcast")))
	return ret
}

// Publish stores the snapshot as latest and forwards it to the stream
// subscribers. It never blocks, a snapshot is dropped if the previous one
// is still pending.
func (s *Server) Publish(snap model.RaceSnapshot) {
	s.mu.Lock()
	s.latest = &snap
	due := !s.hasSent || snap.SimTime-s.lastSent >= s.interval || snap.SimTime < s.lastSent
	if due {
		s.lastSent = snap.SimTime
		s.hasSent = true
	}
	s.mu.Unlock()
	if !due {
		return
	}
	select {
	case s.source <- snap:
	default:
	}
}

// Latest returns the most recently published snapshot
func (s *Server) Latest() (model.RaceSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return model.RaceSnapshot{}, false
	}
	return *s.latest, true
}

// Handler returns the http handler including CORS support
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+SnapshotPath, s.handleSnapshot)
	mux.HandleFunc("GET "+EventsPath, s.handleEvents)
	return newCORS().Handler(mux)
}

// ListenAndServe serves the handler on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: readHeaderTimeout,
		TLSConfig:         s.tlsConfig,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("spectate server shutdown", log.ErrorField(err))
		}
	}()
	s.log.Info("Starting spectate server",
		log.String("addr", addr), log.Bool("tls", s.tlsConfig != nil))
	var err error
	if s.tlsConfig != nil {
		err = server.ListenAndServeTLS("", "")
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("spectate server: %w", err)
	}
	return nil
}

// Close ends all event streams
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	snap, ok := s.Latest()
	if !ok {
		http.Error(w, "no race running", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.Warn("could not write snapshot", log.ErrorField(err))
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := s.hub.Subscribe()
	defer s.hub.Unsubscribe(ch)
	s.log.Debug("spectator connected", log.String("remote", r.RemoteAddr))
	for {
		select {
		case <-r.Context().Done():
			s.log.Debug("spectator disconnected", log.String("remote", r.RemoteAddr))
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				s.log.Debug("could not write event", log.ErrorField(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snap model.RaceSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", model.MTSnapshot.Subject(), data)
	return err
}

func newCORS() *cors.Cors {
	// spectators may be served from anywhere
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowedHeaders: []string{"*"},
		MaxAge:         int(2 * time.Hour / time.Second),
	})
}

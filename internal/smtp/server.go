package smtp

import (
	"context"
	"log/slog"
	"net"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/telliott/maildrop/internal/store"
)

// shutdownTimeout is the maximum time to wait for in-flight connections
// during graceful shutdown.
const shutdownTimeout = 30 * time.Second

// ServerConfig holds the configuration for a mail drop server.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":6013").
	ListenAddr string

	// Hostname is the server hostname used in the greeting banner.
	Hostname string

	// Store is the message persistence backend.
	Store store.Store

	// SenderSuffix is the domain suffix envelope senders must carry.
	SenderSuffix string
}

// Server accepts connections and runs one Session per connection.
type Server struct {
	config   ServerConfig
	senderRe *regexp.Regexp

	// mu guards listener, which is set by ListenAndServe and read by
	// Addr from other goroutines.
	mu       sync.Mutex
	listener net.Listener

	// nextID numbers accepted connections. It is read-then-incremented
	// once per accept, only by the accept loop; sessions never touch it.
	nextID atomic.Int64

	// wg tracks in-flight session goroutines for graceful shutdown.
	wg sync.WaitGroup
}

// New creates a new Server with the given configuration.
func New(cfg ServerConfig) *Server {
	if cfg.Hostname == "" {
		cfg.Hostname = "localhost"
	}
	if cfg.SenderSuffix == "" {
		cfg.SenderSuffix = "usyd.edu.au"
	}

	return &Server{
		config:   cfg,
		senderRe: senderPattern(cfg.SenderSuffix),
	}
}

// ListenAndServe starts the server and blocks until the context is
// cancelled. On cancellation it stops accepting new connections and waits
// a bounded time for in-flight sessions to complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	slog.Info("mail drop server listening",
		"addr", ln.Addr().String(),
		"store", s.config.Store.Name(),
		"sender_suffix", s.config.SenderSuffix,
	)

	// Monitor context for shutdown
	go func() {
		<-ctx.Done()
		slog.Info("shutting down mail drop server")
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				// Expected error from listener close during shutdown
				s.waitForSessions()
				return nil
			default:
				slog.Error("accept error", "error", err)
				continue
			}
		}

		id := s.nextID.Add(1) - 1
		slog.Debug("connection accepted", "session", id, "remote", conn.RemoteAddr())

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			session := NewSession(id, conn, s.config.Store, s.config.Hostname, s.senderRe)
			session.Handle(ctx)
		}()
	}
}

// waitForSessions waits for all in-flight sessions to complete,
// with a maximum timeout to prevent indefinite blocking.
func (s *Server) waitForSessions() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("all sessions completed")
	case <-time.After(shutdownTimeout):
		slog.Warn("shutdown timeout reached, forcing close")
	}
}

// Addr returns the listener address, or empty string if not listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Package lineserver implements the liquidstore wire protocol server: a
// newline-terminated, one-command-per-line TCP front end over any
// store.Store backend.
//
// Connections are served concurrently up to a fixed pool capacity; a
// connection arriving at a saturated pool is accepted at the transport
// level and immediately closed, with no response. Within one connection
// commands are strictly sequential: one line in, one line out.
package lineserver

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/celerix-dev/liquidstore/internal/core/store"
	"github.com/celerix-dev/liquidstore/internal/telemetry/logger"
	"github.com/celerix-dev/liquidstore/internal/telemetry/metric"
)

// Config holds the protocol server configuration.
type Config struct {
	// Addr is the TCP listen address.
	Addr string
	// MaxConns bounds the number of concurrently served connections.
	MaxConns int
	// ReadTimeout is the timeout for reading one command line.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing one response line.
	WriteTimeout time.Duration
	// IdleTimeout is the timeout for idle connections between commands.
	IdleTimeout time.Duration
	// RateLimit is the maximum commands per second per client IP.
	// Zero disables rate limiting.
	RateLimit int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         "0.0.0.0:7501",
		MaxConns:     100,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  5 * time.Minute,
	}
}

// Server is the protocol router.
type Server struct {
	cfg     *Config
	handler *commandHandler
	log     logger.Logger
	ln      net.Listener
	sem     chan struct{}
	running atomic.Bool
	wg      sync.WaitGroup
}

// New creates a protocol server over the given backend.
func New(cfg *Config, backend store.Store, log logger.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = 100
	}
	if log == nil {
		log = logger.Default()
	}

	return &Server{
		cfg:     cfg,
		handler: newCommandHandler(backend, cfg.RateLimit),
		log:     log,
		sem:     make(chan struct{}, cfg.MaxConns),
	}
}

// Start begins listening and serving. It returns once the listener is
// bound; accepting happens on a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.running.Store(true)
	s.log.Info("liquidstore listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.acceptLoop(ctx); err != nil && s.running.Load() {
			s.log.Error("accept loop error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or empty before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Shutdown closes the listener and waits for in-flight connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			firstErr = err
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		c, err := s.ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return err
		}

		select {
		case s.sem <- struct{}{}:
		default:
			// Pool saturated: back-pressure by rejection, not queueing.
			metric.ConnectionsRejected.Inc()
			s.log.Warn("connection pool full, rejecting", "remote", c.RemoteAddr().String())
			_ = c.Close()
			continue
		}

		metric.ConnectionsAccepted.Inc()
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() { <-s.sem }()
			s.serveConn(ctx, c)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, c net.Conn) {
	defer c.Close()

	metric.ConnectionsActive.Inc()
	defer metric.ConnectionsActive.Dec()

	connID := ulid.Make().String()
	log := s.log.With("conn_id", connID, "remote", c.RemoteAddr().String())
	ctx = logger.WithConnID(ctx, connID)
	log.Debug("connection opened")

	br := bufio.NewReader(c)
	bw := bufio.NewWriter(c)

	for {
		// Allow the connection to sit idle between commands, then tighten
		// to the per-command read timeout once bytes arrive.
		if s.cfg.IdleTimeout > 0 {
			if err := c.SetReadDeadline(time.Now().Add(s.cfg.IdleTimeout)); err != nil {
				return
			}
		}
		if _, err := br.Peek(1); err != nil {
			s.logReadEnd(log, err)
			return
		}
		if s.cfg.ReadTimeout > 0 {
			if err := c.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout)); err != nil {
				return
			}
		}

		line, err := readLine(br)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				s.writeLine(c, bw, "ERR line too long")
			}
			s.logReadEnd(log, err)
			return
		}
		if line == "" {
			continue
		}

		resp, quit := s.handler.handle(ctx, clientIP(c), line)
		if quit {
			log.Debug("connection closed by QUIT")
			return
		}
		if resp == "" {
			// Blank line: no reply, keep reading.
			continue
		}
		if !s.writeLine(c, bw, resp) {
			return
		}
	}
}

func (s *Server) writeLine(c net.Conn, bw *bufio.Writer, line string) bool {
	if s.cfg.WriteTimeout > 0 {
		if err := c.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
			return false
		}
	}
	if _, err := bw.WriteString(line + "\n"); err != nil {
		return false
	}
	return bw.Flush() == nil
}

func (s *Server) logReadEnd(log logger.Logger, err error) {
	if errors.Is(err, io.EOF) {
		log.Debug("connection closed by peer")
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		log.Debug("connection timed out")
		return
	}
	log.Debug("connection read error", "error", err)
}

// maxLineLen bounds one command line (value payload included).
const maxLineLen = 1 << 20

var errLineTooLong = errors.New("lineserver: line exceeds limit")

// readLine reads one newline-terminated line, tolerating a trailing \r.
func readLine(br *bufio.Reader) (string, error) {
	var buf []byte
	for {
		frag, err := br.ReadSlice('\n')
		buf = append(buf, frag...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(buf) > maxLineLen {
				return "", errLineTooLong
			}
			continue
		}
		return "", err
	}
	if len(buf) > maxLineLen {
		return "", errLineTooLong
	}

	line := string(buf)
	line = line[:len(line)-1] // strip \n
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, nil
}

func clientIP(c net.Conn) string {
	host, _, err := net.SplitHostPort(c.RemoteAddr().String())
	if err != nil {
		return c.RemoteAddr().String()
	}
	return host
}

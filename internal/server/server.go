package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/ib-77/mpsc/internal/logging"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second

	// maxRequestHead bounds the request line plus headers read per connection.
	maxRequestHead = 8 << 10

	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Executor runs connection handlers. *pool.Pool satisfies it.
type Executor interface {
	Execute(f func()) (uuid.UUID, error)
}

type page struct {
	status string
	file   string
}

var (
	routes = map[string]page{
		"GET / HTTP/1.1":     {status: "HTTP/1.1 200 OK", file: "home.html"},
		"GET /test HTTP/1.1": {status: "HTTP/1.1 200 OK", file: "test.html"},
	}
	notFound = page{status: "HTTP/1.1 404 Not Found", file: "not_found.html"}
)

const statusInternalError = "HTTP/1.1 500 Internal Server Error"

type Server struct {
	fs     afero.Fs
	dir    string
	exec   Executor
	logger *logging.Logger
}

// New creates a server serving pages from dir on fs.
func New(fs afero.Fs, dir string, exec Executor, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}

	return &Server{
		fs:     fs,
		dir:    dir,
		exec:   exec,
		logger: logger.With("component", "server"),
	}
}

// Serve accepts connections on ln until ctx is done or ln is closed. Other
// accept errors are logged and retried after a delay that doubles up to one
// second. ln is closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	s.logger.Info("listening", "addr", ln.Addr().String())

	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.logger.Info("listener closed", "addr", ln.Addr().String())
				return nil
			}

			delay = nextAcceptDelay(delay)
			s.logger.Warn("accept failed", "error", err, "retry_in", delay.String())

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		delay = 0

		if _, err := s.exec.Execute(func() { s.handle(conn) }); err != nil {
			s.logger.Error("connection rejected", "remote", conn.RemoteAddr().String(), "error", err)
			_ = conn.Close()
		}
	}
}

func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	return min(prev*2, maxAcceptDelay)
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	request, err := readRequestLine(conn)
	if err != nil {
		s.logger.Debug("no request line", "remote", remote, "error", err)
		return
	}

	status, body := s.respond(request)

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := fmt.Fprintf(conn, "%s\r\nContent-Length: %d\r\n\r\n%s", status, len(body), body); err != nil {
		s.logger.Warn("write response failed", "remote", remote, "error", err)
		return
	}

	s.logger.Debug("request served", "remote", remote, "request", request, "status", status)
}

// readRequestLine returns the first line of the request and consumes the
// headers after it, reading at most maxRequestHead bytes in total.
func readRequestLine(r io.Reader) (string, error) {
	reader := bufio.NewReader(io.LimitReader(r, maxRequestHead))

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}

	discardHeaders(reader)
	return strings.TrimRight(line, "\r\n"), nil
}

// discardHeaders consumes the request head so closing the connection does
// not reset it while the client still has unread bytes in flight.
func discardHeaders(r *bufio.Reader) {
	for {
		line, err := r.ReadString('\n')
		if err != nil || strings.TrimRight(line, "\r\n") == "" {
			return
		}
	}
}

func (s *Server) respond(request string) (string, []byte) {
	p, ok := routes[request]
	if !ok {
		p = notFound
	}

	body, err := afero.ReadFile(s.fs, filepath.Join(s.dir, p.file))
	if err != nil {
		s.logger.Error("read page failed", "file", p.file, "error", err)
		return statusInternalError, nil
	}
	return p.status, body
}

package server

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Forwarder receives raw ESC/POS bytes from TCP clients
type Forwarder interface {
	WriteRaw(data []byte) (int, error)
}

// Server represents a TCP server that forwards data to the connected printer
type Server struct {
	forwarder Forwarder
	listener  net.Listener
	address   string
	mu        sync.Mutex
	running   bool
	conns     map[net.Conn]struct{}
	wg        sync.WaitGroup
	logger    zerolog.Logger
}

// New creates a new server instance
func New(fwd Forwarder, address string, logger zerolog.Logger) *Server {
	return &Server{
		forwarder: fwd,
		address:   address,
		logger:    logger.With().Str("component", "server").Logger(),
	}
}

func (s *Server) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info().Str("address", s.address).Msg("starting raw server")

	if s.running {
		s.logger.Error().Msg("server already running")
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to start server")
		return fmt.Errorf("failed to start server: %w", err)
	}

	s.listener = listener
	s.running = true
	s.conns = make(map[net.Conn]struct{})
	s.logger.Info().Str("address", listener.Addr().String()).Msg("raw server listening")
	return nil
}

// StartAsync starts the TCP server in a goroutine (non-blocking)
func (s *Server) StartAsync() error {
	if err := s.listen(); err != nil {
		return err
	}

	s.wg.Add(1)
	go s.acceptConnections()
	return nil
}

// acceptConnections handles incoming client connections
func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.IsRunning() {
				s.logger.Debug().Msg("server shutting down, stopping accept loop")
				return
			}
			s.logger.Warn().Err(err).Msg("error accepting connection")
			continue
		}

		s.mu.Lock()
		if !s.running {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.logger.Info().Str("client", conn.RemoteAddr().String()).Msg("client connected")
		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

// handleConnection forwards a client's bytes until it hangs up or the
// printer rejects a write
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()

	logger := s.logger.With().Str("client", conn.RemoteAddr().String()).Logger()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
		logger.Info().Msg("client disconnected")
	}()

	buf := make([]byte, 4096)

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			written, writeErr := s.forwarder.WriteRaw(buf[:n])
			if writeErr != nil {
				logger.Error().Err(writeErr).Msg("error writing to printer")
				return
			}
			logger.Debug().Int("received", n).Int("written", written).Msg("forwarded")
		}
		if err != nil {
			if err != io.EOF && s.IsRunning() {
				logger.Warn().Err(err).Msg("error reading from client")
			}
			return
		}
	}
}

// Stop closes the listener and all client connections, then waits for
// their handlers to return. The printer connection is left to its owner.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}

	s.logger.Info().Msg("stopping raw server")
	s.running = false
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	var err error
	if listener != nil {
		err = listener.Close()
	}

	s.wg.Wait()
	s.logger.Info().Msg("raw server stopped")
	return err
}

// IsRunning returns whether the server is running
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Address returns the configured listen address
func (s *Server) Address() string {
	return s.address
}

// ListenAddr returns the bound address, or nil when not running
func (s *Server) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil || !s.running {
		return nil
	}
	return s.listener.Addr()
}

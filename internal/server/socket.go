package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"prop-sound/internal/logging"
	"prop-sound/internal/protocol"
	"prop-sound/internal/sound"
)

const DefaultSocketPath = "/tmp/prop-sound.sock"

// SocketServer serves the line protocol on a unix socket. Each connection
// gets its own dispatcher; terminal events of sounds launched on a
// connection are written back to that connection.
type SocketServer struct {
	socketPath string
	listener   net.Listener
	svc        *sound.Service
	newID      func() string
	log        zerolog.Logger
	logger     zerolog.Logger
	wg         sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewSocketServer creates a new unix socket server.
func NewSocketServer(socketPath string, svc *sound.Service, logger zerolog.Logger) *SocketServer {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &SocketServer{
		socketPath: socketPath,
		svc:        svc,
		newID:      LegacyMessageID,
		log:        logging.Component(logger, "socket"),
		logger:     logger,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Start starts the server and listens for connections.
func (s *SocketServer) Start(ctx context.Context) error {
	// Remove a stale socket file left by a previous run.
	os.Remove(s.socketPath)

	var err error
	s.listener, err = net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}

	s.log.Info().Str("path", s.socketPath).Msg("listening")

	go s.acceptLoop(ctx)

	return nil
}

// acceptLoop accepts incoming connections.
func (s *SocketServer) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// Listener closed by Stop.
			s.log.Debug().Err(err).Msg("accept loop ended")
			return
		}

		s.log.Info().Msg("client connected")
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handleConnection(ctx, conn)
			s.log.Info().Msg("client disconnected")
		}()
	}
}

// handleConnection runs the line protocol on one connection until EXIT or
// the client hangs up.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	d := NewDispatcher(s.svc, protocol.NewEmitter(conn), s.newID, s.logger)
	if err := d.Run(ctx, conn); err != nil {
		s.log.Debug().Err(err).Msg("connection read failed")
	}
}

func (s *SocketServer) track(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// Stop closes the listener and open connections and waits for their
// handlers to return. Sounds launched over the socket keep playing.
func (s *SocketServer) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	os.Remove(s.socketPath)
	s.log.Info().Msg("server stopped")
}

// SocketPath returns the socket path.
func (s *SocketServer) SocketPath() string {
	return s.socketPath
}

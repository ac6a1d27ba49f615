package bridge

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mensylisir/elevate/common"
	"github.com/mensylisir/elevate/hook"
	"github.com/mensylisir/elevate/logger"
	"github.com/mensylisir/elevate/session"
	"github.com/mensylisir/elevate/util"
)

// Server accepts frontend connections on a Unix domain socket and routes
// envelopes to the session controller. One goroutine per connection;
// envelopes on a single connection are served in order.
type Server struct {
	socketPath string
	controller *session.Controller

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	quit     chan struct{}
	wg       sync.WaitGroup
}

// NewServer creates a server for the given socket path and controller.
func NewServer(socketPath string, controller *session.Controller) *Server {
	return &Server{
		socketPath: socketPath,
		controller: controller,
		conns:      make(map[net.Conn]struct{}),
		quit:       make(chan struct{}),
	}
}

// Start binds the socket and begins accepting connections. The socket is
// created 0600: only the owning user's frontend may request elevation.
func (s *Server) Start() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), common.FileMode0700); err != nil {
		return errors.Wrapf(err, "failed to create socket directory for %s", s.socketPath)
	}
	// A previous unclean shutdown may have left the socket behind.
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to remove stale socket %s", s.socketPath)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.socketPath)
	}
	if err := os.Chmod(s.socketPath, common.FileMode0600); err != nil {
		listener.Close()
		return errors.Wrapf(err, "failed to restrict socket permissions on %s", s.socketPath)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	logger.Log.WithComponent("bridge").Infof("listening on %s", s.socketPath)

	s.wg.Add(1)
	go s.acceptLoop(listener)
	return nil
}

func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return
			default:
				logger.Log.WithComponent("bridge").Warnf("accept failed: %v", err)
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
	}()

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err != io.EOF {
				logger.Log.WithComponent("bridge").Debugf("connection closed: %v", err)
			}
			return
		}

		resp := s.serve(&req)
		if err := encoder.Encode(resp); err != nil {
			logger.Log.WithComponent("bridge").Warnf("failed to write response for %s: %v", req.Op, err)
			return
		}

		select {
		case <-s.quit:
			return
		default:
		}
	}
}

// serve dispatches one envelope, converting a handler panic into an
// envelope-level error instead of killing the connection goroutine.
func (s *Server) serve(req *Request) *Response {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	resp := &Response{ID: req.ID}

	log := logger.Log.WithOperation(req.Op).WithField(common.LogFieldRequestID, req.ID)

	err := hook.Call(hook.Func{
		TryFn: func() error {
			return s.dispatch(req, resp)
		},
		FinallyFn: func() {
			log.Debugf("request served")
		},
	})
	if err != nil {
		log.Errorf("request failed: %v", err)
		return &Response{ID: req.ID, OK: false, Error: err.Error()}
	}
	return resp
}

// logCommand records which command a request elevates. The password is
// never part of the logged line.
func logCommand(req *Request) {
	cmdline := strings.Join(append([]string{req.Request.Command}, req.Request.Args...), " ")
	logger.Log.WithOperation(req.Op).WithField(common.LogFieldRequestID, req.ID).
		Infof("elevating %s", util.TruncateString(cmdline, 120, "..."))
}

func (s *Server) dispatch(req *Request, resp *Response) error {
	ctx := context.Background()

	switch req.Op {
	case common.OpFastSudo:
		if req.Request == nil {
			return errors.New("fast_sudo requires a request payload")
		}
		logCommand(req)
		resp.Response = s.controller.Execute(ctx, req.Request)
		resp.OK = true

	case common.OpDirectEscalation:
		if req.Request == nil {
			return errors.New("direct_privilege_escalation requires a request payload")
		}
		logCommand(req)
		resp.Response = s.controller.ExecuteDirect(ctx, req.Request.Command, req.Request.Args)
		resp.OK = true

	case common.OpClearSudoCache:
		s.controller.ClearCache(ctx)
		resp.OK = true

	case common.OpCheckSudoPrivileges:
		granted := s.controller.CheckPrivileges(ctx)
		resp.Granted = &granted
		resp.OK = true

	default:
		return errors.Errorf("unknown operation %q", req.Op)
	}
	return nil
}

// Stop closes the listener, waits for in-flight connections and removes the
// socket file.
func (s *Server) Stop() {
	close(s.quit)

	s.mu.Lock()
	listener := s.listener
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	if listener != nil {
		listener.Close()
	}

	s.wg.Wait()
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		logger.Log.WithComponent("bridge").Warnf("failed to remove socket %s: %v", s.socketPath, err)
	}
}

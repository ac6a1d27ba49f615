package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mensylisir/elevate/common"
	"github.com/mensylisir/elevate/logger"
	"github.com/mensylisir/elevate/session"
)

// DefaultCallTimeout bounds a single bridge call, including the elevated
// execution behind it. Must stay wider than the executor timeout.
const DefaultCallTimeout = 60 * time.Second

// Client is the frontend-side adapter. Transport failures are never thrown
// past it: every failure mode is converted into the same structured
// response shape the backend produces, so callers have a single
// failure-handling path.
type Client struct {
	socketPath  string
	callTimeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCallTimeout overrides the per-call deadline.
func WithCallTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// NewClient creates a client for the given socket path.
func NewClient(socketPath string, opts ...ClientOption) *Client {
	c := &Client{
		socketPath:  socketPath,
		callTimeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FastSudo submits an elevation request. Any transport failure is returned
// as a synthesized failed response, never as an error.
func (c *Client) FastSudo(ctx context.Context, req *session.ElevationRequest) *session.ElevationResponse {
	return c.elevationCall(ctx, common.OpFastSudo, req)
}

// DirectEscalation submits a direct elevation request that bypasses the
// credential cache.
func (c *Client) DirectEscalation(ctx context.Context, command string, args []string) *session.ElevationResponse {
	return c.elevationCall(ctx, common.OpDirectEscalation, &session.ElevationRequest{Command: command, Args: args})
}

// ClearCache drops the cached credential. Fire-and-forget: transport
// failures are logged, not surfaced.
func (c *Client) ClearCache(ctx context.Context) {
	if _, err := c.call(ctx, &Request{Op: common.OpClearSudoCache}); err != nil {
		logger.Log.WithComponent("bridge").Warnf("clear_sudo_cache failed: %v", err)
	}
}

// CheckPrivileges reports whether elevation would currently succeed without
// prompting. A transport failure reads as no privileges.
func (c *Client) CheckPrivileges(ctx context.Context) bool {
	resp, err := c.call(ctx, &Request{Op: common.OpCheckSudoPrivileges})
	if err != nil {
		logger.Log.WithComponent("bridge").Warnf("check_sudo_privileges failed: %v", err)
		return false
	}
	return resp.Granted != nil && *resp.Granted
}

func (c *Client) elevationCall(ctx context.Context, op string, req *session.ElevationRequest) *session.ElevationResponse {
	resp, err := c.call(ctx, &Request{Op: op, Request: req})
	if err != nil {
		return transportFailureResponse(err)
	}
	if resp.Response == nil {
		return transportFailureResponse(errors.Errorf("empty response for %s", op))
	}
	return resp.Response
}

// call performs one request/response exchange on a fresh connection.
func (c *Client) call(ctx context.Context, req *Request) (*Response, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	callCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(callCtx, "unix", c.socketPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", c.socketPath)
	}
	defer conn.Close()

	if deadline, ok := callCtx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return nil, errors.Wrapf(err, "failed to send %s request", req.Op)
	}

	var resp Response
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s response", req.Op)
	}
	if !resp.OK {
		return nil, errors.Errorf("%s rejected: %s", req.Op, resp.Error)
	}
	return &resp, nil
}

func transportFailureResponse(err error) *session.ElevationResponse {
	return &session.ElevationResponse{
		Success: false,
		Error:   fmt.Sprintf("bridge call failed: %v", err),
	}
}

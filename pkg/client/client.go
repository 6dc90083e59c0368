// Package client calls the afdd JSON API over its Unix domain socket and
// returns the DTOs from pkg/api.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lc/afd/internal/socket"
	"github.com/lc/afd/pkg/api"
)

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // dummy scheme+host for Request.URL (http://unix)
}

// New returns a Client that dials the given socket path, retrying briefly
// while the daemon starts up.
func New(socketPath string) *Client {
	dial := func(ctx context.Context, _, _ string) (net.Conn, error) {
		return socket.ConnectContext(ctx, socketPath)
	}
	return NewWithTransport(&http.Transport{DialContext: dial}, "http://unix")
}

// NewWithTransport builds a Client over an arbitrary transport and base URL.
func NewWithTransport(rt http.RoundTripper, base string) *Client {
	return &Client{hc: &http.Client{Transport: rt}, base: strings.TrimSuffix(base, "/")}
}

// --------------------------- commands ------------------------------

// Load sends configuration text to be loaded under name.
func (c *Client) Load(ctx context.Context, name, config string, ttl time.Duration, pin bool) (api.AutomatonInfo, error) {
	var out api.AutomatonInfo
	err := c.do(ctx, http.MethodPost, "/v1/load", api.LoadRequest{Name: name, Config: config, TTL: ttl, Pin: pin}, &out)
	return out, err
}

// Eval evaluates inputs against the automaton with the given ID or name.
func (c *Client) Eval(ctx context.Context, ref string, inputs []string) (api.EvalResponse, error) {
	var out api.EvalResponse
	err := c.do(ctx, http.MethodPost, "/v1/eval", api.EvalRequest{Ref: ref, Inputs: inputs}, &out)
	return out, err
}

// Unload removes the automaton with the given ID or name.
func (c *Client) Unload(ctx context.Context, ref string) error {
	return c.do(ctx, http.MethodPost, "/v1/unload", api.UnloadRequest{Ref: ref}, nil)
}

// Automata lists the loaded automata.
func (c *Client) Automata(ctx context.Context) ([]api.AutomatonInfo, error) {
	var out []api.AutomatonInfo
	err := c.do(ctx, http.MethodGet, "/v1/automata", nil, &out)
	return out, err
}

// Status retrieves the daemon status.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/v1/status", nil, &out)
	return out, err
}

// --------------------------- HTTP helpers --------------------------

func (c *Client) do(ctx context.Context, method, path string, payload, v any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			return uerr.Err
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		rerr := &api.RemoteError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(&rerr.ErrorResponse)
		return rerr
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

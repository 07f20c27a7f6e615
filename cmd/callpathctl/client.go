package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/teslashibe/go-callpath/internal/httpc"
	"github.com/teslashibe/go-callpath/pkg/audiopath"
	"github.com/teslashibe/go-callpath/pkg/protocol"
)

// controlClient is one transport to callpathd
type controlClient interface {
	Get(ctx context.Context) (protocol.Response, error)
	Set(ctx context.Context, mode string) (protocol.Response, error)
	Suspend(ctx context.Context) (protocol.Response, error)
	Resume(ctx context.Context) (protocol.Response, error)
}

// httpClient talks to the HTTP control API
type httpClient struct {
	base   string
	client *http.Client
}

func newHTTPClient(base string, timeout time.Duration) *httpClient {
	return &httpClient{base: strings.TrimRight(base, "/"), client: httpc.NewClient(timeout)}
}

func (c *httpClient) Get(ctx context.Context) (protocol.Response, error) {
	var state audiopath.State
	if _, err := httpc.DoJSON(ctx, c.client, http.MethodGet, c.base+"/api/state", &state); err != nil {
		return protocol.Response{}, err
	}
	resp := protocol.NewResponse(nil)
	resp.State = &state
	return resp, nil
}

func (c *httpClient) Set(ctx context.Context, mode string) (protocol.Response, error) {
	return c.do(ctx, http.MethodPut, "/api/path/"+url.PathEscape(mode))
}

func (c *httpClient) Suspend(ctx context.Context) (protocol.Response, error) {
	return c.do(ctx, http.MethodPost, "/api/power/suspend")
}

func (c *httpClient) Resume(ctx context.Context) (protocol.Response, error) {
	return c.do(ctx, http.MethodPost, "/api/power/resume")
}

func (c *httpClient) do(ctx context.Context, method, path string) (protocol.Response, error) {
	var resp protocol.Response
	_, err := httpc.DoJSON(ctx, c.client, method, c.base+path, &resp)
	return resp, err
}

// natsClient talks to the NATS control API
type natsClient struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
}

func newNATSClient(url, prefix string, timeout time.Duration) (*natsClient, error) {
	nc, err := nats.Connect(url, nats.Name("callpathctl"), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	return &natsClient{nc: nc, prefix: prefix, timeout: timeout}, nil
}

func (c *natsClient) Close() { c.nc.Close() }

func (c *natsClient) Get(ctx context.Context) (protocol.Response, error) {
	return c.request(ctx, protocol.GetSubject(c.prefix), nil)
}

func (c *natsClient) Set(ctx context.Context, mode string) (protocol.Response, error) {
	data, err := json.Marshal(parseMode(mode))
	if err != nil {
		return protocol.Response{}, err
	}
	return c.request(ctx, protocol.SetSubject(c.prefix), data)
}

func (c *natsClient) Suspend(ctx context.Context) (protocol.Response, error) {
	return c.request(ctx, protocol.SuspendSubject(c.prefix), nil)
}

func (c *natsClient) Resume(ctx context.Context) (protocol.Response, error) {
	return c.request(ctx, protocol.ResumeSubject(c.prefix), nil)
}

func (c *natsClient) request(ctx context.Context, subject string, data []byte) (protocol.Response, error) {
	var resp protocol.Response
	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return resp, fmt.Errorf("request %s: %w", subject, err)
	}
	if err := json.Unmarshal(msg.Data, &resp); err != nil {
		return resp, fmt.Errorf("decode reply: %w", err)
	}
	return resp, nil
}

// parseMode accepts a mode name or a numeric mode code
func parseMode(raw string) protocol.SetPathRequest {
	if code, err := strconv.Atoi(raw); err == nil {
		return protocol.SetPathRequest{Code: &code}
	}
	return protocol.SetPathRequest{Mode: raw}
}

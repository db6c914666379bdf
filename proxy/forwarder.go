package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"apidocs-admin/apierrors"

	"github.com/sirupsen/logrus"
)

// Request describes one call to forward upstream.
type Request struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    []byte
}

// Response is what came back from upstream. Data holds the decoded JSON
// body, or the raw text when the strategy allows it.
type Response struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	Data       any               `json:"data"`
}

// Forwarder sends a Request to an allow-listed host.
type Forwarder interface {
	Forward(ctx context.Context, req *Request) (*Response, error)
}

// LenientForwarder relays any upstream body: JSON is decoded, anything else
// is passed through as text. Used by the explicit-target endpoint.
type LenientForwarder struct {
	client *client
}

// StrictForwarder requires the upstream body to be JSON and fails otherwise.
// Used by the path-routed endpoint.
type StrictForwarder struct {
	client *client
}

var (
	_ Forwarder = (*LenientForwarder)(nil)
	_ Forwarder = (*StrictForwarder)(nil)
)

func NewLenientForwarder(hc *http.Client, allow *AllowList, log logrus.FieldLogger) *LenientForwarder {
	return &LenientForwarder{client: newClient(hc, allow, log.WithField("strategy", "lenient"))}
}

func NewStrictForwarder(hc *http.Client, allow *AllowList, log logrus.FieldLogger) *StrictForwarder {
	return &StrictForwarder{client: newClient(hc, allow, log.WithField("strategy", "strict"))}
}

func (f *LenientForwarder) Forward(ctx context.Context, req *Request) (*Response, error) {
	resp, body, err := f.client.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		data = string(body)
	}
	resp.Data = data
	return resp, nil
}

func (f *StrictForwarder) Forward(ctx context.Context, req *Request) (*Response, error) {
	resp, body, err := f.client.do(ctx, req)
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &apierrors.UpstreamError{TargetURL: req.URL, Err: fmt.Errorf("invalid JSON response: %w", err)}
	}
	resp.Data = data
	return resp, nil
}

// client holds the request side shared by both strategies.
type client struct {
	http  *http.Client
	allow *AllowList
	log   logrus.FieldLogger
}

func newClient(hc *http.Client, allow *AllowList, log logrus.FieldLogger) *client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &client{http: hc, allow: allow, log: log}
}

// do checks the target, sends the request and reads the whole body.
// The allow-list check runs before anything touches the network.
func (c *client) do(ctx context.Context, req *Request) (*Response, []byte, error) {
	target, err := c.allow.Check(req.URL)
	if err != nil {
		return nil, nil, err
	}

	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method != http.MethodGet && len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	out, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, nil, &apierrors.UpstreamError{TargetURL: req.URL, Err: err}
	}
	out.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		out.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(out)
	if err != nil {
		c.log.WithError(err).WithField("target", target.Host).Warn("upstream request failed")
		return nil, nil, &apierrors.UpstreamError{TargetURL: req.URL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &apierrors.UpstreamError{TargetURL: req.URL, Err: err}
	}

	c.log.WithFields(logrus.Fields{
		"method":   method,
		"target":   target.Host,
		"path":     target.Path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Info("forwarded")

	return &Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Headers:    flattenHeaders(resp.Header),
	}, raw, nil
}

// statusText strips the code from "200 OK".
func statusText(resp *http.Response) string {
	return strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
}

// flattenHeaders lower-cases names and joins repeated values with ", ".
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		out[strings.ToLower(k)] = strings.Join(vs, ", ")
	}
	return out
}

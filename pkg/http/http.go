// Package http is the outbound HTTP client. Every call to a third-party API
// goes through DefaultClient so tests can swap its transport:
//
//	resp, err := http.Get(url).Bearer(token).Retry(3, time.Second).Send()
//	var profile Profile
//	err = resp.JSON(&profile)
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/shashiranjanraj/meetup/pkg/logger"
)

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 20,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

var DefaultClient = &gohttp.Client{Transport: defaultTransport}

// ResetTransport restores the production transport on DefaultClient.
func ResetTransport() {
	DefaultClient.Transport = defaultTransport
}

type Request struct {
	method    string
	url       string
	headers   map[string]string
	body      interface{}
	timeout   time.Duration
	retries   int
	retryWait time.Duration
	ctx       context.Context
	client    *gohttp.Client
}

func Get(url string) *Request  { return newRequest(gohttp.MethodGet, url) }
func Post(url string) *Request { return newRequest(gohttp.MethodPost, url) }

func newRequest(method, url string) *Request {
	return &Request{
		method:    method,
		url:       url,
		headers:   map[string]string{"Accept": "application/json"},
		timeout:   10 * time.Second,
		retries:   1,
		retryWait: 200 * time.Millisecond,
		ctx:       context.Background(),
	}
}

func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

func (r *Request) Bearer(token string) *Request {
	return r.Header("Authorization", "Bearer "+token)
}

// Body is marshalled to JSON unless it is a string or []byte.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// Timeout bounds each attempt.
func (r *Request) Timeout(d time.Duration) *Request {
	r.timeout = d
	return r
}

// Retry sets the total number of attempts and the initial backoff, which
// doubles after every failed attempt.
func (r *Request) Retry(n int, wait time.Duration) *Request {
	if n < 1 {
		n = 1
	}
	r.retries = n
	r.retryWait = wait
	return r
}

func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Client sends through c instead of DefaultClient, e.g. an oauth2 client
// whose base transport is DefaultClient's.
func (r *Request) Client(c *gohttp.Client) *Request {
	r.client = c
	return r
}

// Send runs the request. Transport errors and 5xx responses are retried;
// the last 5xx response is returned without error.
func (r *Request) Send() (*Response, error) {
	var (
		resp    *Response
		lastErr error
		wait    = r.retryWait
	)
	for attempt := 1; attempt <= r.retries; attempt++ {
		resp, lastErr = r.do()
		if lastErr == nil && resp.StatusCode < 500 {
			return resp, nil
		}
		if attempt == r.retries {
			break
		}
		logger.WithCtx(r.ctx).Warn("http: attempt failed, retrying",
			"url", r.url, "attempt", attempt, "backoff", wait, "error", lastErr)
		select {
		case <-r.ctx.Done():
			return nil, r.ctx.Err()
		case <-time.After(wait):
		}
		wait *= 2
	}
	if lastErr != nil {
		return nil, fmt.Errorf("http: %s %s failed after %d attempts: %w", r.method, r.url, r.retries, lastErr)
	}
	return resp, nil
}

func (r *Request) do() (*Response, error) {
	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	client := r.client
	if client == nil {
		client = DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	return &Response{StatusCode: res.StatusCode, Headers: res.Header, Raw: raw}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	switch v := r.body.(type) {
	case nil:
		return nil, "", nil
	case string:
		return bytes.NewBufferString(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Throw returns an error for non-2xx responses.
func (r *Response) Throw() error {
	if !r.OK() {
		return fmt.Errorf("http: unexpected status %d: %s", r.StatusCode, string(r.Raw))
	}
	return nil
}

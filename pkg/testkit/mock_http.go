package testkit

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// MockTransport implements http.RoundTripper over a scenario's
// "httprequest" steps. Install it on pkg/http.DefaultClient:
//
//	mt := testkit.NewMockTransport(scenario)
//	httpc.DefaultClient.Transport = mt
//	defer httpc.ResetTransport()
type MockTransport struct {
	mu      sync.Mutex
	steps   []httpMockEntry
	require bool
	seen    []*http.Request
}

type httpMockEntry struct {
	step      MockStep
	callCount int
}

// NewMockTransport builds a MockTransport from the "httprequest" steps in s.
func NewMockTransport(s *Scenario) *MockTransport {
	mt := &MockTransport{require: s.IsMockRequired}
	for _, step := range s.NetUtilMockStep {
		if step.Method != "httprequest" || !step.IsMock {
			continue
		}
		mt.steps = append(mt.steps, httpMockEntry{step: step})
	}
	return mt
}

// RoundTrip answers req from the first step whose MatchURL prefixes it.
func (mt *MockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	mt.seen = append(mt.seen, req)
	for i := range mt.steps {
		entry := &mt.steps[i]
		if !urlMatches(req.URL.String(), entry.step.MatchURL) {
			continue
		}
		entry.callCount++
		return buildHTTPResponse(req, entry.step.ReturnData), nil
	}

	if mt.require {
		return nil, fmt.Errorf("testkit: unexpected outgoing HTTP call to %s", req.URL)
	}
	return buildHTTPResponse(req, MockReturnData{
		StatusCode: http.StatusNotFound,
		Body:       []byte(`{"error":"no mock configured"}`),
	}), nil
}

// Requests returns every outgoing request seen so far.
func (mt *MockTransport) Requests() []*http.Request {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	return append([]*http.Request(nil), mt.seen...)
}

// AssertAllCalled lists the mock steps that were never triggered.
func (mt *MockTransport) AssertAllCalled() []error {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var errs []error
	for _, e := range mt.steps {
		if e.callCount == 0 {
			errs = append(errs, fmt.Errorf("testkit: mock step matchUrl=%q was never called", e.step.MatchURL))
		}
	}
	return errs
}

func urlMatches(candidate, pattern string) bool {
	return pattern == "" || strings.HasPrefix(candidate, pattern)
}

func buildHTTPResponse(req *http.Request, rd MockReturnData) *http.Response {
	code := rd.StatusCode
	if code == 0 {
		code = http.StatusOK
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	return &http.Response{
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(rd.Body)),
		Request:    req,
	}
}

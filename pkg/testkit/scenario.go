// Package testkit drives REST API tests from JSON scenario files.
//
// A scenario describes one request, the expected status code, an optional
// expected response body and the outgoing HTTP calls to intercept:
//
//	testdata/
//	  signup.json        scenario
//	  signup_req.json    request body
//	  signup_res.json    expected response body (subset match)
//
// Values written as {{name}} in the URL, headers and request body are
// substituted from the Vars passed to Run, so a test can create fixtures in
// Go and refer to their IDs or tokens from JSON:
//
//	testkit.RunDir(t, handler, "testdata", testkit.Vars{"token": tok})
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Vars are the {{name}} substitutions applied to a scenario before it runs.
type Vars map[string]string

func (v Vars) expand(s string) string {
	for k, val := range v {
		s = strings.ReplaceAll(s, "{{"+k+"}}", val)
	}
	return s
}

// Scenario is a single REST API test case loaded from a JSON file.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"`
	Headers         map[string]string `json:"headers"`

	ResponseFileName string `json:"responseFileName"`
	ExpectedCode     int    `json:"expectedCode"`

	// IsMockRequired fails outgoing calls that match no mock step.
	IsMockRequired bool `json:"isMockRequired"`

	NetUtilMockStep []MockStep `json:"netUtilMockStep"`

	dir string
}

// MockStep describes one intercepted outgoing HTTP call.
type MockStep struct {
	// Method is "httprequest"; other kinds are ignored.
	Method string `json:"method"`
	IsMock bool   `json:"isMock"`

	// MatchURL is a prefix of the outgoing URL. Empty matches anything.
	MatchURL string `json:"matchUrl"`

	ReturnData MockReturnData `json:"returnData"`
}

// MockReturnData is the synthetic response for a mock step. Body is any
// JSON value and is written back verbatim.
type MockReturnData struct {
	StatusCode int             `json:"statusCode"`
	Body       json.RawMessage `json:"body"`
}

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	for i, step := range s.NetUtilMockStep {
		if step.Method == "" {
			return fmt.Errorf("netUtilMockStep[%d].method is required", i)
		}
	}
	return nil
}

// RequestBodyPath resolves RequestFileName against the scenario's directory.
func (s *Scenario) RequestBodyPath() string { return s.resolve(s.RequestFileName) }

// ResponseBodyPath resolves ResponseFileName against the scenario's directory.
func (s *Scenario) ResponseBodyPath() string { return s.resolve(s.ResponseFileName) }

func (s *Scenario) resolve(name string) string {
	if name == "" {
		return ""
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// LoadAllFromDir loads every scenario in dir. Files ending in _req.json or
// _res.json are bodies, not scenarios.
func LoadAllFromDir(dir string) ([]*Scenario, []error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil || len(entries) == 0 {
		return nil, []error{fmt.Errorf("testkit: no scenario files found in %q", dir)}
	}

	var (
		scenarios []*Scenario
		errs      []error
	)
	for _, path := range entries {
		if isBodyFile(path) {
			continue
		}
		s, err := LoadScenario(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, errs
}

func isBodyFile(path string) bool {
	return strings.HasSuffix(path, "_req.json") || strings.HasSuffix(path, "_res.json")
}

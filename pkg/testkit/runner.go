package testkit

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	httpc "github.com/shashiranjanraj/meetup/pkg/http"
)

// Run executes the scenario at path against handler as a subtest.
func Run(t *testing.T, handler http.Handler, path string, vars Vars) {
	t.Helper()

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", path, err)
	}
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, handler, s, vars)
	})
}

// RunDir runs every scenario in dir, in file name order, as subtests. Later
// scenarios see the state earlier ones left behind.
func RunDir(t *testing.T, handler http.Handler, dir string, vars Vars) {
	t.Helper()

	scenarios, errs := LoadAllFromDir(dir)
	for _, err := range errs {
		t.Error(err)
	}
	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s, vars)
		})
	}
}

func runScenario(t *testing.T, handler http.Handler, s *Scenario, vars Vars) {
	t.Helper()

	var body string
	if p := s.RequestBodyPath(); p != "" {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("[%s] read request file %q: %v", s.Name, p, err)
		}
		body = vars.expand(string(data))
	}

	mt := NewMockTransport(s)
	original := httpc.DefaultClient.Transport
	httpc.DefaultClient.Transport = mt
	defer func() { httpc.DefaultClient.Transport = original }()

	req := httptest.NewRequest(strings.ToUpper(s.RequestMethod), vars.expand(s.RequestURL), strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range s.Headers {
		req.Header.Set(k, vars.expand(v))
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	if p := s.ResponseBodyPath(); p != "" {
		expected, err := os.ReadFile(p)
		if err != nil {
			t.Errorf("[%s] read response file %q: %v", s.Name, p, err)
		} else {
			AssertJSONBody(t, s, expected, rec.Body.Bytes())
		}
	}

	AssertMocksAllCalled(t, s, mt)
}

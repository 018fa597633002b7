package testkit

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code.
func AssertStatusCode(t *testing.T, scenario *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, scenario.ExpectedCode, got,
		"[%s] HTTP status code mismatch\nbody: %s", scenario.Name, string(body))
}

// AssertJSONBody checks that every key in expected is present in actual with
// the same value. Keys only present in actual are ignored, so generated IDs
// and timestamps can be left out of expected files.
func AssertJSONBody(t *testing.T, scenario *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var expVal, actVal any
	require.NoError(t, json.Unmarshal(expected, &expVal),
		"[%s] expected response file is not valid JSON", scenario.Name)

	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", scenario.Name, string(actual)) {
		return
	}

	if diffs := DiffJSON("", expVal, actVal); len(diffs) > 0 {
		assert.Fail(t, fmt.Sprintf("[%s] response body mismatch", scenario.Name),
			"%s\nbody: %s", strings.Join(diffs, "\n"), string(actual))
	}
}

// AssertMocksAllCalled fails the test for every mock step never triggered.
func AssertMocksAllCalled(t *testing.T, scenario *Scenario, mt *MockTransport) {
	t.Helper()
	for _, err := range mt.AssertAllCalled() {
		assert.NoError(t, err, "[%s]", scenario.Name)
	}
}

// DiffJSON lists the places where actual does not contain expected. Objects
// match as subsets; arrays must have the same length.
func DiffJSON(path string, expected, actual any) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual))
		}
		for k, ev := range exp {
			p := keyPath(path) + "." + k
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing in actual", p))
				continue
			}
			diffs = append(diffs, DiffJSON(p, ev, av)...)
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual))
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: array length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", keyPath(path), i), exp[i], act[i])...)
		}
	default:
		if fmt.Sprintf("%v", expected) != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}

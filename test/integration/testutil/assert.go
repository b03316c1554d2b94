package testutil

import (
	"strings"
	"testing"

	"gymsched/pkg/client"
)

// MustCall unwraps a SchedulerClient call, failing the test on transport
// errors so assertions can chain off the response directly.
func MustCall(t *testing.T, resp *client.Response, err error) *client.Response {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// AssertStatusCode fails the test if the status code doesn't match.
func AssertStatusCode(t *testing.T, resp *client.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, resp.StatusCode, string(resp.Body))
	}
}

// AssertContains fails if the response body doesn't contain substr.
func AssertContains(t *testing.T, resp *client.Response, substr string) {
	t.Helper()
	if !strings.Contains(string(resp.Body), substr) {
		t.Fatalf("response body does not contain %q. Body: %s", substr, string(resp.Body))
	}
}

// PrintResponse dumps a response for debugging.
func PrintResponse(t *testing.T, resp *client.Response) {
	t.Helper()
	t.Logf("Status: %d", resp.StatusCode)
	t.Logf("Body: %s", string(resp.Body))
}

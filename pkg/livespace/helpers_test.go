package livespace

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

type capturedRequest struct {
	path        string
	contentType string
	form        url.Values
	data        map[string]any
	hasDeadline bool
}

// fakeAPI answers auth requests with token "T", "T2", ... and session ids
// "SID", "SID2", ...; method requests are answered by respond.
type fakeAPI struct {
	t *testing.T

	mu        sync.Mutex
	authCalls int
	auth      func(call int) (string, error)
	respond   func(call int, data map[string]any) (int, string, error)
	methods   []capturedRequest
	auths     []capturedRequest
}

func newFakeAPI(t *testing.T, bodies ...string) *fakeAPI {
	f := &fakeAPI{t: t}
	f.respond = func(call int, data map[string]any) (int, string, error) {
		if call >= len(bodies) {
			t.Fatalf("unexpected method call #%d", call+1)
		}
		return http.StatusOK, bodies[call], nil
	}
	return f
}

func (f *fakeAPI) httpClient() *http.Client {
	return &http.Client{Transport: roundTripFunc(f.roundTrip)}
}

func (f *fakeAPI) roundTrip(req *http.Request) (*http.Response, error) {
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		f.t.Fatalf("read request body: %v", err)
	}
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		f.t.Fatalf("parse form: %v", err)
	}
	_, hasDeadline := req.Context().Deadline()
	captured := capturedRequest{
		path:        req.URL.Path,
		contentType: req.Header.Get("Content-Type"),
		form:        form,
		hasDeadline: hasDeadline,
	}

	f.mu.Lock()
	if strings.HasSuffix(req.URL.Path, authPath) {
		f.authCalls++
		call := f.authCalls
		f.auths = append(f.auths, captured)
		f.mu.Unlock()

		var body string
		if f.auth != nil {
			body, err = f.auth(call)
			if err != nil {
				return nil, err
			}
		} else {
			body = authBody(call)
		}
		return jsonResponse(http.StatusOK, body), nil
	}

	if data := form.Get("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &captured.data); err != nil {
			f.mu.Unlock()
			f.t.Fatalf("decode data field: %v", err)
		}
	}
	call := len(f.methods)
	f.methods = append(f.methods, captured)
	f.mu.Unlock()

	status, body, err := f.respond(call, captured.data)
	if err != nil {
		return nil, err
	}
	return jsonResponse(status, body), nil
}

func (f *fakeAPI) methodCalls() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.methods...)
}

func (f *fakeAPI) authCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authCalls
}

func authBody(call int) string {
	suffix := ""
	if call > 1 {
		suffix = fmt.Sprint(call)
	}
	return fmt.Sprintf(`{"status":true,"result":200,"data":{"token":"T%s","session_id":"SID%s"},"error":null}`, suffix, suffix)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{WithHTTPClient(api.httpClient())}, opts...)
	client, err := NewClient("https://x", "K", "S", all...)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func mustParams(t *testing.T, m map[string]any) Params {
	t.Helper()
	p, err := ParamsFrom(m)
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	return p
}

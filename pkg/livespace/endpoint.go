package livespace

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	pkgerrors "github.com/angelmondragon/livespace-sdk/pkg/errors"
)

const (
	apiPathPrefix = "/api/public"
	authPath      = "/_Api/auth_call/_api_method/getToken"

	// responseBodyLimit caps how much of a response body is read.
	responseBodyLimit int64 = 32 << 20
)

func methodEndpoint(baseURL, format, module, method string) string {
	return baseURL + apiPathPrefix + "/" + format + "/" + url.PathEscape(module) + "/" + url.PathEscape(method)
}

func authEndpoint(baseURL, format string) string {
	return baseURL + apiPathPrefix + "/" + format + authPath
}

// transport issues the form-encoded POSTs shared by the session manager and
// the dispatcher. Errors from net/http are returned untouched.
type transport struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

func (t *transport) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConfig, err, "build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyLimit))
	if err != nil {
		return nil, err
	}
	return body, nil
}

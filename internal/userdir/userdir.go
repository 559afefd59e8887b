// Package userdir answers user-existence questions by asking the user
// service over HTTP.
package userdir

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/devllyservices-png/zedyoumplus2-sub000/pkg/httpclient"
)

const serviceName = "user"

// HTTPDoer executes HTTP requests. Both httpclient.Client and
// httpclient.CircuitBreakerClient satisfy it.
type HTTPDoer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPDirectory implements repository.UserDirectory against
// GET {baseURL}/api/v1/users/{id}.
type HTTPDirectory struct {
	client  HTTPDoer
	baseURL string
}

func NewHTTPDirectory(client HTTPDoer, baseURL string) *HTTPDirectory {
	return &HTTPDirectory{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// Exists reports true on 200 and false on 404. Any other answer is an error.
func (d *HTTPDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/api/v1/users/"+url.PathEscape(userID), http.NoBody)
	if err != nil {
		return false, fmt.Errorf("create user lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("call user service: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		_ = resp.Body.Close()
		return true, nil
	case http.StatusNotFound:
		_ = resp.Body.Close()
		return false, nil
	default:
		return false, httpclient.ParseResponseError(resp, serviceName)
	}
}

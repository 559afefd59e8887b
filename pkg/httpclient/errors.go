package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/devllyservices-png/zedyoumplus2-sub000/pkg/errors"
)

// downstreamError mirrors httputil.ErrorResponse as sent by sibling services.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes a non-2xx response body and turns
// it into an error carrying the same meaning locally.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	message := string(body)
	var parsed downstreamError
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
		message = parsed.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.NotFound(service, message)
	case resp.StatusCode == http.StatusBadRequest:
		return apperrors.InvalidInput(service + ": " + message)
	case resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.Unavailable(service, fmt.Errorf("status %d: %s", resp.StatusCode, message))
	default:
		return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, message)
	}
}

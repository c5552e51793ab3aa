package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
)

// downstreamError mirrors the httputil error envelope.
type downstreamError struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// returns an error whose kind follows the status code.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", service, resp.StatusCode, err)
	}

	message := string(body)
	var de downstreamError
	if json.Unmarshal(body, &de) == nil && de.Error != nil {
		message = de.Error.Message
	}
	qualified := fmt.Sprintf("%s: %s", service, message)

	switch status := resp.StatusCode; {
	case status == http.StatusUnauthorized:
		return apperrors.Unauthenticated(qualified)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualified)
	case status == http.StatusNotFound:
		return apperrors.New("NOT_FOUND", qualified, http.StatusNotFound, apperrors.ErrNotFound)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualified)
	case status >= http.StatusInternalServerError:
		return apperrors.Unavailable(qualified)
	case status >= http.StatusBadRequest:
		return apperrors.InvalidInput(qualified)
	default:
		return fmt.Errorf("%s returned unexpected status %d: %s", service, status, message)
	}
}

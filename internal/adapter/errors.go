// SPDX-License-Identifier: Apache-2.0

package adapter

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrUnauthorized maps 401 and 403: the session token is missing, expired,
	// or the challenge response was rejected.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound maps 404.
	ErrNotFound = errors.New("not found")

	// ErrConflict maps 409 and 412: an stoken/ctag/etag optimistic-concurrency
	// check failed. Callers refetch and retry.
	ErrConflict = errors.New("conflict")

	// ErrServer maps any other non-2xx response.
	ErrServer = errors.New("server error")
)

// mapHTTPError converts a non-2xx response into a sentinel error,
// keeping the status line for context.
func mapHTTPError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	switch resp.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status())
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, resp.Status())
	case http.StatusConflict, http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %s", ErrConflict, resp.Status())
	default:
		return fmt.Errorf("%w: %s", ErrServer, resp.Status())
	}
}

// Package marketing is the client for a Mailchimp-style marketing API.
//
// EnsureSuccess is the response validation step every call goes through: it
// lets 2xx responses pass, turns a 404 into a *NotFoundError and decodes any
// other failure body into a *ServiceError carrying the remote diagnostics.
// The package also provides the generic Decode helper and HexHash, used to
// derive subscriber identifiers from e-mail addresses.
package marketing

import (
	"net/http"
)

// EnsureSuccess returns nil when resp has a 2xx status and an Error otherwise.
//
// The body is left untouched on success and on 404. For every other status it
// is read to the end and closed; a body that is not a JSON error document is
// reported as a *DecodeError.
func EnsureSuccess(resp *http.Response) error {
	if resp == nil {
		return ErrNilResponse
	}

	if isSuccess(resp.StatusCode) {
		return nil
	}

	if resp.StatusCode == http.StatusNotFound {
		return &NotFoundError{URI: requestURI(resp)}
	}

	payload, err := Decode[ErrorPayload](resp.Body)
	if err != nil {
		return &DecodeError{StatusCode: resp.StatusCode, Err: err}
	}

	return newServiceError(resp.StatusCode, payload)
}

func isSuccess(status int) bool {
	return status >= http.StatusOK && status < http.StatusMultipleChoices
}

// requestURI returns the URI of the request that produced resp.
func requestURI(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return ""
	}

	return resp.Request.URL.String()
}

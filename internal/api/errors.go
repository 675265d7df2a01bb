package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/stevepentland/swarmer/internal/swarmerr"
)

// statusFor maps a swarmerr kind to an HTTP status code, the
// centralized table spec.md §7 calls for in place of Falcon's
// per-resource exception handling.
func statusFor(err error) (int, string) {
	var validation *swarmerr.ValidationError
	var notFound *swarmerr.NotFoundError
	var store *swarmerr.StoreError
	var backend *swarmerr.BackendError
	var credential *swarmerr.CredentialError

	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, validation.Error()
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error()
	case errors.As(err, &store):
		return http.StatusServiceUnavailable, store.Error()
	case errors.As(err, &backend):
		return http.StatusBadGateway, backend.Error()
	case errors.As(err, &credential):
		return http.StatusInternalServerError, credential.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func jsonEncode(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

package vecrank

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotReady is returned by WaitReady when the service never answered.
var ErrNotReady = errors.New("vecrank: service not ready")

// APIError is a non-2xx response from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("vecrank: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("vecrank: %d: %s", e.Status, e.Message)
}

// IsBadRequest reports whether err is a 400 response.
func IsBadRequest(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusBadRequest
}

package pr2

import (
	"errors"
	"fmt"
)

// ErrLevelNotFound indicates the server has no level at the requested id/version
var ErrLevelNotFound = errors.New("level not found on PR2 server")

// ErrSearchInProgress is returned when a search is started while another one is running
var ErrSearchInProgress = errors.New("search is already in progress")

// ServerError represents a 5xx error from the PR2 server
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("PR2 server error: HTTP %d", e.StatusCode)
}

// RemoteError is an application-level error reported in the response body
// ("error=..."), with a 200 status.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return "PR2 server: " + e.Message
}

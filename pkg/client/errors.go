package client

import (
	"errors"
	"fmt"
)

// ErrTransport marks failures to reach the service or decode its reply.
var ErrTransport = errors.New("transport failure")

// RemoteError is an error reported by the service itself.
type RemoteError struct {
	Method  string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Status != 0 && e.Status != 200 {
		return fmt.Sprintf("%s failed (status %d): %s", e.Method, e.Status, e.Message)
	}
	return fmt.Sprintf("%s failed: %s", e.Method, e.Message)
}

// AsRemote returns the service-reported error in err, if any.
func AsRemote(err error) (*RemoteError, bool) {
	var re *RemoteError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}

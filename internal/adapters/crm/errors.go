package crm

import (
	"errors"
	"fmt"
)

// Sentinel kinds for CRM client errors.
var (
	ErrRequest      = errors.New("crm request failed")
	ErrRemoteStatus = errors.New("crm returned error status")
	ErrDecode       = errors.New("crm response decode failed")
)

// APIError is returned for any non-2xx response. When the body is a CRM error
// document its fields are populated; Body always holds the raw payload.
type APIError struct {
	StatusCode    int    `json:"-"`
	Status        string `json:"status"`
	Message       string `json:"message"`
	Category      string `json:"category"`
	CorrelationID string `json:"correlationId"`
	Body          string `json:"-"`
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "" && e.Category != "":
		return fmt.Sprintf("crm: status %d: %s: %s", e.StatusCode, e.Category, e.Message)
	case e.Message != "":
		return fmt.Sprintf("crm: status %d: %s", e.StatusCode, e.Message)
	case e.Body != "":
		return fmt.Sprintf("crm: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("crm: status %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrRemoteStatus) match any APIError.
func (e *APIError) Is(target error) bool {
	return target == ErrRemoteStatus
}

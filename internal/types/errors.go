package types

import (
	"errors"
	"fmt"
)

// Startup errors. These are the only kinds allowed to terminate the process.
var (
	ErrUnsupportedProvider = errors.New("unsupported LLM provider")
	ErrMissingCredential   = errors.New("missing API credential")
)

// Recoverable errors. Each is absorbed into text visible to the model or the user.
var (
	ErrStreamProtocolAnomaly = errors.New("stream protocol anomaly")
	ErrMalformedArguments    = errors.New("malformed tool arguments")
	ErrToolTransport         = errors.New("tool transport failure")
	ErrToolApplication       = errors.New("tool application failure")
	ErrTurnFatal             = errors.New("turn failed")
	ErrHistoryShape          = errors.New("history shape violation")
)

// APIError is returned by providers when the LLM endpoint answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm http %d: %s", e.StatusCode, e.Body)
}

package cms

import (
	"encoding/json"
	"fmt"
)

// Error codes produced by the client. Remote error names are passed through
// verbatim alongside these.
const (
	CodeNetworkError    = "NETWORK_ERROR"
	CodeTimeoutError    = "TIMEOUT_ERROR"
	CodeUnknownError    = "UNKNOWN_ERROR"
	CodeStrapiError     = "STRAPI_ERROR"
	CodeNoDailyStory    = "NO_DAILY_STORY"
	CodeCMSUnavailable  = "CMS_UNAVAILABLE"
	CodeInvalidTimezone = "INVALID_TIMEZONE"
	CodeInvalidQuery    = "INVALID_QUERY"
	CodeNotFound        = "NotFoundError"
)

type APIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	StatusCode int            `json:"statusCode"`
	Details    map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is either a success carrying Data or a failure carrying Error.
// Callers must check Success before reading Data.
type Result[T any] struct {
	Success bool
	Data    T
	Error   *APIError
}

func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func Fail[T any](err *APIError) Result[T] {
	return Result[T]{Error: err}
}

// Unwrap converts the result to Go's (value, error) form.
func (r Result[T]) Unwrap() (T, error) {
	if !r.Success {
		var zero T
		if r.Error == nil {
			return zero, &APIError{Code: CodeUnknownError, Message: "An unexpected error occurred"}
		}
		return zero, r.Error
	}
	return r.Data, nil
}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.Data})
	}
	return json.Marshal(struct {
		Success bool      `json:"success"`
		Error   *APIError `json:"error"`
	}{false, r.Error})
}

func (r *Result[T]) UnmarshalJSON(b []byte) error {
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*r = Result[T]{Success: raw.Success, Error: raw.Error}
	if raw.Success && len(raw.Data) > 0 {
		return json.Unmarshal(raw.Data, &r.Data)
	}
	return nil
}

package github

// Error is a GitHub failure carrying the HTTP status to report to the caller.
type Error struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an Error reported to callers with status.
func NewError(status int, message string) *Error {
	return &Error{Message: message, StatusCode: status}
}

func wrapError(status int, message string, err error) *Error {
	return &Error{Message: message, StatusCode: status, Err: err}
}

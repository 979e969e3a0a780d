package service

// StatusError carries the HTTP status a failure should surface with.
// Controllers unwrap it; anything else becomes a 500.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

func newStatusError(status int, message string) *StatusError {
	return &StatusError{Status: status, Message: message}
}

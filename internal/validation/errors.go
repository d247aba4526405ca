package validation

import "errors"

// ValidationError describes rejected user input.
// It is returned before any request leaves the client.
type ValidationError struct {
	Field   string // имя поля (title, url, username, password)
	Message string // сообщение для пользователя
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

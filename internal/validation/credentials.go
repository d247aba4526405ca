package validation

import (
	"fmt"
	"regexp"
)

// UsernamePattern определяет допустимый формат username
// Только латинские буквы (a-z, A-Z), цифры (0-9), нижнее подчеркивание (_)
var UsernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

const (
	// MinUsernameLen минимальная длина username
	MinUsernameLen = 3
	// MaxUsernameLen максимальная длина username
	MaxUsernameLen = 32
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 12
)

// ValidateUsername проверяет, что username соответствует требованиям
func ValidateUsername(username string) error {
	switch {
	case username == "":
		return invalid("username", "username cannot be empty")
	case len(username) < MinUsernameLen:
		return invalid("username", fmt.Sprintf("username must be at least %d characters long", MinUsernameLen))
	case len(username) > MaxUsernameLen:
		return invalid("username", fmt.Sprintf("username must not exceed %d characters", MaxUsernameLen))
	case !UsernamePattern.MatchString(username):
		return invalid("username", "username can only contain letters (a-z, A-Z), numbers (0-9), and underscores (_)")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password", "password cannot be empty")
	}

	if len(password) < MinPasswordLen {
		return invalid("password", fmt.Sprintf("password must be at least %d characters long", MinPasswordLen))
	}

	return nil
}

package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrForbidden          = errors.New("not authorized")
	ErrAlreadyPaid        = errors.New("order is already paid")
	ErrInvalidToken       = errors.New("invalid refresh token")
)

// ValidationError — ошибка входных данных, текст отдаётся клиенту как есть
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

package service

import (
	"errors"
	"fmt"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION_ERROR"
	CodeStaleSnapshot  = "STALE_SNAPSHOT"
	CodeMoveIncomplete = "MOVE_INCOMPLETE"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource, id string) *BusinessError {
	return NewBusinessError(CodeNotFound,
		fmt.Sprintf("%s %s не найден(а)", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation,
		fmt.Sprintf("Неверное значение поля '%s': %s", field, reason),
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewStaleSnapshot(err error) *BusinessError {
	busErr := NewBusinessError(CodeStaleSnapshot, "Доска изменилась, обновите данные и повторите перемещение")
	busErr.Err = err
	return busErr
}

func NewMoveIncomplete(applied, failed []string, err error) *BusinessError {
	busErr := NewBusinessError(CodeMoveIncomplete,
		"Перемещение применено частично, повторите его целиком",
		ToDetail("applied", applied),
		ToDetail("failed", failed),
	)
	busErr.Err = err
	return busErr
}

// AsBusinessError достаёт BusinessError из цепочки ошибок.
func AsBusinessError(err error) (*BusinessError, bool) {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr, true
	}
	return nil, false
}

func IsCode(err error, code string) bool {
	busErr, ok := AsBusinessError(err)
	return ok && busErr.Code == code
}

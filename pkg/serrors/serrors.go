package serrors

import "fmt"

// BaseError is a coded error shared across all modules. Code is stable and
// machine-readable; Message is for operators, LocalizationKey for the UI layer.
type BaseError struct {
	Code            string
	Message         string
	LocalizationKey string
}

func NewError(code, message, localizationKey string) *BaseError {
	return &BaseError{
		Code:            code,
		Message:         message,
		LocalizationKey: localizationKey,
	}
}

func (e *BaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches errors by code so wrapped instances still compare equal.
func (e *BaseError) Is(target error) bool {
	t, ok := target.(*BaseError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

package booking

import "fmt"

// MatchError means no doctor could be matched for a consultation.
type MatchError struct {
	Code    string
	Message string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewMatchError(msg string) error {
	return &MatchError{
		Code:    "noDoctorAvailable",
		Message: msg,
	}
}

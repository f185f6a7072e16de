package form

import (
	"errors"
	"fmt"

	"github.com/zobayer1/bankzest/internal/schema"
)

var (
	ErrUnknownField = errors.New("unknown form field")
	// ErrEmptyIdentity marks a call that reported success without returning an identity.
	ErrEmptyIdentity = errors.New("authenticator returned no identity")
	ErrPanic         = errors.New("authenticator panicked")
)

// SubmitError is an external failure normalised for display. Display is safe to show;
// Internal is only logged.
type SubmitError struct {
	Display  string
	Internal error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Display, e.Internal)
}

func (e *SubmitError) Unwrap() error {
	return e.Internal
}

func newSubmitError(mode schema.Mode, cause error) *SubmitError {
	display := "Unable to sign in. Please try again."
	if mode == schema.SignUp {
		display = "Registration failed. Please try again."
	}
	return &SubmitError{Display: display, Internal: cause}
}

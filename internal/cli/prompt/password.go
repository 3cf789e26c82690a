package prompt

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
)

// ErrPasswordMismatch is returned when the confirmation differs.
var ErrPasswordMismatch = errors.New("passwords do not match")

func minLength(n int) promptui.ValidateFunc {
	return func(input string) error {
		if len(input) < n {
			return fmt.Errorf("password must be at least %d characters", n)
		}
		return nil
	}
}

func masked(label string, validate promptui.ValidateFunc) (string, error) {
	p := promptui.Prompt{Label: label, Mask: '*', Validate: validate}
	v, err := p.Run()
	return v, wrapError(err)
}

// Password reads a masked secret of at least n characters.
func Password(label string, n int) (string, error) {
	return masked(label, minLength(n))
}

// NewPassword reads a new password twice. The confirmation must match.
func NewPassword(n int) (string, error) {
	password, err := Password("Password", n)
	if err != nil {
		return "", err
	}

	confirm, err := masked("Confirm password", nil)
	if err != nil {
		return "", err
	}
	if confirm != password {
		return "", ErrPasswordMismatch
	}
	return password, nil
}

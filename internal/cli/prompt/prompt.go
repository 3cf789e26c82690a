// Package prompt provides interactive terminal prompts for CLI commands.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
)

// ErrAborted is returned when the user aborts a prompt (Ctrl+C).
var ErrAborted = errors.New("aborted")

// IsAborted returns true if the error indicates the user aborted (Ctrl+C).
func IsAborted(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) || errors.Is(err, ErrAborted)
}

// wrapError converts promptui interrupt/abort errors to ErrAborted.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if IsAborted(err) {
		return ErrAborted
	}
	return err
}

// InputOptional prompts for optional text input. Enter alone returns "".
func InputOptional(label string) (string, error) {
	prompt := promptui.Prompt{Label: label + " (optional)"}

	result, err := prompt.Run()
	return strings.TrimSpace(result), wrapError(err)
}

// Option is an item in a selection list.
type Option struct {
	Label string
	Value string
}

// Select prompts the user to pick one option and returns its value.
func Select(label string, options []Option) (string, error) {
	prompt := promptui.Select{
		Label: label,
		Items: options,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "> {{ .Label | cyan }}",
			Inactive: "  {{ .Label | white }}",
			Selected: "* {{ .Label | green }}",
		},
		Size: 10,
	}

	i, _, err := prompt.Run()
	if err != nil {
		return "", wrapError(err)
	}
	return options[i].Value, nil
}

// ConfirmWithForce returns true immediately when force is set, otherwise it
// asks for a yes/no answer defaulting to no.
func ConfirmWithForce(label string, force bool) (bool, error) {
	if force {
		return true, nil
	}

	prompt := promptui.Prompt{
		Label:     fmt.Sprintf("%s [y/N]", label),
		IsConfirm: true,
	}

	result, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, ErrAborted
		}
		// promptui reports a "n" answer and an empty answer as ErrAbort.
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}

	answer := strings.ToLower(result)
	return answer == "y" || answer == "yes", nil
}
